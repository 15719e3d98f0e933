// Copyright (c) 2023 BVK Chaitanya

package db

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"

	"github.com/bvk/sentinel/gobs"
)

// TypeNameValue returns a pointer to a new value for the gob type name.
func TypeNameValue(typename string) (any, error) {
	var v any
	switch typename {
	case "JournalEntry":
		v = new(gobs.JournalEntry)
	case "ServerState":
		v = new(gobs.ServerState)
	case "TelegramState":
		v = new(gobs.TelegramState)
	default:
		return nil, fmt.Errorf("unsupported type name %q", typename)
	}
	return v, nil
}

// decodeJSON gob-decodes the value as typename and returns it as JSON.
func decodeJSON(typename string, r io.Reader) ([]byte, error) {
	value, err := TypeNameValue(typename)
	if err != nil {
		return nil, err
	}
	if err := gob.NewDecoder(r).Decode(value); err != nil {
		return nil, fmt.Errorf("could not gob-decode value as %s: %w", typename, err)
	}
	return json.Marshal(value)
}
