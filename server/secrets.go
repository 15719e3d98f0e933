// Copyright (c) 2023 BVK Chaitanya

package server

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bvk/sentinel/pushover"
	"github.com/bvk/sentinel/reactor"
	"github.com/bvk/sentinel/telegram"
)

type Secrets struct {
	Steam    *reactor.Credentials `json:"steam"`
	Pushover *pushover.Keys       `json:"pushover,omitempty"`
	Telegram *telegram.Secrets    `json:"telegram,omitempty"`
}

func SecretsFromFile(fpath string) (*Secrets, error) {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}
	s := new(Secrets)
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("could not parse secrets file %q: %w", fpath, err)
	}
	if err := s.Check(); err != nil {
		return nil, fmt.Errorf("invalid secrets in file %q: %w", fpath, err)
	}
	return s, nil
}

// SaveToFile writes the secrets atomically into a file readable only by the
// current user.
func (v *Secrets) SaveToFile(fpath string) (status error) {
	if err := v.Check(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("could not json-encode secrets: %w", err)
	}

	fp, err := os.CreateTemp(filepath.Dir(fpath), ".secrets*")
	if err != nil {
		return fmt.Errorf("could not create temp file: %w", err)
	}
	defer func() {
		fp.Close()
		if status != nil {
			os.Remove(fp.Name())
		}
	}()

	if err := fp.Chmod(0600); err != nil {
		return fmt.Errorf("could not change temp file permissions: %w", err)
	}
	if _, err := fp.Write(data); err != nil {
		return fmt.Errorf("could not write secrets: %w", err)
	}
	if err := fp.Sync(); err != nil {
		return fmt.Errorf("could not sync secrets file: %w", err)
	}
	if err := os.Rename(fp.Name(), fpath); err != nil {
		return fmt.Errorf("could not rename temp file to %q: %w", fpath, err)
	}
	return nil
}

func (v *Secrets) Check() error {
	if v.Steam == nil {
		return fmt.Errorf("steam credentials are required")
	}
	if err := v.Steam.Check(); err != nil {
		return fmt.Errorf("invalid steam credentials: %w", err)
	}
	if v.Telegram != nil {
		if err := v.Telegram.Check(); err != nil {
			return fmt.Errorf("invalid telegram secrets: %w", err)
		}
	}
	if v.Pushover != nil {
		if err := v.Pushover.Check(); err != nil {
			return fmt.Errorf("invalid pushover keys: %w", err)
		}
	}
	return nil
}
