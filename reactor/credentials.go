// Copyright (c) 2025 BVK Chaitanya

package reactor

import (
	"encoding/base64"
	"fmt"
)

// DefaultPlayingGameName is the activity string displayed for the bot
// account when Credentials doesn't specify one.
const DefaultPlayingGameName = "🔰 Running Sentinel"

type Credentials struct {
	SteamID     string `json:"steamid"`
	AccountName string `json:"accountName"`
	Password    string `json:"password"`

	// SharedSecret is the base64 encoded two-factor shared secret.
	SharedSecret string `json:"sharedSecret"`

	// LogonID distinguishes concurrent logins to the same account. A random
	// value is used when zero.
	LogonID uint32 `json:"logonID,omitempty"`

	PlayingGameName string `json:"playingGameName,omitempty"`
}

func (v *Credentials) Check() error {
	if len(v.AccountName) == 0 {
		return fmt.Errorf("account name cannot be empty")
	}
	if len(v.Password) == 0 {
		return fmt.Errorf("password cannot be empty")
	}
	if len(v.SharedSecret) == 0 {
		return fmt.Errorf("shared secret cannot be empty")
	}
	if _, err := base64.StdEncoding.DecodeString(v.SharedSecret); err != nil {
		return fmt.Errorf("shared secret must be base64 encoded: %w", err)
	}
	return nil
}

func (v *Credentials) Clone() *Credentials {
	c := *v
	return &c
}

func (v *Credentials) gameName() string {
	if len(v.PlayingGameName) != 0 {
		return v.PlayingGameName
	}
	return DefaultPlayingGameName
}
