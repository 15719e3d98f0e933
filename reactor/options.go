// Copyright (c) 2025 BVK Chaitanya

package reactor

import (
	"fmt"
	"time"

	"github.com/visvasity/topic"
)

type Options struct {
	// TestMode when true skips setting the web session cookies on the trade
	// manager and attaches the trade offer listeners unconditionally.
	TestMode bool

	// SteamGuardRetryDelay is the time to wait before submitting a fresh
	// two-factor code after the service asks for one.
	SteamGuardRetryDelay time.Duration

	// SetCookiesTimeout is the max time to wait for the trade manager to
	// accept new web session cookies.
	SetCookiesTimeout time.Duration

	// Events if non-nil receives the reactor events. Callers that must not
	// miss events published during New should create the topic and subscribe
	// to it before creating the reactor. Topic is not closed by the reactor.
	Events *topic.Topic[Event]
}

func (v *Options) setDefaults() {
	if v.SteamGuardRetryDelay == 0 {
		v.SteamGuardRetryDelay = 30 * time.Second
	}
	if v.SetCookiesTimeout == 0 {
		v.SetCookiesTimeout = 30 * time.Second
	}
}

func (v *Options) Check() error {
	if v.SteamGuardRetryDelay < 0 {
		return fmt.Errorf("steam guard retry delay cannot be negative")
	}
	if v.SetCookiesTimeout < 0 {
		return fmt.Errorf("set cookies timeout cannot be negative")
	}
	return nil
}
