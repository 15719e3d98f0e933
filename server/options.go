// Copyright (c) 2023 BVK Chaitanya

package server

import (
	"fmt"
	"time"

	"github.com/bvk/sentinel/feed"
	"github.com/bvk/sentinel/notifier"
)

type Options struct {
	// TestMode is passed to the reactor. Web session cookies are not given to
	// the trade manager in test mode.
	TestMode bool

	// NoNotify when true disables the telegram and pushover notifications.
	NoNotify bool

	// SettleTimeout is the max time to resolve the exchange details of a
	// completed trade.
	SettleTimeout time.Duration

	// JournalRetention is the age of journal entries removed by the periodic
	// pruning. Zero value keeps all entries.
	JournalRetention time.Duration

	// PruneInterval is the time between journal pruning runs.
	PruneInterval time.Duration

	Notifier notifier.Options

	Feed feed.Options
}

func (v *Options) setDefaults() {
	if v.SettleTimeout == 0 {
		v.SettleTimeout = time.Minute
	}
	if v.PruneInterval == 0 {
		v.PruneInterval = time.Hour
	}
}

func (v *Options) Check() error {
	if v.SettleTimeout < 0 {
		return fmt.Errorf("settle timeout cannot be negative")
	}
	if v.JournalRetention < 0 {
		return fmt.Errorf("journal retention cannot be negative")
	}
	if v.PruneInterval < 0 {
		return fmt.Errorf("prune interval cannot be negative")
	}
	return nil
}
