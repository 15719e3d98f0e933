// Copyright (c) 2025 BVK Chaitanya

// Package journal records reactor events into the key-value database. Event
// payloads are sanitized and stored as JSON so that entries can be listed
// without the session that produced them.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"runtime/debug"
	"time"

	"github.com/bvk/sentinel/gobs"
	"github.com/bvk/sentinel/kvutil"
	"github.com/bvk/sentinel/reactor"
	"github.com/bvkgo/kv"
	"github.com/google/uuid"
	"github.com/visvasity/topic"
)

const KeyPrefix = "/journal"

// TradeSettled is the journal event name for the exchange details of a
// completed trade.
const TradeSettled = "TradeSettled"

// keyTimeFormat is fixed-width so that keys sort in time order.
const keyTimeFormat = "20060102T150405.000000000Z"

type Journal struct {
	db kv.Database
}

func New(db kv.Database) (*Journal, error) {
	if db == nil {
		return nil, os.ErrInvalid
	}
	return &Journal{db: db}, nil
}

func entryKey(at time.Time, id string) string {
	return path.Join(KeyPrefix, at.UTC().Format(keyTimeFormat), id)
}

// Record saves the event with its sanitized payload.
func (j *Journal) Record(ctx context.Context, ev reactor.Event) (*gobs.JournalEntry, error) {
	return j.RecordPayload(ctx, ev.EventName(), ev)
}

// RecordPayload saves a named entry with the sanitized payload.
func (j *Journal) RecordPayload(ctx context.Context, name string, payload any) (*gobs.JournalEntry, error) {
	if len(name) == 0 {
		return nil, fmt.Errorf("event name cannot be empty: %w", os.ErrInvalid)
	}
	data, err := json.Marshal(reactor.Sanitize(payload))
	if err != nil {
		return nil, fmt.Errorf("could not json-encode %s payload: %w", name, err)
	}
	entry := &gobs.JournalEntry{
		ID:      uuid.New().String(),
		Time:    time.Now(),
		Event:   name,
		Payload: data,
	}
	if err := kvutil.SetDB(ctx, j.db, entryKey(entry.Time, entry.ID), entry); err != nil {
		return nil, fmt.Errorf("could not save journal entry: %w", err)
	}
	return entry, nil
}

// List returns the entries recorded at or after the since timestamp in the
// order they were recorded. Zero since value returns all entries.
func (j *Journal) List(ctx context.Context, since time.Time) ([]*gobs.JournalEntry, error) {
	begin, end := kvutil.PathRange(KeyPrefix)
	if !since.IsZero() {
		begin = path.Join(KeyPrefix, since.UTC().Format(keyTimeFormat))
	}

	var entries []*gobs.JournalEntry
	collect := func(_ context.Context, _ kv.Reader, _ string, v *gobs.JournalEntry) error {
		entries = append(entries, v)
		return nil
	}
	if err := kvutil.AscendDB(ctx, j.db, begin, end, collect); err != nil {
		return nil, fmt.Errorf("could not scan journal entries: %w", err)
	}
	return entries, nil
}

// Last returns the most recently recorded entry. Returns os.ErrNotExist if
// the journal is empty.
func (j *Journal) Last(ctx context.Context) (*gobs.JournalEntry, error) {
	begin, end := kvutil.PathRange(KeyPrefix)
	key, entry, err := kvutil.LastDB[gobs.JournalEntry](ctx, j.db, begin, end)
	if err != nil {
		return nil, err
	}
	if len(key) == 0 {
		return nil, os.ErrNotExist
	}
	return entry, nil
}

// Prune removes the entries recorded before the input timestamp and returns
// the number of entries removed.
func (j *Journal) Prune(ctx context.Context, before time.Time) (n int, err error) {
	begin, _ := kvutil.PathRange(KeyPrefix)
	end := path.Join(KeyPrefix, before.UTC().Format(keyTimeFormat))
	err = kv.WithReadWriter(ctx, j.db, func(ctx context.Context, rw kv.ReadWriter) error {
		n, err = kvutil.DeleteRange(ctx, rw, begin, end)
		return err
	})
	return n, err
}

// Run records the events received from the receiver till the context is
// canceled or the receiver is closed.
func (j *Journal) Run(ctx context.Context, receiver *topic.Receiver[reactor.Event]) error {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("CAUGHT PANIC", "panic", r)
			slog.Error(string(debug.Stack()))
			panic(r)
		}
	}()

	stopf := context.AfterFunc(ctx, receiver.Close)
	defer stopf()

	for ctx.Err() == nil {
		ev, err := receiver.Receive()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return err
		}
		if _, err := j.Record(ctx, ev); err != nil {
			if errors.Is(err, context.Cause(ctx)) {
				break
			}
			slog.Error("could not record event (ignored)", "event", ev.EventName(), "err", err)
		}
	}
	return context.Cause(ctx)
}
