// Copyright (c) 2025 BVK Chaitanya

package reactor

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/bvk/sentinel/tradeoffer"
)

type recordHandler struct {
	level slog.Level

	mu      sync.Mutex
	records []slog.Record
}

func (h *recordHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *recordHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordHandler) WithGroup(string) slog.Handler      { return h }

// payloads returns the payload attributes of the publish log records.
func (h *recordHandler) payloads() []any {
	h.mu.Lock()
	defer h.mu.Unlock()

	var vs []any
	for _, r := range h.records {
		if r.Message != "publishing event" {
			continue
		}
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == "payload" {
				vs = append(vs, a.Value.Any())
			}
			return true
		})
	}
	return vs
}

func withLogHandler(t *testing.T, h slog.Handler) {
	old := slog.Default()
	slog.SetDefault(slog.New(h))
	t.Cleanup(func() { slog.SetDefault(old) })
}

func TestPublishLogLevel(t *testing.T) {
	info := &recordHandler{level: slog.LevelInfo}
	withLogHandler(t, info)

	tr := newTestReactor(t, nil, &Options{TestMode: true})
	tr.session.FireWebSession("abc", nil)
	tr.next(t)

	m := tr.session.TradeManager()
	m.CreateOffer(&tradeoffer.Offer{Partner: "76561197960287931"})
	tr.next(t)
	if vs := info.payloads(); len(vs) != 0 {
		t.Fatalf("want no publish records at info level, got %d", len(vs))
	}

	debug := &recordHandler{level: slog.LevelDebug}
	withLogHandler(t, debug)

	m.CreateOffer(&tradeoffer.Offer{Partner: "76561197960287931"})
	tr.next(t)

	vs := debug.payloads()
	if len(vs) != 1 {
		t.Fatalf("want one publish record at debug level, got %d", len(vs))
	}
	ev, ok := vs[0].(*NewTradeEvent)
	if !ok {
		t.Fatalf("want a new trade event payload, got %T", vs[0])
	}
	if ev.Offer == nil || ev.Offer.Manager != nil {
		t.Fatalf("logged offer must not carry the manager reference")
	}
}
