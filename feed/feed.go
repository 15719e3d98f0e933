// Copyright (c) 2025 BVK Chaitanya

// Package feed streams reactor events to websocket clients as JSON messages.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bvk/sentinel/ctxutil"
	"github.com/bvk/sentinel/reactor"
	"github.com/gorilla/websocket"
	"github.com/visvasity/topic"
)

// Message is the JSON object sent for every event.
type Message struct {
	Event   string          `json:"event"`
	Time    time.Time       `json:"time"`
	Payload json.RawMessage `json:"payload"`
}

// NewMessage returns the feed message for an event with the sanitized
// payload.
func NewMessage(at time.Time, ev reactor.Event) (*Message, error) {
	data, err := json.Marshal(reactor.Sanitize(ev))
	if err != nil {
		return nil, fmt.Errorf("could not json-encode %s payload: %w", ev.EventName(), err)
	}
	return &Message{Event: ev.EventName(), Time: at, Payload: data}, nil
}

type Options struct {
	// QueueSize is the max number of events buffered per client. Zero value
	// uses the default; older events are dropped for the slow clients.
	QueueSize int

	WriteTimeout time.Duration

	PingInterval time.Duration
}

func (v *Options) setDefaults() {
	if v.QueueSize == 0 {
		v.QueueSize = 100
	}
	if v.WriteTimeout == 0 {
		v.WriteTimeout = 10 * time.Second
	}
	if v.PingInterval == 0 {
		v.PingInterval = 30 * time.Second
	}
}

func (v *Options) Check() error {
	if v.QueueSize < 0 {
		return fmt.Errorf("queue size cannot be negative")
	}
	if v.WriteTimeout < 0 || v.PingInterval < 0 {
		return fmt.Errorf("timeouts cannot be negative")
	}
	return nil
}

type Feed struct {
	cg ctxutil.CloseGroup

	opts Options

	events *topic.Topic[reactor.Event]

	upgrader websocket.Upgrader
}

var _ http.Handler = &Feed{}

func New(events *topic.Topic[reactor.Event], opts *Options) (*Feed, error) {
	if events == nil {
		return nil, os.ErrInvalid
	}
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	f := &Feed{
		opts:   *opts,
		events: events,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	return f, nil
}

// Close disconnects all clients.
func (f *Feed) Close() error {
	f.cg.Close()
	return nil
}

func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := f.cg.Context().Err(); err != nil {
		http.Error(w, "feed is closed", http.StatusServiceUnavailable)
		return
	}

	receiver, err := topic.Subscribe(f.events, f.opts.QueueSize, false /* includeRecent */)
	if err != nil {
		slog.Error("could not subscribe to events", "err", err)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer receiver.Close()

	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("could not upgrade to websocket", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer conn.Close()

	slog.Info("event feed client is connected", "remote", r.RemoteAddr)
	defer slog.Info("event feed client is disconnected", "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancelCause(r.Context())
	defer cancel(nil)

	stopf := context.AfterFunc(f.cg.Context(), func() { cancel(os.ErrClosed) })
	defer stopf()

	// Control frames are handled by the reader; a read failure means the
	// client has gone away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel(err)
				return
			}
		}
	}()

	eventCh, err := topic.ReceiveCh(receiver)
	if err != nil {
		slog.Error("could not create receive channel", "err", err)
		return
	}

	ticker := time.NewTicker(f.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			deadline := time.Now().Add(f.opts.WriteTimeout)
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			conn.WriteControl(websocket.CloseMessage, msg, deadline)
			return

		case <-ticker.C:
			deadline := time.Now().Add(f.opts.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}

		case ev, ok := <-eventCh:
			if !ok {
				return
			}
			msg, err := NewMessage(time.Now(), ev)
			if err != nil {
				slog.Error("could not create feed message (ignored)", "event", ev.EventName(), "err", err)
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(f.opts.WriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				slog.Warn("could not write to feed client", "remote", r.RemoteAddr, "err", err)
				return
			}
		}
	}
}
