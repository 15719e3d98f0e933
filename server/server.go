// Copyright (c) 2023 BVK Chaitanya

// Package server runs the reactor for one account and wires its events into
// the journal, the notifiers and the websocket event feed.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/bvk/sentinel/feed"
	"github.com/bvk/sentinel/gobs"
	"github.com/bvk/sentinel/journal"
	"github.com/bvk/sentinel/kvutil"
	"github.com/bvk/sentinel/notifier"
	"github.com/bvk/sentinel/pushover"
	"github.com/bvk/sentinel/reactor"
	"github.com/bvk/sentinel/steam"
	"github.com/bvk/sentinel/telegram"
	"github.com/bvkgo/kv"
	"github.com/visvasity/topic"
)

const StateKey = "/server/state"

type Server struct {
	lifeCtx    context.Context
	lifeCancel context.CancelCauseFunc

	wg sync.WaitGroup

	opts Options

	db kv.Database

	secrets *Secrets

	backend steam.Backend

	events *topic.Topic[reactor.Event]

	journal *journal.Journal

	feed *feed.Feed

	notifier *notifier.Notifier

	telegramClient *telegram.Client

	mu      sync.Mutex
	reactor *reactor.Reactor
	state   *gobs.ServerState
}

// New creates a server with the notification clients configured in the
// secrets. Session is not started till Start is called.
func New(ctx context.Context, secrets *Secrets, db kv.Database, backend steam.Backend, opts *Options) (_ *Server, status error) {
	if db == nil || backend == nil {
		return nil, os.ErrInvalid
	}
	if err := secrets.Check(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}

	state, err := kvutil.GetDB[gobs.ServerState](ctx, db, StateKey)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("could not load server state: %w", err)
		}
		state = new(gobs.ServerState)
	}

	j, err := journal.New(db)
	if err != nil {
		return nil, err
	}

	events := topic.New[reactor.Event]()
	defer func() {
		if status != nil {
			events.Close()
		}
	}()

	f, err := feed.New(events, &opts.Feed)
	if err != nil {
		return nil, err
	}

	lifeCtx, lifeCancel := context.WithCancelCause(context.Background())
	s := &Server{
		lifeCtx:    lifeCtx,
		lifeCancel: lifeCancel,
		opts:       *opts,
		db:         db,
		secrets:    secrets,
		backend:    backend,
		events:     events,
		journal:    j,
		feed:       f,
		state:      state,
	}
	defer func() {
		if status != nil {
			s.lifeCancel(status)
			if s.telegramClient != nil {
				s.telegramClient.Close()
			}
		}
	}()

	if !opts.NoNotify {
		var senders []notifier.Sender
		if secrets.Telegram != nil {
			client, err := telegram.New(ctx, db, secrets.Telegram)
			if err != nil {
				return nil, fmt.Errorf("could not create telegram client: %w", err)
			}
			s.telegramClient = client
			senders = append(senders, client)

			if err := client.AddCommand(ctx, "status", "Prints the session status", s.statusCmd); err != nil {
				return nil, err
			}
		}
		if secrets.Pushover != nil {
			client, err := pushover.New(secrets.Pushover, nil)
			if err != nil {
				return nil, fmt.Errorf("could not create pushover client: %w", err)
			}
			senders = append(senders, client)
		}
		if len(senders) != 0 {
			n, err := notifier.New(senders, &opts.Notifier)
			if err != nil {
				return nil, err
			}
			s.notifier = n
		}
	}
	return s, nil
}

// Close stops the session and waits for all background goroutines.
func (s *Server) Close() error {
	s.lifeCancel(os.ErrClosed)

	s.mu.Lock()
	r := s.reactor
	s.mu.Unlock()
	if r != nil {
		r.Close()
	}

	s.wg.Wait()
	s.feed.Close()
	if s.telegramClient != nil {
		s.telegramClient.Close()
	}
	s.events.Close()
	return nil
}

// Start subscribes the event consumers and starts the session login. Login
// progress is reported through the events.
func (s *Server) Start(ctx context.Context) (status error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reactor != nil {
		return os.ErrExist
	}
	if err := context.Cause(s.lifeCtx); err != nil {
		return err
	}

	var receivers []*topic.Receiver[reactor.Event]
	subscribe := func() (*topic.Receiver[reactor.Event], error) {
		r, err := topic.Subscribe(s.events, 0, false /* includeRecent */)
		if err != nil {
			return nil, err
		}
		receivers = append(receivers, r)
		return r, nil
	}
	defer func() {
		if status != nil {
			for _, r := range receivers {
				r.Close()
			}
		}
	}()

	journalReceiver, err := subscribe()
	if err != nil {
		return err
	}
	watchReceiver, err := subscribe()
	if err != nil {
		return err
	}
	var notifyReceiver *topic.Receiver[reactor.Event]
	if s.notifier != nil {
		if notifyReceiver, err = subscribe(); err != nil {
			return err
		}
	}

	ropts := &reactor.Options{
		TestMode: s.opts.TestMode,
		Events:   s.events,
	}
	r, err := reactor.New(s.secrets.Steam, s.backend, ropts)
	if err != nil {
		return fmt.Errorf("could not create reactor: %w", err)
	}
	s.reactor = r

	s.goRun("journal", func(ctx context.Context) error {
		return s.journal.Run(ctx, journalReceiver)
	})
	s.goRun("watcher", func(ctx context.Context) error {
		return s.watch(ctx, watchReceiver)
	})
	if notifyReceiver != nil {
		steamID := s.secrets.Steam.SteamID
		s.goRun("notifier", func(ctx context.Context) error {
			return s.notifier.Run(ctx, steamID, notifyReceiver)
		})
	}
	if s.opts.JournalRetention > 0 {
		s.goRun("pruner", s.pruneJournal)
	}
	return nil
}

func (s *Server) goRun(name string, fn func(context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		defer func() {
			if r := recover(); r != nil {
				slog.Error("CAUGHT PANIC", "panic", r)
				slog.Error(string(debug.Stack()))
				panic(r)
			}
		}()

		if err := fn(s.lifeCtx); err != nil && !errors.Is(err, context.Cause(s.lifeCtx)) {
			slog.Error("background goroutine has failed", "name", name, "err", err)
		}
	}()
}

// HandlerMap returns the http handlers for the server.
func (s *Server) HandlerMap() map[string]http.Handler {
	return map[string]http.Handler{
		"/events": s.feed,
		"/status": http.HandlerFunc(s.serveStatus),
	}
}

// Journal returns the journal recording the events.
func (s *Server) Journal() *journal.Journal {
	return s.journal
}

// Subscribe returns a receiver for the events published after the call.
func (s *Server) Subscribe() (*topic.Receiver[reactor.Event], error) {
	return topic.Subscribe(s.events, 0, false /* includeRecent */)
}

// Online returns true if the session is logged in.
func (s *Server) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reactor != nil && s.reactor.Online()
}

// State returns a copy of the persisted session history.
func (s *Server) State() (*gobs.ServerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gobs.Clone(s.state)
}

func (s *Server) pruneJournal(ctx context.Context) error {
	for ctx.Err() == nil {
		before := time.Now().Add(-s.opts.JournalRetention)
		n, err := s.journal.Prune(ctx, before)
		if err != nil {
			slog.Warn("could not prune journal entries (will retry)", "before", before, "err", err)
		} else if n > 0 {
			slog.Info("pruned old journal entries", "before", before, "count", n)
		}

		select {
		case <-ctx.Done():
		case <-time.After(s.opts.PruneInterval):
		}
	}
	return context.Cause(ctx)
}
