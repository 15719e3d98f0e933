// Copyright (c) 2025 BVK Chaitanya

// Package reactor owns one authenticated service session and republishes its
// connection and trade offer events as a fixed set of Event types.
package reactor

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bvk/sentinel/steam"
	"github.com/bvk/sentinel/steamtotp"
	"github.com/bvk/sentinel/tradeoffer"
	"github.com/visvasity/topic"
)

type Reactor struct {
	lifeCtx    context.Context
	lifeCancel context.CancelCauseFunc

	opts Options

	creds *Credentials

	session      steam.Session
	tradeManager steam.TradeManager

	// online is true when the last login attempt has succeeded and no
	// two-factor challenge is pending.
	online atomic.Bool

	hookMu      sync.Mutex
	tradeHooked bool

	mu       sync.RWMutex
	closed   bool
	ownTopic bool
	events   *topic.Topic[Event]
	timers   map[*time.Timer]struct{}
}

// New creates a session and a trade manager from the backend, attaches the
// session listeners and starts a login with a fresh two-factor code. Login
// progress and failures are reported through the events.
func New(creds *Credentials, backend steam.Backend, opts *Options) (*Reactor, error) {
	if creds == nil || backend == nil {
		return nil, os.ErrInvalid
	}
	if err := creds.Check(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}

	lifeCtx, lifeCancel := context.WithCancelCause(context.Background())
	r := &Reactor{
		lifeCtx:    lifeCtx,
		lifeCancel: lifeCancel,
		opts:       *opts,
		creds:      creds.Clone(),
		events:     opts.Events,
		timers:     make(map[*time.Timer]struct{}),
	}
	if r.events == nil {
		r.events = topic.New[Event]()
		r.ownTopic = true
	}

	r.session = backend.NewSession()
	r.tradeManager = backend.NewTradeManager(r.session)
	r.session.SetHandler((*sessionHandler)(r))

	r.logOn()
	return r, nil
}

// Close stops pending two-factor retries and stops publishing events.
func (r *Reactor) Close() error {
	r.lifeCancel(os.ErrClosed)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	for t := range r.timers {
		t.Stop()
	}
	clear(r.timers)
	if r.ownTopic {
		r.events.Close()
	}
	return nil
}

// Subscribe returns a receiver for the events published after the call.
func (r *Reactor) Subscribe() (*topic.Receiver[Event], error) {
	return topic.Subscribe(r.events, 0, false /* includeRecent */)
}

// Online returns true if the session is logged in and no two-factor
// challenge is pending.
func (r *Reactor) Online() bool {
	return r.online.Load()
}

// SteamID returns the account id of the session.
func (r *Reactor) SteamID() string {
	if id := r.session.SteamID(); id != 0 {
		return id.String()
	}
	return r.creds.SteamID
}

// TradeManager returns the trade manager bound to the session.
func (r *Reactor) TradeManager() steam.TradeManager {
	return r.tradeManager
}

// ExchangeDetails populates the settled exchange details of an accepted
// offer. See tradeoffer.PopulateExchangeDetails.
func (r *Reactor) ExchangeDetails(ctx context.Context, offer *tradeoffer.Offer) (*tradeoffer.AcceptedOffer, error) {
	return tradeoffer.PopulateExchangeDetails(ctx, offer, r.tradeManager)
}

func (r *Reactor) logOn() {
	code, err := steamtotp.Now(r.creds.SharedSecret)
	if err != nil {
		slog.Error("could not generate two-factor code", "steamid", r.creds.SteamID, "err", err)
		r.publish(&ErrorEvent{Err: err})
		return
	}
	logonID := r.creds.LogonID
	if logonID == 0 {
		logonID = uint32(rand.IntN(1 << 16))
	}
	details := &steam.LogOnDetails{
		AccountName:   r.creds.AccountName,
		Password:      r.creds.Password,
		TwoFactorCode: code,
		LogonID:       logonID,
	}
	if err := r.session.LogOn(details); err != nil {
		slog.Error("could not start login", "account", r.creds.AccountName, "err", err)
		r.publish(&ErrorEvent{Err: err})
		return
	}
	slog.Info("started login", "account", r.creds.AccountName, "logon-id", logonID)
}

func (r *Reactor) publish(ev Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		slog.Debug("reactor is closed; event is dropped", "event", ev.EventName())
		return
	}
	if slog.Default().Enabled(r.lifeCtx, slog.LevelDebug) {
		slog.Debug("publishing event", "event", ev.EventName(), "payload", Sanitize(ev))
	}
	r.events.Send(ev)
}

// afterFunc runs f after the delay unless the reactor is closed by then.
func (r *Reactor) afterFunc(d time.Duration, f func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		r.mu.Lock()
		delete(r.timers, t)
		r.mu.Unlock()

		if r.lifeCtx.Err() != nil {
			return
		}
		f()
	})
	r.timers[t] = struct{}{}
}

// hookTradeListeners installs the trade offer handler once.
func (r *Reactor) hookTradeListeners() {
	r.hookMu.Lock()
	defer r.hookMu.Unlock()

	if r.tradeHooked {
		return
	}
	r.tradeManager.SetHandler((*tradeHandler)(r))
	r.tradeHooked = true
}
