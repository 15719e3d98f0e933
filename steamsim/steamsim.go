// Copyright (c) 2025 BVK Chaitanya

// Package steamsim implements an in-memory simulation of the steam session
// and trade manager interfaces. Events are injected through the Fire*
// methods or through the HTTP control handler.
package steamsim

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/bvk/sentinel/steam"
	"github.com/google/uuid"
)

type Options struct {
	// SteamID is reported by the sessions after a successful login.
	SteamID steam.SteamID

	// AutoLogin when true makes LogOn report a successful login followed by a
	// web session join from a separate goroutine.
	AutoLogin bool

	// SetCookiesError if non-nil is returned by the trade managers' SetCookies
	// method.
	SetCookiesError error
}

func (v *Options) setDefaults() {
	if v.SteamID == 0 {
		v.SteamID = 76561197960287930
	}
}

type Backend struct {
	opts Options

	mu       sync.Mutex
	sessions []*Session
}

var _ steam.Backend = &Backend{}

func New(opts *Options) *Backend {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	return &Backend{opts: *opts}
}

func (b *Backend) NewSession() steam.Session {
	s := &Session{backend: b}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions = append(b.sessions, s)
	return s
}

func (b *Backend) NewTradeManager(s steam.Session) steam.TradeManager {
	m := &TradeManager{setCookiesErr: b.opts.SetCookiesError}
	if ss, ok := s.(*Session); ok {
		ss.mu.Lock()
		ss.manager = m
		ss.mu.Unlock()
		m.session = ss
	}
	return m
}

// Session returns the most recently created session, or nil.
func (b *Backend) Session() *Session {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.sessions) == 0 {
		return nil
	}
	return b.sessions[len(b.sessions)-1]
}

type Session struct {
	backend *Backend

	mu       sync.Mutex
	handler  steam.SessionHandler
	steamID  steam.SteamID
	logOns   []steam.LogOnDetails
	persona  steam.PersonaState
	games    []string
	codes    []string
	manager  *TradeManager
	loggedOn bool
}

var _ steam.Session = &Session{}

func (s *Session) SteamID() steam.SteamID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.steamID
}

func (s *Session) SetHandler(h steam.SessionHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

func (s *Session) LogOn(details *steam.LogOnDetails) error {
	if details == nil || len(details.AccountName) == 0 {
		return fmt.Errorf("account name is required")
	}

	s.mu.Lock()
	s.logOns = append(s.logOns, *details)
	s.mu.Unlock()

	if s.backend.opts.AutoLogin {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("CAUGHT PANIC", "panic", r)
					panic(r)
				}
			}()

			s.FireLoggedOn()
			s.FireWebSession(uuid.New().String(), []string{
				"sessionid=" + uuid.New().String(),
				"steamLoginSecure=" + uuid.New().String(),
			})
		}()
	}
	return nil
}

func (s *Session) SetPersona(state steam.PersonaState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loggedOn {
		return fmt.Errorf("session is not logged in")
	}
	s.persona = state
	return nil
}

func (s *Session) GamesPlayed(names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loggedOn {
		return fmt.Errorf("session is not logged in")
	}
	s.games = slices.Clone(names)
	return nil
}

// LogOns returns the details of all login attempts so far.
func (s *Session) LogOns() []steam.LogOnDetails {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.logOns)
}

func (s *Session) Persona() steam.PersonaState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persona
}

func (s *Session) Games() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.games)
}

// SubmittedCodes returns the two-factor codes submitted in response to the
// steam guard challenges.
func (s *Session) SubmittedCodes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.codes)
}

// TradeManager returns the trade manager bound to the session, or nil.
func (s *Session) TradeManager() *TradeManager {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager
}

func (s *Session) getHandler() steam.SessionHandler {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handler == nil {
		slog.Warn("simulated session has no handler; event is dropped")
	}
	return s.handler
}

func (s *Session) FireError(err error) {
	if h := s.getHandler(); h != nil {
		h.OnError(err)
	}
}

func (s *Session) FireSteamGuard(domain string, lastCodeWrong bool) {
	s.mu.Lock()
	s.loggedOn = false
	s.mu.Unlock()

	submit := func(code string) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.codes = append(s.codes, code)
	}
	if h := s.getHandler(); h != nil {
		h.OnSteamGuard(domain, submit, lastCodeWrong)
	}
}

func (s *Session) FireLoggedOn() {
	s.mu.Lock()
	s.loggedOn = true
	s.steamID = s.backend.opts.SteamID
	s.mu.Unlock()

	if h := s.getHandler(); h != nil {
		h.OnLoggedOn()
	}
}

func (s *Session) FireWebSession(sessionID string, cookies []string) {
	if h := s.getHandler(); h != nil {
		h.OnWebSession(sessionID, cookies)
	}
}

func (s *Session) FireDisconnected(eresult steam.EResult, msg string) {
	s.mu.Lock()
	s.loggedOn = false
	s.mu.Unlock()

	if h := s.getHandler(); h != nil {
		h.OnDisconnected(eresult, msg)
	}
}

func (s *Session) FireFriendMessage(sender steam.SteamID, message string) {
	if h := s.getHandler(); h != nil {
		h.OnFriendMessage(sender, message)
	}
}

func (s *Session) FireFriendRelationship(sender steam.SteamID, rel steam.FriendRelationship) {
	if h := s.getHandler(); h != nil {
		h.OnFriendRelationship(sender, rel)
	}
}

// FireTradeRequest delivers a live trade request and returns the handler's
// response. Returns false if the handler didn't respond.
func (s *Session) FireTradeRequest(ctx context.Context, sender steam.SteamID) (bool, error) {
	h := s.getHandler()
	if h == nil {
		return false, fmt.Errorf("session handler is not set")
	}
	respc := make(chan bool, 1)
	var once sync.Once
	h.OnTradeRequest(sender, func(accept bool) {
		once.Do(func() { respc <- accept })
	})
	select {
	case <-ctx.Done():
		return false, context.Cause(ctx)
	case accept := <-respc:
		return accept, nil
	}
}
