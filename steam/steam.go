// Copyright (c) 2025 BVK Chaitanya

// Package steam defines the session and trade manager interfaces consumed by
// the reactor. Implementations wrap the actual service clients; they own the
// authentication protocol, keep-alive, reconnect and trade offer polling.
//
// Handlers registered through SetHandler may be invoked from any goroutine.
package steam

import (
	"context"
	"strconv"

	"github.com/bvk/sentinel/tradeoffer"
)

// SteamID is a 64-bit account identifier.
type SteamID uint64

func (v SteamID) String() string {
	return strconv.FormatUint(uint64(v), 10)
}

// ParseSteamID parses a decimal 64-bit account identifier.
func ParseSteamID(s string) (SteamID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return SteamID(v), nil
}

// LogOnDetails holds the parameters for a login attempt.
type LogOnDetails struct {
	AccountName   string
	Password      string
	TwoFactorCode string
	LogonID       uint32
}

// Session is an authenticated connection to the service.
type Session interface {
	// SteamID returns the account id of the logged in user, or zero.
	SteamID() SteamID

	// SetHandler installs the event handler for the session. Previously
	// installed handler, if any, is replaced.
	SetHandler(h SessionHandler)

	LogOn(details *LogOnDetails) error
	SetPersona(state PersonaState) error
	GamesPlayed(names []string) error
}

// SessionHandler receives session events.
type SessionHandler interface {
	OnError(err error)

	// OnSteamGuard is invoked when the service asks for a two-factor code.
	// The code must be passed to submit. lastCodeWrong is true when a previous
	// code was rejected.
	OnSteamGuard(domain string, submit func(code string), lastCodeWrong bool)

	OnLoggedOn()
	OnWebSession(sessionID string, cookies []string)
	OnDisconnected(eresult EResult, msg string)
	OnFriendMessage(sender SteamID, message string)
	OnFriendRelationship(sender SteamID, rel FriendRelationship)

	// OnTradeRequest is invoked for live (real-time) trade requests. Handler
	// must call respond exactly once.
	OnTradeRequest(sender SteamID, respond func(accept bool))
}

// TradeManager watches trade offers for a session.
type TradeManager interface {
	tradeoffer.ExchangeDetailsFetcher

	// SetCookies configures the web session cookies. Trade offer events are
	// not delivered till cookies are set successfully.
	SetCookies(ctx context.Context, cookies []string) error

	// SetHandler installs the offer event handler. Previously installed
	// handler, if any, is replaced.
	SetHandler(h TradeHandler)
}

// TradeHandler receives trade offer events.
type TradeHandler interface {
	OnNewOffer(offer *tradeoffer.Offer)
	OnSentOfferChanged(offer *tradeoffer.Offer, oldState tradeoffer.State)
	OnReceivedOfferChanged(offer *tradeoffer.Offer, oldState tradeoffer.State)
}

// Backend creates sessions and trade managers.
type Backend interface {
	NewSession() Session

	// NewTradeManager returns a trade manager bound to the input session.
	NewTradeManager(s Session) TradeManager
}
