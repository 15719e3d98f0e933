// Copyright (c) 2025 BVK Chaitanya

package reactor

import (
	"context"
	"log/slog"

	"github.com/bvk/sentinel/steam"
	"github.com/bvk/sentinel/steamtotp"
	"github.com/bvk/sentinel/tradeoffer"
)

type sessionHandler Reactor

var _ steam.SessionHandler = &sessionHandler{}

func (h *sessionHandler) reactor() *Reactor {
	return (*Reactor)(h)
}

func (h *sessionHandler) OnError(err error) {
	r := h.reactor()
	r.publish(&ErrorEvent{Err: err})
	slog.Error("received session error", "steamid", r.SteamID(), "err", err)
}

func (h *sessionHandler) OnSteamGuard(domain string, submit func(string), lastCodeWrong bool) {
	r := h.reactor()
	r.online.Store(!lastCodeWrong)
	slog.Info("awaiting steam guard code", "steamid", r.SteamID(), "domain", domain, "last-code-wrong", lastCodeWrong)

	// Previous code could still be valid, so wait for the next code to be
	// generated. Login may succeed in the meantime.
	r.afterFunc(r.opts.SteamGuardRetryDelay, func() {
		if r.online.Load() {
			return
		}
		code, err := steamtotp.Now(r.creds.SharedSecret)
		if err != nil {
			slog.Error("could not generate two-factor code", "steamid", r.SteamID(), "err", err)
			r.publish(&ErrorEvent{Err: err})
			return
		}
		submit(code)
	})
}

func (h *sessionHandler) OnLoggedOn() {
	r := h.reactor()
	r.online.Store(true)
	r.publish(&LoginEvent{})

	if err := r.session.SetPersona(steam.PersonaOnline); err != nil {
		slog.Warn("could not set persona state (ignored)", "steamid", r.SteamID(), "err", err)
	}
	if err := r.session.GamesPlayed([]string{r.creds.gameName()}); err != nil {
		slog.Warn("could not set games played (ignored)", "steamid", r.SteamID(), "err", err)
	}
	slog.Info("logged in", "steamid", r.SteamID())
}

func (h *sessionHandler) OnWebSession(sessionID string, cookies []string) {
	r := h.reactor()
	r.publish(&WebSessionJoinEvent{SessionID: sessionID, Cookies: cookies})
	slog.Info("joined web session", "steamid", r.SteamID(), "num-cookies", len(cookies))

	if r.opts.TestMode {
		r.hookTradeListeners()
		return
	}

	ctx, cancel := context.WithTimeout(r.lifeCtx, r.opts.SetCookiesTimeout)
	defer cancel()

	if err := r.tradeManager.SetCookies(ctx, cookies); err != nil {
		slog.Error("could not set cookies on the trade manager", "steamid", r.SteamID(), "err", err)
		r.publish(&ErrorEvent{Err: err})
		return
	}
	r.hookTradeListeners()
}

func (h *sessionHandler) OnDisconnected(eresult steam.EResult, msg string) {
	r := h.reactor()
	r.publish(&LogoutEvent{EResult: int(eresult), Message: msg})
	slog.Warn("logged out", "steamid", r.SteamID(), "eresult", eresult, "msg", msg)
}

func (h *sessionHandler) OnFriendMessage(sender steam.SteamID, message string) {
	r := h.reactor()
	steamid := sender.String()
	r.publish(&ChatMessageEvent{SteamID: steamid, Message: message})
	slog.Info("received chat message", "from", steamid, "message", message)
}

func (h *sessionHandler) OnFriendRelationship(sender steam.SteamID, rel steam.FriendRelationship) {
	r := h.reactor()
	steamid := sender.String()
	if rel == steam.RelationshipRequestRecipient {
		r.publish(&FriendRequestEvent{SteamID: steamid})
		slog.Info("received friend request", "from", steamid)
		return
	}
	slog.Warn("friend relationship is changed by the account owner", "steamid", steamid, "relationship", rel)
}

func (h *sessionHandler) OnTradeRequest(sender steam.SteamID, respond func(bool)) {
	slog.Info("declining live trade request", "from", sender)
	respond(false)
}

type tradeHandler Reactor

var _ steam.TradeHandler = &tradeHandler{}

func (h *tradeHandler) reactor() *Reactor {
	return (*Reactor)(h)
}

func (h *tradeHandler) OnNewOffer(offer *tradeoffer.Offer) {
	r := h.reactor()
	slog.Info("received trade offer", "partner", offer.Partner, "offer", offer.ID)
	r.publish(&NewTradeEvent{OfferEvent{Offer: offer}})
}

func (h *tradeHandler) OnSentOfferChanged(offer *tradeoffer.Offer, oldState tradeoffer.State) {
	r := h.reactor()
	ev := sentOfferEvent(offer)
	if ev == nil {
		slog.Debug("ignored sent offer state change", "offer", offer.ID, "old", oldState, "new", offer.State)
		return
	}
	switch ev.(type) {
	case *TradeSentEvent:
		slog.Info("sent trade offer", "partner", offer.Partner, "offer", offer.ID)
	case *SentTradeCompletedEvent:
		slog.Info("trade completed", "offer", offer.ID)
	case *TradeFailedEvent:
		slog.Warn("trade failed", "offer", offer.ID, "state", offer.State)
	case *NewTradeEvent:
		slog.Warn("received counter offer", "partner", offer.Partner, "offer", offer.ID)
	}
	r.publish(ev)
}

func (h *tradeHandler) OnReceivedOfferChanged(offer *tradeoffer.Offer, oldState tradeoffer.State) {
	r := h.reactor()
	ev := receivedOfferEvent(offer)
	if ev == nil {
		slog.Debug("ignored received offer state change", "offer", offer.ID, "old", oldState, "new", offer.State)
		return
	}
	switch ev.(type) {
	case *NewTradeEvent:
		slog.Info("received trade offer", "partner", offer.Partner, "offer", offer.ID)
	case *IncomingTradeCompletedEvent:
		slog.Info("trade completed", "offer", offer.ID)
	case *TradeFailedEvent:
		slog.Warn("trade failed", "offer", offer.ID, "state", offer.State)
	}
	r.publish(ev)
}
