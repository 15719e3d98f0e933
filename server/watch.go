// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bvk/sentinel/journal"
	"github.com/bvk/sentinel/kvutil"
	"github.com/bvk/sentinel/reactor"
	"github.com/bvk/sentinel/tradeoffer"
	"github.com/dustin/go-humanize"
	"github.com/visvasity/cli"
	"github.com/visvasity/topic"
)

// watch updates the persistent session history and resolves the exchange
// details of the completed trades.
func (s *Server) watch(ctx context.Context, receiver *topic.Receiver[reactor.Event]) error {
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

		if s.updateState(ev) {
			if err := s.saveState(ctx); err != nil {
				slog.Warn("could not save server state (ignored)", "err", err)
			}
		}

		switch ev.(type) {
		case *reactor.SentTradeCompletedEvent, *reactor.IncomingTradeCompletedEvent:
			offer, _ := reactor.EventOffer(ev)
			if offer == nil {
				continue
			}
			s.goRun("settle", func(ctx context.Context) error {
				return s.settle(ctx, offer)
			})
		}
	}
	return context.Cause(ctx)
}

// updateState returns true if the event has modified the session history.
func (s *Server) updateState(ev reactor.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	switch v := ev.(type) {
	case *reactor.LoginEvent:
		s.state.LastLoginTime = now
	case *reactor.LogoutEvent:
		s.state.LastLogoutTime = now
		s.state.LastLogoutEResult = v.EResult
		s.state.LastLogoutMessage = v.Message
	case *reactor.SentTradeCompletedEvent, *reactor.IncomingTradeCompletedEvent:
		s.state.NumCompletedTrades++
	case *reactor.TradeFailedEvent:
		s.state.NumFailedTrades++
	default:
		return false
	}
	return true
}

func (s *Server) saveState(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return kvutil.SetDB(ctx, s.db, StateKey, s.state)
}

// settle resolves the exchange details of an accepted offer and records them
// in the journal.
func (s *Server) settle(ctx context.Context, offer *tradeoffer.Offer) error {
	s.mu.Lock()
	r := s.reactor
	s.mu.Unlock()

	sctx, cancel := context.WithTimeout(ctx, s.opts.SettleTimeout)
	defer cancel()

	// Event subscribers share the offer, so item lists are merged on a copy.
	accepted, err := r.ExchangeDetails(sctx, offer.Clone())
	if err != nil {
		slog.Error("could not resolve exchange details", "offer", offer.ID, "err", err)
		return nil
	}
	if _, err := s.journal.RecordPayload(ctx, journal.TradeSettled, accepted); err != nil {
		return fmt.Errorf("could not record exchange details for offer %s: %w", offer.ID, err)
	}
	slog.Info("recorded exchange details", "offer", offer.ID, "status", accepted.Status, "init-time", accepted.TradeInitTime)
	return nil
}

type Status struct {
	SteamID string `json:"steamid"`
	Online  bool   `json:"online"`

	LastLoginTime     time.Time `json:"lastLoginTime"`
	LastLogoutTime    time.Time `json:"lastLogoutTime"`
	LastLogoutMessage string    `json:"lastLogoutMessage,omitempty"`

	NumCompletedTrades int64 `json:"numCompletedTrades"`
	NumFailedTrades    int64 `json:"numFailedTrades"`

	Process *ProcessStats `json:"process,omitempty"`
}

func (s *Server) Status() *Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := &Status{
		SteamID:            s.secrets.Steam.SteamID,
		LastLoginTime:      s.state.LastLoginTime,
		LastLogoutTime:     s.state.LastLogoutTime,
		LastLogoutMessage:  s.state.LastLogoutMessage,
		NumCompletedTrades: s.state.NumCompletedTrades,
		NumFailedTrades:    s.state.NumFailedTrades,
	}
	if s.reactor != nil {
		v.SteamID = s.reactor.SteamID()
		v.Online = s.reactor.Online()
	}
	if stats, err := processStats(); err != nil {
		slog.Warn("could not collect process stats (ignored)", "err", err)
	} else {
		v.Process = stats
	}
	return v
}

func (s *Server) serveStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Status()); err != nil {
		slog.Warn("could not encode status response", "err", err)
	}
}

func (s *Server) statusCmd(ctx context.Context, _ []string) error {
	stdout := cli.Stdout(ctx)
	v := s.Status()
	fmt.Fprintf(stdout, "Account: %s\n", v.SteamID)
	fmt.Fprintf(stdout, "Online: %t\n", v.Online)
	if !v.LastLoginTime.IsZero() {
		fmt.Fprintf(stdout, "Last Login: %s\n", v.LastLoginTime.Format(time.DateTime))
	}
	if !v.LastLogoutTime.IsZero() {
		fmt.Fprintf(stdout, "Last Logout: %s (%s)\n", v.LastLogoutTime.Format(time.DateTime), v.LastLogoutMessage)
	}
	fmt.Fprintf(stdout, "Completed Trades: %d\n", v.NumCompletedTrades)
	fmt.Fprintf(stdout, "Failed Trades: %d\n", v.NumFailedTrades)
	if p := v.Process; p != nil {
		fmt.Fprintf(stdout, "Uptime: %s\n", time.Since(p.StartTime).Round(time.Second))
		fmt.Fprintf(stdout, "Memory: %s\n", humanize.IBytes(p.MemoryRSS))
	}
	return nil
}
