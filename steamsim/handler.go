// Copyright (c) 2025 BVK Chaitanya

package steamsim

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/bvk/sentinel/steam"
	"github.com/bvk/sentinel/tradeoffer"
	"github.com/google/uuid"
)

type LogoutRequest struct {
	EResult int    `json:"eresult"`
	Message string `json:"msg"`
}

type MessageRequest struct {
	SteamID string `json:"steamid"`
	Message string `json:"message"`
}

type FriendRequest struct {
	SteamID      string `json:"steamid"`
	Relationship int    `json:"relationship"`
}

type OfferRequest struct {
	Partner        string             `json:"partner"`
	Message        string             `json:"message"`
	IsOurOffer     bool               `json:"isOurOffer"`
	ItemsToGive    []*tradeoffer.Item `json:"itemsToGive"`
	ItemsToReceive []*tradeoffer.Item `json:"itemsToReceive"`
}

type OfferResponse struct {
	ID    string           `json:"id"`
	State tradeoffer.State `json:"state"`
}

type OfferStateRequest struct {
	ID    string           `json:"id"`
	State tradeoffer.State `json:"state"`
}

// Handler returns the http handler to inject events into the most recently
// created session and its trade manager. All endpoints take POST requests
// with JSON bodies.
//
//	/sim/login        login and web session join
//	/sim/steamguard   two-factor challenge
//	/sim/logout       disconnect with LogoutRequest
//	/sim/message      chat message with MessageRequest
//	/sim/friend       relationship change with FriendRequest
//	/sim/offer        new offer with OfferRequest
//	/sim/offer/state  offer state change with OfferStateRequest
func (b *Backend) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /sim/login", b.sessionHandler(func(s *Session, _ *http.Request) (any, error) {
		s.FireLoggedOn()
		s.FireWebSession(uuid.New().String(), []string{"sessionid=" + uuid.New().String()})
		return nil, nil
	}))
	mux.Handle("POST /sim/steamguard", b.sessionHandler(func(s *Session, _ *http.Request) (any, error) {
		s.FireSteamGuard("", false /* lastCodeWrong */)
		return nil, nil
	}))
	mux.Handle("POST /sim/logout", b.sessionHandler(func(s *Session, r *http.Request) (any, error) {
		req, err := decode[LogoutRequest](r)
		if err != nil {
			return nil, err
		}
		s.FireDisconnected(steam.EResult(req.EResult), req.Message)
		return nil, nil
	}))
	mux.Handle("POST /sim/message", b.sessionHandler(func(s *Session, r *http.Request) (any, error) {
		req, err := decode[MessageRequest](r)
		if err != nil {
			return nil, err
		}
		sender, err := steam.ParseSteamID(req.SteamID)
		if err != nil {
			return nil, fmt.Errorf("invalid steamid: %w", os.ErrInvalid)
		}
		s.FireFriendMessage(sender, req.Message)
		return nil, nil
	}))
	mux.Handle("POST /sim/friend", b.sessionHandler(func(s *Session, r *http.Request) (any, error) {
		req, err := decode[FriendRequest](r)
		if err != nil {
			return nil, err
		}
		sender, err := steam.ParseSteamID(req.SteamID)
		if err != nil {
			return nil, fmt.Errorf("invalid steamid: %w", os.ErrInvalid)
		}
		rel := steam.FriendRelationship(req.Relationship)
		if req.Relationship == 0 {
			rel = steam.RelationshipRequestRecipient
		}
		s.FireFriendRelationship(sender, rel)
		return nil, nil
	}))
	mux.Handle("POST /sim/offer", b.sessionHandler(func(s *Session, r *http.Request) (any, error) {
		req, err := decode[OfferRequest](r)
		if err != nil {
			return nil, err
		}
		m := s.TradeManager()
		if m == nil {
			return nil, fmt.Errorf("session has no trade manager: %w", os.ErrNotExist)
		}
		offer := m.CreateOffer(&tradeoffer.Offer{
			Partner:        req.Partner,
			Message:        req.Message,
			IsOurOffer:     req.IsOurOffer,
			ItemsToGive:    req.ItemsToGive,
			ItemsToReceive: req.ItemsToReceive,
		})
		return &OfferResponse{ID: offer.ID, State: offer.State}, nil
	}))
	mux.Handle("POST /sim/offer/state", b.sessionHandler(func(s *Session, r *http.Request) (any, error) {
		req, err := decode[OfferStateRequest](r)
		if err != nil {
			return nil, err
		}
		m := s.TradeManager()
		if m == nil {
			return nil, fmt.Errorf("session has no trade manager: %w", os.ErrNotExist)
		}
		if err := m.SetOfferState(req.ID, req.State); err != nil {
			return nil, err
		}
		return &OfferResponse{ID: req.ID, State: req.State}, nil
	}))
	return mux
}

func decode[T any](r *http.Request) (*T, error) {
	v := new(T)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return nil, fmt.Errorf("could not decode request body: %w", errors.Join(err, os.ErrInvalid))
	}
	return v, nil
}

func (b *Backend) sessionHandler(fn func(*Session, *http.Request) (any, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := b.Session()
		if s == nil {
			http.Error(w, "no session", http.StatusServiceUnavailable)
			return
		}
		resp, err := fn(s, r)
		if err != nil {
			slog.Warn("simulator request failed", "path", r.URL.Path, "err", err)
			code := http.StatusInternalServerError
			switch {
			case errors.Is(err, os.ErrInvalid):
				code = http.StatusBadRequest
			case errors.Is(err, os.ErrNotExist):
				code = http.StatusNotFound
			}
			http.Error(w, err.Error(), code)
			return
		}
		if resp == nil {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Warn("could not encode simulator response", "path", r.URL.Path, "err", err)
		}
	})
}
