// Copyright (c) 2025 BVK Chaitanya

package steamsim

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bvk/sentinel/steam"
	"github.com/bvk/sentinel/syncmap"
	"github.com/bvk/sentinel/tradeoffer"
	"github.com/google/uuid"
)

// Exchange holds the result reported for an offer by GetExchangeDetails.
type Exchange struct {
	Err error

	Status   tradeoffer.ExchangeStatus
	InitTime time.Time

	Received []*tradeoffer.Item
	Sent     []*tradeoffer.Item
}

type TradeManager struct {
	session *Session

	setCookiesErr error

	mu      sync.Mutex
	handler steam.TradeHandler
	cookies []string

	stateMu   sync.Mutex
	offers    syncmap.Map[string, *tradeoffer.Offer]
	exchanges syncmap.Map[string, *Exchange]

	lastAssetID atomic.Int64
}

var _ steam.TradeManager = &TradeManager{}

func (m *TradeManager) SetCookies(ctx context.Context, cookies []string) error {
	if err := context.Cause(ctx); err != nil {
		return err
	}
	if m.setCookiesErr != nil {
		return m.setCookiesErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cookies = slices.Clone(cookies)
	return nil
}

func (m *TradeManager) SetHandler(h steam.TradeHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = h
}

// Cookies returns the web session cookies configured by SetCookies.
func (m *TradeManager) Cookies() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.cookies)
}

// HasHandler returns true if a trade handler is installed.
func (m *TradeManager) HasHandler() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handler != nil
}

func (m *TradeManager) getHandler() steam.TradeHandler {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handler == nil {
		slog.Warn("simulated trade manager has no handler; event is dropped")
	}
	return m.handler
}

// Offer returns the simulated offer with the given id.
func (m *TradeManager) Offer(id string) (*tradeoffer.Offer, bool) {
	return m.offers.Load(id)
}

// CreateOffer creates an offer in the Active state. Offer id is generated if
// it is empty. Offers not sent by us are delivered as new offers.
func (m *TradeManager) CreateOffer(offer *tradeoffer.Offer) *tradeoffer.Offer {
	now := time.Now()
	if len(offer.ID) == 0 {
		offer.ID = uuid.New().String()
	}
	if offer.State == 0 {
		offer.State = tradeoffer.Active
	}
	if offer.Created.IsZero() {
		offer.Created = now
	}
	offer.Updated = now
	if offer.Expires.IsZero() {
		offer.Expires = now.Add(14 * 24 * time.Hour)
	}
	offer.Manager = m
	m.offers.Store(offer.ID, offer)

	if offer.IsOurOffer {
		if h := m.getHandler(); h != nil {
			h.OnSentOfferChanged(offer, tradeoffer.CreatedNeedsConfirmation)
		}
		return offer
	}
	if h := m.getHandler(); h != nil {
		h.OnNewOffer(offer)
	}
	return offer
}

// SetOfferState moves an offer to a new state and delivers the change to the
// handler.
func (m *TradeManager) SetOfferState(id string, state tradeoffer.State) error {
	m.stateMu.Lock()
	current, ok := m.offers.Load(id)
	if !ok {
		m.stateMu.Unlock()
		return fmt.Errorf("offer %q not found: %w", id, os.ErrNotExist)
	}
	// Offers delivered in earlier events are never modified.
	offer := current.Clone()
	old := offer.State
	offer.State = state
	offer.Updated = time.Now()
	if state == tradeoffer.Accepted && len(offer.TradeID) == 0 {
		offer.TradeID = strconv.FormatInt(m.lastAssetID.Add(1), 10)
	}
	m.offers.Store(id, offer)
	m.stateMu.Unlock()

	h := m.getHandler()
	if h == nil {
		return nil
	}
	if offer.IsOurOffer {
		h.OnSentOfferChanged(offer, old)
	} else {
		h.OnReceivedOfferChanged(offer, old)
	}
	return nil
}

// SetExchange configures the exchange details reported for an offer. Offers
// without an explicit exchange are reported as complete with new asset ids
// assigned to every item.
func (m *TradeManager) SetExchange(offerID string, x *Exchange) {
	m.exchanges.Store(offerID, x)
}

func (m *TradeManager) GetExchangeDetails(offer *tradeoffer.Offer, getDetailsIfFailed bool, cb tradeoffer.ExchangeDetailsCallback) {
	x, ok := m.exchanges.Load(offer.ID)
	if !ok {
		x = m.settle(offer)
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("CAUGHT PANIC", "panic", r)
				panic(r)
			}
		}()

		if x.Err != nil {
			cb(x.Err, 0, time.Time{}, nil, nil)
			return
		}
		if isFailed(x.Status) && !getDetailsIfFailed {
			cb(fmt.Errorf("trade status is %s", x.Status), 0, time.Time{}, nil, nil)
			return
		}
		cb(nil, x.Status, x.InitTime, x.Received, x.Sent)
	}()
}

func (m *TradeManager) settle(offer *tradeoffer.Offer) *Exchange {
	x := &Exchange{
		Status:   tradeoffer.ExchangeComplete,
		InitTime: offer.Updated,
	}
	assign := func(items []*tradeoffer.Item) []*tradeoffer.Item {
		var result []*tradeoffer.Item
		for _, item := range items {
			result = append(result, &tradeoffer.Item{
				AppID:        item.AppID,
				ContextID:    item.ContextID,
				AssetID:      item.AssetID,
				NewAssetID:   strconv.FormatInt(m.lastAssetID.Add(1), 10),
				NewContextID: item.ContextID,
			})
		}
		return result
	}
	x.Received = assign(offer.ItemsToReceive)
	x.Sent = assign(offer.ItemsToGive)
	return x
}

func isFailed(s tradeoffer.ExchangeStatus) bool {
	switch s {
	case tradeoffer.ExchangeInit, tradeoffer.ExchangePreCommitted, tradeoffer.ExchangeCommitted, tradeoffer.ExchangeComplete, tradeoffer.ExchangeInEscrow:
		return false
	}
	return true
}
