// Copyright (c) 2025 BVK Chaitanya

package tradeoffer

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// ExchangeStatus is the settlement status of the trade backing an accepted
// offer.
type ExchangeStatus int

const (
	ExchangeInit                     ExchangeStatus = 0
	ExchangePreCommitted             ExchangeStatus = 1
	ExchangeCommitted                ExchangeStatus = 2
	ExchangeComplete                 ExchangeStatus = 3
	ExchangeFailed                   ExchangeStatus = 4
	ExchangePartialSupportRollback   ExchangeStatus = 5
	ExchangeFullSupportRollback      ExchangeStatus = 6
	ExchangeSupportRollbackSelective ExchangeStatus = 7
	ExchangeRollbackFailed           ExchangeStatus = 8
	ExchangeRollbackAbandoned        ExchangeStatus = 9
	ExchangeInEscrow                 ExchangeStatus = 10
	ExchangeEscrowRollback           ExchangeStatus = 11
)

func (s ExchangeStatus) String() string {
	switch s {
	case ExchangeInit:
		return "Init"
	case ExchangePreCommitted:
		return "PreCommitted"
	case ExchangeCommitted:
		return "Committed"
	case ExchangeComplete:
		return "Complete"
	case ExchangeFailed:
		return "Failed"
	case ExchangePartialSupportRollback:
		return "PartialSupportRollback"
	case ExchangeFullSupportRollback:
		return "FullSupportRollback"
	case ExchangeSupportRollbackSelective:
		return "SupportRollbackSelective"
	case ExchangeRollbackFailed:
		return "RollbackFailed"
	case ExchangeRollbackAbandoned:
		return "RollbackAbandoned"
	case ExchangeInEscrow:
		return "InEscrow"
	case ExchangeEscrowRollback:
		return "EscrowRollback"
	}
	return "ExchangeStatus(" + strconv.Itoa(int(s)) + ")"
}

// ExchangeDetailsCallback receives the settled exchange details for an
// offer. Items in the received and sent lists carry the pre-settlement
// AssetID along with the new asset and context ids.
type ExchangeDetailsCallback func(err error, status ExchangeStatus, initTime time.Time, received, sent []*Item)

// ExchangeDetailsFetcher is implemented by trade managers that can fetch the
// post-settlement details of an accepted offer.
type ExchangeDetailsFetcher interface {
	GetExchangeDetails(offer *Offer, getDetailsIfFailed bool, cb ExchangeDetailsCallback)
}

// AcceptedOffer is a settled trade offer. Item lists of the embedded offer
// carry the exchange augmentation fields.
type AcceptedOffer struct {
	*Offer

	Status        ExchangeStatus `json:"status"`
	TradeInitTime time.Time      `json:"tradeInitTime"`
}

type exchangeResult struct {
	err      error
	status   ExchangeStatus
	initTime time.Time
	received []*Item
	sent     []*Item
}

// PopulateExchangeDetails fetches the exchange details for a completed offer
// and merges the new asset and context ids into the offer's item lists. Item
// order and count are preserved; items without a matching exchange record are
// left unchanged. Fetch errors are returned as is.
//
// Input offer is modified in place and is returned as the AcceptedOffer. Calls
// for the same offer must not overlap.
func PopulateExchangeDetails(ctx context.Context, offer *Offer, fetcher ExchangeDetailsFetcher) (*AcceptedOffer, error) {
	resultCh := make(chan *exchangeResult, 1)

	var once sync.Once
	cb := func(err error, status ExchangeStatus, initTime time.Time, received, sent []*Item) {
		once.Do(func() {
			resultCh <- &exchangeResult{
				err:      err,
				status:   status,
				initTime: initTime,
				received: received,
				sent:     sent,
			}
		})
	}
	fetcher.GetExchangeDetails(offer, false /* getDetailsIfFailed */, cb)

	var result *exchangeResult
	select {
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	case result = <-resultCh:
	}
	if result.err != nil {
		return nil, result.err
	}

	offer.ItemsToReceive = mergeItems(offer.ItemsToReceive, assetMap(result.received))
	offer.ItemsToGive = mergeItems(offer.ItemsToGive, assetMap(result.sent))

	accepted := &AcceptedOffer{
		Offer:         offer,
		Status:        result.status,
		TradeInitTime: result.initTime,
	}
	return accepted, nil
}

func assetMap(items []*Item) map[string]*Item {
	m := make(map[string]*Item, len(items))
	for _, item := range items {
		if item != nil {
			m[item.AssetID] = item
		}
	}
	return m
}

func mergeItems(items []*Item, updates map[string]*Item) []*Item {
	merged := make([]*Item, len(items))
	for i, item := range items {
		if item == nil {
			continue
		}
		update, ok := updates[item.AssetID]
		if !ok {
			merged[i] = item
			continue
		}
		merged[i] = mergeItem(item, update)
	}
	return merged
}

// mergeItem returns a new item with non-empty fields from update overriding
// the fields in item.
func mergeItem(item, update *Item) *Item {
	v := *item
	if update.AppID != 0 {
		v.AppID = update.AppID
	}
	override := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	override(&v.ContextID, update.ContextID)
	override(&v.AssetID, update.AssetID)
	override(&v.ClassID, update.ClassID)
	override(&v.InstanceID, update.InstanceID)
	if update.Amount != 0 {
		v.Amount = update.Amount
	}
	override(&v.Name, update.Name)
	override(&v.MarketHashName, update.MarketHashName)
	override(&v.NewAssetID, update.NewAssetID)
	override(&v.NewContextID, update.NewContextID)
	override(&v.RollbackNewAssetID, update.RollbackNewAssetID)
	override(&v.RollbackNewContextID, update.RollbackNewContextID)
	return &v
}
