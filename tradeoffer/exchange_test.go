// Copyright (c) 2025 BVK Chaitanya

package tradeoffer

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeFetcher struct {
	calls int

	getDetailsIfFailed bool

	err      error
	status   ExchangeStatus
	initTime time.Time
	received []*Item
	sent     []*Item

	async bool
	twice bool
}

func (f *fakeFetcher) GetExchangeDetails(offer *Offer, getDetailsIfFailed bool, cb ExchangeDetailsCallback) {
	f.calls++
	f.getDetailsIfFailed = getDetailsIfFailed
	call := func() {
		cb(f.err, f.status, f.initTime, f.received, f.sent)
		if f.twice {
			cb(errors.New("second call"), ExchangeFailed, time.Time{}, nil, nil)
		}
	}
	if f.async {
		go call()
		return
	}
	call()
}

func newTestOffer() *Offer {
	return &Offer{
		ID:    "4242",
		State: Accepted,
		ItemsToReceive: []*Item{
			{AppID: 440, ContextID: "2", AssetID: "A", Name: "Key"},
			{AppID: 440, ContextID: "2", AssetID: "B", Name: "Metal"},
		},
		ItemsToGive: []*Item{
			{AppID: 730, ContextID: "2", AssetID: "C"},
		},
	}
}

func TestPopulateExchangeDetails(t *testing.T) {
	ctx := context.Background()

	offer := newTestOffer()
	origB := offer.ItemsToReceive[1]
	origA := *offer.ItemsToReceive[0]

	initTime := time.Unix(1700000000, 0)
	f := &fakeFetcher{
		status:   ExchangeComplete,
		initTime: initTime,
		received: []*Item{
			{AssetID: "A", NewAssetID: "A2", NewContextID: "2"},
		},
		sent: []*Item{
			{AssetID: "C", NewAssetID: "C2", NewContextID: "16", RollbackNewAssetID: "C3"},
		},
	}

	accepted, err := PopulateExchangeDetails(ctx, offer, f)
	if err != nil {
		t.Fatal(err)
	}
	if f.calls != 1 {
		t.Fatalf("want one fetch call, got %d", f.calls)
	}
	if f.getDetailsIfFailed {
		t.Fatalf("getDetailsIfFailed must be false")
	}
	if accepted.Offer != offer {
		t.Fatalf("accepted offer must wrap the input offer")
	}
	if accepted.Status != ExchangeComplete || !accepted.TradeInitTime.Equal(initTime) {
		t.Fatalf("unexpected status/init-time: %v %v", accepted.Status, accepted.TradeInitTime)
	}

	if n := len(offer.ItemsToReceive); n != 2 {
		t.Fatalf("want 2 items to receive, got %d", n)
	}
	a, b := offer.ItemsToReceive[0], offer.ItemsToReceive[1]
	if a.AssetID != "A" || b.AssetID != "B" {
		t.Fatalf("item order is not preserved: %s %s", a, b)
	}
	if a.NewAssetID != "A2" || a.NewContextID != "2" {
		t.Fatalf("item A is not augmented: %#v", a)
	}
	if a.Name != "Key" || a.AppID != 440 {
		t.Fatalf("item A lost its original fields: %#v", a)
	}
	if b != origB || b.NewAssetID != "" {
		t.Fatalf("item B must be unchanged: %#v", b)
	}
	if origA.NewAssetID != "" {
		t.Fatalf("original item value must not be modified")
	}

	c := offer.ItemsToGive[0]
	if c.NewAssetID != "C2" || c.NewContextID != "16" || c.RollbackNewAssetID != "C3" || c.AppID != 730 {
		t.Fatalf("item C is not augmented: %#v", c)
	}
}

func TestPopulateExchangeDetailsError(t *testing.T) {
	ctx := context.Background()

	fetchErr := errors.New("trade is not settled")
	f := &fakeFetcher{err: fetchErr, async: true}

	offer := newTestOffer()
	if _, err := PopulateExchangeDetails(ctx, offer, f); err != fetchErr {
		t.Fatalf("want original error %v, got %v", fetchErr, err)
	}
	if offer.ItemsToReceive[0].NewAssetID != "" {
		t.Fatalf("offer must not be modified on errors")
	}
}

func TestPopulateExchangeDetailsSingleShot(t *testing.T) {
	ctx := context.Background()

	f := &fakeFetcher{
		twice:    true,
		status:   ExchangeComplete,
		received: []*Item{{AssetID: "A", NewAssetID: "A9"}},
	}
	offer := newTestOffer()
	if _, err := PopulateExchangeDetails(ctx, offer, f); err != nil {
		t.Fatal(err)
	}
	if v := offer.ItemsToReceive[0].NewAssetID; v != "A9" {
		t.Fatalf("want A9, got %q", v)
	}
}

type neverFetcher struct{}

func (neverFetcher) GetExchangeDetails(*Offer, bool, ExchangeDetailsCallback) {}

func TestPopulateExchangeDetailsCanceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := PopulateExchangeDetails(ctx, newTestOffer(), neverFetcher{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
}

func TestStateString(t *testing.T) {
	if s := CanceledBySecondFactor.String(); s != "CanceledBySecondFactor" {
		t.Fatalf("got %q", s)
	}
	if s := State(99).String(); s != "State(99)" {
		t.Fatalf("got %q", s)
	}
}

func TestParseState(t *testing.T) {
	for _, in := range []string{"Accepted", "3"} {
		s, err := ParseState(in)
		if err != nil {
			t.Fatal(err)
		}
		if s != Accepted {
			t.Fatalf("%q: want Accepted, got %s", in, s)
		}
	}
	for _, in := range []string{"accepted", "99", ""} {
		if _, err := ParseState(in); err == nil {
			t.Fatalf("%q: want error", in)
		}
	}
}

func TestPopulateExchangeDetailsClone(t *testing.T) {
	offer := &Offer{
		ID:             "1",
		ItemsToReceive: []*Item{{AppID: 730, ContextID: "2", AssetID: "100"}},
		ItemsToGive:    []*Item{{AppID: 730, ContextID: "2", AssetID: "200"}},
	}
	fetcher := &fakeFetcher{
		status:   ExchangeComplete,
		received: []*Item{{AssetID: "100", NewAssetID: "101"}},
		sent:     []*Item{{AssetID: "200", NewAssetID: "201"}},
	}

	clone := offer.Clone()
	accepted, err := PopulateExchangeDetails(context.Background(), clone, fetcher)
	if err != nil {
		t.Fatal(err)
	}
	if got := accepted.ItemsToReceive[0].NewAssetID; got != "101" {
		t.Fatalf("want merged new asset id 101, got %q", got)
	}
	if got := offer.ItemsToReceive[0].NewAssetID; got != "" {
		t.Fatalf("original offer items must not change, got new asset id %q", got)
	}
	if got := offer.ItemsToGive[0].NewAssetID; got != "" {
		t.Fatalf("original offer items must not change, got new asset id %q", got)
	}
}
