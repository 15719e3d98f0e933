// Copyright (c) 2025 BVK Chaitanya

package reactor

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/bvk/sentinel/tradeoffer"
)

type nopFetcher struct{}

func (nopFetcher) GetExchangeDetails(*tradeoffer.Offer, bool, tradeoffer.ExchangeDetailsCallback) {}

func TestSanitizeScalars(t *testing.T) {
	if v := Sanitize(nil); v != nil {
		t.Fatalf("want nil, got %v", v)
	}
	if v := Sanitize("abc"); v != "abc" {
		t.Fatalf("want abc, got %v", v)
	}
	if v := Sanitize(42); v != 42 {
		t.Fatalf("want 42, got %v", v)
	}
	var ev *NewTradeEvent
	if v := Sanitize(ev); v != nil {
		t.Fatalf("want nil for nil pointer, got %v", v)
	}
}

func TestSanitizeMap(t *testing.T) {
	manager := struct{ name string }{"manager"}
	offer := map[string]any{"id": "1", "_manager": manager}
	payload := map[string]any{"offer": offer, "steamid": "7656"}

	v, ok := Sanitize(payload).(map[string]any)
	if !ok {
		t.Fatalf("want a map")
	}
	cleaned, ok := v["offer"].(map[string]any)
	if !ok {
		t.Fatalf("want an offer map")
	}
	if _, ok := cleaned["_manager"]; ok {
		t.Fatalf("manager reference must be removed")
	}
	if cleaned["id"] != "1" || v["steamid"] != "7656" {
		t.Fatalf("other fields must be preserved: %v", v)
	}
	if _, ok := offer["_manager"]; !ok {
		t.Fatalf("input offer must not be modified")
	}
	if _, err := json.Marshal(v); err != nil {
		t.Fatal(err)
	}

	// Payloads without an offer are copied as is.
	plain := map[string]any{"steamid": "7656"}
	if v := Sanitize(plain).(map[string]any); !reflect.DeepEqual(v, plain) {
		t.Fatalf("want %v, got %v", plain, v)
	}
}

func TestSanitizeOfferEvent(t *testing.T) {
	offer := &tradeoffer.Offer{ID: "1", Partner: "7656", State: tradeoffer.Active, Manager: nopFetcher{}}
	ev := &NewTradeEvent{OfferEvent{Offer: offer}}

	v, ok := Sanitize(ev).(*NewTradeEvent)
	if !ok {
		t.Fatalf("want *NewTradeEvent, got %T", v)
	}
	if v == ev || v.Offer == offer {
		t.Fatalf("sanitized event must be a copy")
	}
	if v.Offer.Manager != nil {
		t.Fatalf("manager reference must be removed")
	}
	if v.Offer.ID != "1" || v.Offer.Partner != "7656" || v.Offer.State != tradeoffer.Active {
		t.Fatalf("offer fields must be preserved: %v", v.Offer)
	}
	if ev.Offer.Manager == nil {
		t.Fatalf("input offer must not be modified")
	}
	if v.EventName() != OnNewTrade {
		t.Fatalf("event name must be preserved")
	}

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["offer"].(map[string]any)["_manager"]; ok {
		t.Fatalf("serialized offer must not have a manager: %s", data)
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	offer := &tradeoffer.Offer{ID: "1", Manager: nopFetcher{}}
	once := Sanitize(&TradeFailedEvent{OfferEvent{Offer: offer}})
	twice := Sanitize(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("sanitize must be idempotent: %v != %v", once, twice)
	}
}

func TestSanitizeOtherEvents(t *testing.T) {
	chat := &ChatMessageEvent{SteamID: "7656", Message: "hi"}
	if v := Sanitize(chat); !reflect.DeepEqual(v, chat) {
		t.Fatalf("want %v, got %v", chat, v)
	}

	ev := &ErrorEvent{Err: errors.New("failure")}
	data, err := json.Marshal(Sanitize(ev))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"error":"failure"}` {
		t.Fatalf("unexpected error event json %s", data)
	}
}
