// Copyright (c) 2025 BVK Chaitanya

package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/bvk/sentinel/reactor"
	"github.com/bvk/sentinel/tradeoffer"
	"github.com/visvasity/topic"
)

type nopFetcher struct{}

func (nopFetcher) GetExchangeDetails(*tradeoffer.Offer, bool, tradeoffer.ExchangeDetailsCallback) {}

func TestFeed(t *testing.T) {
	events := topic.New[reactor.Event]()
	defer events.Close()

	f, err := New(events, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	ts := httptest.NewServer(f)
	defer ts.Close()

	addr, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	addr.Scheme = "ws"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	offer := &tradeoffer.Offer{ID: "1", Partner: "7656", State: tradeoffer.Accepted, Manager: nopFetcher{}}
	sent := []reactor.Event{
		&reactor.ChatMessageEvent{SteamID: "7656", Message: "hello"},
		&reactor.IncomingTradeCompletedEvent{OfferEvent: reactor.OfferEvent{Offer: offer}},
	}

	// Warm up events are sent till the client is subscribed.
	ready := make(chan struct{})
	go func() {
		warmup := &reactor.ChatMessageEvent{Message: "warmup"}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ready:
				for _, ev := range sent {
					events.Send(ev)
				}
				return
			case <-time.After(10 * time.Millisecond):
				events.Send(warmup)
			}
		}
	}()

	var got []*Message
	var warm bool
	errDone := errors.New("done")
	err = Follow(ctx, addr, func(msg *Message) error {
		var chat reactor.ChatMessageEvent
		if msg.Event == reactor.OnChatMessage && json.Unmarshal(msg.Payload, &chat) == nil && chat.Message == "warmup" {
			if !warm {
				warm = true
				close(ready)
			}
			return nil
		}
		got = append(got, msg)
		if len(got) == len(sent) {
			return errDone
		}
		return nil
	})
	if !errors.Is(err, errDone) {
		t.Fatal(err)
	}

	if got[0].Event != reactor.OnChatMessage || got[1].Event != reactor.OnIncomingTradeCompleted {
		t.Fatalf("unexpected events %s, %s", got[0].Event, got[1].Event)
	}
	var payload map[string]map[string]any
	if err := json.Unmarshal(got[1].Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if _, ok := payload["offer"]["_manager"]; ok {
		t.Fatalf("offer manager must not be streamed: %s", got[1].Payload)
	}
	if payload["offer"]["id"] != "1" {
		t.Fatalf("unexpected offer payload %s", got[1].Payload)
	}
}

func TestNewMessage(t *testing.T) {
	at := time.Unix(1700000000, 0).UTC()
	msg, err := NewMessage(at, &reactor.LogoutEvent{EResult: 6, Message: "elsewhere"})
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"event":"OnLogout","time":"2023-11-14T22:13:20Z","payload":{"eresult":6,"msg":"elsewhere"}}`
	if string(data) != want {
		t.Fatalf("want %s, got %s", want, data)
	}
}
