// Copyright (c) 2025 BVK Chaitanya

package notifier

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bvk/sentinel/reactor"
	"github.com/bvk/sentinel/tradeoffer"
	"github.com/visvasity/topic"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (s *fakeSender) SendMessage(_ context.Context, _ time.Time, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, text)
	return s.err
}

func (s *fakeSender) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

func TestMessage(t *testing.T) {
	offer := &tradeoffer.Offer{ID: "42", Partner: "7656", State: tradeoffer.Declined}
	oe := reactor.OfferEvent{Offer: offer}

	cases := []struct {
		ev   reactor.Event
		want string
	}{
		{&reactor.LoginEvent{}, "logged in"},
		{&reactor.LogoutEvent{EResult: 6, Message: "elsewhere"}, "elsewhere"},
		{&reactor.FriendRequestEvent{SteamID: "7657"}, "7657"},
		{&reactor.SentTradeCompletedEvent{OfferEvent: oe}, "accepted"},
		{&reactor.IncomingTradeCompletedEvent{OfferEvent: oe}, "completed"},
		{&reactor.TradeFailedEvent{OfferEvent: oe}, "Declined"},
		{&reactor.ChatMessageEvent{SteamID: "7657", Message: "hi"}, ""},
		{&reactor.NewTradeEvent{OfferEvent: oe}, ""},
		{&reactor.TradeFailedEvent{}, ""},
	}
	for _, c := range cases {
		got := Message("7656", c.ev)
		if len(c.want) == 0 {
			if len(got) != 0 {
				t.Errorf("%s: want no message, got %q", c.ev.EventName(), got)
			}
			continue
		}
		if !strings.Contains(got, c.want) {
			t.Errorf("%s: want message containing %q, got %q", c.ev.EventName(), c.want, got)
		}
	}
}

func TestNotify(t *testing.T) {
	ctx := context.Background()

	good := new(fakeSender)
	bad := &fakeSender{err: errors.New("send failure")}
	n, err := New([]Sender{good, bad}, nil)
	if err != nil {
		t.Fatal(err)
	}

	err = n.Notify(ctx, time.Now(), "hello")
	if !errors.Is(err, bad.err) {
		t.Fatalf("want send failure, got %v", err)
	}
	if msgs := good.Messages(); len(msgs) != 1 || msgs[0] != "hello" {
		t.Fatalf("message must be delivered to other senders, got %q", msgs)
	}

	if _, err := New(nil, nil); err == nil {
		t.Fatalf("want error without senders")
	}
}

func TestNotifyRateLimit(t *testing.T) {
	sender := new(fakeSender)
	n, err := New([]Sender{sender}, &Options{MessagesPerMinute: 1, Burst: 1})
	if err != nil {
		t.Fatal(err)
	}

	if err := n.Notify(context.Background(), time.Now(), "first"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := n.Notify(ctx, time.Now(), "second"); err == nil {
		t.Fatalf("second message must wait for the rate limit")
	}
	if msgs := sender.Messages(); len(msgs) != 1 {
		t.Fatalf("want one message, got %q", msgs)
	}
}

func TestRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender := new(fakeSender)
	n, err := New([]Sender{sender}, nil)
	if err != nil {
		t.Fatal(err)
	}

	events := topic.New[reactor.Event]()
	defer events.Close()

	receiver, err := topic.Subscribe(events, 0, false /* includeRecent */)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		done <- n.Run(ctx, "7656", receiver)
	}()

	events.Send(&reactor.ChatMessageEvent{SteamID: "7657", Message: "ignored"})
	events.Send(&reactor.LoginEvent{})

	deadline := time.Now().Add(5 * time.Second)
	for len(sender.Messages()) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for the notification")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if msgs := sender.Messages(); len(msgs) != 1 || !strings.Contains(msgs[0], "logged in") {
		t.Fatalf("unexpected notifications %q", msgs)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
