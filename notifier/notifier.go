// Copyright (c) 2025 BVK Chaitanya

// Package notifier forwards selected reactor events as text messages to the
// account owner.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	"github.com/bvk/sentinel/reactor"
	"github.com/bvk/sentinel/tradeoffer"
	"github.com/visvasity/topic"
	"golang.org/x/time/rate"
)

// Sender delivers a text message.
type Sender interface {
	SendMessage(ctx context.Context, at time.Time, text string) error
}

type Options struct {
	// MessagesPerMinute limits the rate of outgoing messages across all
	// senders. Messages over the limit wait for their turn.
	MessagesPerMinute int

	// Burst is the max number of messages sent back-to-back.
	Burst int

	// SendTimeout is the max time to deliver a message to a sender.
	SendTimeout time.Duration
}

func (v *Options) setDefaults() {
	if v.MessagesPerMinute == 0 {
		v.MessagesPerMinute = 20
	}
	if v.Burst == 0 {
		v.Burst = 5
	}
	if v.SendTimeout == 0 {
		v.SendTimeout = 30 * time.Second
	}
}

func (v *Options) Check() error {
	if v.MessagesPerMinute < 0 {
		return fmt.Errorf("messages per minute cannot be negative")
	}
	if v.Burst < 0 {
		return fmt.Errorf("burst cannot be negative")
	}
	return nil
}

type Notifier struct {
	opts Options

	senders []Sender

	limiter *rate.Limiter
}

func New(senders []Sender, opts *Options) (*Notifier, error) {
	if len(senders) == 0 {
		return nil, fmt.Errorf("at least one sender is required: %w", os.ErrInvalid)
	}
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}

	every := time.Minute / time.Duration(opts.MessagesPerMinute)
	n := &Notifier{
		opts:    *opts,
		senders: senders,
		limiter: rate.NewLimiter(rate.Every(every), opts.Burst),
	}
	return n, nil
}

// Message returns the notification text for an event. Returns empty string
// if the event is not notified.
func Message(steamID string, ev reactor.Event) string {
	offer, _ := reactor.EventOffer(ev)
	switch v := ev.(type) {
	case *reactor.LoginEvent:
		return fmt.Sprintf("Account %s is logged in", steamID)
	case *reactor.LogoutEvent:
		return fmt.Sprintf("Account %s is logged out (eresult %d): %s", steamID, v.EResult, v.Message)
	case *reactor.FriendRequestEvent:
		return fmt.Sprintf("Received friend request from %s", v.SteamID)
	}
	if offer == nil {
		return ""
	}
	switch ev.(type) {
	case *reactor.SentTradeCompletedEvent:
		return fmt.Sprintf("Sent trade offer %s to %s is accepted (%s)", offer.ID, offer.Partner, itemCounts(offer))
	case *reactor.IncomingTradeCompletedEvent:
		return fmt.Sprintf("Incoming trade offer %s from %s is completed (%s)", offer.ID, offer.Partner, itemCounts(offer))
	case *reactor.TradeFailedEvent:
		return fmt.Sprintf("Trade offer %s with %s has failed in state %s", offer.ID, offer.Partner, offer.State)
	}
	return ""
}

func itemCounts(offer *tradeoffer.Offer) string {
	return fmt.Sprintf("gave %d, received %d items", len(offer.ItemsToGive), len(offer.ItemsToReceive))
}

// Notify sends the text to all senders. Returns the joined errors from the
// senders that have failed.
func (n *Notifier) Notify(ctx context.Context, at time.Time, text string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}

	var errs []error
	for _, s := range n.senders {
		sctx, cancel := context.WithTimeout(ctx, n.opts.SendTimeout)
		err := s.SendMessage(sctx, at, text)
		cancel()
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run sends notifications for the events received from the receiver till
// the context is canceled or the receiver is closed.
func (n *Notifier) Run(ctx context.Context, steamID string, receiver *topic.Receiver[reactor.Event]) error {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("CAUGHT PANIC", "panic", r)
			slog.Error(string(debug.Stack()))
			panic(r)
		}
	}()

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
		text := Message(steamID, ev)
		if len(text) == 0 {
			continue
		}
		if err := n.Notify(ctx, time.Now(), text); err != nil {
			slog.Warn("could not send notification (ignored)", "event", ev.EventName(), "err", err)
		}
	}
	return context.Cause(ctx)
}
