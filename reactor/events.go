// Copyright (c) 2025 BVK Chaitanya

package reactor

import (
	"encoding/json"

	"github.com/bvk/sentinel/tradeoffer"
)

// Event names.
const (
	OnError                  = "OnError"
	OnLogin                  = "OnLogin"
	OnWebSessionJoin         = "OnWebSessionJoin"
	OnLogout                 = "OnLogout"
	OnChatMessage            = "OnChatMessage"
	OnFriendRequest          = "OnFriendRequest"
	OnNewTrade               = "OnNewTrade"
	OnTradeSent              = "OnTradeSent"
	OnSentTradeCompleted     = "OnSentTradeCompleted"
	OnIncomingTradeCompleted = "OnIncomingTradeCompleted"
	OnTradeFailed            = "OnTradeFailed"
)

// Event is one of the event types defined in this package.
type Event interface {
	EventName() string

	isEvent()
}

type ErrorEvent struct {
	Err error
}

type LoginEvent struct{}

type WebSessionJoinEvent struct {
	SessionID string   `json:"sessionid"`
	Cookies   []string `json:"cookies"`
}

type LogoutEvent struct {
	EResult int    `json:"eresult"`
	Message string `json:"msg"`
}

type ChatMessageEvent struct {
	SteamID string `json:"steamid"`
	Message string `json:"message"`
}

type FriendRequestEvent struct {
	SteamID string `json:"steamid"`
}

// OfferEvent is embedded by the events carrying a trade offer.
type OfferEvent struct {
	Offer *tradeoffer.Offer `json:"offer"`
}

type NewTradeEvent struct{ OfferEvent }

type TradeSentEvent struct{ OfferEvent }

type SentTradeCompletedEvent struct{ OfferEvent }

type IncomingTradeCompletedEvent struct{ OfferEvent }

type TradeFailedEvent struct{ OfferEvent }

func (*ErrorEvent) EventName() string                  { return OnError }
func (*LoginEvent) EventName() string                  { return OnLogin }
func (*WebSessionJoinEvent) EventName() string         { return OnWebSessionJoin }
func (*LogoutEvent) EventName() string                 { return OnLogout }
func (*ChatMessageEvent) EventName() string            { return OnChatMessage }
func (*FriendRequestEvent) EventName() string          { return OnFriendRequest }
func (*NewTradeEvent) EventName() string               { return OnNewTrade }
func (*TradeSentEvent) EventName() string              { return OnTradeSent }
func (*SentTradeCompletedEvent) EventName() string     { return OnSentTradeCompleted }
func (*IncomingTradeCompletedEvent) EventName() string { return OnIncomingTradeCompleted }
func (*TradeFailedEvent) EventName() string            { return OnTradeFailed }

func (*ErrorEvent) isEvent()                  {}
func (*LoginEvent) isEvent()                  {}
func (*WebSessionJoinEvent) isEvent()         {}
func (*LogoutEvent) isEvent()                 {}
func (*ChatMessageEvent) isEvent()            {}
func (*FriendRequestEvent) isEvent()          {}
func (*NewTradeEvent) isEvent()               {}
func (*TradeSentEvent) isEvent()              {}
func (*SentTradeCompletedEvent) isEvent()     {}
func (*IncomingTradeCompletedEvent) isEvent() {}
func (*TradeFailedEvent) isEvent()            {}

func (v *ErrorEvent) MarshalJSON() ([]byte, error) {
	var msg string
	if v.Err != nil {
		msg = v.Err.Error()
	}
	return json.Marshal(struct {
		Error string `json:"error"`
	}{msg})
}

// EventOffer returns the trade offer carried by the event, if any.
func EventOffer(ev Event) (*tradeoffer.Offer, bool) {
	type offerer interface{ offerEvent() *OfferEvent }
	if v, ok := ev.(offerer); ok && v.offerEvent().Offer != nil {
		return v.offerEvent().Offer, true
	}
	return nil, false
}

func (v *OfferEvent) offerEvent() *OfferEvent { return v }
