// Copyright (c) 2025 BVK Chaitanya

package reactor

import (
	"github.com/bvk/sentinel/tradeoffer"
)

// sentOfferEvent returns the event for a state change on an offer sent by
// the bot. Returns nil if the new state is not reported.
func sentOfferEvent(offer *tradeoffer.Offer) Event {
	oe := OfferEvent{Offer: offer}
	switch offer.State {
	case tradeoffer.Active:
		return &TradeSentEvent{oe}
	case tradeoffer.Accepted:
		return &SentTradeCompletedEvent{oe}
	case tradeoffer.InvalidItems, tradeoffer.Declined, tradeoffer.Expired, tradeoffer.CanceledBySecondFactor:
		return &TradeFailedEvent{oe}
	case tradeoffer.Countered:
		// Counter offers are handled as new incoming offers.
		return &NewTradeEvent{oe}
	}
	return nil
}

// receivedOfferEvent returns the event for a state change on an offer
// received by the bot. Returns nil if the new state is not reported.
func receivedOfferEvent(offer *tradeoffer.Offer) Event {
	oe := OfferEvent{Offer: offer}
	switch offer.State {
	case tradeoffer.Active:
		return &NewTradeEvent{oe}
	case tradeoffer.Accepted:
		return &IncomingTradeCompletedEvent{oe}
	case tradeoffer.Declined, tradeoffer.Expired, tradeoffer.Canceled, tradeoffer.InvalidItems:
		return &TradeFailedEvent{oe}
	}
	return nil
}
