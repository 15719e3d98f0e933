// Copyright (c) 2025 BVK Chaitanya

package tradeoffer

import (
	"fmt"
	"slices"
	"strconv"
	"time"
)

// State is the lifecycle state of a trade offer as reported by the trade
// offer service. Values match the service's wire encoding.
type State int

const (
	Invalid                  State = 1
	Active                   State = 2
	Accepted                 State = 3
	Countered                State = 4
	Expired                  State = 5
	Canceled                 State = 6
	Declined                 State = 7
	InvalidItems             State = 8
	CreatedNeedsConfirmation State = 9
	CanceledBySecondFactor   State = 10
	InEscrow                 State = 11
)

var stateNames = map[State]string{
	Invalid:                  "Invalid",
	Active:                   "Active",
	Accepted:                 "Accepted",
	Countered:                "Countered",
	Expired:                  "Expired",
	Canceled:                 "Canceled",
	Declined:                 "Declined",
	InvalidItems:             "InvalidItems",
	CreatedNeedsConfirmation: "CreatedNeedsConfirmation",
	CanceledBySecondFactor:   "CanceledBySecondFactor",
	InEscrow:                 "InEscrow",
}

func (s State) String() string {
	if v, ok := stateNames[s]; ok {
		return v
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// ParseState returns the state for a state name or its numeric value.
func ParseState(s string) (State, error) {
	for k, v := range stateNames {
		if v == s {
			return k, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		if _, ok := stateNames[State(n)]; ok {
			return State(n), nil
		}
	}
	return 0, fmt.Errorf("unknown trade offer state %q", s)
}

// Item is an economy item that is part of a trade offer. Fields with the New
// and RollbackNew prefixes are empty till the trade is settled and the
// exchange details are populated.
type Item struct {
	AppID      int    `json:"appid"`
	ContextID  string `json:"contextid"`
	AssetID    string `json:"assetid"`
	ClassID    string `json:"classid,omitempty"`
	InstanceID string `json:"instanceid,omitempty"`
	Amount     int64  `json:"amount,omitempty"`

	Name           string `json:"name,omitempty"`
	MarketHashName string `json:"market_hash_name,omitempty"`

	NewAssetID           string `json:"new_assetid,omitempty"`
	NewContextID         string `json:"new_contextid,omitempty"`
	RollbackNewAssetID   string `json:"rollback_new_assetid,omitempty"`
	RollbackNewContextID string `json:"rollback_new_contextid,omitempty"`
}

func (v *Item) String() string {
	return fmt.Sprintf("%d/%s/%s", v.AppID, v.ContextID, v.AssetID)
}

// Offer is a trade offer owned by a trade manager. Offer lifecycle is managed
// by the trade manager; this package only reads the state and reshapes the
// item lists after settlement.
type Offer struct {
	ID      string `json:"id"`
	Partner string `json:"partner"`
	Message string `json:"message,omitempty"`

	State      State `json:"state"`
	IsOurOffer bool  `json:"isOurOffer"`

	ItemsToGive    []*Item `json:"itemsToGive"`
	ItemsToReceive []*Item `json:"itemsToReceive"`

	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
	Expires time.Time `json:"expires"`

	TradeID string `json:"tradeID,omitempty"`

	// Manager is a back-reference to the trade manager that owns this
	// offer. It is not serializable and must be stripped (see
	// reactor.Sanitize) before an offer is handed to a log sink.
	Manager ExchangeDetailsFetcher `json:"_manager,omitempty"`
}

func (v *Offer) String() string {
	return fmt.Sprintf("offer:%s/%s/%s", v.ID, v.Partner, v.State)
}

// Clone returns a copy of the offer with its own item lists. Items are shared
// with the original.
func (v *Offer) Clone() *Offer {
	c := *v
	c.ItemsToGive = slices.Clone(v.ItemsToGive)
	c.ItemsToReceive = slices.Clone(v.ItemsToReceive)
	return &c
}
