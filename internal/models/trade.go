package models

import (
	"time"

	"github.com/google/uuid"
)

// TradeStatus follows pending -> {countered -> accepted|rejected|expired,
// accepted, rejected, expired}. Accepted, rejected and expired are terminal;
// cancellation by the proposer deletes the row instead of adding a status.
type TradeStatus string

const (
	TradePending   TradeStatus = "pending"
	TradeCountered TradeStatus = "countered"
	TradeAccepted  TradeStatus = "accepted"
	TradeRejected  TradeStatus = "rejected"
	TradeExpired   TradeStatus = "expired"
)

// Terminal reports whether the status permits no further transitions.
func (s TradeStatus) Terminal() bool {
	return s == TradeAccepted || s == TradeRejected || s == TradeExpired
}

// TradeBundle is one side of a trade: a set of property ids, a money amount
// and a number of get-out-of-jail cards. Validated at the serialization
// boundary so malformed persisted bundles never reach settlement.
type TradeBundle struct {
	Properties []int `json:"properties"`
	Money      int   `json:"money"`
	JailCards  int   `json:"jail_cards"`
}

// Empty reports whether the bundle moves no resources at all.
func (b TradeBundle) Empty() bool {
	return len(b.Properties) == 0 && b.Money == 0 && b.JailCards == 0
}

// Trade is a two-party offer: the proposer gives Offered and receives
// Requested on acceptance.
type Trade struct {
	ID          uuid.UUID   `json:"id"`
	ProposerID  uuid.UUID   `json:"proposer_id"`
	RecipientID uuid.UUID   `json:"recipient_id"`
	Offered     TradeBundle `json:"offered"`
	Requested   TradeBundle `json:"requested"`
	Status      TradeStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
