package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType names every broadcast the engine emits.
type EventType string

const (
	EventPlayerJoined  EventType = "player_joined"
	EventPlayerReady   EventType = "player_ready"
	EventPlayerLeft    EventType = "player_left"
	EventPlayerRemoved EventType = "player_removed"
	EventGameStarted   EventType = "game_started"
	EventGameReset     EventType = "game_reset"

	EventDiceRolled        EventType = "dice_rolled"
	EventPropertyPurchased EventType = "property_purchased"
	EventHousesPurchased   EventType = "houses_purchased"
	EventRentPaid          EventType = "paid_rent"
	EventTaxPaid           EventType = "paid_tax"
	EventCardDrawn         EventType = "card_drawn"
	EventSentToJail        EventType = "sent_to_jail"
	EventJailCardUsed      EventType = "jail_card_used"
	EventJailFinePaid      EventType = "jail_fine_paid"
	EventTurnChange        EventType = "turn_change"

	EventTradeOffer     EventType = "trade_offer"
	EventTradeCountered EventType = "trade_countered"
	EventTradeAccepted  EventType = "trade_accepted"
	EventTradeRejected  EventType = "trade_rejected"
	EventTradeExpired   EventType = "trade_expired"
	EventTradeCancelled EventType = "trade_cancelled"
)

// Event is one domain event. The engine publishes through the Publisher
// interface and never touches the transport directly.
type Event struct {
	Type    EventType
	Payload map[string]any
}

// MarshalJSON flattens the payload next to the type tag, which is the wire
// shape websocket clients consume.
func (ev Event) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(ev.Payload)+1)
	for k, v := range ev.Payload {
		m[k] = v
	}
	m["type"] = string(ev.Type)
	return json.Marshal(m)
}

// Publisher delivers events to all connected observers. The websocket hub
// implements it; tests use an in-memory recorder.
type Publisher interface {
	Publish(ev Event)
}

// ActionLog records completed actions for asynchronous persistence. The redis
// queue implements it; a nil ActionLog disables recording.
type ActionLog interface {
	Record(ctx context.Context, action string, userID uuid.UUID, detail map[string]any)
}

type actionRecord struct {
	action string
	userID uuid.UUID
	detail map[string]any
}

// timerRequest asks for the turn timer to be (re)armed once the transaction
// commits.
type timerRequest struct {
	userID   uuid.UUID
	deadline time.Time
}

// eventBuffer collects events, action records and the timer request produced
// inside a transaction. They are flushed only after the transaction commits,
// so a rolled-back command emits nothing and never touches the timer.
type eventBuffer struct {
	events    []Event
	actions   []actionRecord
	timer     *timerRequest
	stopTimer bool
}

func (b *eventBuffer) reset() {
	b.events = b.events[:0]
	b.actions = b.actions[:0]
	b.timer = nil
	b.stopTimer = false
}

func (b *eventBuffer) publish(t EventType, payload map[string]any) {
	b.events = append(b.events, Event{Type: t, Payload: payload})
}

func (b *eventBuffer) record(action string, userID uuid.UUID, detail map[string]any) {
	b.actions = append(b.actions, actionRecord{action: action, userID: userID, detail: detail})
}
