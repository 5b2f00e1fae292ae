package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/maxharris/polymono/internal/board"
	"github.com/maxharris/polymono/internal/models"
)

// LandingAction classifies what happened when a player came to rest on a
// space.
type LandingAction string

const (
	LandingNone              LandingAction = "none"
	LandingPurchaseAvailable LandingAction = "purchase_available"
	LandingOwnProperty       LandingAction = "own_property"
	LandingRentPaid          LandingAction = "rent_paid"
	LandingRentUnpaid        LandingAction = "rent_unpaid"
	LandingTaxPaid           LandingAction = "tax_paid"
	LandingCardDrawn         LandingAction = "card_drawn"
	LandingSentToJail        LandingAction = "sent_to_jail"
)

// LandingOutcome is the structured result of resolving a post-move position.
type LandingOutcome struct {
	Action   LandingAction `json:"action"`
	Position int           `json:"position"`
	Space    string        `json:"space"`
	Rent     int           `json:"rent,omitempty"`
	OwnerID  *uuid.UUID    `json:"owner_id,omitempty"`
	Tax      int           `json:"tax,omitempty"`
	Card     *CardResult   `json:"card,omitempty"`
}

// resolveLanding dispatches the player's current position to the economy, the
// card processor, or tax/jail handling. The player row is mutated but not
// saved; callers persist it once after all effects. Assumes lock is held.
func (e *Engine) resolveLanding(ctx context.Context, s Store, buf *eventBuffer, player *models.Player, diceTotal int) (*LandingOutcome, error) {
	pos := player.Position
	out := &LandingOutcome{Action: LandingNone, Position: pos, Space: spaceName(pos)}

	switch board.SpecialAt(pos) {
	case board.SpecialGoToJail:
		sendToJail(player)
		e.turn.doubles[player.UserID] = 0
		out.Action = LandingSentToJail
		out.Position = player.Position
		buf.publish(EventSentToJail, map[string]any{
			"user_id": player.UserID, "player_id": player.ID, "reason": "space",
		})
		return out, nil

	case board.SpecialIncomeTax:
		return e.collectTax(ctx, s, buf, player, out, incomeTaxAmount)

	case board.SpecialLuxuryTax:
		return e.collectTax(ctx, s, buf, player, out, luxuryTaxAmount)

	case board.SpecialOpportunity:
		card, err := e.drawCard(ctx, s, buf, player, board.DeckOpportunity)
		if err != nil {
			return nil, err
		}
		out.Action = LandingCardDrawn
		out.Card = card
		return out, nil

	case board.SpecialCommunityFund:
		card, err := e.drawCard(ctx, s, buf, player, board.DeckCommunityFund)
		if err != nil {
			return nil, err
		}
		out.Action = LandingCardDrawn
		out.Card = card
		return out, nil

	case board.SpecialGo, board.SpecialJailVisit, board.SpecialFreeParking:
		return out, nil
	}

	prop, err := s.PropertyByID(ctx, pos)
	if err != nil {
		return nil, err
	}
	switch {
	case prop.OwnerID == nil:
		out.Action = LandingPurchaseAvailable
		return out, nil
	case prop.OwnedBy(player.ID):
		out.Action = LandingOwnProperty
		return out, nil
	}

	all, err := s.Properties(ctx)
	if err != nil {
		return nil, err
	}
	rent := rentFor(prop, all, diceTotal)
	out.OwnerID = prop.OwnerID
	out.Rent = rent
	if rent == 0 {
		out.Action = LandingOwnProperty // mortgaged: nothing owed
		return out, nil
	}
	if player.Money < rent {
		// No partial payment; the debt is surfaced, not applied.
		out.Action = LandingRentUnpaid
		return out, nil
	}

	owner, err := s.PlayerByID(ctx, *prop.OwnerID)
	if err != nil {
		return nil, err
	}
	player.Money -= rent
	owner.Money += rent
	if err := s.UpdatePlayer(ctx, owner); err != nil {
		return nil, err
	}
	out.Action = LandingRentPaid
	buf.publish(EventRentPaid, map[string]any{
		"user_id":     player.UserID,
		"player_id":   player.ID,
		"owner_id":    owner.ID,
		"property_id": prop.ID,
		"property":    prop.Name,
		"rent":        rent,
	})
	buf.record("pay_rent", player.UserID, map[string]any{
		"property_id": prop.ID, "rent": rent,
	})
	return out, nil
}

func (e *Engine) collectTax(ctx context.Context, s Store, buf *eventBuffer, player *models.Player, out *LandingOutcome, amount int) (*LandingOutcome, error) {
	player.Money -= amount
	out.Action = LandingTaxPaid
	out.Tax = amount
	buf.publish(EventTaxPaid, map[string]any{
		"user_id": player.UserID, "player_id": player.ID,
		"space": out.Space, "amount": amount,
	})
	buf.record("pay_tax", player.UserID, map[string]any{
		"space": out.Space, "amount": amount,
	})
	return out, nil
}
