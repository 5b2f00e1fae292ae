package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/maxharris/polymono/internal/board"
	"github.com/maxharris/polymono/internal/models"
)

// CardResult summarizes one applied card. Only the fields relevant to the
// card's effect kind are populated.
type CardResult struct {
	Deck board.DeckType   `json:"deck"`
	Text string           `json:"text"`
	Kind board.EffectKind `json:"kind"`

	MoneyDelta   int         `json:"money_delta,omitempty"` // net cash change for the drawer
	Collected    int         `json:"collected,omitempty"`   // total received from other players
	PaidOut      int         `json:"paid_out,omitempty"`    // total paid to other players
	Move         *MoveResult `json:"move,omitempty"`
	SentToJail   bool        `json:"sent_to_jail,omitempty"`
	JailCard     bool        `json:"jail_card,omitempty"`
	RepairHouses int         `json:"repair_houses,omitempty"`
	RepairHotels int         `json:"repair_hotels,omitempty"`
	RepairCost   int         `json:"repair_cost,omitempty"`
}

// drawCard samples uniformly from the fixed deck (no removal or reshuffle)
// and applies the effect. Assumes lock is held.
func (e *Engine) drawCard(ctx context.Context, s Store, buf *eventBuffer, player *models.Player, deck board.DeckType) (*CardResult, error) {
	cards := board.Deck(deck)
	return e.applyCard(ctx, s, buf, player, deck, cards[e.rng.Intn(len(cards))])
}

// applyCard applies one card effect. The drawer row is mutated in place but
// not saved; other affected players are saved here. Card-triggered moves do
// not re-resolve the landing at the destination.
func (e *Engine) applyCard(ctx context.Context, s Store, buf *eventBuffer, player *models.Player, deck board.DeckType, card board.Card) (*CardResult, error) {
	res := &CardResult{Deck: deck, Text: card.Text, Kind: card.Kind}

	switch card.Kind {
	case board.EffectMoney:
		player.Money += card.Amount
		res.MoneyDelta = card.Amount

	case board.EffectMoneyToAll:
		others, err := otherActivePlayers(ctx, s, player.ID)
		if err != nil {
			return nil, err
		}
		for _, o := range others {
			player.Money -= card.Amount
			o.Money += card.Amount
			res.PaidOut += card.Amount
			if err := s.UpdatePlayer(ctx, o); err != nil {
				return nil, err
			}
		}
		res.MoneyDelta = -res.PaidOut

	case board.EffectMoneyFromAll:
		// A short payer pays only what they have; the shortfall is absorbed,
		// not tracked as debt.
		others, err := otherActivePlayers(ctx, s, player.ID)
		if err != nil {
			return nil, err
		}
		for _, o := range others {
			pay := card.Amount
			if o.Money < pay {
				pay = o.Money
			}
			o.Money -= pay
			player.Money += pay
			res.Collected += pay
			if err := s.UpdatePlayer(ctx, o); err != nil {
				return nil, err
			}
		}
		res.MoneyDelta = res.Collected

	case board.EffectJail:
		sendToJail(player)
		res.SentToJail = true
		e.turn.doubles[player.UserID] = 0

	case board.EffectJailFree:
		player.JailCards++
		res.JailCard = true

	case board.EffectAdvanceTo:
		move := advance(player, distanceTo(player.Position, card.Position))
		res.Move = &move

	case board.EffectAdvanceNear:
		var targets []int
		if card.Nearest == models.KindRailroad {
			targets = board.Railroads()
		} else {
			targets = board.Utilities()
		}
		target := nearestAhead(player.Position, targets)
		move := advance(player, distanceTo(player.Position, target))
		res.Move = &move

	case board.EffectMoveBack:
		move := advance(player, -card.Spaces)
		res.Move = &move

	case board.EffectRepairs:
		all, err := s.Properties(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range all {
			if !p.OwnedBy(player.ID) {
				continue
			}
			if p.HouseCount >= houseMax {
				res.RepairHotels++
			} else if p.HouseCount > 0 {
				res.RepairHouses += p.HouseCount
			}
		}
		res.RepairCost = res.RepairHouses*card.HouseFee + res.RepairHotels*card.HotelFee
		player.Money -= res.RepairCost
		res.MoneyDelta = -res.RepairCost
	}

	buf.publish(EventCardDrawn, map[string]any{
		"user_id":   player.UserID,
		"player_id": player.ID,
		"deck":      deck,
		"card":      res,
	})
	buf.record("draw_card", player.UserID, map[string]any{
		"deck": string(deck), "text": card.Text,
	})
	return res, nil
}

// otherActivePlayers returns every non-bankrupt player other than exceptID.
func otherActivePlayers(ctx context.Context, s Store, exceptID uuid.UUID) ([]*models.Player, error) {
	players, err := s.Players(ctx)
	if err != nil {
		return nil, err
	}
	var out []*models.Player
	for _, p := range players {
		if p.ID == exceptID || p.Bankrupt {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
