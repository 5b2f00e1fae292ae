package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/maxharris/polymono/internal/models"
)

func validBundle(b models.TradeBundle) error {
	if b.Money < 0 || b.JailCards < 0 {
		return ruleErrorf("trade amounts cannot be negative")
	}
	seen := make(map[int]bool, len(b.Properties))
	for _, id := range b.Properties {
		if seen[id] {
			return ruleErrorf("duplicate property in trade bundle")
		}
		seen[id] = true
	}
	return nil
}

// checkBundleSide verifies that owner holds every property in the bundle,
// none mortgaged or built on, and has the bundled money and cards.
func checkBundleSide(ctx context.Context, s Store, owner *models.Player, b models.TradeBundle) error {
	for _, id := range b.Properties {
		prop, err := s.PropertyByID(ctx, id)
		if err != nil {
			return err
		}
		if !prop.OwnedBy(owner.ID) {
			return ruleErrorf("%s does not own %s", owner.Username, prop.Name)
		}
		if prop.Mortgaged {
			return ruleErrorf("%s is mortgaged and cannot be traded", prop.Name)
		}
		if prop.HouseCount > 0 {
			return ruleErrorf("%s has buildings and cannot be traded", prop.Name)
		}
	}
	if owner.Money < b.Money {
		return ruleErrorf("%s lacks the offered $%d", owner.Username, b.Money)
	}
	if owner.JailCards < b.JailCards {
		return ruleErrorf("%s lacks the offered jail cards", owner.Username)
	}
	return nil
}

// ProposeTrade creates a pending offer from the caller to another player.
// Only the proposer's side is validated here; the recipient's side is checked
// at settlement.
func (e *Engine) ProposeTrade(ctx context.Context, userID uuid.UUID, recipientPlayerID uuid.UUID, offered, requested models.TradeBundle) (*models.Trade, error) {
	var trade *models.Trade
	err := e.run(ctx, func(ctx context.Context, s Store, buf *eventBuffer) error {
		game, err := s.Game(ctx)
		if err != nil {
			return err
		}
		if game.Status != models.GameStatusInProgress {
			return ruleErrorf("game is not in progress")
		}
		proposer, err := s.PlayerByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if proposer.Bankrupt {
			return ruleErrorf("you are bankrupt")
		}
		recipient, err := s.PlayerByID(ctx, recipientPlayerID)
		if err != nil {
			return err
		}
		if recipient.ID == proposer.ID {
			return ruleErrorf("cannot trade with yourself")
		}
		if recipient.Bankrupt {
			return ruleErrorf("%s is out of the game", recipient.Username)
		}
		if err := validBundle(offered); err != nil {
			return err
		}
		if err := validBundle(requested); err != nil {
			return err
		}
		if offered.Empty() && requested.Empty() {
			return ruleErrorf("trade moves nothing")
		}
		if err := checkBundleSide(ctx, s, proposer, offered); err != nil {
			return err
		}

		now := time.Now()
		trade = &models.Trade{
			ID:          uuid.New(),
			ProposerID:  proposer.ID,
			RecipientID: recipient.ID,
			Offered:     offered,
			Requested:   requested,
			Status:      models.TradePending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.CreateTrade(ctx, trade); err != nil {
			return err
		}
		buf.publish(EventTradeOffer, map[string]any{
			"trade_id": trade.ID, "proposer_id": proposer.ID, "recipient_id": recipient.ID,
		})
		buf.record("propose_trade", userID, map[string]any{"trade_id": trade.ID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return trade, nil
}

// CounterTrade lets the recipient replace both bundles. The proposer's side
// is not re-validated here; settlement re-checks everything.
func (e *Engine) CounterTrade(ctx context.Context, userID uuid.UUID, tradeID uuid.UUID, offered, requested models.TradeBundle) (*models.Trade, error) {
	var trade *models.Trade
	err := e.run(ctx, func(ctx context.Context, s Store, buf *eventBuffer) error {
		t, err := s.TradeByID(ctx, tradeID)
		if err != nil {
			return err
		}
		if t.Status.Terminal() {
			return ruleErrorf("trade is already %s", t.Status)
		}
		caller, err := s.PlayerByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if caller.ID != t.RecipientID {
			return ruleErrorf("only the recipient can counter")
		}
		if err := validBundle(offered); err != nil {
			return err
		}
		if err := validBundle(requested); err != nil {
			return err
		}
		if offered.Empty() && requested.Empty() {
			return ruleErrorf("trade moves nothing")
		}

		t.Offered = offered
		t.Requested = requested
		t.Status = models.TradeCountered
		t.UpdatedAt = time.Now()
		if err := s.UpdateTrade(ctx, t); err != nil {
			return err
		}
		trade = t
		buf.publish(EventTradeCountered, map[string]any{
			"trade_id": t.ID, "proposer_id": t.ProposerID, "recipient_id": t.RecipientID,
		})
		buf.record("counter_trade", userID, map[string]any{"trade_id": t.ID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return trade, nil
}

// AcceptTrade settles the trade atomically. Only the recipient may accept,
// whether the bundles are the original offer or their own counter. Every
// precondition is re-checked at this moment: if a referenced property has
// changed hands or a party has dropped out, the trade transitions to expired
// with no resource movement and the returned trade carries that status; a
// money or jail-card shortfall rejects the accept outright and leaves the
// trade open for retry. A store fault mid-settlement rolls back every partial
// transfer.
func (e *Engine) AcceptTrade(ctx context.Context, userID uuid.UUID, tradeID uuid.UUID) (*models.Trade, error) {
	var trade *models.Trade
	err := e.run(ctx, func(ctx context.Context, s Store, buf *eventBuffer) error {
		t, err := s.TradeByID(ctx, tradeID)
		if err != nil {
			return err
		}
		if t.Status.Terminal() {
			return ruleErrorf("trade is already %s", t.Status)
		}
		caller, err := s.PlayerByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if caller.ID != t.RecipientID {
			return ruleErrorf("only the recipient can accept")
		}
		proposer, err := s.PlayerByID(ctx, t.ProposerID)
		if err != nil {
			return err
		}
		recipient, err := s.PlayerByID(ctx, t.RecipientID)
		if err != nil {
			return err
		}

		stale, err := tradeStale(ctx, s, t)
		if err != nil {
			return err
		}
		if stale || proposer.Bankrupt || recipient.Bankrupt {
			t.Status = models.TradeExpired
			t.UpdatedAt = time.Now()
			if err := s.UpdateTrade(ctx, t); err != nil {
				return err
			}
			trade = t
			buf.publish(EventTradeExpired, map[string]any{
				"trade_id": t.ID, "status": t.Status,
			})
			return nil
		}

		// Ownership is intact; anything else a side lacks is a precondition
		// violation, not staleness. The rejection rolls back, so the trade
		// stays open.
		if err := checkBundleSide(ctx, s, proposer, t.Offered); err != nil {
			return err
		}
		if err := checkBundleSide(ctx, s, recipient, t.Requested); err != nil {
			return err
		}

		for _, id := range t.Offered.Properties {
			if err := transferProperty(ctx, s, id, recipient.ID); err != nil {
				return err
			}
		}
		for _, id := range t.Requested.Properties {
			if err := transferProperty(ctx, s, id, proposer.ID); err != nil {
				return err
			}
		}
		proposer.Money += t.Requested.Money - t.Offered.Money
		recipient.Money += t.Offered.Money - t.Requested.Money
		proposer.JailCards += t.Requested.JailCards - t.Offered.JailCards
		recipient.JailCards += t.Offered.JailCards - t.Requested.JailCards
		if err := s.UpdatePlayer(ctx, proposer); err != nil {
			return err
		}
		if err := s.UpdatePlayer(ctx, recipient); err != nil {
			return err
		}

		t.Status = models.TradeAccepted
		t.UpdatedAt = time.Now()
		if err := s.UpdateTrade(ctx, t); err != nil {
			return err
		}
		trade = t
		buf.publish(EventTradeAccepted, map[string]any{
			"trade_id": t.ID, "proposer_id": t.ProposerID, "recipient_id": t.RecipientID,
		})
		buf.record("accept_trade", userID, map[string]any{"trade_id": t.ID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return trade, nil
}

func transferProperty(ctx context.Context, s Store, propertyID int, newOwner uuid.UUID) error {
	prop, err := s.PropertyByID(ctx, propertyID)
	if err != nil {
		return err
	}
	prop.OwnerID = &newOwner
	return s.UpdateProperty(ctx, prop)
}

// RejectTrade declines without moving any resources. Like accept, rejection
// belongs to the recipient in every open state; the proposer's way out of a
// counter is CancelTrade.
func (e *Engine) RejectTrade(ctx context.Context, userID uuid.UUID, tradeID uuid.UUID) error {
	return e.run(ctx, func(ctx context.Context, s Store, buf *eventBuffer) error {
		t, err := s.TradeByID(ctx, tradeID)
		if err != nil {
			return err
		}
		if t.Status.Terminal() {
			return ruleErrorf("trade is already %s", t.Status)
		}
		caller, err := s.PlayerByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if caller.ID != t.RecipientID {
			return ruleErrorf("only the recipient can reject")
		}
		t.Status = models.TradeRejected
		t.UpdatedAt = time.Now()
		if err := s.UpdateTrade(ctx, t); err != nil {
			return err
		}
		buf.publish(EventTradeRejected, map[string]any{
			"trade_id": t.ID, "status": t.Status,
		})
		buf.record("reject_trade", userID, map[string]any{"trade_id": t.ID})
		return nil
	})
}

// CancelTrade withdraws a non-terminal offer; only the proposer may cancel,
// and the record is deleted rather than kept.
func (e *Engine) CancelTrade(ctx context.Context, userID uuid.UUID, tradeID uuid.UUID) error {
	return e.run(ctx, func(ctx context.Context, s Store, buf *eventBuffer) error {
		t, err := s.TradeByID(ctx, tradeID)
		if err != nil {
			return err
		}
		if t.Status.Terminal() {
			return ruleErrorf("trade is already %s", t.Status)
		}
		caller, err := s.PlayerByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if caller.ID != t.ProposerID {
			return ruleErrorf("only the proposer can cancel")
		}
		if err := s.DeleteTrade(ctx, t.ID); err != nil {
			return err
		}
		buf.publish(EventTradeCancelled, map[string]any{"trade_id": t.ID})
		buf.record("cancel_trade", userID, map[string]any{"trade_id": t.ID})
		return nil
	})
}

// tradeStale reports whether any referenced property has changed hands since
// the trade was drawn up.
func tradeStale(ctx context.Context, s Store, t *models.Trade) (bool, error) {
	check := func(ids []int, owner uuid.UUID) (bool, error) {
		for _, id := range ids {
			prop, err := s.PropertyByID(ctx, id)
			if err != nil {
				return false, err
			}
			if !prop.OwnedBy(owner) {
				return true, nil
			}
		}
		return false, nil
	}
	if stale, err := check(t.Offered.Properties, t.ProposerID); err != nil || stale {
		return stale, err
	}
	return check(t.Requested.Properties, t.RecipientID)
}

// ListTrades returns the caller's open trades. Listing sweeps lazily: any
// open trade whose properties are no longer owned as declared is marked
// expired and dropped from the result.
func (e *Engine) ListTrades(ctx context.Context, userID uuid.UUID) ([]*models.Trade, error) {
	var out []*models.Trade
	err := e.run(ctx, func(ctx context.Context, s Store, buf *eventBuffer) error {
		out = out[:0]
		player, err := s.PlayerByUserID(ctx, userID)
		if err != nil {
			return err
		}
		trades, err := s.TradesForPlayer(ctx, player.ID)
		if err != nil {
			return err
		}
		for _, t := range trades {
			if t.Status.Terminal() {
				continue
			}
			stale, err := tradeStale(ctx, s, t)
			if err != nil {
				return err
			}
			if stale {
				t.Status = models.TradeExpired
				t.UpdatedAt = time.Now()
				if err := s.UpdateTrade(ctx, t); err != nil {
					return err
				}
				continue
			}
			out = append(out, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
