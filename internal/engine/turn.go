package engine

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/maxharris/polymono/internal/models"
)

// activePlayersSorted returns the non-bankrupt players ordered by turn order.
func activePlayersSorted(ctx context.Context, s Store) ([]*models.Player, error) {
	players, err := s.Players(ctx)
	if err != nil {
		return nil, err
	}
	var out []*models.Player
	for _, p := range players {
		if !p.Bankrupt {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TurnOrder < out[j].TurnOrder })
	return out, nil
}

// startTurnLocked hands the turn to player: sets the active player and the
// deadline, resets the doubles counter, and auto-consumes a jail-free card if
// the player is jailed and holds one. Assumes lock is held, runs inside the
// caller's transaction.
func (e *Engine) startTurnLocked(ctx context.Context, s Store, buf *eventBuffer, game *models.Game, player *models.Player) error {
	deadline := time.Now().Add(e.turnTimeout)
	game.CurrentTurnUserID = &player.UserID
	game.TurnDeadline = &deadline
	e.turn.doubles[player.UserID] = 0
	e.turn.lastRoll = nil

	if player.InJail && player.JailCards > 0 {
		player.JailCards--
		releaseFromJail(player)
		if err := s.UpdatePlayer(ctx, player); err != nil {
			return err
		}
		buf.publish(EventJailCardUsed, map[string]any{
			"user_id":    player.UserID,
			"player_id":  player.ID,
			"jail_cards": player.JailCards,
		})
		buf.record("use_jail_card", player.UserID, nil)
	}

	if err := s.UpdateGame(ctx, game); err != nil {
		return err
	}
	buf.timer = &timerRequest{userID: player.UserID, deadline: deadline}
	return nil
}

// endTurnLocked recomputes the active set and either completes the game or
// advances circularly to the next non-bankrupt player. prevUserID is the
// player whose turn is ending. Assumes lock is held.
func (e *Engine) endTurnLocked(ctx context.Context, s Store, buf *eventBuffer, game *models.Game, prevUserID uuid.UUID) error {
	delete(e.turn.doubles, prevUserID)
	e.turn.lastRoll = nil

	active, err := activePlayersSorted(ctx, s)
	if err != nil {
		return err
	}

	if len(active) <= 1 {
		now := time.Now()
		game.Status = models.GameStatusCompleted
		game.CurrentTurnUserID = nil
		game.TurnDeadline = nil
		game.CompletedAt = &now
		if err := s.UpdateGame(ctx, game); err != nil {
			return err
		}
		payload := map[string]any{"game_over": true}
		if len(active) == 1 {
			payload["winner_id"] = active[0].ID
			payload["winner"] = active[0].Username
		}
		buf.stopTimer = true
		buf.publish(EventTurnChange, payload)
		buf.record("game_over", prevUserID, payload)
		return nil
	}

	// Advance circularly from the previous player's turn order, skipping
	// bankrupt seats.
	prev, err := s.PlayerByUserID(ctx, prevUserID)
	if err != nil {
		return err
	}
	next := active[0]
	for _, p := range active {
		if p.TurnOrder > prev.TurnOrder {
			next = p
			break
		}
	}
	if err := e.startTurnLocked(ctx, s, buf, game, next); err != nil {
		return err
	}
	buf.publish(EventTurnChange, map[string]any{
		"user_id":   next.UserID,
		"player_id": next.ID,
		"deadline":  game.TurnDeadline,
	})
	buf.record("end_turn", prevUserID, map[string]any{"next_user_id": next.UserID})
	return nil
}

// EndTurn passes the turn. Only the active player may call it.
func (e *Engine) EndTurn(ctx context.Context, userID uuid.UUID) error {
	return e.run(ctx, func(ctx context.Context, s Store, buf *eventBuffer) error {
		game, err := s.Game(ctx)
		if err != nil {
			return err
		}
		if _, err := currentPlayer(ctx, s, game, userID); err != nil {
			return err
		}
		return e.endTurnLocked(ctx, s, buf, game, userID)
	})
}

// HandleTimeout is the deadline-triggered equivalent of EndTurn. It is a
// no-op if the turn has moved on since the timer was armed.
func (e *Engine) HandleTimeout(ctx context.Context, userID uuid.UUID) error {
	return e.run(ctx, func(ctx context.Context, s Store, buf *eventBuffer) error {
		game, err := s.Game(ctx)
		if err != nil {
			return err
		}
		if game.Status != models.GameStatusInProgress {
			return nil
		}
		if game.CurrentTurnUserID == nil || *game.CurrentTurnUserID != userID {
			return nil // stale timer
		}
		buf.record("turn_timeout", userID, nil)
		return e.endTurnLocked(ctx, s, buf, game, userID)
	})
}

// armTurnTimer replaces the pending turn timer. Assumes lock is held.
func (e *Engine) armTurnTimer(userID uuid.UUID, deadline time.Time) {
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(time.Until(deadline), func() {
		if err := e.HandleTimeout(context.Background(), userID); err != nil {
			log.Printf("engine: turn timeout for user %s: %v", userID, err)
		}
	})
}
