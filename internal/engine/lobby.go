package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/maxharris/polymono/internal/models"
)

// Join seats a user in the lobby.
func (e *Engine) Join(ctx context.Context, userID uuid.UUID, username string) (*models.Player, error) {
	var joined *models.Player
	err := e.run(ctx, func(ctx context.Context, s Store, buf *eventBuffer) error {
		game, err := s.Game(ctx)
		if err != nil {
			return err
		}
		if game.Status != models.GameStatusLobby {
			return ruleErrorf("game already started")
		}
		players, err := s.Players(ctx)
		if err != nil {
			return err
		}
		if len(players) >= maxPlayers {
			return ruleErrorf("game is full")
		}
		maxOrder := -1
		for _, p := range players {
			if p.UserID == userID {
				return ruleErrorf("already joined")
			}
			if p.TurnOrder > maxOrder {
				maxOrder = p.TurnOrder
			}
		}
		player := &models.Player{
			ID:        uuid.New(),
			UserID:    userID,
			Username:  username,
			Money:     startingMoney,
			TurnOrder: maxOrder + 1,
		}
		if err := s.CreatePlayer(ctx, player); err != nil {
			return err
		}
		joined = player
		buf.publish(EventPlayerJoined, map[string]any{
			"user_id": userID, "player_id": player.ID, "username": username,
			"turn_order": player.TurnOrder,
		})
		buf.record("join", userID, map[string]any{"username": username})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return joined, nil
}

// ToggleReady flips the caller's lobby ready flag.
func (e *Engine) ToggleReady(ctx context.Context, userID uuid.UUID) error {
	return e.run(ctx, func(ctx context.Context, s Store, buf *eventBuffer) error {
		game, err := s.Game(ctx)
		if err != nil {
			return err
		}
		if game.Status != models.GameStatusLobby {
			return ruleErrorf("game already started")
		}
		player, err := s.PlayerByUserID(ctx, userID)
		if err != nil {
			return err
		}
		player.ReadyToStart = !player.ReadyToStart
		if err := s.UpdatePlayer(ctx, player); err != nil {
			return err
		}
		buf.publish(EventPlayerReady, map[string]any{
			"user_id": userID, "player_id": player.ID, "ready": player.ReadyToStart,
		})
		return nil
	})
}

// StartGame moves the session from lobby to in progress and opens the first
// turn. Any seated player may start once everyone is ready.
func (e *Engine) StartGame(ctx context.Context, userID uuid.UUID) error {
	return e.run(ctx, func(ctx context.Context, s Store, buf *eventBuffer) error {
		game, err := s.Game(ctx)
		if err != nil {
			return err
		}
		if game.Status != models.GameStatusLobby {
			return ruleErrorf("game already started")
		}
		if _, err := s.PlayerByUserID(ctx, userID); err != nil {
			return err
		}
		players, err := activePlayersSorted(ctx, s)
		if err != nil {
			return err
		}
		if len(players) < minPlayers {
			return ruleErrorf("need at least %d players", minPlayers)
		}
		for _, p := range players {
			if !p.ReadyToStart {
				return ruleErrorf("%s is not ready", p.Username)
			}
		}

		now := time.Now()
		game.Status = models.GameStatusInProgress
		game.StartedAt = &now
		if err := e.startTurnLocked(ctx, s, buf, game, players[0]); err != nil {
			return err
		}
		buf.publish(EventGameStarted, map[string]any{
			"user_id":      players[0].UserID,
			"player_count": len(players),
		})
		buf.record("start_game", userID, nil)
		return nil
	})
}

// Leave removes the caller's seat. In the lobby the row is deleted and turn
// orders compact; once the game is running the player is flagged bankrupt,
// their properties return to the bank, and the turn advances if it was
// theirs.
func (e *Engine) Leave(ctx context.Context, userID uuid.UUID) error {
	return e.run(ctx, func(ctx context.Context, s Store, buf *eventBuffer) error {
		game, err := s.Game(ctx)
		if err != nil {
			return err
		}
		player, err := s.PlayerByUserID(ctx, userID)
		if err != nil {
			return err
		}

		switch game.Status {
		case models.GameStatusLobby:
			if err := removeLobbyPlayer(ctx, s, player); err != nil {
				return err
			}
		case models.GameStatusInProgress:
			if player.Bankrupt {
				return ruleErrorf("already out of the game")
			}
			player.Bankrupt = true
			if err := s.UpdatePlayer(ctx, player); err != nil {
				return err
			}
			if err := releaseProperties(ctx, s, player.ID); err != nil {
				return err
			}
			if game.CurrentTurnUserID != nil && *game.CurrentTurnUserID == userID {
				if err := e.endTurnLocked(ctx, s, buf, game, userID); err != nil {
					return err
				}
			}
		default:
			return ruleErrorf("game is over")
		}

		buf.publish(EventPlayerLeft, map[string]any{
			"user_id": userID, "player_id": player.ID, "username": player.Username,
		})
		buf.record("leave", userID, nil)
		return nil
	})
}

// RemovePlayer lets the host (lowest turn order) evict a seat, lobby only.
func (e *Engine) RemovePlayer(ctx context.Context, hostUserID uuid.UUID, targetPlayerID uuid.UUID) error {
	return e.run(ctx, func(ctx context.Context, s Store, buf *eventBuffer) error {
		game, err := s.Game(ctx)
		if err != nil {
			return err
		}
		if game.Status != models.GameStatusLobby {
			return ruleErrorf("players can only be removed in the lobby")
		}
		players, err := activePlayersSorted(ctx, s)
		if err != nil {
			return err
		}
		if len(players) == 0 || players[0].UserID != hostUserID {
			return ruleErrorf("only the host can remove players")
		}
		target, err := s.PlayerByID(ctx, targetPlayerID)
		if err != nil {
			return err
		}
		if target.UserID == hostUserID {
			return ruleErrorf("the host cannot remove themselves; leave instead")
		}
		if err := removeLobbyPlayer(ctx, s, target); err != nil {
			return err
		}
		buf.publish(EventPlayerRemoved, map[string]any{
			"user_id": target.UserID, "player_id": target.ID, "username": target.Username,
		})
		buf.record("remove_player", hostUserID, map[string]any{"target": target.UserID})
		return nil
	})
}

// releaseProperties returns everything a forfeiting player owns to the bank
// so rent stops accruing to an empty seat. Assumes lock is held.
func releaseProperties(ctx context.Context, s Store, playerID uuid.UUID) error {
	properties, err := s.Properties(ctx)
	if err != nil {
		return err
	}
	for _, p := range properties {
		if !p.OwnedBy(playerID) {
			continue
		}
		p.OwnerID = nil
		p.HouseCount = 0
		p.Mortgaged = false
		if err := s.UpdateProperty(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// removeLobbyPlayer deletes a seat and compacts the turn orders above it.
func removeLobbyPlayer(ctx context.Context, s Store, target *models.Player) error {
	if err := s.DeletePlayer(ctx, target.ID); err != nil {
		return err
	}
	players, err := s.Players(ctx)
	if err != nil {
		return err
	}
	for _, p := range players {
		if p.TurnOrder > target.TurnOrder {
			p.TurnOrder--
			if err := s.UpdatePlayer(ctx, p); err != nil {
				return err
			}
		}
	}
	return nil
}

// Reset wipes all session state back to an empty lobby: players and trades
// are deleted, every property returns to the bank with no houses, and the
// game row is cleared.
func (e *Engine) Reset(ctx context.Context) error {
	return e.run(ctx, func(ctx context.Context, s Store, buf *eventBuffer) error {
		game, err := s.Game(ctx)
		if err != nil {
			return err
		}
		players, err := s.Players(ctx)
		if err != nil {
			return err
		}
		for _, p := range players {
			trades, err := s.TradesForPlayer(ctx, p.ID)
			if err != nil {
				return err
			}
			for _, t := range trades {
				if err := s.DeleteTrade(ctx, t.ID); err != nil {
					return err
				}
			}
			if err := s.DeletePlayer(ctx, p.ID); err != nil {
				return err
			}
		}
		properties, err := s.Properties(ctx)
		if err != nil {
			return err
		}
		for _, p := range properties {
			if p.OwnerID == nil && p.HouseCount == 0 && !p.Mortgaged {
				continue
			}
			p.OwnerID = nil
			p.HouseCount = 0
			p.Mortgaged = false
			if err := s.UpdateProperty(ctx, p); err != nil {
				return err
			}
		}

		game.Status = models.GameStatusLobby
		game.CurrentTurnUserID = nil
		game.TurnDeadline = nil
		game.StartedAt = nil
		game.CompletedAt = nil
		if err := s.UpdateGame(ctx, game); err != nil {
			return err
		}

		e.turn.lastRoll = nil
		e.turn.doubles = make(map[uuid.UUID]int)
		buf.stopTimer = true
		buf.publish(EventGameReset, nil)
		return nil
	})
}

// Resume re-arms the turn timer from the persisted deadline after a process
// restart. An already-expired deadline fires the timeout immediately.
func (e *Engine) Resume(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	game, err := e.store.Game(ctx)
	if err != nil {
		return err
	}
	if game.Status != models.GameStatusInProgress || game.CurrentTurnUserID == nil || game.TurnDeadline == nil {
		return nil
	}
	e.armTurnTimer(*game.CurrentTurnUserID, *game.TurnDeadline)
	return nil
}
