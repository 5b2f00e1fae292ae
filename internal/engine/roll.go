package engine

import (
	"context"

	"github.com/google/uuid"
)

// RollAction classifies how a roll resolved.
type RollAction string

const (
	RollMoved          RollAction = "moved"
	RollJailStay       RollAction = "jail_stay"        // jailed, no doubles
	RollJailEscape     RollAction = "jail_escape"      // jailed, rolled doubles
	RollForcedJailExit RollAction = "forced_jail_exit" // third failed escape, fine charged
	RollSentToJail     RollAction = "sent_to_jail"     // third consecutive double
)

// RollResult is the full outcome of one dice roll.
type RollResult struct {
	Roll         Roll            `json:"roll"`
	Action       RollAction      `json:"action"`
	Move         *MoveResult     `json:"move,omitempty"`
	Landing      *LandingOutcome `json:"landing,omitempty"`
	JailTurns    int             `json:"jail_turns,omitempty"`
	FinePaid     int             `json:"fine_paid,omitempty"`
	TurnEnded    bool            `json:"turn_ended,omitempty"`
	CanRollAgain bool            `json:"can_roll_again,omitempty"`
}

// RollDice rolls for the active player and resolves movement, the jail
// sub-machine, the doubles rule, and the landing space.
func (e *Engine) RollDice(ctx context.Context, userID uuid.UUID) (*RollResult, error) {
	var res *RollResult
	err := e.run(ctx, func(ctx context.Context, s Store, buf *eventBuffer) error {
		game, err := s.Game(ctx)
		if err != nil {
			return err
		}
		player, err := currentPlayer(ctx, s, game, userID)
		if err != nil {
			return err
		}

		roll := e.roll()
		res = &RollResult{Roll: roll}
		e.turn.lastRoll = &roll

		switch {
		case player.InJail && roll.Doubles:
			// Escaping on doubles does not count toward the three-doubles
			// rule and does not grant another roll.
			releaseFromJail(player)
			e.turn.doubles[userID] = 0
			res.Action = RollJailEscape
			move := advance(player, roll.Total)
			res.Move = &move

		case player.InJail:
			player.JailTurns++
			res.JailTurns = player.JailTurns
			if player.JailTurns >= maxJailTurns {
				// Third failed roll: the fine is charged and the player moves
				// by the roll regardless of funds.
				player.Money -= jailFine
				releaseFromJail(player)
				res.Action = RollForcedJailExit
				res.FinePaid = jailFine
				move := advance(player, roll.Total)
				res.Move = &move
				buf.publish(EventJailFinePaid, map[string]any{
					"user_id": userID, "player_id": player.ID,
					"amount": jailFine, "forced": true,
				})
			} else {
				res.Action = RollJailStay
			}

		default:
			if roll.Doubles {
				e.turn.doubles[userID]++
				if e.turn.doubles[userID] >= maxDoubles {
					// The third move never executes.
					sendToJail(player)
					e.turn.doubles[userID] = 0
					res.Action = RollSentToJail
					buf.publish(EventSentToJail, map[string]any{
						"user_id": userID, "player_id": player.ID, "reason": "doubles",
					})
				}
			} else {
				e.turn.doubles[userID] = 0
			}
			if res.Action == "" {
				res.Action = RollMoved
				move := advance(player, roll.Total)
				res.Move = &move
			}
		}

		if res.Move != nil {
			landing, err := e.resolveLanding(ctx, s, buf, player, roll.Total)
			if err != nil {
				return err
			}
			res.Landing = landing
		}
		if err := s.UpdatePlayer(ctx, player); err != nil {
			return err
		}

		res.CanRollAgain = res.Action == RollMoved && roll.Doubles && !player.InJail

		buf.publish(EventDiceRolled, map[string]any{
			"user_id":   userID,
			"player_id": player.ID,
			"roll":      roll,
			"action":    res.Action,
			"position":  player.Position,
			"landing":   res.Landing,
		})
		buf.record("roll_dice", userID, map[string]any{
			"die1": roll.Die1, "die2": roll.Die2, "action": string(res.Action),
		})

		// Three consecutive doubles end the turn outright.
		if res.Action == RollSentToJail {
			res.TurnEnded = true
			return e.endTurnLocked(ctx, s, buf, game, userID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// PayOutOfJail pays the fine before rolling, releasing the player so the
// following roll moves normally.
func (e *Engine) PayOutOfJail(ctx context.Context, userID uuid.UUID) error {
	return e.run(ctx, func(ctx context.Context, s Store, buf *eventBuffer) error {
		game, err := s.Game(ctx)
		if err != nil {
			return err
		}
		player, err := currentPlayer(ctx, s, game, userID)
		if err != nil {
			return err
		}
		if !player.InJail {
			return ruleErrorf("you are not in jail")
		}
		if player.Money < jailFine {
			return ruleErrorf("insufficient funds: the fine is $%d", jailFine)
		}
		player.Money -= jailFine
		releaseFromJail(player)
		e.turn.doubles[userID] = 0
		if err := s.UpdatePlayer(ctx, player); err != nil {
			return err
		}
		buf.publish(EventJailFinePaid, map[string]any{
			"user_id": userID, "player_id": player.ID,
			"amount": jailFine, "forced": false,
		})
		buf.record("pay_jail_fine", userID, nil)
		return nil
	})
}
