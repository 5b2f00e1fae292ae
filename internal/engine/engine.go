// Package engine is the authoritative rules engine for the single persistent
// game session: turn scheduling, dice and movement, the jail sub-machine, the
// property economy, card effects, landing resolution and trade settlement.
//
// Every mutating command runs inside one Store.Transact call, so partial
// application is never observable. Results are broadcast as domain events
// through the injected Publisher after the transaction commits.
package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maxharris/polymono/internal/models"
)

const (
	goSalary        = 200
	jailFine        = 50
	incomeTaxAmount = 200
	luxuryTaxAmount = 100
	startingMoney   = 1500

	maxJailTurns = 3 // failed escape rolls before the fine is forced
	maxDoubles   = 3 // consecutive doubles before jail
	houseMax     = 5 // 5 denotes a hotel

	minPlayers = 2
	maxPlayers = 8

	defaultTurnTimeout = 24 * time.Hour
)

// Roll is one two-die roll.
type Roll struct {
	Die1    int  `json:"die1"`
	Die2    int  `json:"die2"`
	Total   int  `json:"total"`
	Doubles bool `json:"doubles"`
}

// turnState is the engine's only volatile state: the current dice roll cache
// (UI replay) and per-player consecutive-doubles counters. A counter resets
// when that player starts a new turn, rolls a non-double, or escapes jail.
// Loss of this state on restart affects replay only, never correctness.
type turnState struct {
	lastRoll *Roll
	doubles  map[uuid.UUID]int
}

// Engine serializes all commands for the session behind one mutex. There is
// exactly one Engine per process and exactly one session per deployment.
type Engine struct {
	store   Store
	pub     Publisher
	actions ActionLog

	mu   sync.Mutex
	turn turnState
	rng  *rand.Rand
	roll func() Roll // dice source, swappable in tests

	turnTimeout time.Duration
	timer       *time.Timer
}

// New builds an engine over the given store and publisher. actions may be nil
// to disable action recording.
func New(store Store, pub Publisher, actions ActionLog) *Engine {
	e := &Engine{
		store:       store,
		pub:         pub,
		actions:     actions,
		turn:        turnState{doubles: make(map[uuid.UUID]int)},
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		turnTimeout: defaultTurnTimeout,
	}
	e.roll = e.randomRoll
	return e
}

// SetTurnTimeout overrides the 24h turn deadline. Intended for tests and for
// deployments that configure a shorter game pace.
func (e *Engine) SetTurnTimeout(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.turnTimeout = d
}

// run executes fn inside a store transaction while holding the engine lock,
// then flushes buffered events and action records. Buffered output from a
// rolled-back attempt is discarded.
func (e *Engine) run(ctx context.Context, fn func(ctx context.Context, s Store, buf *eventBuffer) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runLocked(ctx, fn)
}

// runLocked is run for callers that already hold e.mu.
func (e *Engine) runLocked(ctx context.Context, fn func(ctx context.Context, s Store, buf *eventBuffer) error) error {
	var buf eventBuffer
	err := e.store.Transact(ctx, func(s Store) error {
		buf.reset()
		return fn(ctx, s, &buf)
	})
	if err != nil {
		return err
	}
	e.flush(ctx, &buf)
	return nil
}

func (e *Engine) flush(ctx context.Context, buf *eventBuffer) {
	if buf.stopTimer && e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if buf.timer != nil {
		e.armTurnTimer(buf.timer.userID, buf.timer.deadline)
	}
	for _, ev := range buf.events {
		e.pub.Publish(ev)
	}
	if e.actions == nil {
		return
	}
	for _, a := range buf.actions {
		e.actions.Record(ctx, a.action, a.userID, a.detail)
	}
}

// randomRoll produces one roll. Assumes lock is held.
func (e *Engine) randomRoll() Roll {
	d1 := e.rng.Intn(6) + 1
	d2 := e.rng.Intn(6) + 1
	return Roll{Die1: d1, Die2: d2, Total: d1 + d2, Doubles: d1 == d2}
}

// currentPlayer loads the caller's player row and checks that the session is
// in progress and it is their turn.
func currentPlayer(ctx context.Context, s Store, game *models.Game, userID uuid.UUID) (*models.Player, error) {
	if game.Status != models.GameStatusInProgress {
		return nil, ruleErrorf("game is not in progress")
	}
	if game.CurrentTurnUserID == nil || *game.CurrentTurnUserID != userID {
		return nil, ruleErrorf("not your turn")
	}
	player, err := s.PlayerByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if player.Bankrupt {
		return nil, ruleErrorf("you are bankrupt")
	}
	return player, nil
}

// FullState is the complete observable session state, served by the state
// endpoint so reconnecting clients can rebuild their view.
type FullState struct {
	Game       *models.Game       `json:"game"`
	Players    []*models.Player   `json:"players"`
	Properties []*models.Property `json:"properties"`
	LastRoll   *Roll              `json:"last_roll,omitempty"`
}

// State returns a consistent snapshot of the session.
func (e *Engine) State(ctx context.Context) (*FullState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var st FullState
	err := e.store.Transact(ctx, func(s Store) error {
		game, err := s.Game(ctx)
		if err != nil {
			return err
		}
		players, err := s.Players(ctx)
		if err != nil {
			return err
		}
		properties, err := s.Properties(ctx)
		if err != nil {
			return err
		}
		st = FullState{Game: game, Players: players, Properties: properties}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if e.turn.lastRoll != nil {
		roll := *e.turn.lastRoll
		st.LastRoll = &roll
	}
	return &st, nil
}

// Close stops the turn timer. The engine must not be used afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}
