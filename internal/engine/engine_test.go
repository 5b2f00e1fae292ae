package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/maxharris/polymono/internal/board"
	"github.com/maxharris/polymono/internal/models"
)

// mockPublisher collects events instead of sending them over WS.
type mockPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (mp *mockPublisher) Publish(ev Event) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.events = append(mp.events, ev)
}

func (mp *mockPublisher) clear() {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.events = nil
}

func (mp *mockPublisher) lastOfType(t EventType) *Event {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	for i := len(mp.events) - 1; i >= 0; i-- {
		if mp.events[i].Type == t {
			return &mp.events[i]
		}
	}
	return nil
}

func (mp *mockPublisher) countOfType(t EventType) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	n := 0
	for _, ev := range mp.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

// memStore is an in-memory Store with snapshot/rollback Transact, so the
// engine's atomicity contract can be exercised without a database.
type memStore struct {
	game       models.Game
	players    map[uuid.UUID]*models.Player
	properties map[int]*models.Property
	trades     map[uuid.UUID]*models.Trade

	// failPlayerUpdates > 0 makes the nth subsequent UpdatePlayer call fail,
	// forcing a rollback mid-settlement.
	failPlayerUpdates int
}

func newMemStore() *memStore {
	st := &memStore{
		game:       models.Game{ID: 1, Status: models.GameStatusLobby},
		players:    make(map[uuid.UUID]*models.Player),
		properties: make(map[int]*models.Property),
		trades:     make(map[uuid.UUID]*models.Trade),
	}
	for _, p := range board.Catalog() {
		prop := p
		st.properties[prop.ID] = &prop
	}
	return st
}

func (st *memStore) snapshot() *memStore {
	cp := &memStore{
		game:       st.game,
		players:    make(map[uuid.UUID]*models.Player, len(st.players)),
		properties: make(map[int]*models.Property, len(st.properties)),
		trades:     make(map[uuid.UUID]*models.Trade, len(st.trades)),
	}
	for id, p := range st.players {
		v := *p
		cp.players[id] = &v
	}
	for id, p := range st.properties {
		v := *p
		cp.properties[id] = &v
	}
	for id, t := range st.trades {
		v := *t
		cp.trades[id] = &v
	}
	return cp
}

func (st *memStore) restore(cp *memStore) {
	st.game = cp.game
	st.players = cp.players
	st.properties = cp.properties
	st.trades = cp.trades
}

func (st *memStore) Transact(ctx context.Context, fn func(Store) error) error {
	cp := st.snapshot()
	if err := fn(st); err != nil {
		st.restore(cp)
		return err
	}
	return nil
}

func (st *memStore) Game(ctx context.Context) (*models.Game, error) {
	g := st.game
	return &g, nil
}

func (st *memStore) UpdateGame(ctx context.Context, g *models.Game) error {
	st.game = *g
	return nil
}

func (st *memStore) Players(ctx context.Context) ([]*models.Player, error) {
	out := make([]*models.Player, 0, len(st.players))
	for _, p := range st.players {
		v := *p
		out = append(out, &v)
	}
	return out, nil
}

func (st *memStore) PlayerByID(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	p, ok := st.players[id]
	if !ok {
		return nil, fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	v := *p
	return &v, nil
}

func (st *memStore) PlayerByUserID(ctx context.Context, userID uuid.UUID) (*models.Player, error) {
	for _, p := range st.players {
		if p.UserID == userID {
			v := *p
			return &v, nil
		}
	}
	return nil, fmt.Errorf("player for user %s: %w", userID, ErrNotFound)
}

func (st *memStore) CreatePlayer(ctx context.Context, p *models.Player) error {
	v := *p
	st.players[p.ID] = &v
	return nil
}

func (st *memStore) UpdatePlayer(ctx context.Context, p *models.Player) error {
	if st.failPlayerUpdates > 0 {
		st.failPlayerUpdates--
		if st.failPlayerUpdates == 0 {
			return fmt.Errorf("injected store fault")
		}
	}
	if _, ok := st.players[p.ID]; !ok {
		return fmt.Errorf("player %s: %w", p.ID, ErrNotFound)
	}
	v := *p
	st.players[p.ID] = &v
	return nil
}

func (st *memStore) DeletePlayer(ctx context.Context, id uuid.UUID) error {
	delete(st.players, id)
	return nil
}

func (st *memStore) Properties(ctx context.Context) ([]*models.Property, error) {
	out := make([]*models.Property, 0, len(st.properties))
	for i := 0; i < board.Size; i++ {
		v := *st.properties[i]
		out = append(out, &v)
	}
	return out, nil
}

func (st *memStore) PropertyByID(ctx context.Context, id int) (*models.Property, error) {
	p, ok := st.properties[id]
	if !ok {
		return nil, fmt.Errorf("property %d: %w", id, ErrNotFound)
	}
	v := *p
	return &v, nil
}

func (st *memStore) UpdateProperty(ctx context.Context, p *models.Property) error {
	if _, ok := st.properties[p.ID]; !ok {
		return fmt.Errorf("property %d: %w", p.ID, ErrNotFound)
	}
	v := *p
	st.properties[p.ID] = &v
	return nil
}

func (st *memStore) CreateTrade(ctx context.Context, t *models.Trade) error {
	v := *t
	st.trades[t.ID] = &v
	return nil
}

func (st *memStore) TradeByID(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	t, ok := st.trades[id]
	if !ok {
		return nil, fmt.Errorf("trade %s: %w", id, ErrNotFound)
	}
	v := *t
	return &v, nil
}

func (st *memStore) TradesForPlayer(ctx context.Context, playerID uuid.UUID) ([]*models.Trade, error) {
	var out []*models.Trade
	for _, t := range st.trades {
		if t.ProposerID == playerID || t.RecipientID == playerID {
			v := *t
			out = append(out, &v)
		}
	}
	return out, nil
}

func (st *memStore) UpdateTrade(ctx context.Context, t *models.Trade) error {
	if _, ok := st.trades[t.ID]; !ok {
		return fmt.Errorf("trade %s: %w", t.ID, ErrNotFound)
	}
	v := *t
	st.trades[t.ID] = &v
	return nil
}

func (st *memStore) DeleteTrade(ctx context.Context, id uuid.UUID) error {
	delete(st.trades, id)
	return nil
}

// mustPlayer fetches a player row directly from the store.
func mustPlayer(t *testing.T, st *memStore, userID uuid.UUID) *models.Player {
	t.Helper()
	p, err := st.PlayerByUserID(context.Background(), userID)
	require.NoError(t, err)
	return p
}

func mustProperty(t *testing.T, st *memStore, id int) *models.Property {
	t.Helper()
	p, err := st.PropertyByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

// fixedRoll pins the next dice rolls; the last entry repeats.
func fixedRoll(e *Engine, rolls ...Roll) {
	i := 0
	e.roll = func() Roll {
		r := rolls[i]
		if i < len(rolls)-1 {
			i++
		}
		return r
	}
}

func dice(d1, d2 int) Roll {
	return Roll{Die1: d1, Die2: d2, Total: d1 + d2, Doubles: d1 == d2}
}

// setupLobby creates an engine with n users seated in the lobby.
func setupLobby(t *testing.T, n int) (*Engine, *memStore, *mockPublisher, []uuid.UUID) {
	t.Helper()
	st := newMemStore()
	mp := &mockPublisher{}
	e := New(st, mp, nil)

	ctx := context.Background()
	users := make([]uuid.UUID, n)
	for i := range users {
		users[i] = uuid.New()
		_, err := e.Join(ctx, users[i], fmt.Sprintf("player%d", i+1))
		require.NoError(t, err)
	}
	return e, st, mp, users
}

// setupGame starts an n-player game. users[0] holds the first turn.
func setupGame(t *testing.T, n int) (*Engine, *memStore, *mockPublisher, []uuid.UUID) {
	t.Helper()
	e, st, mp, users := setupLobby(t, n)
	ctx := context.Background()
	for _, u := range users {
		require.NoError(t, e.ToggleReady(ctx, u))
	}
	require.NoError(t, e.StartGame(ctx, users[0]))
	t.Cleanup(e.Close)
	mp.clear()
	return e, st, mp, users
}

// setOwner assigns a property to a player directly in the store.
func setOwner(t *testing.T, st *memStore, pos int, playerID uuid.UUID) {
	t.Helper()
	prop := mustProperty(t, st, pos)
	prop.OwnerID = &playerID
	require.NoError(t, st.UpdateProperty(context.Background(), prop))
}

// patchPlayer applies fn to a player row directly in the store.
func patchPlayer(t *testing.T, st *memStore, userID uuid.UUID, fn func(*models.Player)) {
	t.Helper()
	p := mustPlayer(t, st, userID)
	fn(p)
	require.NoError(t, st.UpdatePlayer(context.Background(), p))
}
