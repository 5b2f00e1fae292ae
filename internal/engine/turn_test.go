package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxharris/polymono/internal/models"
)

func TestEndTurnAdvancesCircularly(t *testing.T) {
	e, st, mp, users := setupGame(t, 3)
	ctx := context.Background()

	require.NoError(t, e.EndTurn(ctx, users[0]))
	game, _ := st.Game(ctx)
	assert.Equal(t, users[1], *game.CurrentTurnUserID)
	assert.NotNil(t, game.TurnDeadline)

	require.NoError(t, e.EndTurn(ctx, users[1]))
	require.NoError(t, e.EndTurn(ctx, users[2]))
	game, _ = st.Game(ctx)
	assert.Equal(t, users[0], *game.CurrentTurnUserID, "wraps back to the first seat")
	assert.Equal(t, 3, mp.countOfType(EventTurnChange))
}

func TestEndTurnSkipsBankruptPlayers(t *testing.T) {
	e, st, _, users := setupGame(t, 3)
	ctx := context.Background()
	patchPlayer(t, st, users[1], func(p *models.Player) { p.Bankrupt = true })

	require.NoError(t, e.EndTurn(ctx, users[0]))
	game, _ := st.Game(ctx)
	assert.Equal(t, users[2], *game.CurrentTurnUserID)
}

func TestEndTurnOnlyActivePlayer(t *testing.T) {
	e, _, _, users := setupGame(t, 2)
	err := e.EndTurn(context.Background(), users[1])
	require.Error(t, err)
	assert.True(t, IsRuleError(err))
}

func TestLastPlayerStandingWins(t *testing.T) {
	e, st, mp, users := setupGame(t, 3)
	ctx := context.Background()
	patchPlayer(t, st, users[1], func(p *models.Player) { p.Bankrupt = true })
	patchPlayer(t, st, users[2], func(p *models.Player) { p.Bankrupt = true })

	require.NoError(t, e.EndTurn(ctx, users[0]))

	game, _ := st.Game(ctx)
	assert.Equal(t, models.GameStatusCompleted, game.Status)
	assert.Nil(t, game.CurrentTurnUserID)
	assert.Nil(t, game.TurnDeadline)
	require.NotNil(t, game.CompletedAt)

	ev := mp.lastOfType(EventTurnChange)
	require.NotNil(t, ev)
	assert.Equal(t, true, ev.Payload["game_over"])
	assert.Equal(t, "player1", ev.Payload["winner"])
}

func TestZeroActivePlayersCompletesWithoutWinner(t *testing.T) {
	e, st, mp, users := setupGame(t, 2)
	ctx := context.Background()
	patchPlayer(t, st, users[1], func(p *models.Player) { p.Bankrupt = true })

	// The last actor goes bankrupt and their turn is ended on their behalf.
	patchPlayer(t, st, users[0], func(p *models.Player) { p.Bankrupt = true })
	require.NoError(t, e.HandleTimeout(ctx, users[0]))

	game, _ := st.Game(ctx)
	assert.Equal(t, models.GameStatusCompleted, game.Status)
	ev := mp.lastOfType(EventTurnChange)
	require.NotNil(t, ev)
	_, hasWinner := ev.Payload["winner"]
	assert.False(t, hasWinner)
}

func TestStartTurnAutoConsumesJailCard(t *testing.T) {
	e, st, mp, users := setupGame(t, 2)
	ctx := context.Background()
	patchPlayer(t, st, users[1], func(p *models.Player) {
		p.InJail = true
		p.Position = 10
		p.JailTurns = 1
		p.JailCards = 2
	})

	require.NoError(t, e.EndTurn(ctx, users[0]))

	p := mustPlayer(t, st, users[1])
	assert.False(t, p.InJail)
	assert.Equal(t, 0, p.JailTurns)
	assert.Equal(t, 1, p.JailCards)
	assert.NotNil(t, mp.lastOfType(EventJailCardUsed))
}

func TestHandleTimeoutIsStaleSafe(t *testing.T) {
	e, st, mp, users := setupGame(t, 2)
	ctx := context.Background()

	// A timeout for a player who no longer holds the turn changes nothing.
	require.NoError(t, e.HandleTimeout(ctx, users[1]))
	game, _ := st.Game(ctx)
	assert.Equal(t, users[0], *game.CurrentTurnUserID)
	assert.Equal(t, 0, mp.countOfType(EventTurnChange))

	// For the current holder it behaves like EndTurn.
	require.NoError(t, e.HandleTimeout(ctx, users[0]))
	game, _ = st.Game(ctx)
	assert.Equal(t, users[1], *game.CurrentTurnUserID)
}

func TestTurnTimerFires(t *testing.T) {
	e, st, _, users := setupGame(t, 2)
	ctx := context.Background()
	e.SetTurnTimeout(20 * time.Millisecond)

	// Re-arm with the short timeout by cycling the turn once.
	require.NoError(t, e.EndTurn(ctx, users[0]))
	game, _ := st.Game(ctx)
	require.Equal(t, users[1], *game.CurrentTurnUserID)

	require.Eventually(t, func() bool {
		game, err := st.Game(ctx)
		return err == nil && game.CurrentTurnUserID != nil && *game.CurrentTurnUserID == users[0]
	}, time.Second, 10*time.Millisecond, "deadline should pass the turn back")
}

func TestResetReturnsToEmptyLobby(t *testing.T) {
	e, st, mp, users := setupGame(t, 2)
	ctx := context.Background()
	owner := mustPlayer(t, st, users[0])
	setOwner(t, st, 1, owner.ID)

	require.NoError(t, e.Reset(ctx))

	game, _ := st.Game(ctx)
	assert.Equal(t, models.GameStatusLobby, game.Status)
	assert.Nil(t, game.CurrentTurnUserID)
	assert.Nil(t, game.StartedAt)

	players, _ := st.Players(ctx)
	assert.Empty(t, players)
	prop := mustProperty(t, st, 1)
	assert.Nil(t, prop.OwnerID)
	assert.NotNil(t, mp.lastOfType(EventGameReset))
}

func TestResumeReArmsExpiredDeadline(t *testing.T) {
	e, st, _, users := setupGame(t, 2)
	ctx := context.Background()

	// Simulate a restart with an already-expired persisted deadline.
	e.Close()
	game, _ := st.Game(ctx)
	past := time.Now().Add(-time.Minute)
	game.TurnDeadline = &past
	require.NoError(t, st.UpdateGame(ctx, game))

	require.NoError(t, e.Resume(ctx))
	require.Eventually(t, func() bool {
		game, err := st.Game(ctx)
		return err == nil && game.CurrentTurnUserID != nil && *game.CurrentTurnUserID == users[1]
	}, time.Second, 10*time.Millisecond)
}
