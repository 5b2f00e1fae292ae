package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxharris/polymono/internal/models"
)

// setupTrade starts a two-player game where player 1 owns Alphabet City (1)
// and player 2 owns Chelsea (11).
func setupTrade(t *testing.T) (*Engine, *memStore, *mockPublisher, []uuid.UUID) {
	t.Helper()
	e, st, mp, users := setupGame(t, 2)
	p1 := mustPlayer(t, st, users[0])
	p2 := mustPlayer(t, st, users[1])
	setOwner(t, st, 1, p1.ID)
	setOwner(t, st, 11, p2.ID)
	return e, st, mp, users
}

func TestProposeTradeValidatesProposerSide(t *testing.T) {
	e, st, _, users := setupTrade(t)
	ctx := context.Background()
	p2 := mustPlayer(t, st, users[1])

	// Offering a property the proposer does not own.
	_, err := e.ProposeTrade(ctx, users[0], p2.ID,
		models.TradeBundle{Properties: []int{11}}, models.TradeBundle{Money: 100})
	require.Error(t, err)
	assert.True(t, IsRuleError(err))

	// Offering more money than held.
	_, err = e.ProposeTrade(ctx, users[0], p2.ID,
		models.TradeBundle{Money: startingMoney + 1}, models.TradeBundle{})
	require.Error(t, err)

	// Offering a jail card without one.
	_, err = e.ProposeTrade(ctx, users[0], p2.ID,
		models.TradeBundle{JailCards: 1}, models.TradeBundle{})
	require.Error(t, err)

	// Empty on both sides.
	_, err = e.ProposeTrade(ctx, users[0], p2.ID,
		models.TradeBundle{}, models.TradeBundle{})
	require.Error(t, err)

	// Mortgaged property cannot be offered.
	prop := mustProperty(t, st, 1)
	prop.Mortgaged = true
	require.NoError(t, st.UpdateProperty(ctx, prop))
	_, err = e.ProposeTrade(ctx, users[0], p2.ID,
		models.TradeBundle{Properties: []int{1}}, models.TradeBundle{Money: 50})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mortgaged")
}

func TestProposeTradeRejectsBuiltOnProperty(t *testing.T) {
	e, st, _, users := setupTrade(t)
	ctx := context.Background()
	p2 := mustPlayer(t, st, users[1])
	prop := mustProperty(t, st, 1)
	prop.HouseCount = 1
	require.NoError(t, st.UpdateProperty(ctx, prop))

	_, err := e.ProposeTrade(ctx, users[0], p2.ID,
		models.TradeBundle{Properties: []int{1}}, models.TradeBundle{Money: 50})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "buildings")
}

func TestAcceptTradeSettlesAtomically(t *testing.T) {
	e, st, mp, users := setupTrade(t)
	ctx := context.Background()
	p1 := mustPlayer(t, st, users[0])
	p2 := mustPlayer(t, st, users[1])
	patchPlayer(t, st, users[0], func(p *models.Player) { p.JailCards = 1 })

	trade, err := e.ProposeTrade(ctx, users[0], p2.ID,
		models.TradeBundle{Properties: []int{1}, Money: 200, JailCards: 1},
		models.TradeBundle{Properties: []int{11}, Money: 50})
	require.NoError(t, err)

	settled, err := e.AcceptTrade(ctx, users[1], trade.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TradeAccepted, settled.Status)

	// Properties swapped.
	assert.True(t, mustProperty(t, st, 1).OwnedBy(p2.ID))
	assert.True(t, mustProperty(t, st, 11).OwnedBy(p1.ID))
	// Net money: proposer -200 +50, recipient +200 -50.
	assert.Equal(t, startingMoney-150, mustPlayer(t, st, users[0]).Money)
	assert.Equal(t, startingMoney+150, mustPlayer(t, st, users[1]).Money)
	// Jail card crossed over.
	assert.Equal(t, 0, mustPlayer(t, st, users[0]).JailCards)
	assert.Equal(t, 1, mustPlayer(t, st, users[1]).JailCards)
	assert.NotNil(t, mp.lastOfType(EventTradeAccepted))
}

func TestAcceptTradeOnlyResponder(t *testing.T) {
	e, st, _, users := setupTrade(t)
	ctx := context.Background()
	p2 := mustPlayer(t, st, users[1])

	trade, err := e.ProposeTrade(ctx, users[0], p2.ID,
		models.TradeBundle{Properties: []int{1}}, models.TradeBundle{Money: 50})
	require.NoError(t, err)

	// The proposer cannot accept their own pending offer.
	_, err = e.AcceptTrade(ctx, users[0], trade.ID)
	require.Error(t, err)
	assert.True(t, IsRuleError(err))
}

func TestAcceptStaleTradeExpires(t *testing.T) {
	e, st, mp, users := setupTrade(t)
	ctx := context.Background()
	p2 := mustPlayer(t, st, users[1])

	trade, err := e.ProposeTrade(ctx, users[0], p2.ID,
		models.TradeBundle{Properties: []int{1}}, models.TradeBundle{Money: 50})
	require.NoError(t, err)

	// The offered property changes hands before acceptance.
	setOwner(t, st, 1, p2.ID)

	settled, err := e.AcceptTrade(ctx, users[1], trade.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TradeExpired, settled.Status)
	// No resources moved.
	assert.Equal(t, startingMoney, mustPlayer(t, st, users[0]).Money)
	assert.Equal(t, startingMoney, mustPlayer(t, st, users[1]).Money)
	assert.NotNil(t, mp.lastOfType(EventTradeExpired))

	// Terminal: cannot be accepted later.
	_, err = e.AcceptTrade(ctx, users[1], trade.ID)
	require.Error(t, err)
}

func TestAcceptTradeShortfallRejectsWithoutExpiring(t *testing.T) {
	e, st, _, users := setupTrade(t)
	ctx := context.Background()
	p1 := mustPlayer(t, st, users[0])
	p2 := mustPlayer(t, st, users[1])

	trade, err := e.ProposeTrade(ctx, users[0], p2.ID,
		models.TradeBundle{Properties: []int{1}}, models.TradeBundle{Money: 100})
	require.NoError(t, err)

	// The recipient spends down below the requested amount. Ownership is
	// intact, so this is a failed precondition, not a stale trade.
	patchPlayer(t, st, users[1], func(p *models.Player) { p.Money = 60 })

	_, err = e.AcceptTrade(ctx, users[1], trade.ID)
	require.Error(t, err)
	assert.True(t, IsRuleError(err))

	got, err := st.TradeByID(ctx, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TradePending, got.Status, "trade stays open")
	assert.True(t, mustProperty(t, st, 1).OwnedBy(p1.ID))
	assert.Equal(t, startingMoney, mustPlayer(t, st, users[0]).Money)
	assert.Equal(t, 60, mustPlayer(t, st, users[1]).Money)

	// Once funded again the same offer settles.
	patchPlayer(t, st, users[1], func(p *models.Player) { p.Money = 100 })
	settled, err := e.AcceptTrade(ctx, users[1], trade.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TradeAccepted, settled.Status)
	assert.True(t, mustProperty(t, st, 1).OwnedBy(p2.ID))
}

func TestAcceptTradeRollsBackOnStoreFault(t *testing.T) {
	e, st, _, users := setupTrade(t)
	ctx := context.Background()
	p1 := mustPlayer(t, st, users[0])
	p2 := mustPlayer(t, st, users[1])

	trade, err := e.ProposeTrade(ctx, users[0], p2.ID,
		models.TradeBundle{Properties: []int{1}, Money: 200},
		models.TradeBundle{Properties: []int{11}, Money: 50})
	require.NoError(t, err)

	// The second player update fails mid-settlement; everything must revert.
	st.failPlayerUpdates = 2
	_, err = e.AcceptTrade(ctx, users[1], trade.ID)
	require.Error(t, err)

	assert.True(t, mustProperty(t, st, 1).OwnedBy(p1.ID), "offered property reverted")
	assert.True(t, mustProperty(t, st, 11).OwnedBy(p2.ID), "requested property reverted")
	assert.Equal(t, startingMoney, mustPlayer(t, st, users[0]).Money)
	assert.Equal(t, startingMoney, mustPlayer(t, st, users[1]).Money)
	got, err := st.TradeByID(ctx, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TradePending, got.Status, "trade stays retryable")
}

func TestCounterThenRecipientAccepts(t *testing.T) {
	e, st, mp, users := setupTrade(t)
	ctx := context.Background()
	p2 := mustPlayer(t, st, users[1])

	trade, err := e.ProposeTrade(ctx, users[0], p2.ID,
		models.TradeBundle{Properties: []int{1}}, models.TradeBundle{Money: 300})
	require.NoError(t, err)

	// Only the recipient may counter.
	_, err = e.CounterTrade(ctx, users[0], trade.ID,
		models.TradeBundle{Properties: []int{1}}, models.TradeBundle{Money: 100})
	require.Error(t, err)

	countered, err := e.CounterTrade(ctx, users[1], trade.ID,
		models.TradeBundle{Properties: []int{1}}, models.TradeBundle{Money: 100})
	require.NoError(t, err)
	assert.Equal(t, models.TradeCountered, countered.Status)
	assert.NotNil(t, mp.lastOfType(EventTradeCountered))

	// Accepting stays with the recipient after a counter; the proposer's
	// only move on a counter they dislike is cancellation.
	_, err = e.AcceptTrade(ctx, users[0], trade.ID)
	require.Error(t, err)
	assert.True(t, IsRuleError(err))

	settled, err := e.AcceptTrade(ctx, users[1], trade.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TradeAccepted, settled.Status)
	assert.True(t, mustProperty(t, st, 1).OwnedBy(p2.ID))
	assert.Equal(t, startingMoney+100, mustPlayer(t, st, users[0]).Money)
	assert.Equal(t, startingMoney-100, mustPlayer(t, st, users[1]).Money)
}

func TestRejectTradeChangesOnlyStatus(t *testing.T) {
	e, st, mp, users := setupTrade(t)
	ctx := context.Background()
	p1 := mustPlayer(t, st, users[0])
	p2 := mustPlayer(t, st, users[1])

	trade, err := e.ProposeTrade(ctx, users[0], p2.ID,
		models.TradeBundle{Properties: []int{1}, Money: 100}, models.TradeBundle{Money: 50})
	require.NoError(t, err)

	require.NoError(t, e.RejectTrade(ctx, users[1], trade.ID))

	got, err := st.TradeByID(ctx, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TradeRejected, got.Status)
	assert.True(t, mustProperty(t, st, 1).OwnedBy(p1.ID))
	assert.Equal(t, startingMoney, mustPlayer(t, st, users[0]).Money)
	assert.Equal(t, startingMoney, mustPlayer(t, st, users[1]).Money)
	assert.NotNil(t, mp.lastOfType(EventTradeRejected))
}

func TestCancelTradeDeletes(t *testing.T) {
	e, st, _, users := setupTrade(t)
	ctx := context.Background()
	p2 := mustPlayer(t, st, users[1])

	trade, err := e.ProposeTrade(ctx, users[0], p2.ID,
		models.TradeBundle{Properties: []int{1}}, models.TradeBundle{Money: 50})
	require.NoError(t, err)

	// Only the proposer may cancel.
	err = e.CancelTrade(ctx, users[1], trade.ID)
	require.Error(t, err)

	require.NoError(t, e.CancelTrade(ctx, users[0], trade.ID))
	_, err = st.TradeByID(ctx, trade.ID)
	require.Error(t, err)
}

func TestListTradesSweepsStaleOffers(t *testing.T) {
	e, st, _, users := setupTrade(t)
	ctx := context.Background()
	p2 := mustPlayer(t, st, users[1])

	fresh, err := e.ProposeTrade(ctx, users[0], p2.ID,
		models.TradeBundle{Money: 25}, models.TradeBundle{Money: 10})
	require.NoError(t, err)
	stale, err := e.ProposeTrade(ctx, users[0], p2.ID,
		models.TradeBundle{Properties: []int{1}}, models.TradeBundle{Money: 50})
	require.NoError(t, err)

	// The staleness trigger: Alphabet City changes hands.
	setOwner(t, st, 1, p2.ID)

	open, err := e.ListTrades(ctx, users[0])
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, fresh.ID, open[0].ID)

	swept, err := st.TradeByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TradeExpired, swept.Status)
}
