package gormstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"mt5bot/internal/store"
	"mt5bot/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testPosition(ticket int64) store.NewPosition {
	return store.NewPosition{
		Symbol:    "EURUSD",
		Timeframe: types.H1,
		Strategy:  "EMACross",
		Ticket:    ticket,
		OpenTime:  types.FormatTime(time.Now()),
		OpenPrice: 1.1050,
		Volume:    0.10,
		Type:      types.Buy,
		StopLoss:  1.1000,
		Magic:     100,
	}
}

func TestApplyNewPositionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Apply(ctx, testPosition(555)))

	positions, err := s.Positions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, int64(555), positions[0].Ticket)
	assert.Equal(t, types.H1, positions[0].Timeframe)
	assert.Equal(t, 1.1000, positions[0].StopLoss)

	key := types.StrategyKey{Symbol: "EURUSD", Timeframe: types.H1, Strategy: "EMACross"}
	scoped, err := s.PositionsFor(ctx, key)
	require.NoError(t, err)
	assert.Len(t, scoped, 1)

	other := key
	other.Timeframe = types.M15
	scoped, err = s.PositionsFor(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, scoped)
}

func TestNewTradeReplacesPositionAtomically(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Apply(ctx, testPosition(555)))

	trade := store.NewTrade{
		Symbol:     "EURUSD",
		Timeframe:  types.H1,
		Strategy:   "EMACross",
		Ticket:     555,
		OpenTime:   types.FormatTime(time.Now()),
		CloseTime:  types.FormatTime(time.Now()),
		OpenPrice:  1.1050,
		ClosePrice: 1.1080,
		Volume:     0.10,
		Type:       types.Buy,
		Profit:     30,
		Magic:      100,
	}
	require.NoError(t, s.Apply(ctx, trade))

	positions, err := s.Positions(ctx)
	require.NoError(t, err)
	assert.Empty(t, positions)

	trades, err := s.TradesOpenedOn(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, 30.0, trades[0].Profit)
}

func TestTradesOpenedOnFiltersByLocalDay(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	today := store.NewTrade{Symbol: "EURUSD", Ticket: 1, OpenTime: types.FormatTime(time.Now()), Profit: 10}
	yesterday := store.NewTrade{Symbol: "EURUSD", Ticket: 2, OpenTime: types.FormatTime(time.Now().AddDate(0, 0, -1)), Profit: -50}
	require.NoError(t, s.Apply(ctx, today))
	require.NoError(t, s.Apply(ctx, yesterday))

	trades, err := s.TradesOpenedOn(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(1), trades[0].Ticket)
}

func TestPendingOrderLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	order := store.NewPendingOrder{
		Symbol:     "EURUSD",
		Timeframe:  types.H1,
		Strategy:   "EMACross",
		Ticket:     600,
		PlacedTime: types.FormatTime(time.Now()),
		Price:      1.0950,
		Volume:     0.10,
		Type:       types.BuyLimit,
		Magic:      100,
	}
	require.NoError(t, s.Apply(ctx, order))

	orders, err := s.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, types.BuyLimit, orders[0].Type)

	require.NoError(t, s.Apply(ctx, store.CancelPendingOrder{Ticket: 600}))
	orders, err = s.Orders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)

	// cancelling an absent ticket is a no-op, not an error
	require.NoError(t, s.Apply(ctx, store.CancelPendingOrder{Ticket: 600}))
}

func TestLedgerSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.db")
	ctx := context.Background()

	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.Apply(ctx, testPosition(555)))
	require.NoError(t, s.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()

	positions, err := reopened.Positions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, int64(555), positions[0].Ticket)
}
