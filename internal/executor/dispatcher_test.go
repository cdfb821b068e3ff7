package executor

import (
	"context"
	"testing"
	"time"

	"mt5bot/internal/broker/brokertest"
	"mt5bot/internal/store"
	"mt5bot/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memLedger records applied transitions and keeps a minimal in-memory state.
type memLedger struct {
	applied   []store.Transition
	positions map[int64]store.PositionRecord
	orders    map[int64]store.OrderRecord
	trades    map[int64]store.TradeRecord
}

func newMemLedger() *memLedger {
	return &memLedger{
		positions: make(map[int64]store.PositionRecord),
		orders:    make(map[int64]store.OrderRecord),
		trades:    make(map[int64]store.TradeRecord),
	}
}

func (m *memLedger) Apply(ctx context.Context, t store.Transition) error {
	m.applied = append(m.applied, t)
	switch tr := t.(type) {
	case store.NewPosition:
		m.positions[tr.Ticket] = store.PositionRecord(tr)
	case store.NewTrade:
		delete(m.positions, tr.Ticket)
		m.trades[tr.Ticket] = store.TradeRecord(tr)
	case store.NewPendingOrder:
		m.orders[tr.Ticket] = store.OrderRecord(tr)
	case store.CancelPendingOrder:
		delete(m.orders, tr.Ticket)
	case store.DeletePosition:
		delete(m.positions, tr.Ticket)
	}
	return nil
}

func (m *memLedger) Positions(ctx context.Context) ([]store.PositionRecord, error) {
	out := make([]store.PositionRecord, 0, len(m.positions))
	for _, p := range m.positions {
		out = append(out, p)
	}
	return out, nil
}

func (m *memLedger) Orders(ctx context.Context) ([]store.OrderRecord, error) {
	out := make([]store.OrderRecord, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

func (m *memLedger) PositionsFor(ctx context.Context, key types.StrategyKey) ([]store.PositionRecord, error) {
	return m.Positions(ctx)
}

func (m *memLedger) OrdersFor(ctx context.Context, key types.StrategyKey) ([]store.OrderRecord, error) {
	return m.Orders(ctx)
}

func (m *memLedger) TradesOpenedOn(ctx context.Context, day time.Time) ([]store.TradeRecord, error) {
	out := make([]store.TradeRecord, 0, len(m.trades))
	for _, t := range m.trades {
		out = append(out, t)
	}
	return out, nil
}

func (m *memLedger) Close() error { return nil }

func marketAttrs() types.SymbolAttributes {
	return types.SymbolAttributes{
		Symbol: "EURUSD",
		Bid:    1.1048,
		Ask:    1.1050,
		Spread: 0.0002,
		Digits: 5,
	}
}

func openRequest() types.OrderRequest {
	return types.OrderRequest{
		Symbol:    "EURUSD",
		Timeframe: types.H1,
		Strategy:  "EMACross",
		Action:    types.OpenPosition,
		OrderType: types.Buy,
		Volume:    0.10,
		StopLoss:  1.1000,
		Magic:     100,
		Deviation: 20,
		Comment:   "EMACross H1",
	}
}

func TestExecuteOpenInsertsPosition(t *testing.T) {
	fake := brokertest.New()
	fake.SetAttributes(marketAttrs())
	fake.QueueResult(types.OrderResult{Success: true, Ticket: 555})
	fake.SetOutcome(types.TradeOutcome{
		Ticket:    555,
		OpenTime:  "2026-08-30 10:00:00",
		OpenPrice: 1.1050,
	})
	ledger := newMemLedger()
	d := New(fake, ledger)

	res, err := d.Execute(context.Background(), openRequest())
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, int64(555), res.Ticket)

	require.Len(t, ledger.applied, 1)
	pos, ok := ledger.applied[0].(store.NewPosition)
	require.True(t, ok)
	assert.Equal(t, int64(555), pos.Ticket)
	assert.Equal(t, "2026-08-30 10:00:00", pos.OpenTime)
	assert.Equal(t, 0.10, pos.Volume)

	// open buys at the ask
	sent := fake.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, 1.1050, sent[0].Price)
}

func TestExecuteOpenRejectsPendingType(t *testing.T) {
	fake := brokertest.New()
	ledger := newMemLedger()
	d := New(fake, ledger)

	req := openRequest()
	req.OrderType = types.BuyLimit
	res, err := d.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Comment, "neither BUY nor SELL")
	assert.Empty(t, fake.Sent())
	assert.Empty(t, ledger.applied)
}

func TestExecuteOpenWithoutMargin(t *testing.T) {
	fake := brokertest.New()
	fake.SetAttributes(marketAttrs())
	fake.SetMargin(false)
	ledger := newMemLedger()
	d := New(fake, ledger)

	res, err := d.Execute(context.Background(), openRequest())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Comment, "free margin")
	assert.Empty(t, fake.Sent())
	assert.Empty(t, ledger.applied)
}

func TestExecuteCloseAlreadyClosed(t *testing.T) {
	fake := brokertest.New() // no live positions
	ledger := newMemLedger()
	d := New(fake, ledger)

	req := types.OrderRequest{
		Symbol:    "EURUSD",
		Timeframe: types.H1,
		Strategy:  "EMACross",
		Action:    types.ClosePosition,
		OrderType: types.Buy,
		Ticket:    777,
	}
	res, err := d.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Comment, "already closed")
	assert.Empty(t, fake.Sent())
	assert.Empty(t, ledger.applied)
}

func TestExecuteCloseConvertsPositionToTrade(t *testing.T) {
	fake := brokertest.New()
	fake.SetAttributes(marketAttrs())
	fake.SetPositions(types.Position{
		Symbol: "EURUSD", Timeframe: types.H1, Strategy: "EMACross",
		Ticket: 555, Type: types.Buy, Volume: 0.10, OpenPrice: 1.1000,
	})
	fake.SetOutcome(types.TradeOutcome{
		Ticket:     555,
		OpenTime:   "2026-08-30 10:00:00",
		CloseTime:  "2026-08-30 14:00:00",
		OpenPrice:  1.1000,
		ClosePrice: 1.1030,
		Profit:     30,
	})
	ledger := newMemLedger()
	ledger.positions[555] = store.PositionRecord{Ticket: 555}
	d := New(fake, ledger)

	req := types.OrderRequest{
		Symbol: "EURUSD", Timeframe: types.H1, Strategy: "EMACross",
		Action: types.ClosePosition, OrderType: types.Buy, Ticket: 555,
	}
	res, err := d.Execute(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.Success)

	// a buy closes by selling at the bid with the position's volume
	sent := fake.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, types.Sell, sent[0].OrderType)
	assert.Equal(t, 1.1048, sent[0].Price)
	assert.Equal(t, 0.10, sent[0].Volume)

	require.Len(t, ledger.applied, 1)
	trade, ok := ledger.applied[0].(store.NewTrade)
	require.True(t, ok)
	assert.Equal(t, 30.0, trade.Profit)
	assert.NotContains(t, ledger.positions, int64(555))
	assert.Contains(t, ledger.trades, int64(555))
}

func TestExecutePlaceAndDeletePendingOrder(t *testing.T) {
	fake := brokertest.New()
	ledger := newMemLedger()
	d := New(fake, ledger)

	place := types.OrderRequest{
		Symbol: "EURUSD", Timeframe: types.H1, Strategy: "EMACross",
		Action: types.PlacePendingOrder, OrderType: types.BuyLimit,
		Volume: 0.10, Price: 1.0950,
	}
	res, err := d.Execute(context.Background(), place)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Contains(t, ledger.orders, res.Ticket)

	del := types.OrderRequest{
		Symbol: "EURUSD", Timeframe: types.H1, Strategy: "EMACross",
		Action: types.DeletePendingOrder, OrderType: types.BuyLimit,
		Ticket: res.Ticket,
	}
	delRes, err := d.Execute(context.Background(), del)
	require.NoError(t, err)
	require.True(t, delRes.Success)
	assert.Empty(t, ledger.orders)
}

func TestExecuteModifyDoesNotTouchLedger(t *testing.T) {
	fake := brokertest.New()
	ledger := newMemLedger()
	d := New(fake, ledger)

	req := types.OrderRequest{
		Symbol: "EURUSD", Timeframe: types.H1, Strategy: "EMACross",
		Action: types.ModifyPosition, OrderType: types.Buy,
		Ticket: 555, StopLoss: 1.1000,
	}
	res, err := d.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Len(t, fake.Sent(), 1)
	assert.Empty(t, ledger.applied)
}

func TestExecuteBrokerRejectionReturnsResult(t *testing.T) {
	fake := brokertest.New()
	fake.SetAttributes(marketAttrs())
	fake.QueueResult(types.OrderResult{Success: false, Code: 10019, Comment: "No money"})
	ledger := newMemLedger()
	d := New(fake, ledger)

	res, err := d.Execute(context.Background(), openRequest())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 10019, res.Code)
	assert.Empty(t, ledger.applied)
}
