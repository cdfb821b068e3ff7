package store

import (
	"context"
	"testing"
	"time"

	"mt5bot/internal/broker"
	"mt5bot/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccount struct {
	positions []types.Position
	orders    []types.PendingOrder
	outcomes  map[int64]types.TradeOutcome
}

func (f *fakeAccount) Positions(ctx context.Context) ([]types.Position, error) {
	return f.positions, nil
}

func (f *fakeAccount) Orders(ctx context.Context) ([]types.PendingOrder, error) {
	return f.orders, nil
}

func (f *fakeAccount) TradeOutcome(ctx context.Context, ticket int64) (types.TradeOutcome, error) {
	outcome, ok := f.outcomes[ticket]
	if !ok {
		return types.TradeOutcome{}, broker.ErrOutcomeUnavailable
	}
	return outcome, nil
}

type recordingLedger struct {
	positions map[int64]PositionRecord
	orders    map[int64]OrderRecord
	trades    map[int64]TradeRecord
	applied   []Transition
}

func newRecordingLedger() *recordingLedger {
	return &recordingLedger{
		positions: make(map[int64]PositionRecord),
		orders:    make(map[int64]OrderRecord),
		trades:    make(map[int64]TradeRecord),
	}
}

func (l *recordingLedger) Apply(ctx context.Context, t Transition) error {
	l.applied = append(l.applied, t)
	switch tr := t.(type) {
	case NewPosition:
		l.positions[tr.Ticket] = PositionRecord(tr)
	case NewTrade:
		delete(l.positions, tr.Ticket)
		l.trades[tr.Ticket] = TradeRecord(tr)
	case NewPendingOrder:
		l.orders[tr.Ticket] = OrderRecord(tr)
	case CancelPendingOrder:
		delete(l.orders, tr.Ticket)
	case DeletePosition:
		delete(l.positions, tr.Ticket)
	}
	return nil
}

func (l *recordingLedger) Positions(ctx context.Context) ([]PositionRecord, error) {
	out := make([]PositionRecord, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, p)
	}
	return out, nil
}

func (l *recordingLedger) Orders(ctx context.Context) ([]OrderRecord, error) {
	out := make([]OrderRecord, 0, len(l.orders))
	for _, o := range l.orders {
		out = append(out, o)
	}
	return out, nil
}

func (l *recordingLedger) PositionsFor(ctx context.Context, key types.StrategyKey) ([]PositionRecord, error) {
	return l.Positions(ctx)
}

func (l *recordingLedger) OrdersFor(ctx context.Context, key types.StrategyKey) ([]OrderRecord, error) {
	return l.Orders(ctx)
}

func (l *recordingLedger) TradesOpenedOn(ctx context.Context, day time.Time) ([]TradeRecord, error) {
	return nil, nil
}

func (l *recordingLedger) Close() error { return nil }

func TestSyncConvertsClosedPositionToTrade(t *testing.T) {
	ledger := newRecordingLedger()
	ledger.positions[555] = PositionRecord{
		Symbol:    "EURUSD",
		Timeframe: types.H1,
		Strategy:  "EMACross",
		Ticket:    555,
		OpenTime:  "2026-08-30 10:00:00",
		OpenPrice: 1.1000,
		Volume:    0.10,
		Type:      types.Buy,
		Magic:     100,
	}
	src := &fakeAccount{
		outcomes: map[int64]types.TradeOutcome{
			555: {
				Ticket:     555,
				OpenTime:   "2026-08-30 10:00:00",
				CloseTime:  "2026-08-30 12:00:00",
				OpenPrice:  1.1000,
				ClosePrice: 1.0980,
				Profit:     -20,
			},
		},
	}
	r := NewReconciler(src, ledger)

	require.NoError(t, r.Sync(context.Background()))
	assert.NotContains(t, ledger.positions, int64(555))
	require.Contains(t, ledger.trades, int64(555))
	trade := ledger.trades[555]
	assert.Equal(t, -20.0, trade.Profit)
	assert.Equal(t, "2026-08-30 12:00:00", trade.CloseTime)
	assert.Equal(t, types.H1, trade.Timeframe)
}

func TestSyncSkipsPositionWithUnavailableOutcome(t *testing.T) {
	ledger := newRecordingLedger()
	ledger.positions[555] = PositionRecord{Symbol: "EURUSD", Ticket: 555}
	src := &fakeAccount{} // closed broker-side but history not readable yet
	r := NewReconciler(src, ledger)

	require.NoError(t, r.Sync(context.Background()))
	assert.Contains(t, ledger.positions, int64(555))
	assert.Empty(t, ledger.trades)

	// the gap resolves on a later cycle
	src.outcomes = map[int64]types.TradeOutcome{555: {Ticket: 555, Profit: 5}}
	require.NoError(t, r.Sync(context.Background()))
	assert.NotContains(t, ledger.positions, int64(555))
	assert.Contains(t, ledger.trades, int64(555))
}

func TestSyncCancelsMissingPendingOrder(t *testing.T) {
	ledger := newRecordingLedger()
	ledger.orders[600] = OrderRecord{Symbol: "EURUSD", Ticket: 600}
	r := NewReconciler(&fakeAccount{}, ledger)

	require.NoError(t, r.Sync(context.Background()))
	assert.Empty(t, ledger.orders)
}

func TestSyncIsIdempotent(t *testing.T) {
	ledger := newRecordingLedger()
	ledger.positions[555] = PositionRecord{Symbol: "EURUSD", Ticket: 555}
	ledger.orders[600] = OrderRecord{Symbol: "EURUSD", Ticket: 600}
	src := &fakeAccount{outcomes: map[int64]types.TradeOutcome{555: {Ticket: 555}}}
	r := NewReconciler(src, ledger)

	require.NoError(t, r.Sync(context.Background()))
	applied := len(ledger.applied)
	require.NoError(t, r.Sync(context.Background()))
	assert.Equal(t, applied, len(ledger.applied))
}

func TestSyncLeavesLivePositionsAlone(t *testing.T) {
	ledger := newRecordingLedger()
	ledger.positions[555] = PositionRecord{Symbol: "EURUSD", Ticket: 555}
	src := &fakeAccount{positions: []types.Position{{Symbol: "EURUSD", Ticket: 555}}}
	r := NewReconciler(src, ledger)

	require.NoError(t, r.Sync(context.Background()))
	assert.Contains(t, ledger.positions, int64(555))
	assert.Empty(t, ledger.applied)
}
