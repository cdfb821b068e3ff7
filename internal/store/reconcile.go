package store

import (
	"context"

	"mt5bot/internal/logger"
	"mt5bot/internal/types"
)

// AccountSource is the slice of the broker the reconciler needs: the live
// position/order sets and the trade history lookup.
type AccountSource interface {
	Positions(ctx context.Context) ([]types.Position, error)
	Orders(ctx context.Context) ([]types.PendingOrder, error)
	TradeOutcome(ctx context.Context, ticket int64) (types.TradeOutcome, error)
}

// Reconciler diffs the ledger against the broker's live account state once
// per outer cycle. It is the only mechanism that picks up out-of-band
// activity: stop-loss/take-profit auto-fills, manual closes, expired or
// cancelled pending orders.
type Reconciler struct {
	src    AccountSource
	ledger Ledger
}

func NewReconciler(src AccountSource, ledger Ledger) *Reconciler {
	return &Reconciler{src: src, ledger: ledger}
}

// Sync applies the diff. Re-running against an unchanged broker state is a
// no-op: every transition it emits removes the very row that triggered it.
// A ticket whose trade history cannot be fetched is skipped and retried next
// cycle rather than failing the pass.
func (r *Reconciler) Sync(ctx context.Context) error {
	if err := r.syncPositions(ctx); err != nil {
		return err
	}
	return r.syncOrders(ctx)
}

func (r *Reconciler) syncPositions(ctx context.Context) error {
	live, err := r.src.Positions(ctx)
	if err != nil {
		return err
	}
	liveSet := make(map[int64]bool, len(live))
	for _, p := range live {
		liveSet[p.Ticket] = true
	}
	recorded, err := r.ledger.Positions(ctx)
	if err != nil {
		return err
	}
	for _, rec := range recorded {
		if liveSet[rec.Ticket] {
			continue
		}
		outcome, err := r.src.TradeOutcome(ctx, rec.Ticket)
		if err != nil {
			// Reconciliation gap: history not readable yet. The row
			// stays put and the next cycle retries.
			logger.Warnf("reconcile: outcome unavailable for ticket=%d: %v", rec.Ticket, err)
			continue
		}
		trade := NewTrade{
			Symbol:     rec.Symbol,
			Timeframe:  rec.Timeframe,
			Strategy:   rec.Strategy,
			Ticket:     rec.Ticket,
			OpenTime:   outcome.OpenTime,
			CloseTime:  outcome.CloseTime,
			OpenPrice:  outcome.OpenPrice,
			ClosePrice: outcome.ClosePrice,
			Volume:     rec.Volume,
			Type:       rec.Type,
			Profit:     outcome.Profit,
			StopLoss:   rec.StopLoss,
			TakeProfit: rec.TakeProfit,
			Commission: outcome.Commission,
			Swap:       outcome.Swap,
			Fee:        outcome.Fee,
			Magic:      rec.Magic,
		}
		if err := r.ledger.Apply(ctx, trade); err != nil {
			return err
		}
		logger.Infof("reconcile: position closed broker-side ticket=%d symbol=%s profit=%.2f",
			rec.Ticket, rec.Symbol, outcome.Profit)
	}
	return nil
}

func (r *Reconciler) syncOrders(ctx context.Context) error {
	live, err := r.src.Orders(ctx)
	if err != nil {
		return err
	}
	liveSet := make(map[int64]bool, len(live))
	for _, o := range live {
		liveSet[o.Ticket] = true
	}
	recorded, err := r.ledger.Orders(ctx)
	if err != nil {
		return err
	}
	for _, rec := range recorded {
		if liveSet[rec.Ticket] {
			continue
		}
		if err := r.ledger.Apply(ctx, CancelPendingOrder{Ticket: rec.Ticket}); err != nil {
			return err
		}
		logger.Infof("reconcile: pending order gone broker-side ticket=%d symbol=%s", rec.Ticket, rec.Symbol)
	}
	return nil
}
