package executor

import (
	"context"
	"errors"
	"fmt"

	"mt5bot/internal/broker"
	"mt5bot/internal/logger"
	"mt5bot/internal/store"
	"mt5bot/internal/types"
)

// Dispatcher maps a sized order request onto one of the six broker
// operations, sends it, and on confirmation emits the matching ledger
// transition. Broker rejections come back inside the OrderResult; the error
// return is reserved for transport and ledger failures. Failed results are
// never retried here: the caller's deferral policy decides when to try again.
type Dispatcher struct {
	broker broker.Broker
	ledger store.Ledger
}

func New(b broker.Broker, ledger store.Ledger) *Dispatcher {
	return &Dispatcher{broker: b, ledger: ledger}
}

func (d *Dispatcher) Execute(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	switch req.Action {
	case types.OpenPosition:
		return d.openPosition(ctx, req)
	case types.ClosePosition:
		return d.closePosition(ctx, req)
	case types.ModifyPosition:
		return d.send(ctx, req)
	case types.PlacePendingOrder:
		return d.placePendingOrder(ctx, req)
	case types.ModifyPendingOrder:
		return d.send(ctx, req)
	case types.DeletePendingOrder:
		return d.deletePendingOrder(ctx, req)
	default:
		return failure(req, fmt.Sprintf("unknown action %q", req.Action)), nil
	}
}

func (d *Dispatcher) openPosition(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	if !req.OrderType.IsMarket() {
		return failure(req, fmt.Sprintf("the order type (%s) is neither BUY nor SELL", req.OrderType)), nil
	}
	attrs, err := d.broker.SymbolAttributes(ctx, req.Symbol)
	if err != nil {
		return types.OrderResult{}, fmt.Errorf("dispatch open: symbol attributes: %w", err)
	}
	price := attrs.Bid
	if req.OrderType == types.Buy {
		price = attrs.Ask
	}

	ok, err := d.broker.HasFreeMargin(ctx, req.OrderType, req.Symbol, req.Volume, price)
	if err != nil {
		return types.OrderResult{}, fmt.Errorf("dispatch open: margin check: %w", err)
	}
	if !ok {
		return failure(req, fmt.Sprintf("%s - do not have free margin for volume %v at price %v",
			req.Symbol, req.Volume, price)), nil
	}

	req.Price = price
	res, err := d.broker.Send(ctx, req)
	if err != nil {
		return types.OrderResult{}, fmt.Errorf("dispatch open: %w", err)
	}
	if !res.Success {
		return res, nil
	}

	outcome := d.outcomeOrFallback(ctx, res.Ticket, req.Price)
	err = d.ledger.Apply(ctx, store.NewPosition{
		Symbol:     req.Symbol,
		Timeframe:  req.Timeframe,
		Strategy:   req.Strategy,
		Ticket:     res.Ticket,
		OpenTime:   outcome.OpenTime,
		OpenPrice:  outcome.OpenPrice,
		Volume:     req.Volume,
		Type:       req.OrderType,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		Magic:      req.Magic,
	})
	return res, err
}

func (d *Dispatcher) closePosition(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	pos, err := d.broker.Position(ctx, req.Ticket)
	if errors.Is(err, broker.ErrPositionNotFound) {
		return failure(req, fmt.Sprintf("the position (%d) is already closed", req.Ticket)), nil
	}
	if err != nil {
		return types.OrderResult{}, fmt.Errorf("dispatch close: lookup position %d: %w", req.Ticket, err)
	}

	attrs, err := d.broker.SymbolAttributes(ctx, req.Symbol)
	if err != nil {
		return types.OrderResult{}, fmt.Errorf("dispatch close: symbol attributes: %w", err)
	}

	// Closing trades the opposite side at the opposite quote.
	send := req
	send.OrderType = pos.Type.Inverse()
	send.Volume = pos.Volume
	send.Price = attrs.Ask
	if send.OrderType == types.Sell {
		send.Price = attrs.Bid
	}

	res, err := d.broker.Send(ctx, send)
	if err != nil {
		return types.OrderResult{}, fmt.Errorf("dispatch close: %w", err)
	}
	res.OrderType = pos.Type
	if !res.Success {
		return res, nil
	}

	outcome, err := d.broker.TradeOutcome(ctx, req.Ticket)
	if err != nil {
		// The close confirmed but history is not readable yet; the
		// reconciliation pass will convert the position next cycle.
		logger.Warnf("dispatch close: outcome unavailable for ticket=%d: %v", req.Ticket, err)
		return res, nil
	}
	err = d.ledger.Apply(ctx, store.NewTrade{
		Symbol:     req.Symbol,
		Timeframe:  req.Timeframe,
		Strategy:   req.Strategy,
		Ticket:     req.Ticket,
		OpenTime:   outcome.OpenTime,
		CloseTime:  outcome.CloseTime,
		OpenPrice:  outcome.OpenPrice,
		ClosePrice: outcome.ClosePrice,
		Volume:     pos.Volume,
		Type:       pos.Type,
		Profit:     outcome.Profit,
		StopLoss:   pos.StopLoss,
		TakeProfit: pos.TakeProfit,
		Commission: outcome.Commission,
		Swap:       outcome.Swap,
		Fee:        outcome.Fee,
		Magic:      req.Magic,
	})
	return res, err
}

func (d *Dispatcher) placePendingOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	if !req.OrderType.IsPending() {
		return failure(req, fmt.Sprintf("the order type (%s) is not a pending order", req.OrderType)), nil
	}
	ok, err := d.broker.HasFreeMargin(ctx, req.OrderType, req.Symbol, req.Volume, req.Price)
	if err != nil {
		return types.OrderResult{}, fmt.Errorf("dispatch pending: margin check: %w", err)
	}
	if !ok {
		return failure(req, fmt.Sprintf("%s - do not have free margin for volume %v at price %v",
			req.Symbol, req.Volume, req.Price)), nil
	}

	res, err := d.broker.Send(ctx, req)
	if err != nil {
		return types.OrderResult{}, fmt.Errorf("dispatch pending: %w", err)
	}
	if !res.Success {
		return res, nil
	}

	outcome := d.outcomeOrFallback(ctx, res.Ticket, req.Price)
	err = d.ledger.Apply(ctx, store.NewPendingOrder{
		Symbol:     req.Symbol,
		Timeframe:  req.Timeframe,
		Strategy:   req.Strategy,
		Ticket:     res.Ticket,
		PlacedTime: outcome.OpenTime,
		Price:      req.Price,
		Volume:     req.Volume,
		Type:       req.OrderType,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		Magic:      req.Magic,
	})
	return res, err
}

func (d *Dispatcher) deletePendingOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	res, err := d.broker.Send(ctx, req)
	if err != nil {
		return types.OrderResult{}, fmt.Errorf("dispatch delete: %w", err)
	}
	if !res.Success {
		return res, nil
	}
	return res, d.ledger.Apply(ctx, store.CancelPendingOrder{Ticket: req.Ticket})
}

func (d *Dispatcher) send(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	res, err := d.broker.Send(ctx, req)
	if err != nil {
		return types.OrderResult{}, fmt.Errorf("dispatch %s: %w", req.Action, err)
	}
	return res, nil
}

// outcomeOrFallback fetches the aggregated fill data for a confirmed ticket.
// When history lags behind the acknowledgement the request's own price and an
// empty open time stand in, so the ledger row is never lost.
func (d *Dispatcher) outcomeOrFallback(ctx context.Context, ticket int64, price float64) types.TradeOutcome {
	outcome, err := d.broker.TradeOutcome(ctx, ticket)
	if err != nil {
		logger.Warnf("dispatch: outcome unavailable for ticket=%d, recording request price: %v", ticket, err)
		return types.TradeOutcome{Ticket: ticket, OpenPrice: price}
	}
	return outcome
}

func failure(req types.OrderRequest, comment string) types.OrderResult {
	return types.OrderResult{
		Symbol:    req.Symbol,
		Action:    req.Action,
		OrderType: req.OrderType,
		Success:   false,
		Ticket:    req.Ticket,
		Comment:   comment,
	}
}
