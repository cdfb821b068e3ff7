// Package brokertest provides a scripted in-memory broker for pipeline and
// dispatcher tests.
package brokertest

import (
	"context"
	"sync"

	"mt5bot/internal/broker"
	"mt5bot/internal/market"
	"mt5bot/internal/types"
)

// Fake is a Broker whose live state and responses are set directly by tests.
// Every Send is recorded; results are consumed from a queue, defaulting to a
// successful acknowledgement when the queue is empty.
type Fake struct {
	mu sync.Mutex

	Connected    bool
	ShutdownDone bool

	positions  []types.Position
	orders     []types.PendingOrder
	candles    map[string]market.Series
	attributes map[string]types.SymbolAttributes
	outcomes   map[int64]types.TradeOutcome

	marginOK   bool
	nextTicket int64

	results []types.OrderResult
	sent    []types.OrderRequest

	// Errs maps a method name ("Positions", "Send", ...) to an error the
	// next call returns.
	Errs map[string]error
}

var _ broker.Broker = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		candles:    make(map[string]market.Series),
		attributes: make(map[string]types.SymbolAttributes),
		outcomes:   make(map[int64]types.TradeOutcome),
		marginOK:   true,
		nextTicket: 1000,
		Errs:       make(map[string]error),
	}
}

func (f *Fake) SetPositions(positions ...types.Position) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.positions = positions
}

func (f *Fake) SetOrders(orders ...types.PendingOrder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = orders
}

func (f *Fake) SetCandles(symbol string, tf types.Timeframe, series market.Series) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candles[symbol+"/"+string(tf)] = series
}

func (f *Fake) SetAttributes(attrs types.SymbolAttributes) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attributes[attrs.Symbol] = attrs
}

func (f *Fake) SetOutcome(outcome types.TradeOutcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes[outcome.Ticket] = outcome
}

func (f *Fake) SetMargin(ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marginOK = ok
}

// QueueResult appends a scripted Send result. Queued results are consumed in
// order before the default success is synthesized.
func (f *Fake) QueueResult(res types.OrderResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, res)
}

// Sent returns a copy of every order request received so far.
func (f *Fake) Sent() []types.OrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.OrderRequest, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *Fake) err(method string) error {
	if err, ok := f.Errs[method]; ok {
		delete(f.Errs, method)
		return err
	}
	return nil
}

func (f *Fake) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("Connect"); err != nil {
		return err
	}
	f.Connected = true
	return nil
}

func (f *Fake) Shutdown(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ShutdownDone = true
	return nil
}

func (f *Fake) Positions(ctx context.Context) ([]types.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("Positions"); err != nil {
		return nil, err
	}
	out := make([]types.Position, len(f.positions))
	copy(out, f.positions)
	return out, nil
}

func (f *Fake) Position(ctx context.Context, ticket int64) (types.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("Position"); err != nil {
		return types.Position{}, err
	}
	for _, p := range f.positions {
		if p.Ticket == ticket {
			return p, nil
		}
	}
	return types.Position{}, broker.ErrPositionNotFound
}

func (f *Fake) Orders(ctx context.Context) ([]types.PendingOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("Orders"); err != nil {
		return nil, err
	}
	out := make([]types.PendingOrder, len(f.orders))
	copy(out, f.orders)
	return out, nil
}

func (f *Fake) Candles(ctx context.Context, symbol string, tf types.Timeframe, count int) (market.Series, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("Candles"); err != nil {
		return nil, err
	}
	series := f.candles[symbol+"/"+string(tf)]
	if count > 0 && len(series) > count {
		series = series[len(series)-count:]
	}
	return series, nil
}

func (f *Fake) SymbolAttributes(ctx context.Context, symbol string) (types.SymbolAttributes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("SymbolAttributes"); err != nil {
		return types.SymbolAttributes{}, err
	}
	return f.attributes[symbol], nil
}

func (f *Fake) TradeOutcome(ctx context.Context, ticket int64) (types.TradeOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("TradeOutcome"); err != nil {
		return types.TradeOutcome{}, err
	}
	outcome, ok := f.outcomes[ticket]
	if !ok {
		return types.TradeOutcome{}, broker.ErrOutcomeUnavailable
	}
	return outcome, nil
}

func (f *Fake) HasFreeMargin(ctx context.Context, orderType types.OrderType, symbol string, volume, price float64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("HasFreeMargin"); err != nil {
		return false, err
	}
	return f.marginOK, nil
}

func (f *Fake) Send(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, req)
	if err := f.err("Send"); err != nil {
		return types.OrderResult{}, err
	}
	if len(f.results) > 0 {
		res := f.results[0]
		f.results = f.results[1:]
		return res, nil
	}
	f.nextTicket++
	ticket := f.nextTicket
	if req.Ticket != 0 {
		ticket = req.Ticket
	}
	return types.OrderResult{
		Symbol:    req.Symbol,
		Action:    req.Action,
		OrderType: req.OrderType,
		Success:   true,
		Ticket:    ticket,
		Code:      0,
		Comment:   "done",
	}, nil
}
