package broker

import (
	"context"
	"errors"

	"mt5bot/internal/market"
	"mt5bot/internal/types"
)

var (
	// ErrPositionNotFound is returned by Position when the ticket is no
	// longer in the broker's live set.
	ErrPositionNotFound = errors.New("broker: position not found")
	// ErrOutcomeUnavailable is returned by TradeOutcome when the broker's
	// trade history cannot be read for the ticket yet.
	ErrOutcomeUnavailable = errors.New("broker: trade outcome unavailable")
)

// Broker is the capability interface over the trading terminal. The pipeline
// depends only on this interface; broker-specific constants (return codes,
// order fill policies) stay inside the production implementation.
type Broker interface {
	Connect(ctx context.Context) error
	Shutdown(ctx context.Context) error

	Positions(ctx context.Context) ([]types.Position, error)
	Position(ctx context.Context, ticket int64) (types.Position, error)
	Orders(ctx context.Context) ([]types.PendingOrder, error)
	Candles(ctx context.Context, symbol string, tf types.Timeframe, count int) (market.Series, error)
	SymbolAttributes(ctx context.Context, symbol string) (types.SymbolAttributes, error)
	TradeOutcome(ctx context.Context, ticket int64) (types.TradeOutcome, error)
	HasFreeMargin(ctx context.Context, orderType types.OrderType, symbol string, volume, price float64) (bool, error)

	// Send submits one order request. Broker rejections come back as an
	// unsuccessful OrderResult, not an error; errors are transport-level.
	Send(ctx context.Context, req types.OrderRequest) (types.OrderResult, error)
}
