package types

import "github.com/google/uuid"

// StrategySettings is the per-strategy policy snapshot carried on every
// intent so the gates never reach back into strategy state.
type StrategySettings struct {
	MaxVolume         float64 `json:"max_volume"`
	MultiplePositions bool    `json:"multiple_positions"`
}

// TradeIntent is a candidate trade produced by a strategy evaluation. It is
// immutable once created; each evaluation cycle produces a fresh one.
type TradeIntent struct {
	ID         string           `json:"id"`
	Symbol     string           `json:"symbol"`
	Timeframe  Timeframe        `json:"timeframe"`
	Strategy   string           `json:"strategy"`
	Magic      int64            `json:"magic"`
	Action     OrderAction      `json:"action"`
	OrderType  OrderType        `json:"order_type"`
	Price      float64          `json:"price"`
	Spread     float64          `json:"spread"`
	Digits     int              `json:"digits"`
	StopLoss   float64          `json:"stop_loss"`
	TakeProfit float64          `json:"take_profit"`
	LimitPrice float64          `json:"limit_price,omitempty"`
	StopLimit  float64          `json:"stop_limit,omitempty"`
	Ticket     int64            `json:"ticket,omitempty"`
	Settings   StrategySettings `json:"settings"`
}

// NewIntentID returns the identifier stamped on each intent for log and
// operation-trail correlation.
func NewIntentID() string {
	return uuid.NewString()
}

// Key identifies the (symbol, timeframe, strategy) scheduling scope of the
// intent.
func (i TradeIntent) Key() StrategyKey {
	return StrategyKey{Symbol: i.Symbol, Timeframe: i.Timeframe, Strategy: i.Strategy}
}

// StrategyKey scopes cooldowns and ledger lookups.
type StrategyKey struct {
	Symbol    string
	Timeframe Timeframe
	Strategy  string
}

func (k StrategyKey) String() string {
	return k.Symbol + "/" + string(k.Timeframe) + "/" + k.Strategy
}
