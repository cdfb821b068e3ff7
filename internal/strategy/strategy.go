package strategy

import (
	"math"

	"mt5bot/internal/market"
	"mt5bot/internal/types"
)

// Strategy turns signals and live positions into trade intents. Evaluations
// are stateless across calls: only the instance's static identity (name,
// magic, settings) persists, and every call returns a fresh intent or nil.
type Strategy interface {
	Name() string
	Magic() int64
	Settings() types.StrategySettings

	// EvaluateOpen inspects the signals for (symbol, tf) and returns an
	// open-position intent, or nil when no signal fires.
	EvaluateOpen(symbol string, tf types.Timeframe, series market.Series, signals []types.Signal) *types.TradeIntent

	// EvaluateProtect returns a stop-to-break-even modify intent once the
	// position's unrealized profit reaches a third of goal. Positions not
	// stamped with this instance's magic, or on another timeframe, are
	// silently ignored. Already-protected positions no-op.
	EvaluateProtect(pos types.Position, attrs types.SymbolAttributes, tf types.Timeframe, goal float64) *types.TradeIntent

	// EvaluateClose returns a market-close intent once the position's
	// unrealized profit reaches goal. Same ownership rules as protect.
	EvaluateClose(pos types.Position, attrs types.SymbolAttributes, tf types.Timeframe, goal float64) *types.TradeIntent
}

// owns reports whether the position belongs to this strategy instance on the
// given timeframe. Mismatches are expected (other instances share the
// account) and never an error.
func owns(pos types.Position, magic int64, tf types.Timeframe) bool {
	return pos.Magic == magic && pos.Timeframe == tf
}

func roundTo(v float64, digits int) float64 {
	p := math.Pow10(digits)
	return math.Round(v*p) / p
}
