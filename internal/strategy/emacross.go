package strategy

import (
	"mt5bot/internal/market"
	"mt5bot/internal/types"
)

const atrBand = 0.5

// EMACross opens in the direction of an EMA crossover signal, with the stop
// placed beyond the previous bar's extremum widened by half an ATR.
type EMACross struct {
	name       string
	magic      int64
	settings   types.StrategySettings
	signalName string
	atrPeriod  int
}

type EMACrossConfig struct {
	Name              string
	Magic             int64
	MaxVolume         float64
	MultiplePositions bool
	SignalName        string
	ATRPeriod         int
}

func NewEMACross(cfg EMACrossConfig) *EMACross {
	if cfg.ATRPeriod <= 0 {
		cfg.ATRPeriod = 20
	}
	if cfg.SignalName == "" {
		cfg.SignalName = "EMACrossover"
	}
	return &EMACross{
		name:       cfg.Name,
		magic:      cfg.Magic,
		settings:   types.StrategySettings{MaxVolume: cfg.MaxVolume, MultiplePositions: cfg.MultiplePositions},
		signalName: cfg.SignalName,
		atrPeriod:  cfg.ATRPeriod,
	}
}

func (s *EMACross) Name() string                     { return s.name }
func (s *EMACross) Magic() int64                     { return s.magic }
func (s *EMACross) Settings() types.StrategySettings { return s.settings }

func (s *EMACross) EvaluateOpen(symbol string, tf types.Timeframe, series market.Series, signals []types.Signal) *types.TradeIntent {
	sig, ok := market.Lookup(signals, s.signalName, symbol, tf)
	if !ok || sig.Value == 0 || len(series) < 2 {
		return nil
	}
	atr := market.LastATR(series, s.atrPeriod)
	if atr <= 0 {
		return nil
	}
	last := series.Last(0)
	prev := series.Last(1)

	intent := types.TradeIntent{
		ID:        types.NewIntentID(),
		Symbol:    symbol,
		Timeframe: tf,
		Strategy:  s.name,
		Magic:     s.magic,
		Action:    types.OpenPosition,
		Price:     last.Close,
		Spread:    last.Spread,
		Digits:    last.Digits,
		Settings:  s.settings,
	}
	switch sig.Value {
	case 1:
		intent.OrderType = types.Buy
		intent.StopLoss = prev.Low - atr*atrBand
	case -1:
		intent.OrderType = types.Sell
		intent.StopLoss = prev.High + atr*atrBand
	default:
		return nil
	}
	return &intent
}

func (s *EMACross) EvaluateProtect(pos types.Position, attrs types.SymbolAttributes, tf types.Timeframe, goal float64) *types.TradeIntent {
	if !owns(pos, s.magic, tf) {
		return nil
	}
	breakEven := roundTo(pos.OpenPrice, attrs.Digits)
	if pos.StopLoss == breakEven {
		return nil // already protected
	}
	if goal <= 0 || pos.Profit < goal/3 {
		return nil
	}
	return &types.TradeIntent{
		ID:         types.NewIntentID(),
		Symbol:     pos.Symbol,
		Timeframe:  tf,
		Strategy:   s.name,
		Magic:      s.magic,
		Action:     types.ModifyPosition,
		OrderType:  pos.Type,
		Spread:     attrs.Spread,
		Digits:     attrs.Digits,
		StopLoss:   breakEven,
		TakeProfit: pos.TakeProfit,
		Ticket:     pos.Ticket,
		Settings:   s.settings,
	}
}

func (s *EMACross) EvaluateClose(pos types.Position, attrs types.SymbolAttributes, tf types.Timeframe, goal float64) *types.TradeIntent {
	if !owns(pos, s.magic, tf) {
		return nil
	}
	if goal <= 0 || pos.Profit < goal {
		return nil
	}
	return &types.TradeIntent{
		ID:        types.NewIntentID(),
		Symbol:    pos.Symbol,
		Timeframe: tf,
		Strategy:  s.name,
		Magic:     s.magic,
		Action:    types.ClosePosition,
		OrderType: pos.Type,
		Spread:    attrs.Spread,
		Digits:    attrs.Digits,
		Ticket:    pos.Ticket,
		Settings:  s.settings,
	}
}
