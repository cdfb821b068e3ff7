package market

import (
	"mt5bot/internal/types"
)

// SignalSource produces named signal values for a (symbol, timeframe) from a
// candle series. Strategies consume signals by name and never see how they
// were computed.
type SignalSource interface {
	Signals(symbol string, tf types.Timeframe, s Series) []types.Signal
}

// CrossoverSignal emits +1 when the fast EMA closes above the slow EMA after
// being at or below it on the previous bar, -1 for the mirror case, 0
// otherwise. Shift selects how many closed bars back the cross is read from.
type CrossoverSignal struct {
	Name  string
	Fast  int
	Slow  int
	Shift int
}

func (c CrossoverSignal) Signals(symbol string, tf types.Timeframe, s Series) []types.Signal {
	return []types.Signal{{
		Name:      c.Name,
		Symbol:    symbol,
		Timeframe: tf,
		Value:     c.value(s),
	}}
}

func (c CrossoverSignal) value(s Series) int {
	fast := EMA(s, c.Fast)
	slow := EMA(s, c.Slow)
	idx := len(s) - 1 - c.Shift
	warm := c.Slow // talib zero-fills before the warm-up window
	if fast == nil || slow == nil || idx < 1 || idx-1 < warm {
		return 0
	}
	diff := fast[idx] - slow[idx]
	prev := fast[idx-1] - slow[idx-1]
	switch {
	case diff > 0 && prev <= 0:
		return 1
	case diff < 0 && prev >= 0:
		return -1
	}
	return 0
}

// Sources merges several signal sources into one.
type Sources []SignalSource

func (ss Sources) Signals(symbol string, tf types.Timeframe, s Series) []types.Signal {
	var out []types.Signal
	for _, src := range ss {
		out = append(out, src.Signals(symbol, tf, s)...)
	}
	return out
}

// Lookup finds the signal matching (name, symbol, timeframe), mirroring how a
// strategy claims its own signal from the merged list.
func Lookup(signals []types.Signal, name, symbol string, tf types.Timeframe) (types.Signal, bool) {
	for _, sig := range signals {
		if sig.Name == name && sig.Symbol == symbol && sig.Timeframe == tf {
			return sig, true
		}
	}
	return types.Signal{}, false
}
