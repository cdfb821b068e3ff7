package market

import (
	talib "github.com/markcheno/go-talib"
)

// EMA returns the exponential moving average of the series closes. Leading
// entries before the warm-up window are zero, as talib leaves them.
func EMA(s Series, period int) []float64 {
	if len(s) == 0 || period <= 0 || len(s) < period {
		return nil
	}
	return talib.Ema(s.Closes(), period)
}

// ATR returns the average true range of the series.
func ATR(s Series, period int) []float64 {
	if len(s) == 0 || period <= 0 || len(s) <= period {
		return nil
	}
	return talib.Atr(s.Highs(), s.Lows(), s.Closes(), period)
}

// LastATR returns the ATR value on the most recent closed bar, or 0 when the
// series is too short to warm the indicator up.
func LastATR(s Series, period int) float64 {
	atr := ATR(s, period)
	if len(atr) == 0 {
		return 0
	}
	return atr[len(atr)-1]
}
