package market

import (
	"testing"

	"mt5bot/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesFromCloses(closes []float64) Series {
	out := make(Series, len(closes))
	for i, c := range closes {
		out[i] = Candle{Open: c, High: c + 1, Low: c - 1, Close: c, Digits: 5}
	}
	return out
}

// trendThenSpike produces a steady trend with a single large reversal bar at
// the end, which forces the fast EMA across the slow one on the last bar.
func trendThenSpike(start, step, spike float64, n int) Series {
	closes := make([]float64, 0, n)
	v := start
	for i := 0; i < n-1; i++ {
		closes = append(closes, v)
		v += step
	}
	return seriesFromCloses(append(closes, v+spike))
}

func TestCrossoverSignalBuy(t *testing.T) {
	src := CrossoverSignal{Name: "EMACrossover", Fast: 3, Slow: 5}
	series := trendThenSpike(110, -1, 50, 30)

	signals := src.Signals("EURUSD", types.H1, series)
	require.Len(t, signals, 1)
	assert.Equal(t, "EMACrossover", signals[0].Name)
	assert.Equal(t, "EURUSD", signals[0].Symbol)
	assert.Equal(t, types.H1, signals[0].Timeframe)
	assert.Equal(t, 1, signals[0].Value)
}

func TestCrossoverSignalSell(t *testing.T) {
	src := CrossoverSignal{Name: "EMACrossover", Fast: 3, Slow: 5}
	series := trendThenSpike(80, 1, -50, 30)

	signals := src.Signals("EURUSD", types.H1, series)
	require.Len(t, signals, 1)
	assert.Equal(t, -1, signals[0].Value)
}

func TestCrossoverSignalNeutralOnSteadyTrend(t *testing.T) {
	src := CrossoverSignal{Name: "EMACrossover", Fast: 3, Slow: 5}
	series := trendThenSpike(110, -1, -1, 30) // no reversal

	signals := src.Signals("EURUSD", types.H1, series)
	require.Len(t, signals, 1)
	assert.Equal(t, 0, signals[0].Value)
}

func TestCrossoverSignalShortSeriesIsNeutral(t *testing.T) {
	src := CrossoverSignal{Name: "EMACrossover", Fast: 9, Slow: 21}
	series := seriesFromCloses([]float64{1, 2, 3})

	signals := src.Signals("EURUSD", types.H1, series)
	require.Len(t, signals, 1)
	assert.Equal(t, 0, signals[0].Value)
}

func TestLookupMatchesAllThreeDimensions(t *testing.T) {
	signals := []types.Signal{
		{Name: "EMACrossover", Symbol: "EURUSD", Timeframe: types.H1, Value: 1},
		{Name: "EMACrossover", Symbol: "GBPUSD", Timeframe: types.H1, Value: -1},
	}

	sig, ok := Lookup(signals, "EMACrossover", "EURUSD", types.H1)
	require.True(t, ok)
	assert.Equal(t, 1, sig.Value)

	_, ok = Lookup(signals, "EMACrossover", "EURUSD", types.M15)
	assert.False(t, ok)
	_, ok = Lookup(signals, "Other", "EURUSD", types.H1)
	assert.False(t, ok)
}

func TestLastATRWarmup(t *testing.T) {
	short := seriesFromCloses([]float64{1, 2, 3})
	assert.Zero(t, LastATR(short, 20))

	long := trendThenSpike(100, 1, 1, 40)
	assert.Greater(t, LastATR(long, 20), 0.0)
}
