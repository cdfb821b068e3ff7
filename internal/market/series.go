package market

import "time"

// Candle is one completed bar as delivered by the terminal bridge. Spread and
// Digits ride along because the strategy snapshots them into its intents.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Spread float64   `json:"spread"`
	Digits int       `json:"digits"`
}

// Series is a chronologically ordered candle history, oldest first; the last
// element is the most recent closed bar.
type Series []Candle

func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

func (s Series) Highs() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.High
	}
	return out
}

func (s Series) Lows() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Low
	}
	return out
}

// Last returns the most recent closed bar. back=0 is the last bar, back=1 the
// one before it.
func (s Series) Last(back int) Candle {
	if len(s) <= back {
		return Candle{}
	}
	return s[len(s)-1-back]
}
