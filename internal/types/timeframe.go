package types

// Timeframe is a chart period as named by the trading terminal.
type Timeframe string

const (
	M1  Timeframe = "M1"
	M5  Timeframe = "M5"
	M15 Timeframe = "M15"
	M30 Timeframe = "M30"
	H1  Timeframe = "H1"
	H4  Timeframe = "H4"
	D1  Timeframe = "D1"
	W1  Timeframe = "W1"
	MN1 Timeframe = "MN1"
)

func (tf Timeframe) Valid() bool {
	switch tf {
	case M1, M5, M15, M30, H1, H4, D1, W1, MN1:
		return true
	}
	return false
}
