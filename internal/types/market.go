package types

// SymbolAttributes is the live pricing snapshot the trade risk gate and the
// dispatcher size and price orders from.
type SymbolAttributes struct {
	Symbol         string  `json:"symbol"`
	Bid            float64 `json:"bid"`
	Ask            float64 `json:"ask"`
	Spread         float64 `json:"spread"`
	Digits         int     `json:"digits"`
	TickSize       float64 `json:"tick_size"`
	ContractSize   float64 `json:"contract_size"`
	CurrencyBase   string  `json:"currency_base"`
	CurrencyProfit string  `json:"currency_profit"`
	// ProfitConverter converts one unit of the profit currency into the
	// account currency; 1.0 when they are the same.
	ProfitConverter float64 `json:"profit_converter"`
	VolumeMin       float64 `json:"volume_min"`
	VolumeMax       float64 `json:"volume_max"`
	VolumeStep      float64 `json:"volume_step"`
}

// Position is a live broker position. Timeframe and strategy are parsed from
// the order comment the bot stamped at open time.
type Position struct {
	Symbol     string    `json:"symbol"`
	Timeframe  Timeframe `json:"timeframe"`
	Strategy   string    `json:"strategy"`
	Ticket     int64     `json:"ticket"`
	OpenTime   string    `json:"open_time"`
	OpenPrice  float64   `json:"open_price"`
	Volume     float64   `json:"volume"`
	Type       OrderType `json:"type"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	Magic      int64     `json:"magic"`
	Profit     float64   `json:"profit"`
}

// PendingOrder is a live broker order resting away from market.
type PendingOrder struct {
	Symbol     string    `json:"symbol"`
	Timeframe  Timeframe `json:"timeframe"`
	Strategy   string    `json:"strategy"`
	Ticket     int64     `json:"ticket"`
	PlacedTime string    `json:"placed_time"`
	Price      float64   `json:"price"`
	StopLimit  float64   `json:"stop_limit"`
	Volume     float64   `json:"volume"`
	Type       OrderType `json:"type"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	Magic      int64     `json:"magic"`
}

// Signal is a named, symbol/timeframe-scoped signal value: +1 buy, -1 sell,
// 0 neutral.
type Signal struct {
	Name      string    `json:"name"`
	Symbol    string    `json:"symbol"`
	Timeframe Timeframe `json:"timeframe"`
	Value     int       `json:"value"`
}
