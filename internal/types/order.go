package types

// OrderAction identifies one of the six broker operations the dispatcher can
// request.
type OrderAction string

const (
	OpenPosition       OrderAction = "OPEN_POSITION"
	ClosePosition      OrderAction = "CLOSE_POSITION"
	ModifyPosition     OrderAction = "MODIFY_POSITION"
	PlacePendingOrder  OrderAction = "PLACE_PENDING_ORDER"
	ModifyPendingOrder OrderAction = "MODIFY_PENDING_ORDER"
	DeletePendingOrder OrderAction = "DELETE_PENDING_ORDER"
)

// IsNewTrade reports whether the action would add exposure. Only these
// actions pass through the risk gates; close/modify/delete bypass them.
func (a OrderAction) IsNewTrade() bool {
	return a == OpenPosition || a == PlacePendingOrder
}

type OrderType string

const (
	Buy           OrderType = "BUY"
	Sell          OrderType = "SELL"
	BuyLimit      OrderType = "BUY_LIMIT"
	BuyStop       OrderType = "BUY_STOP"
	BuyStopLimit  OrderType = "BUY_STOP_LIMIT"
	SellLimit     OrderType = "SELL_LIMIT"
	SellStop      OrderType = "SELL_STOP"
	SellStopLimit OrderType = "SELL_STOP_LIMIT"
	OrderTypeNone OrderType = "NONE"
)

// IsSell reports whether the order trades on the bid side of the book.
func (t OrderType) IsSell() bool {
	switch t {
	case Sell, SellLimit, SellStop, SellStopLimit:
		return true
	}
	return false
}

// IsMarket reports whether the order type executes immediately at market.
func (t OrderType) IsMarket() bool {
	return t == Buy || t == Sell
}

// IsPending reports whether the order type rests away from market.
func (t OrderType) IsPending() bool {
	switch t {
	case BuyLimit, BuyStop, BuyStopLimit, SellLimit, SellStop, SellStopLimit:
		return true
	}
	return false
}

// Inverse returns the opposite market order type, used when closing a
// position at market.
func (t OrderType) Inverse() OrderType {
	if t == Buy {
		return Sell
	}
	return Buy
}

// OrderRequest is a sized, dispatch-ready order. It is produced by the trade
// risk gate from an admitted TradeIntent and consumed by the dispatcher.
type OrderRequest struct {
	Symbol     string      `json:"symbol"`
	Timeframe  Timeframe   `json:"timeframe"`
	Strategy   string      `json:"strategy"`
	Action     OrderAction `json:"action"`
	OrderType  OrderType   `json:"order_type"`
	Volume     float64     `json:"volume"`
	Price      float64     `json:"price"`
	StopLoss   float64     `json:"stop_loss"`
	TakeProfit float64     `json:"take_profit"`
	LimitPrice float64     `json:"limit_price,omitempty"`
	StopLimit  float64     `json:"stop_limit,omitempty"`
	Magic      int64       `json:"magic"`
	Ticket     int64       `json:"ticket,omitempty"`
	Deviation  int         `json:"deviation"`
	Comment    string      `json:"comment"`
}

// OrderResult is the interpreted broker acknowledgement for a single request.
// A non-success result carries the broker code and comment; it is never
// surfaced as an error.
type OrderResult struct {
	Symbol    string      `json:"symbol"`
	Action    OrderAction `json:"action"`
	OrderType OrderType   `json:"order_type"`
	Success   bool        `json:"success"`
	Ticket    int64       `json:"ticket"`
	Code      int         `json:"code"`
	Comment   string      `json:"comment"`
}

// TradeOutcome aggregates the fills of a ticket as reported by broker trade
// history: open is the earliest fill, close the latest when more than one
// exists, and the money fields are summed over all partial fills.
type TradeOutcome struct {
	Ticket     int64   `json:"ticket"`
	OpenTime   string  `json:"open_time"`
	CloseTime  string  `json:"close_time"`
	OpenPrice  float64 `json:"open_price"`
	ClosePrice float64 `json:"close_price"`
	Commission float64 `json:"commission"`
	Swap       float64 `json:"swap"`
	Fee        float64 `json:"fee"`
	Profit     float64 `json:"profit"`
}
