package store

import (
	"context"
	"time"

	"mt5bot/internal/types"
)

// The ledger keeps three record families: open positions, pending orders and
// closed trades. A ticket lives in at most one of positions/orders at a time;
// when it leaves the broker's live set it either becomes a trade (position)
// or is deleted (cancelled pending order).

type PositionRecord struct {
	Symbol     string
	Timeframe  types.Timeframe
	Strategy   string
	Ticket     int64
	OpenTime   string
	OpenPrice  float64
	Volume     float64
	Type       types.OrderType
	StopLoss   float64
	TakeProfit float64
	Magic      int64
}

type OrderRecord struct {
	Symbol     string
	Timeframe  types.Timeframe
	Strategy   string
	Ticket     int64
	PlacedTime string
	Price      float64
	Volume     float64
	Type       types.OrderType
	StopLoss   float64
	TakeProfit float64
	Magic      int64
}

type TradeRecord struct {
	Symbol     string
	Timeframe  types.Timeframe
	Strategy   string
	Ticket     int64
	OpenTime   string
	CloseTime  string
	OpenPrice  float64
	ClosePrice float64
	Volume     float64
	Type       types.OrderType
	Profit     float64
	StopLoss   float64
	TakeProfit float64
	Commission float64
	Swap       float64
	Fee        float64
	Magic      int64
}

// Transition is a state change derived from a confirmed broker
// acknowledgement (or a reconciliation diff). The ledger is mutated only
// through transitions; gates and the dispatcher never touch records directly.
type Transition interface {
	transitionKind() string
}

// NewPosition inserts an open position after a successful market open.
type NewPosition PositionRecord

// NewTrade closes a position: the position row is deleted and a trade row
// inserted in one transaction.
type NewTrade TradeRecord

// NewPendingOrder inserts a resting order after a successful placement.
type NewPendingOrder OrderRecord

// CancelPendingOrder removes a pending order that was deleted, expired or
// cancelled broker-side without filling.
type CancelPendingOrder struct {
	Ticket int64
}

// DeletePosition removes a position row without recording a trade. Used only
// for manual corrections; normal closes go through NewTrade.
type DeletePosition struct {
	Ticket int64
}

func (NewPosition) transitionKind() string        { return "new_position" }
func (NewTrade) transitionKind() string           { return "new_trade" }
func (NewPendingOrder) transitionKind() string    { return "new_pending_order" }
func (CancelPendingOrder) transitionKind() string { return "cancel_pending_order" }
func (DeletePosition) transitionKind() string     { return "delete_position" }

// Reader is the ledger's query side, used by the account risk gate and the
// reconciliation pass.
type Reader interface {
	Positions(ctx context.Context) ([]PositionRecord, error)
	Orders(ctx context.Context) ([]OrderRecord, error)
	PositionsFor(ctx context.Context, key types.StrategyKey) ([]PositionRecord, error)
	OrdersFor(ctx context.Context, key types.StrategyKey) ([]OrderRecord, error)
	// TradesOpenedOn returns closed trades whose open time falls on the
	// same process-local calendar day as the given instant.
	TradesOpenedOn(ctx context.Context, day time.Time) ([]TradeRecord, error)
}

// Ledger is the full reconciliation store contract.
type Ledger interface {
	Reader
	Apply(ctx context.Context, t Transition) error
	Close() error
}
