package model

import "gorm.io/datatypes"

// PositionModel maps to the 'positions' table.
type PositionModel struct {
	ID         int64   `gorm:"column:id;primaryKey"`
	Symbol     string  `gorm:"column:symbol;index:idx_positions_key"`
	Timeframe  string  `gorm:"column:timeframe;index:idx_positions_key"`
	Strategy   string  `gorm:"column:strategy;index:idx_positions_key"`
	Ticket     int64   `gorm:"column:ticket;uniqueIndex"`
	OpenTime   string  `gorm:"column:open_time"`
	OpenPrice  float64 `gorm:"column:open_price"`
	Volume     float64 `gorm:"column:volume"`
	Type       string  `gorm:"column:type"`
	StopLoss   float64 `gorm:"column:stop_loss"`
	TakeProfit float64 `gorm:"column:stop_gain"`
	Magic      int64   `gorm:"column:magic"`
}

func (PositionModel) TableName() string { return "positions" }

// OrderModel maps to the 'orders' table (pending orders only).
type OrderModel struct {
	ID         int64   `gorm:"column:id;primaryKey"`
	Symbol     string  `gorm:"column:symbol;index:idx_orders_key"`
	Timeframe  string  `gorm:"column:timeframe;index:idx_orders_key"`
	Strategy   string  `gorm:"column:strategy;index:idx_orders_key"`
	Ticket     int64   `gorm:"column:ticket;uniqueIndex"`
	PlacedTime string  `gorm:"column:placed_time"`
	Price      float64 `gorm:"column:price"`
	Volume     float64 `gorm:"column:volume"`
	Type       string  `gorm:"column:type"`
	StopLoss   float64 `gorm:"column:stop_loss"`
	TakeProfit float64 `gorm:"column:stop_gain"`
	Magic      int64   `gorm:"column:magic"`
}

func (OrderModel) TableName() string { return "orders" }

// TradeModel maps to the 'trades' table.
type TradeModel struct {
	ID         int64   `gorm:"column:id;primaryKey"`
	Symbol     string  `gorm:"column:symbol;index"`
	Timeframe  string  `gorm:"column:timeframe"`
	Strategy   string  `gorm:"column:strategy"`
	Ticket     int64   `gorm:"column:ticket;index"`
	OpenTime   string  `gorm:"column:open_time"`
	CloseTime  string  `gorm:"column:close_time"`
	OpenPrice  float64 `gorm:"column:open_price"`
	ClosePrice float64 `gorm:"column:close_price"`
	Volume     float64 `gorm:"column:volume"`
	Type       string  `gorm:"column:type"`
	Profit     float64 `gorm:"column:profit"`
	StopLoss   float64 `gorm:"column:stop_loss"`
	TakeProfit float64 `gorm:"column:stop_gain"`
	Commission float64 `gorm:"column:commission"`
	Swap       float64 `gorm:"column:swap"`
	Fee        float64 `gorm:"column:fee"`
	Magic      int64   `gorm:"column:magic"`
}

func (TradeModel) TableName() string { return "trades" }

// OperationLogModel maps to the 'operation_log' table, an append-only trail of
// every ledger transition.
type OperationLogModel struct {
	ID        int64          `gorm:"column:id;primaryKey"`
	Kind      string         `gorm:"column:kind"`
	Ticket    int64          `gorm:"column:ticket;index"`
	Details   datatypes.JSON `gorm:"column:details"`
	Timestamp int64          `gorm:"column:timestamp"`
}

func (OperationLogModel) TableName() string { return "operation_log" }
