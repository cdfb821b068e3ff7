package gormstore

import (
	"mt5bot/internal/store"
	"mt5bot/internal/types"
)

func positionFromRecord(r store.PositionRecord) *positionModel {
	return &positionModel{
		Symbol:     r.Symbol,
		Timeframe:  string(r.Timeframe),
		Strategy:   r.Strategy,
		Ticket:     r.Ticket,
		OpenTime:   r.OpenTime,
		OpenPrice:  r.OpenPrice,
		Volume:     r.Volume,
		Type:       string(r.Type),
		StopLoss:   r.StopLoss,
		TakeProfit: r.TakeProfit,
		Magic:      r.Magic,
	}
}

func orderFromRecord(r store.OrderRecord) *orderModel {
	return &orderModel{
		Symbol:     r.Symbol,
		Timeframe:  string(r.Timeframe),
		Strategy:   r.Strategy,
		Ticket:     r.Ticket,
		PlacedTime: r.PlacedTime,
		Price:      r.Price,
		Volume:     r.Volume,
		Type:       string(r.Type),
		StopLoss:   r.StopLoss,
		TakeProfit: r.TakeProfit,
		Magic:      r.Magic,
	}
}

func tradeFromRecord(r store.TradeRecord) *tradeModel {
	return &tradeModel{
		Symbol:     r.Symbol,
		Timeframe:  string(r.Timeframe),
		Strategy:   r.Strategy,
		Ticket:     r.Ticket,
		OpenTime:   r.OpenTime,
		CloseTime:  r.CloseTime,
		OpenPrice:  r.OpenPrice,
		ClosePrice: r.ClosePrice,
		Volume:     r.Volume,
		Type:       string(r.Type),
		Profit:     r.Profit,
		StopLoss:   r.StopLoss,
		TakeProfit: r.TakeProfit,
		Commission: r.Commission,
		Swap:       r.Swap,
		Fee:        r.Fee,
		Magic:      r.Magic,
	}
}

func positionsToRecords(rows []positionModel) []store.PositionRecord {
	out := make([]store.PositionRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, store.PositionRecord{
			Symbol:     row.Symbol,
			Timeframe:  types.Timeframe(row.Timeframe),
			Strategy:   row.Strategy,
			Ticket:     row.Ticket,
			OpenTime:   row.OpenTime,
			OpenPrice:  row.OpenPrice,
			Volume:     row.Volume,
			Type:       types.OrderType(row.Type),
			StopLoss:   row.StopLoss,
			TakeProfit: row.TakeProfit,
			Magic:      row.Magic,
		})
	}
	return out
}

func ordersToRecords(rows []orderModel) []store.OrderRecord {
	out := make([]store.OrderRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, store.OrderRecord{
			Symbol:     row.Symbol,
			Timeframe:  types.Timeframe(row.Timeframe),
			Strategy:   row.Strategy,
			Ticket:     row.Ticket,
			PlacedTime: row.PlacedTime,
			Price:      row.Price,
			Volume:     row.Volume,
			Type:       types.OrderType(row.Type),
			StopLoss:   row.StopLoss,
			TakeProfit: row.TakeProfit,
			Magic:      row.Magic,
		})
	}
	return out
}

func tradeToRecord(row tradeModel) store.TradeRecord {
	return store.TradeRecord{
		Symbol:     row.Symbol,
		Timeframe:  types.Timeframe(row.Timeframe),
		Strategy:   row.Strategy,
		Ticket:     row.Ticket,
		OpenTime:   row.OpenTime,
		CloseTime:  row.CloseTime,
		OpenPrice:  row.OpenPrice,
		ClosePrice: row.ClosePrice,
		Volume:     row.Volume,
		Type:       types.OrderType(row.Type),
		Profit:     row.Profit,
		StopLoss:   row.StopLoss,
		TakeProfit: row.TakeProfit,
		Commission: row.Commission,
		Swap:       row.Swap,
		Fee:        row.Fee,
		Magic:      row.Magic,
	}
}
