package risk

import (
	"fmt"

	"mt5bot/internal/types"

	"github.com/shopspring/decimal"
)

// defaultDeviation is the price deviation tolerance, in points, stamped on
// every sized request.
const defaultDeviation = 20

// TradeSettings is the per-trade risk budget for one timeframe.
type TradeSettings struct {
	Timeframe types.Timeframe
	// PerTradeGoal is the profit target used by the protect/close checks.
	PerTradeGoal float64
	// PerTradeStop is the loss budget, in account currency, that the
	// sizing formula bounds a stop-out to.
	PerTradeStop float64
}

// TradeGate sizes an admitted intent into a dispatchable order request. Risk
// settings and current symbol attributes must both be set before use; a
// missing snapshot is a wiring bug surfaced as a misconfigured deferral.
type TradeGate struct {
	settings *TradeSettings
	attrs    *types.SymbolAttributes
}

func NewTradeGate() *TradeGate {
	return &TradeGate{}
}

func (g *TradeGate) SetRiskSettings(s TradeSettings) {
	g.settings = &s
}

func (g *TradeGate) SetSymbolAttributes(a types.SymbolAttributes) {
	g.attrs = &a
}

func (g *TradeGate) RiskSettings() (TradeSettings, bool) {
	if g.settings == nil {
		return TradeSettings{}, false
	}
	return *g.settings, true
}

// SizeAndAdmit computes the order volume for a new-trade intent. Non-new
// actions pass through unsized apart from the request mapping. The sizing
// bounds the loss at the stop to PerTradeStop:
//
//	volume = stop_budget / (contract_size × converter × stop_distance)
//
// rounded to the instrument's volume step, rejected below the minimum and
// clamped to the maximum.
func (g *TradeGate) SizeAndAdmit(intent types.TradeIntent) (types.OrderRequest, Decision) {
	req := g.request(intent)

	if !intent.Action.IsNewTrade() {
		return req, Admit("not a new trade")
	}
	if g.settings == nil {
		return req, DeferMisconfigured("set the trade risk settings first or the trade will not be executed")
	}
	if g.attrs == nil {
		return req, DeferMisconfigured("set the symbol attributes first or the trade will not be executed")
	}

	req.StopLoss, req.TakeProfit = g.spreadCompensation(intent.StopLoss, intent.TakeProfit, intent.OrderType)
	volume := g.tradeVolume(req.StopLoss, intent.OrderType)
	if volume <= 0 {
		return req, Defer("volume computed as zero, the trade will not be executed")
	}
	req.Volume = volume
	return req, Admit(fmt.Sprintf("allowed to open position on %s with volume %v", intent.Symbol, volume))
}

// spreadCompensation shifts sell-side stops by the quoted spread so they are
// not triggered prematurely on the wrong side of the market.
func (g *TradeGate) spreadCompensation(stopLoss, takeProfit float64, orderType types.OrderType) (float64, float64) {
	if !orderType.IsSell() {
		return stopLoss, takeProfit
	}
	if stopLoss > 0 {
		stopLoss += g.attrs.Spread
	}
	if takeProfit > 0 {
		takeProfit += g.attrs.Spread
	}
	return stopLoss, takeProfit
}

// tradeVolume converts the per-trade loss budget into lots at the given stop
// distance. The returned volume is a multiple of the instrument's volume
// step; 0 means the budget does not cover even the minimum volume.
func (g *TradeGate) tradeVolume(stopLoss float64, orderType types.OrderType) float64 {
	attrs := g.attrs
	delta := attrs.Ask - stopLoss
	if orderType.IsSell() {
		delta = stopLoss - attrs.Bid
	}
	if delta <= 0 || attrs.ContractSize <= 0 || attrs.ProfitConverter <= 0 || attrs.VolumeStep <= 0 {
		return 0
	}

	raw := g.settings.PerTradeStop / (attrs.ContractSize * attrs.ProfitConverter * delta)
	step := decimal.NewFromFloat(attrs.VolumeStep)
	volume, _ := decimal.NewFromFloat(raw).Div(step).Round(0).Mul(step).Float64()
	if volume < attrs.VolumeMin {
		return 0
	}
	if volume > attrs.VolumeMax {
		return attrs.VolumeMax
	}
	return volume
}

func (g *TradeGate) request(intent types.TradeIntent) types.OrderRequest {
	return types.OrderRequest{
		Symbol:     intent.Symbol,
		Timeframe:  intent.Timeframe,
		Strategy:   intent.Strategy,
		Action:     intent.Action,
		OrderType:  intent.OrderType,
		Price:      intent.Price,
		StopLoss:   intent.StopLoss,
		TakeProfit: intent.TakeProfit,
		LimitPrice: intent.LimitPrice,
		StopLimit:  intent.StopLimit,
		Magic:      intent.Magic,
		Ticket:     intent.Ticket,
		Deviation:  defaultDeviation,
		Comment:    fmt.Sprintf("%s %s", intent.Strategy, intent.Timeframe),
	}
}
