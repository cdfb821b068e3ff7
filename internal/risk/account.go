package risk

import (
	"context"
	"fmt"
	"math"
	"time"

	"mt5bot/internal/store"
	"mt5bot/internal/types"
)

// AccountSettings is the portfolio-wide risk policy.
type AccountSettings struct {
	Capital   float64
	DayGoal   float64
	DayStop   float64
	OpsPerDay int
}

// AccountGate screens new-trade intents against portfolio-wide policy using
// the reconciled ledger. Close/modify/delete intents pass straight through.
type AccountGate struct {
	ledger   store.Reader
	settings AccountSettings
	nowFn    func() time.Time
}

func NewAccountGate(ledger store.Reader, settings AccountSettings) *AccountGate {
	return &AccountGate{ledger: ledger, settings: settings, nowFn: time.Now}
}

// Admit runs the portfolio checks in order, short-circuiting on the first
// failure. The error return is for ledger read failures only; policy
// rejections come back as deferred decisions.
func (g *AccountGate) Admit(ctx context.Context, intent types.TradeIntent) (Decision, error) {
	if !intent.Action.IsNewTrade() {
		return Admit("not a new trade"), nil
	}

	key := intent.Key()
	positions, err := g.ledger.PositionsFor(ctx, key)
	if err != nil {
		return Decision{}, fmt.Errorf("account gate: read positions: %w", err)
	}
	orders, err := g.ledger.OrdersFor(ctx, key)
	if err != nil {
		return Decision{}, fmt.Errorf("account gate: read orders: %w", err)
	}

	if !intent.Settings.MultiplePositions && len(positions)+len(orders) > 0 {
		return Defer(fmt.Sprintf("cannot open multiple positions on %s", intent.Symbol)), nil
	}

	if intent.Settings.MultiplePositions {
		var volume float64
		for _, p := range positions {
			volume += p.Volume
		}
		for _, o := range orders {
			volume += o.Volume
		}
		if volume >= intent.Settings.MaxVolume {
			return Defer(fmt.Sprintf("already have enough positions or pending orders on %s", intent.Symbol)), nil
		}
	}

	trades, err := g.ledger.TradesOpenedOn(ctx, g.nowFn())
	if err != nil {
		return Decision{}, fmt.Errorf("account gate: read trades: %w", err)
	}

	if g.settings.OpsPerDay > 0 && len(trades)+len(positions) >= g.settings.OpsPerDay {
		return Defer(fmt.Sprintf("too many trades for today on %s", intent.Symbol)), nil
	}

	if g.settings.DayGoal > 0 {
		var profit float64
		for _, t := range trades {
			profit += t.Profit
		}
		if math.Abs(profit) >= g.settings.DayGoal {
			return Defer(fmt.Sprintf("hit the stop loss or the stop gain for today on %s", intent.Symbol)), nil
		}
	}

	return Admit(fmt.Sprintf("allowed to open position on %s", intent.Symbol)), nil
}
