package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"mt5bot/internal/logger"
	"mt5bot/internal/risk"
	"mt5bot/internal/scheduler"
	"mt5bot/internal/types"
)

// Run connects to the broker and drives the poll loop until the context is
// cancelled, then shuts the broker connection and the ledger down.
func (a *App) Run(ctx context.Context) error {
	if err := a.broker.Connect(ctx); err != nil {
		return fmt.Errorf("broker connect failed: %w", err)
	}
	logger.Infof("connected to broker at %s", a.cfg.Broker.APIURL)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		sched := scheduler.NewIntervalScheduler(ctx, time.Duration(a.cfg.App.PollSeconds)*time.Second)
		sched.Start(func() { a.Cycle(ctx) })
		return nil
	})
	err := group.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := a.broker.Shutdown(shutdownCtx); serr != nil {
		logger.Warnf("broker shutdown: %v", serr)
	}
	if cerr := a.ledger.Close(); cerr != nil {
		logger.Warnf("ledger close: %v", cerr)
	}
	return err
}

// Cycle runs one full trading iteration: reconcile the ledger, then evaluate
// every trade unit. Unit failures are logged and never abort the iteration.
func (a *App) Cycle(ctx context.Context) {
	if err := a.reconciler.Sync(ctx); err != nil {
		logger.Errorf("reconcile: %v", err)
		return
	}
	positions, err := a.broker.Positions(ctx)
	if err != nil {
		logger.Errorf("reading live positions: %v", err)
		return
	}
	for i := range a.units {
		unit := &a.units[i]
		a.runUnit(ctx, unit, positions)
	}
}

func (a *App) runUnit(ctx context.Context, unit *tradeUnit, positions []types.Position) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("%s: evaluation panic: %v", unit.key, r)
		}
	}()

	attrs, err := a.broker.SymbolAttributes(ctx, unit.symbol)
	if err != nil {
		logger.Errorf("%s: symbol attributes: %v", unit.key, err)
		return
	}
	unit.gate.SetSymbolAttributes(attrs)

	settings, ok := unit.gate.RiskSettings()
	if !ok {
		logger.Errorf("%s: set the trade risk settings first", unit.key)
		return
	}
	goal := settings.PerTradeGoal

	// Manage existing positions first: a position that produced a close
	// intent this cycle is not also protected.
	closing := make(map[int64]bool)
	for _, pos := range positions {
		if pos.Symbol != unit.symbol {
			continue
		}
		if intent := unit.strat.EvaluateClose(pos, attrs, unit.tf, goal); intent != nil {
			closing[pos.Ticket] = true
			a.dispatchIntent(ctx, unit, *intent)
		}
	}
	for _, pos := range positions {
		if pos.Symbol != unit.symbol || closing[pos.Ticket] {
			continue
		}
		if intent := unit.strat.EvaluateProtect(pos, attrs, unit.tf, goal); intent != nil {
			a.dispatchIntent(ctx, unit, *intent)
		}
	}

	if !a.cooldowns.Due(unit.key, unit.wait) {
		return
	}
	series, err := a.broker.Candles(ctx, unit.symbol, unit.tf, unit.bars)
	if err != nil {
		logger.Errorf("%s: candles: %v", unit.key, err)
		return
	}
	signals := unit.signals.Signals(unit.symbol, unit.tf, series)
	if intent := unit.strat.EvaluateOpen(unit.symbol, unit.tf, series, signals); intent != nil {
		a.dispatchIntent(ctx, unit, *intent)
	}
}

// dispatchIntent pushes one intent through both risk gates and the
// dispatcher. Any deferral or broker rejection marks the unit's cooldown; a
// successful dispatch does not, leaving the unit eligible next cycle.
func (a *App) dispatchIntent(ctx context.Context, unit *tradeUnit, intent types.TradeIntent) {
	decision, err := a.account.Admit(ctx, intent)
	if err != nil {
		logger.Errorf("%s: account gate: %v", unit.key, err)
		a.cooldowns.Mark(unit.key)
		return
	}
	if !decision.Admitted {
		a.logDeferral(unit, intent, decision)
		a.cooldowns.Mark(unit.key)
		return
	}

	req, decision := unit.gate.SizeAndAdmit(intent)
	if !decision.Admitted {
		a.logDeferral(unit, intent, decision)
		a.cooldowns.Mark(unit.key)
		return
	}

	res, err := a.dispatch.Execute(ctx, req)
	if err != nil {
		logger.Errorf("%s: dispatch %s: %v", unit.key, req.Action, err)
		a.cooldowns.Mark(unit.key)
		return
	}
	if !res.Success {
		logger.Warnf("%s: %s rejected (code %d): %s", unit.key, req.Action, res.Code, res.Comment)
		a.cooldowns.Mark(unit.key)
		return
	}
	logger.Infof("%s: %s %s ticket %d volume %v (intent %s)",
		unit.key, req.Action, req.OrderType, res.Ticket, req.Volume, intent.ID)
}

func (a *App) logDeferral(unit *tradeUnit, intent types.TradeIntent, decision risk.Decision) {
	if decision.Misconfigured {
		logger.Errorf("%s: %s deferred, misconfigured: %s", unit.key, intent.Action, decision.Reason)
		return
	}
	logger.Infof("%s: %s deferred: %s", unit.key, intent.Action, decision.Reason)
}
