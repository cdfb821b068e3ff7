// Package app wires the broker client, ledger, gates, strategies and
// dispatcher together and drives the trading loop.
package app

import (
	"fmt"
	"time"

	"mt5bot/internal/broker"
	"mt5bot/internal/broker/mt5"
	"mt5bot/internal/config"
	"mt5bot/internal/executor"
	"mt5bot/internal/logger"
	"mt5bot/internal/market"
	"mt5bot/internal/risk"
	"mt5bot/internal/scheduler"
	"mt5bot/internal/store"
	"mt5bot/internal/store/gormstore"
	"mt5bot/internal/strategy"
	"mt5bot/internal/types"
)

// tradeUnit is one (symbol, timeframe, strategy) evaluation scope with its
// own sized-risk gate and cooldown key.
type tradeUnit struct {
	key     types.StrategyKey
	symbol  string
	tf      types.Timeframe
	strat   strategy.Strategy
	signals market.SignalSource
	gate    *risk.TradeGate
	wait    time.Duration
	bars    int
}

type App struct {
	cfg        *config.Config
	broker     broker.Broker
	ledger     store.Ledger
	reconciler *store.Reconciler
	account    *risk.AccountGate
	dispatch   *executor.Dispatcher
	cooldowns  *scheduler.Cooldowns
	units      []tradeUnit
}

// Build constructs the production app: MT5 bridge client plus sqlite ledger.
func Build(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	client, err := mt5.NewClient(mt5.Config{
		APIURL:         cfg.Broker.APIURL,
		TimeoutSeconds: cfg.Broker.TimeoutSeconds,
		Login:          cfg.Broker.Login,
		Server:         cfg.Broker.Server,
		Password:       cfg.Broker.Password(),
		DeltaTimezone:  cfg.Broker.DeltaTimezone,
	})
	if err != nil {
		return nil, err
	}
	ledger, err := gormstore.New(cfg.App.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening ledger failed: %w", err)
	}
	return New(cfg, client, ledger)
}

// New wires an app over an existing broker and ledger. Tests inject fakes
// through here.
func New(cfg *config.Config, b broker.Broker, ledger store.Ledger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	a := &App{
		cfg:        cfg,
		broker:     b,
		ledger:     ledger,
		reconciler: store.NewReconciler(b, ledger),
		account: risk.NewAccountGate(ledger, risk.AccountSettings{
			Capital:   cfg.Account.Capital,
			DayGoal:   cfg.Account.DayGoal,
			DayStop:   cfg.Account.DayStop,
			OpsPerDay: cfg.Account.OpsPerDay,
		}),
		dispatch:  executor.New(b, ledger),
		cooldowns: scheduler.NewCooldowns(),
	}
	for _, sym := range cfg.Symbols {
		strat := strategy.NewEMACross(strategy.EMACrossConfig{
			Name:              sym.Strategy.Name,
			Magic:             sym.Strategy.Magic,
			MaxVolume:         sym.Strategy.MaxVolume,
			MultiplePositions: sym.Strategy.MultiplePositions,
			ATRPeriod:         sym.Strategy.ATRPeriod,
		})
		signals := market.CrossoverSignal{
			Name: "EMACrossover",
			Fast: sym.Strategy.FastPeriod,
			Slow: sym.Strategy.SlowPeriod,
		}
		for _, tf := range sym.Timeframes {
			gate := risk.NewTradeGate()
			gate.SetRiskSettings(risk.TradeSettings{
				Timeframe:    tf.Timeframe,
				PerTradeGoal: tf.PerTradeGoal,
				PerTradeStop: tf.PerTradeStop,
			})
			a.units = append(a.units, tradeUnit{
				key: types.StrategyKey{
					Symbol:    sym.Symbol,
					Timeframe: tf.Timeframe,
					Strategy:  sym.Strategy.Name,
				},
				symbol:  sym.Symbol,
				tf:      tf.Timeframe,
				strat:   strat,
				signals: signals,
				gate:    gate,
				wait:    time.Duration(tf.WaitMinutes) * time.Minute,
				bars:    tf.Bars,
			})
		}
	}
	if len(a.units) == 0 {
		return nil, fmt.Errorf("no trade units configured")
	}
	logger.Infof("app: %d trade units configured", len(a.units))
	return a, nil
}
