// Package config loads and validates the bot configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"strings"

	"mt5bot/internal/types"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvConfigPath overrides the config file location when set.
const EnvConfigPath = "MT5BOT_CONFIG"

const defaultConfigPath = "configs/config.yaml"

type Config struct {
	App     AppConfig      `mapstructure:"app"`
	Broker  BrokerConfig   `mapstructure:"broker"`
	Account AccountConfig  `mapstructure:"account"`
	Symbols []SymbolConfig `mapstructure:"symbols"`
}

type AppConfig struct {
	LogLevel    string `mapstructure:"log_level"`
	LogPath     string `mapstructure:"log_path"`
	PollSeconds int    `mapstructure:"poll_seconds"`
	DBPath      string `mapstructure:"db_path"`
}

type BrokerConfig struct {
	APIURL         string `mapstructure:"api_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Login          int64  `mapstructure:"login"`
	Server         string `mapstructure:"server"`
	// PasswordEnv names the environment variable the account password is
	// read from; the password itself never lives in the file.
	PasswordEnv   string `mapstructure:"password_env"`
	DeltaTimezone int    `mapstructure:"delta_timezone"`
}

func (b BrokerConfig) Password() string {
	if b.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(b.PasswordEnv)
}

type AccountConfig struct {
	Capital   float64 `mapstructure:"capital"`
	DayGoal   float64 `mapstructure:"day_goal"`
	DayStop   float64 `mapstructure:"day_stop"`
	OpsPerDay int     `mapstructure:"ops_per_day"`
}

type SymbolConfig struct {
	Symbol     string            `mapstructure:"symbol"`
	Strategy   StrategyConfig    `mapstructure:"strategy"`
	Timeframes []TimeframeConfig `mapstructure:"timeframes"`
}

type StrategyConfig struct {
	Name              string  `mapstructure:"name"`
	Magic             int64   `mapstructure:"magic"`
	MaxVolume         float64 `mapstructure:"max_volume"`
	MultiplePositions bool    `mapstructure:"multiple_positions"`
	FastPeriod        int     `mapstructure:"fast_period"`
	SlowPeriod        int     `mapstructure:"slow_period"`
	ATRPeriod         int     `mapstructure:"atr_period"`
}

type TimeframeConfig struct {
	Timeframe    types.Timeframe `mapstructure:"timeframe"`
	PerTradeGoal float64         `mapstructure:"per_trade_goal"`
	PerTradeStop float64         `mapstructure:"per_trade_stop"`
	WaitMinutes  int             `mapstructure:"wait_minutes"`
	Bars         int             `mapstructure:"bars"`
}

// Path resolves the configuration file location from the environment,
// falling back to the repository default.
func Path() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	return defaultConfigPath
}

func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.PollSeconds <= 0 {
		c.App.PollSeconds = 60
	}
	if c.App.DBPath == "" {
		c.App.DBPath = "mt5bot.db"
	}
	if c.Broker.TimeoutSeconds <= 0 {
		c.Broker.TimeoutSeconds = 15
	}
	for i := range c.Symbols {
		s := &c.Symbols[i]
		if s.Strategy.FastPeriod <= 0 {
			s.Strategy.FastPeriod = 9
		}
		if s.Strategy.SlowPeriod <= 0 {
			s.Strategy.SlowPeriod = 21
		}
		if s.Strategy.ATRPeriod <= 0 {
			s.Strategy.ATRPeriod = 20
		}
		for j := range s.Timeframes {
			tf := &s.Timeframes[j]
			if tf.Bars <= 0 {
				tf.Bars = 100
			}
			if tf.WaitMinutes <= 0 {
				tf.WaitMinutes = 5
			}
		}
	}
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Broker.APIURL) == "" {
		return fmt.Errorf("broker.api_url is required")
	}
	if cfg.Account.Capital <= 0 {
		return fmt.Errorf("account.capital must be positive")
	}
	if len(cfg.Symbols) == 0 {
		return fmt.Errorf("at least one symbols entry is required")
	}
	for _, s := range cfg.Symbols {
		if strings.TrimSpace(s.Symbol) == "" {
			return fmt.Errorf("symbols entry without a symbol name")
		}
		if strings.TrimSpace(s.Strategy.Name) == "" {
			return fmt.Errorf("symbol %s: strategy.name is required", s.Symbol)
		}
		if s.Strategy.Magic == 0 {
			return fmt.Errorf("symbol %s: strategy.magic is required", s.Symbol)
		}
		if s.Strategy.FastPeriod >= s.Strategy.SlowPeriod {
			return fmt.Errorf("symbol %s: fast_period must be below slow_period", s.Symbol)
		}
		if len(s.Timeframes) == 0 {
			return fmt.Errorf("symbol %s: at least one timeframe is required", s.Symbol)
		}
		for _, tf := range s.Timeframes {
			if !tf.Timeframe.Valid() {
				return fmt.Errorf("symbol %s: unknown timeframe %q", s.Symbol, tf.Timeframe)
			}
			if tf.PerTradeStop <= 0 {
				return fmt.Errorf("symbol %s %s: per_trade_stop must be positive", s.Symbol, tf.Timeframe)
			}
			if tf.PerTradeGoal <= 0 {
				return fmt.Errorf("symbol %s %s: per_trade_goal must be positive", s.Symbol, tf.Timeframe)
			}
		}
	}
	return nil
}
