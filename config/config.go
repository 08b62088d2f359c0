package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/tradergame/game"
	"github.com/rustyeddy/tradergame/market"
	"github.com/rustyeddy/tradergame/sim"
	"github.com/rustyeddy/tradergame/strategies"
)

// EnvConfigPath names the config file when --config is not given.
const EnvConfigPath = "TRADERGAME_CONFIG"

// Config represents the complete game configuration
type Config struct {
	Account     AccountConfig        `json:"account" yaml:"account"`
	Market      MarketConfig         `json:"market" yaml:"market"`
	Strategy    StrategyConfig       `json:"strategy" yaml:"strategy"`
	Ledger      LedgerConfig         `json:"ledger" yaml:"ledger"`
	Progression sim.ProgressionRules `json:"progression" yaml:"progression"`
	Day         DayConfig            `json:"day" yaml:"day"`
	Journal     JournalConfig        `json:"journal" yaml:"journal"`
	Store       StoreConfig          `json:"store" yaml:"store"`
	Log         LogConfig            `json:"log" yaml:"log"`
}

type AccountConfig struct {
	Balance float64 `json:"balance" yaml:"balance"`
}

// MarketConfig contains price process parameters
type MarketConfig struct {
	InitialPrice float64 `json:"initial_price" yaml:"initial_price"`
	// Seed makes runs reproducible; 0 seeds from the clock.
	Seed        int64  `json:"seed" yaml:"seed"`
	HistorySize int    `json:"history_size" yaml:"history_size"`
	TickEvery   string `json:"tick_every" yaml:"tick_every"` // e.g. "500ms"
}

// TickInterval parses TickEvery.
func (m MarketConfig) TickInterval() (time.Duration, error) {
	if m.TickEvery == "" {
		return 0, nil
	}
	return time.ParseDuration(m.TickEvery)
}

// StrategyConfig selects and tunes the auto strategy
type StrategyConfig struct {
	Name      string `json:"name" yaml:"name"`
	AutoTrade bool   `json:"auto_trade" yaml:"auto_trade"`
	Interval  int    `json:"interval" yaml:"interval"`

	strategies.RegimeConfig `yaml:",inline"`
}

type LedgerConfig struct {
	CommissionRate float64 `json:"commission_rate" yaml:"commission_rate"`
	EquityEvery    int     `json:"equity_every" yaml:"equity_every"`
}

type DayConfig struct {
	TicksPerDay     int     `json:"ticks_per_day" yaml:"ticks_per_day"`
	DailyCost       float64 `json:"daily_cost" yaml:"daily_cost"`
	MaxNegativeDays int     `json:"max_negative_days" yaml:"max_negative_days"`
	Wage            float64 `json:"wage" yaml:"wage"`
	WorkXP          int     `json:"work_xp" yaml:"work_xp"`
	ChoiceRequired  bool    `json:"choice_required" yaml:"choice_required"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// StoreConfig controls where the session is saved
type StoreConfig struct {
	Type string `json:"type" yaml:"type"` // "badger", "file" or "none"
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// AutosaveTicks saves every N ticks during run; 0 saves only on exit.
	AutosaveTicks int `json:"autosave_ticks" yaml:"autosave_ticks"`
}

type LogConfig struct {
	Level      string `json:"level" yaml:"level"`
	Output     string `json:"output" yaml:"output"` // "console", "file" or "both"
	File       string `json:"file,omitempty" yaml:"file,omitempty"`
	MaxSize    int    `json:"max_size" yaml:"max_size"` // megabytes
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAge     int    `json:"max_age" yaml:"max_age"` // days
	Compress   bool   `json:"compress" yaml:"compress"`
}

// LoadFromFile loads configuration from a file (JSON or YAML). Keys that
// are absent keep their Default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides a few settings from the environment, typically after
// a .env file has been loaded.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("TRADERGAME_SEED"); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TRADERGAME_SEED: %w", err)
		}
		c.Market.Seed = seed
	}
	if v, ok := lookup("TRADERGAME_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("TRADERGAME_STORE_PATH"); ok && v != "" {
		c.Store.Path = v
	}
	if v, ok := lookup("TRADERGAME_JOURNAL_DB"); ok && v != "" {
		c.Journal.DBPath = v
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !positive(c.Account.Balance) {
		return fmt.Errorf("account.balance must be positive")
	}
	if !(c.Market.InitialPrice >= market.PriceFloor) || math.IsInf(c.Market.InitialPrice, 0) {
		return fmt.Errorf("market.initial_price must be at least %.0f", market.PriceFloor)
	}
	if _, err := c.Market.TickInterval(); err != nil {
		return fmt.Errorf("market.tick_every: %w", err)
	}
	if c.Market.HistorySize <= 0 {
		return fmt.Errorf("market.history_size must be positive")
	}

	s := c.Strategy
	if _, err := strategies.StrategyByName(s.Name, s.RegimeConfig); err != nil {
		return fmt.Errorf("strategy.name: %w", err)
	}
	if s.Interval <= 0 {
		return fmt.Errorf("strategy.interval must be positive")
	}
	if s.FastPeriod <= 0 || s.SlowPeriod <= 0 || s.FastPeriod >= s.SlowPeriod {
		return fmt.Errorf("strategy periods must satisfy 0 < fast_period < slow_period")
	}
	if s.MinHistory <= 0 || s.MinHistory > c.Market.HistorySize {
		return fmt.Errorf("strategy.min_history must be between 1 and market.history_size")
	}
	if s.StrictSlowWindow && s.SlowPeriod > c.Market.HistorySize {
		return fmt.Errorf("strategy.slow_period exceeds market.history_size; trend entries would never fire")
	}
	if s.Cooldown < 0 {
		return fmt.Errorf("strategy.cooldown must be >= 0")
	}
	if !positive(s.DipThreshold) || s.DipThreshold > 1 {
		return fmt.Errorf("strategy.dip_threshold must be in (0,1]")
	}
	if !positive(s.TakeProfit) || !positive(s.StopLoss) {
		return fmt.Errorf("strategy take_profit and stop_loss must be positive")
	}
	if s.Fraction < 0 || s.Fraction > 1 {
		return fmt.Errorf("strategy.fraction must be between 0 and 1")
	}

	if c.Ledger.CommissionRate < 0 || c.Ledger.CommissionRate >= 1 {
		return fmt.Errorf("ledger.commission_rate must be in [0,1)")
	}
	if c.Ledger.EquityEvery < 0 {
		return fmt.Errorf("ledger.equity_every must be >= 0")
	}

	p := c.Progression
	if !positive(p.FirstLevelXP) || !(p.LevelFactor >= 1) {
		return fmt.Errorf("progression needs first_level_xp > 0 and level_factor >= 1")
	}
	if p.MinWinXP < 0 || p.LossXP < 0 || p.WinXPRate < 0 {
		return fmt.Errorf("progression xp values must be >= 0")
	}

	d := c.Day
	if d.TicksPerDay < 0 || d.DailyCost < 0 || d.MaxNegativeDays < 0 || d.Wage < 0 || d.WorkXP < 0 {
		return fmt.Errorf("day values must be >= 0")
	}

	switch c.Journal.Type {
	case "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}

	switch c.Store.Type {
	case "none":
	case "badger", "file":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path required for %s store", c.Store.Type)
		}
	default:
		return fmt.Errorf("store.type must be 'badger', 'file' or 'none'")
	}
	if c.Store.AutosaveTicks < 0 {
		return fmt.Errorf("store.autosave_ticks must be >= 0")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error")
	}
	switch c.Log.Output {
	case "console":
	case "file", "both":
		if c.Log.File == "" {
			return fmt.Errorf("log.file required for %s output", c.Log.Output)
		}
	default:
		return fmt.Errorf("log.output must be console, file or both")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	ledger := sim.DefaultConfig()
	return &Config{
		Account: AccountConfig{Balance: 1000},
		Market: MarketConfig{
			InitialPrice: 100,
			HistorySize:  market.DefaultHistorySize,
			TickEvery:    "500ms",
		},
		Strategy: StrategyConfig{
			Name:         "regime",
			Interval:     10,
			RegimeConfig: strategies.DefaultRegimeConfig(),
		},
		Ledger: LedgerConfig{
			CommissionRate: ledger.CommissionRate,
			EquityEvery:    ledger.EquityEvery,
		},
		Progression: sim.DefaultProgressionRules(),
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./tradergame.db",
		},
		Store: StoreConfig{
			Type:          "badger",
			Path:          "./state",
			AutosaveTicks: 100,
		},
		Log: LogConfig{
			Level:      "info",
			Output:     "console",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

// Session builds the game settings.
func (c *Config) Session() game.Config {
	return game.Config{
		StartingBalance:  c.Account.Balance,
		InitialPrice:     c.Market.InitialPrice,
		HistorySize:      c.Market.HistorySize,
		StrategyInterval: c.Strategy.Interval,
		Ledger: sim.Config{
			CommissionRate: c.Ledger.CommissionRate,
			EquityEvery:    c.Ledger.EquityEvery,
			Progression:    c.Progression,
		},
		Day: game.DayConfig{
			TicksPerDay:     c.Day.TicksPerDay,
			DailyCost:       c.Day.DailyCost,
			MaxNegativeDays: c.Day.MaxNegativeDays,
			Wage:            c.Day.Wage,
			WorkXP:          c.Day.WorkXP,
			ChoiceRequired:  c.Day.ChoiceRequired,
		},
	}
}

// NewStrategy builds the configured auto strategy.
func (c *Config) NewStrategy() (strategies.TickStrategy, error) {
	return strategies.StrategyByName(c.Strategy.Name, c.Strategy.RegimeConfig)
}

// Seed returns the configured seed, or one taken from the clock.
func (c *Config) Seed() int64 {
	if c.Market.Seed != 0 {
		return c.Market.Seed
	}
	return time.Now().UnixNano()
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
