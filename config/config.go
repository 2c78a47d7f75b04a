package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"marketsim/internal/domain"
)

// Config is the full simulation configuration.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Market     MarketSection    `yaml:"market"`
	Provider   ProviderConfig   `yaml:"provider"`
	Cache      CacheConfig      `yaml:"cache"`
	Notify     NotifyConfig     `yaml:"notify"`
	Log        LogConfig        `yaml:"log"`
	Strategies []StrategyEntry  `yaml:"strategies"`
}

// StrategyEntry declares one strategy to attach to the run. Zero-valued
// parameters fall back to the strategy's own defaults.
type StrategyEntry struct {
	Kind  string `yaml:"kind"` // rsi | hurst | buyhold
	Asset string `yaml:"asset"`

	Period       int     `yaml:"period"`
	BuyBelow     float64 `yaml:"buy_below"`
	SellAbove    float64 `yaml:"sell_above"`
	Window       int     `yaml:"window"`
	MinHurst     float64 `yaml:"min_hurst"`
	TakeProfit   float64 `yaml:"take_profit"`
	CashFraction float64 `yaml:"cash_fraction"`
}

// SimulationConfig controls the clock and the capital.
type SimulationConfig struct {
	Start        string  `yaml:"start"` // YYYY-MM-DD
	End          string  `yaml:"end"`   // YYYY-MM-DD
	IntervalDays int     `yaml:"interval_days"`
	LookbackDays int     `yaml:"lookback_days"` // warmup history loaded before start
	InitialCash  float64 `yaml:"initial_cash"`
	RiskFreeRate float64 `yaml:"risk_free_rate"` // annual, e.g. 0.03
}

// MarketSection selects a friction preset by name.
type MarketSection struct {
	Preset string `yaml:"preset"` // cn | us | crypto | frictionless
}

// ProviderConfig selects and configures the bar source.
type ProviderConfig struct {
	Kind     string `yaml:"kind"` // cryptocompare | local
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Currency string `yaml:"currency"` // quote currency for crypto sources
	DataDir  string `yaml:"data_dir"` // directory of <asset>.csv files for kind=local
}

// CacheConfig controls where fetched bars are persisted.
type CacheConfig struct {
	DSN string `yaml:"dsn"` // path to the SQLite file, or ":memory:"
}

// NotifyConfig controls decision delivery.
type NotifyConfig struct {
	Recipient string `yaml:"recipient"`
}

// LogConfig controls logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML config file and the .env file if present. Environment
// values override the YAML for the keys they cover.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if _, err := cfg.StartDate(); err != nil {
		return nil, err
	}
	if _, err := cfg.EndDate(); err != nil {
		return nil, err
	}
	if _, err := domain.Preset(cfg.Market.Preset); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// StartDate parses the simulation start date.
func (c *Config) StartDate() (time.Time, error) {
	t, err := time.Parse(time.DateOnly, c.Simulation.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("config: simulation.start %q: %w", c.Simulation.Start, err)
	}
	return t, nil
}

// EndDate parses the simulation end date.
func (c *Config) EndDate() (time.Time, error) {
	t, err := time.Parse(time.DateOnly, c.Simulation.End)
	if err != nil {
		return time.Time{}, fmt.Errorf("config: simulation.end %q: %w", c.Simulation.End, err)
	}
	return t, nil
}

// Interval returns the tick interval as a time.Duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Simulation.IntervalDays) * 24 * time.Hour
}

// Lookback returns the warmup window as a time.Duration.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.Simulation.LookbackDays) * 24 * time.Hour
}

// MarketConfig resolves the configured preset.
func (c *Config) MarketConfig() domain.MarketConfig {
	m, _ := domain.Preset(c.Market.Preset)
	return m
}

// applyEnvOverrides overrides values with environment variables when set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PROVIDER_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults ensures required values have sane defaults.
func setDefaults(cfg *Config) {
	if cfg.Simulation.IntervalDays <= 0 {
		cfg.Simulation.IntervalDays = 1
	}
	if cfg.Simulation.LookbackDays < 0 {
		cfg.Simulation.LookbackDays = 0
	}
	if cfg.Simulation.InitialCash <= 0 {
		cfg.Simulation.InitialCash = 1_000_000
	}
	if cfg.Market.Preset == "" {
		cfg.Market.Preset = "frictionless"
	}
	if cfg.Provider.Kind == "" {
		cfg.Provider.Kind = "cryptocompare"
	}
	if cfg.Provider.Currency == "" {
		cfg.Provider.Currency = "USD"
	}
	if cfg.Cache.DSN == "" {
		cfg.Cache.DSN = "marketsim.db"
	}
	if cfg.Notify.Recipient == "" {
		cfg.Notify.Recipient = "console"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
