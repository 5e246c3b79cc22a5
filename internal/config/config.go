// Package config provides configuration management for the market simulator.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variable overrides (MARKETSIM_MARKET_SEED, ...).
const EnvPrefix = "MARKETSIM"

// Config holds all application configuration.
type Config struct {
	Market     MarketConfig     `mapstructure:"market"`
	Orders     OrdersConfig     `mapstructure:"orders"`
	Automation AutomationConfig `mapstructure:"automation"`
	Store      StoreConfig      `mapstructure:"store"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Server     ServerConfig     `mapstructure:"server"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// MarketConfig holds generator cadence and buffer sizes.
type MarketConfig struct {
	TickerInterval time.Duration `mapstructure:"ticker_interval"`
	CandleInterval time.Duration `mapstructure:"candle_interval"`
	BookInterval   time.Duration `mapstructure:"book_interval"`
	TradeInterval  time.Duration `mapstructure:"trade_interval"`
	CandleBucket   time.Duration `mapstructure:"candle_bucket"`
	CandleCap      int           `mapstructure:"candle_cap"`
	HistoryCandles int           `mapstructure:"history_candles"`
	TapeCap        int           `mapstructure:"tape_cap"`
	BookDepth      int           `mapstructure:"book_depth"`
	Seed           int64         `mapstructure:"seed"` // 0 = time based
	Symbols        []string      `mapstructure:"symbols"`
}

// OrdersConfig holds order engine settings.
type OrdersConfig struct {
	MinLatency  time.Duration `mapstructure:"min_latency"`
	MaxLatency  time.Duration `mapstructure:"max_latency"`
	InitialCash float64       `mapstructure:"initial_cash"`
	AccountType string        `mapstructure:"account_type"` // cash, margin
}

// AutomationConfig holds workflow engine settings.
type AutomationConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	ActionsPerSecond int           `mapstructure:"actions_per_second"` // 0 = unlimited
	WorkflowsFile    string        `mapstructure:"workflows_file"`
	HistoryLimit     int           `mapstructure:"history_limit"`
}

// StoreConfig holds the audit store settings.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// CacheConfig holds snapshot cache settings.
type CacheConfig struct {
	Driver   string        `mapstructure:"driver"` // memory, redis
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ServerConfig holds HTTP adapter settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// NotifyConfig holds notification sink settings.
type NotifyConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Level      string        `mapstructure:"level"` // all, trades_only, errors_only
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	File     bool   `mapstructure:"file"`
	FilePath string `mapstructure:"file_path"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/marketsim"
	}
	return filepath.Join(home, ".config", "marketsim")
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("market.ticker_interval", time.Second)
	v.SetDefault("market.candle_interval", 5*time.Second)
	v.SetDefault("market.book_interval", 500*time.Millisecond)
	v.SetDefault("market.trade_interval", 2*time.Second)
	v.SetDefault("market.candle_bucket", time.Minute)
	v.SetDefault("market.candle_cap", 1000)
	v.SetDefault("market.history_candles", 100)
	v.SetDefault("market.tape_cap", 100)
	v.SetDefault("market.book_depth", 20)
	v.SetDefault("market.seed", 0)
	v.SetDefault("market.symbols", []string{})

	v.SetDefault("orders.min_latency", 500*time.Millisecond)
	v.SetDefault("orders.max_latency", 2500*time.Millisecond)
	v.SetDefault("orders.initial_cash", 100000.0)
	v.SetDefault("orders.account_type", "margin")

	v.SetDefault("automation.enabled", true)
	v.SetDefault("automation.poll_interval", 5*time.Second)
	v.SetDefault("automation.actions_per_second", 10)
	v.SetDefault("automation.workflows_file", "")
	v.SetDefault("automation.history_limit", 1000)

	v.SetDefault("store.enabled", false)
	v.SetDefault("store.path", filepath.Join(configDir, "marketsim.db"))

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", time.Minute)

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("notify.webhook_url", "")
	v.SetDefault("notify.timeout", 5*time.Second)
	v.SetDefault("notify.level", "all")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", false)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "marketsim.log"))
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// marketsim.toml is not an error: defaults and environment overrides apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	if err := LoadEnvFile(filepath.Join(configDir, ".env")); err != nil {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("marketsim")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading marketsim.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration with every default applied.
func Default() *Config {
	v := viper.New()
	setDefaults(v, DefaultConfigDir())
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is ignored.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	m := c.Market
	if m.TickerInterval <= 0 || m.CandleInterval <= 0 || m.BookInterval <= 0 || m.TradeInterval <= 0 {
		return fmt.Errorf("market intervals must be positive")
	}
	if m.CandleBucket <= 0 {
		return fmt.Errorf("candle_bucket must be positive")
	}
	if m.CandleCap <= 0 || m.TapeCap <= 0 || m.BookDepth <= 0 {
		return fmt.Errorf("candle_cap, tape_cap and book_depth must be positive")
	}
	if m.HistoryCandles > m.CandleCap {
		return fmt.Errorf("history_candles (%d) exceeds candle_cap (%d)", m.HistoryCandles, m.CandleCap)
	}

	if c.Orders.MinLatency < 0 || c.Orders.MaxLatency < c.Orders.MinLatency {
		return fmt.Errorf("order latency window [%s, %s] is invalid", c.Orders.MinLatency, c.Orders.MaxLatency)
	}
	if c.Orders.InitialCash < 0 {
		return fmt.Errorf("initial_cash must be non-negative")
	}
	if c.Orders.AccountType != "cash" && c.Orders.AccountType != "margin" {
		return fmt.Errorf("invalid account_type: %s (must be 'cash' or 'margin')", c.Orders.AccountType)
	}

	if c.Automation.PollInterval <= 0 {
		return fmt.Errorf("automation poll_interval must be positive")
	}
	if c.Automation.ActionsPerSecond < 0 {
		return fmt.Errorf("actions_per_second must be non-negative")
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s (must be 'memory' or 'redis')", c.Cache.Driver)
	}

	switch c.Notify.Level {
	case "all", "trades_only", "errors_only":
	default:
		return fmt.Errorf("invalid notify level: %s (must be 'all', 'trades_only' or 'errors_only')", c.Notify.Level)
	}

	return nil
}
