// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Exchange describes connectivity to the single venue the bot trades on.
type Exchange struct {
	Name             string `yaml:"name"`
	BaseURL          string `yaml:"base_url"`
	StreamURL        string `yaml:"stream_url"` // optional websocket trade stream
	APIKey           string `yaml:"api_key"`
	APISecret        string `yaml:"api_secret"`
	OrderBookDepth   int    `yaml:"order_book_depth"`
	RequestTimeoutMs int    `yaml:"request_timeout_ms"`
}

// Trading encodes the tick cadence, consensus policy, and funds limits.
type Trading struct {
	MajorTickSize         int                `yaml:"major_tick_size"`
	ExecuteTrades         bool               `yaml:"execute_trades"`
	RequireStratConsensus bool               `yaml:"require_strat_consensus"`
	ValidBaseCoins        []string           `yaml:"valid_base_coins"` // ["ALL"] tracks every base coin
	ValidMktCoins         []string           `yaml:"valid_mkt_coins"`
	MaxSpend              map[string]float64 `yaml:"max_spend"`         // per base coin, in base currency
	VolumeThresholds      map[string]float64 `yaml:"volume_thresholds"` // per base coin minimum volume
	RateLimitWindowSecs   int                `yaml:"rate_limit_window_secs"`
	SellFraction          float64            `yaml:"sell_fraction"` // fraction of holdings liquidated per sell
}

// Replay configures backtest-style runs with no wall-clock delays.
type Replay struct {
	Enabled    bool `yaml:"enabled"`
	MajorTicks int  `yaml:"major_ticks"`
}

// StrategyParams groups tunable knobs shared by strategy implementations.
type StrategyParams struct {
	SMAWindow  int     `yaml:"sma_window"`
	BBWindow   int     `yaml:"bb_window"`
	NumStdDevs float64 `yaml:"num_standard_devs"`
}

// Strategy specifies which strategies are active along with the parameter bundle.
type Strategy struct {
	Modes  []string       `yaml:"modes"`
	Params StrategyParams `yaml:"params"`
}

// Store points the persistence boundary at its backends; both are optional.
type Store struct {
	PostgresDSN string `yaml:"postgres_dsn"`
	TradesPath  string `yaml:"trades_path"`
}

// Alerting configures the best-effort operator reporting channel.
type Alerting struct {
	Enabled               bool   `yaml:"enabled"`
	TelegramToken         string `yaml:"telegram_token"`
	TelegramChatID        int64  `yaml:"telegram_chat_id"`
	ReportAfterMajorTicks int    `yaml:"report_after_major_ticks"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Exchange Exchange `yaml:"exchange"`
	Trading  Trading  `yaml:"trading"`
	Replay   Replay   `yaml:"replay"`
	Strategy Strategy `yaml:"strategy"`
	Store    Store    `yaml:"store"`
	Alerting Alerting `yaml:"alerting"`
}

// Load reads a YAML file from disk and hydrates a Config struct with defaults applied.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.applyDefaults()
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Trading.MajorTickSize <= 0 {
		c.Trading.MajorTickSize = 5
	}
	if c.Trading.RateLimitWindowSecs <= 0 {
		c.Trading.RateLimitWindowSecs = 300
	}
	if c.Trading.SellFraction <= 0 || c.Trading.SellFraction > 1 {
		c.Trading.SellFraction = 1
	}
	if c.Exchange.OrderBookDepth <= 0 {
		c.Exchange.OrderBookDepth = 20
	}
	if c.Exchange.RequestTimeoutMs <= 0 {
		c.Exchange.RequestTimeoutMs = 10000
	}
	if c.Replay.Enabled && c.Replay.MajorTicks <= 0 {
		c.Replay.MajorTicks = 100
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
}

// RateLimitWindow returns the API rate limiter window as a duration.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.Trading.RateLimitWindowSecs) * time.Second
}

// RequestTimeout returns the bound applied to every external exchange call.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Exchange.RequestTimeoutMs) * time.Millisecond
}
