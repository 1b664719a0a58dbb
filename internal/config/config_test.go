package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "cryptobot-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.Exchange.BaseURL != "https://bittrex.com/api/v1.1" {
		t.Fatalf("unexpected Exchange.BaseURL: %s", cfg.Exchange.BaseURL)
	}
	if cfg.Exchange.OrderBookDepth != 20 {
		t.Fatalf("unexpected order book depth: %d", cfg.Exchange.OrderBookDepth)
	}
	if cfg.Trading.MajorTickSize != 5 {
		t.Fatalf("unexpected major tick size: %d", cfg.Trading.MajorTickSize)
	}
	if cfg.Trading.ExecuteTrades {
		t.Fatalf("expected dry-run mode")
	}
	if !cfg.Trading.RequireStratConsensus {
		t.Fatalf("expected consensus required")
	}
	if cfg.Trading.MaxSpend["BTC"] != 0.2 {
		t.Fatalf("unexpected BTC max spend: %.2f", cfg.Trading.MaxSpend["BTC"])
	}
	if cfg.Trading.VolumeThresholds["ETH"] != 50000 {
		t.Fatalf("unexpected ETH volume threshold: %.0f", cfg.Trading.VolumeThresholds["ETH"])
	}
	if cfg.RateLimitWindow() != 5*time.Minute {
		t.Fatalf("unexpected rate limit window: %s", cfg.RateLimitWindow())
	}
	if cfg.RequestTimeout() != 5*time.Second {
		t.Fatalf("unexpected request timeout: %s", cfg.RequestTimeout())
	}
	if !cfg.Replay.Enabled || cfg.Replay.MajorTicks != 50 {
		t.Fatalf("unexpected replay config: %+v", cfg.Replay)
	}
	if len(cfg.Strategy.Modes) != 2 || cfg.Strategy.Modes[0] != "sma_crossover" {
		t.Fatalf("unexpected strategy modes: %+v", cfg.Strategy.Modes)
	}
	if cfg.Strategy.Params.NumStdDevs != 2 {
		t.Fatalf("unexpected num std devs: %.1f", cfg.Strategy.Params.NumStdDevs)
	}
	if cfg.Store.TradesPath != "out/trades.jsonl" {
		t.Fatalf("unexpected trades path: %s", cfg.Store.TradesPath)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := Save(path, &Config{}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Trading.MajorTickSize != 5 {
		t.Fatalf("expected default major tick size 5, got %d", cfg.Trading.MajorTickSize)
	}
	if cfg.RateLimitWindow() != 5*time.Minute {
		t.Fatalf("expected default 5m window, got %s", cfg.RateLimitWindow())
	}
	if cfg.Trading.SellFraction != 1 {
		t.Fatalf("expected default sell fraction 1, got %.2f", cfg.Trading.SellFraction)
	}
	if cfg.Exchange.OrderBookDepth != 20 {
		t.Fatalf("expected default depth 20, got %d", cfg.Exchange.OrderBookDepth)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}
