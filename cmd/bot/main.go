// Binary bot runs the live trading loop against the configured exchange.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/pmckelvy1/cryptobot/internal/config"
	"github.com/pmckelvy1/cryptobot/internal/exchange"
	"github.com/pmckelvy1/cryptobot/internal/execution"
	"github.com/pmckelvy1/cryptobot/internal/market"
	"github.com/pmckelvy1/cryptobot/internal/metrics"
	"github.com/pmckelvy1/cryptobot/internal/notify"
	"github.com/pmckelvy1/cryptobot/internal/risk"
	"github.com/pmckelvy1/cryptobot/internal/sched"
	"github.com/pmckelvy1/cryptobot/internal/store"
	"github.com/pmckelvy1/cryptobot/internal/strategy"
	"github.com/pmckelvy1/cryptobot/internal/util"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := util.NewLogger("info")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	if v := os.Getenv("CRYPTOBOT_API_KEY"); v != "" {
		cfg.Exchange.APIKey = v
	}
	if v := os.Getenv("CRYPTOBOT_API_SECRET"); v != "" {
		cfg.Exchange.APISecret = v
	}

	log := util.NewLogger(cfg.App.LogLevel)

	if cfg.App.MetricsAddr != "" {
		_ = metrics.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := []exchange.RESTOption{exchange.WithHTTPTimeout(cfg.RequestTimeout())}
	if cfg.Exchange.StreamURL != "" {
		symbols := streamSymbols(cfg.Trading.ValidBaseCoins, cfg.Trading.ValidMktCoins)
		if len(symbols) > 0 {
			qs := exchange.NewQuoteStream(cfg.Exchange.StreamURL, symbols, util.Component(log, "stream"))
			go func() {
				if err := qs.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Warn().Err(err).Msg("quote stream stopped")
				}
			}()
			opts = append(opts, exchange.WithQuoteStream(qs, 10*time.Second))
		}
	}
	client := exchange.NewRESTClient(cfg.Exchange.BaseURL, cfg.Exchange.APIKey, cfg.Exchange.APISecret,
		util.Component(log, "exchange"), opts...)

	st := openStore(ctx, cfg, log)
	defer st.Close()

	alerts := openAlerts(cfg, log)

	gate := risk.NewGate(client, cfg.Trading.MaxSpend, cfg.Trading.VolumeThresholds, util.Component(log, "risk"))
	consensus := strategy.NewConsensus(
		strategy.Build(cfg.Strategy.Modes, strategy.Params{
			SMAWindow:  cfg.Strategy.Params.SMAWindow,
			BBWindow:   cfg.Strategy.Params.BBWindow,
			NumStdDevs: cfg.Strategy.Params.NumStdDevs,
		}),
		cfg.Trading.RequireStratConsensus,
		util.Component(log, "strategy"),
	)
	exec := execution.NewExecutor(client, gate, st, alerts, execution.Config{
		OrderBookDepth: cfg.Exchange.OrderBookDepth,
		SellFraction:   cfg.Trading.SellFraction,
		ExecuteTrades:  cfg.Trading.ExecuteTrades,
	}, util.Component(log, "execution"))

	loop := sched.NewScheduler(client, consensus, gate, exec, st, alerts, sched.Config{
		MajorTickSize:         cfg.Trading.MajorTickSize,
		ValidBaseCoins:        cfg.Trading.ValidBaseCoins,
		ValidMktCoins:         cfg.Trading.ValidMktCoins,
		RateLimitWindow:       cfg.RateLimitWindow(),
		RequestTimeout:        cfg.RequestTimeout(),
		ReportAfterMajorTicks: cfg.Alerting.ReportAfterMajorTicks,
	}, util.Component(log, "sched"))

	log.Info().Str("exchange", cfg.Exchange.Name).Bool("execute_trades", cfg.Trading.ExecuteTrades).
		Msg("trading loop starting")
	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("trading loop failed")
	}
	log.Info().Msg("shut down")
}

// streamSymbols derives the websocket subscription map from the coin
// allow-lists. Wildcard lists are skipped: the stream universe must be
// explicit since subscriptions are per symbol.
func streamSymbols(bases, mkts []string) map[string]string {
	for _, coin := range append(append([]string{}, bases...), mkts...) {
		if strings.EqualFold(coin, "ALL") {
			return nil
		}
	}
	symbols := make(map[string]string, len(bases)*len(mkts))
	for _, base := range bases {
		for _, mkt := range mkts {
			symbols[strings.ToLower(mkt+base)] = market.NewPair(base, mkt).ID
		}
	}
	return symbols
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) store.Store {
	switch {
	case cfg.Store.PostgresDSN != "":
		st, err := store.NewPostgres(ctx, cfg.Store.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("connect postgres")
		}
		return st
	case cfg.Store.TradesPath != "":
		st, err := store.NewJSONL(cfg.Store.TradesPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open trades file")
		}
		return st
	default:
		return store.Noop{}
	}
}

func openAlerts(cfg *config.Config, log zerolog.Logger) notify.Notifier {
	if !cfg.Alerting.Enabled {
		return notify.Noop{}
	}
	if cfg.Alerting.TelegramToken != "" {
		tg, err := notify.NewTelegram(cfg.Alerting.TelegramToken, cfg.Alerting.TelegramChatID, util.Component(log, "notify"))
		if err != nil {
			log.Warn().Err(err).Msg("telegram unavailable, falling back to log alerts")
			return notify.NewLog(util.Component(log, "notify"))
		}
		return tg
	}
	return notify.NewLog(util.Component(log, "notify"))
}
