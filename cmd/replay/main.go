// Binary replay runs the trading loop against scripted price paths with no
// wall-clock delays, then prints the resulting trades and balances.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"sort"

	"github.com/pmckelvy1/cryptobot/internal/config"
	"github.com/pmckelvy1/cryptobot/internal/exchange"
	"github.com/pmckelvy1/cryptobot/internal/execution"
	"github.com/pmckelvy1/cryptobot/internal/market"
	"github.com/pmckelvy1/cryptobot/internal/risk"
	"github.com/pmckelvy1/cryptobot/internal/sched"
	"github.com/pmckelvy1/cryptobot/internal/store"
	"github.com/pmckelvy1/cryptobot/internal/strategy"
	"github.com/pmckelvy1/cryptobot/internal/util"
)

// fixture scripts the replay universe: one price path per pair id plus the
// starting balances per coin.
type fixture struct {
	Paths    map[string][]float64 `json:"paths"`
	Balances map[string]float64   `json:"balances"`
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	fixturePath := flag.String("fixture", "fixture.json", "path to the replay fixture")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := util.NewLogger("info")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	cfg.Replay.Enabled = true
	if cfg.Replay.MajorTicks <= 0 {
		cfg.Replay.MajorTicks = 100
	}

	log := util.NewLogger(cfg.App.LogLevel)

	fix, err := loadFixture(*fixturePath)
	if err != nil {
		log.Fatal().Err(err).Msg("load fixture")
	}
	pairs := make([]market.Pair, 0, len(fix.Paths))
	for id := range fix.Paths {
		pair, err := market.ParsePairID(id)
		if err != nil {
			log.Fatal().Err(err).Msg("bad fixture pair")
		}
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].ID < pairs[j].ID })

	client := exchange.NewReplayClient(pairs, fix.Paths, fix.Balances)

	var st store.Store = store.Noop{}
	if cfg.Store.TradesPath != "" {
		st, err = store.NewJSONL(cfg.Store.TradesPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open trades file")
		}
	}
	defer st.Close()

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
	exec := execution.NewExecutor(client, gate, st, nil, execution.Config{
		OrderBookDepth: cfg.Exchange.OrderBookDepth,
		SellFraction:   cfg.Trading.SellFraction,
		ExecuteTrades:  true,
	}, util.Component(log, "execution"))

	loop := sched.NewScheduler(client, consensus, gate, exec, st, nil, sched.Config{
		MajorTickSize:    cfg.Trading.MajorTickSize,
		ValidBaseCoins:   cfg.Trading.ValidBaseCoins,
		ValidMktCoins:    cfg.Trading.ValidMktCoins,
		Replay:           true,
		ReplayMajorTicks: cfg.Replay.MajorTicks,
	}, util.Component(log, "sched"))

	if err := loop.Run(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("replay failed")
	}

	ledger := exec.Ledger()
	for _, pairID := range ledger.Pairs() {
		for _, trade := range ledger.All(pairID) {
			log.Info().Str("pair", pairID).Str("side", string(trade.Side)).
				Float64("qty", trade.Quantity).Float64("rate", trade.Rate).
				Time("ts", trade.Ts).Msg("trade")
		}
	}
	coins := make([]string, 0, len(fix.Balances))
	for coin := range fix.Balances {
		coins = append(coins, coin)
	}
	sort.Strings(coins)
	for _, coin := range coins {
		bal, _ := client.GetBalance(context.Background(), coin)
		log.Info().Str("coin", coin).Float64("start", fix.Balances[coin]).
			Float64("end", bal).Msg("balance")
	}
}

func loadFixture(path string) (*fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fix fixture
	if err := json.Unmarshal(data, &fix); err != nil {
		return nil, err
	}
	return &fix, nil
}
