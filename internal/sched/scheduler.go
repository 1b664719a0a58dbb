// Package sched drives the tick loop: rate-limited quote sampling at minor
// ticks and the full aggregate-decide-trade pass at major ticks.
package sched

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pmckelvy1/cryptobot/internal/exchange"
	"github.com/pmckelvy1/cryptobot/internal/execution"
	"github.com/pmckelvy1/cryptobot/internal/market"
	"github.com/pmckelvy1/cryptobot/internal/metrics"
	"github.com/pmckelvy1/cryptobot/internal/notify"
	"github.com/pmckelvy1/cryptobot/internal/risk"
	"github.com/pmckelvy1/cryptobot/internal/store"
	"github.com/pmckelvy1/cryptobot/internal/strategy"
	"github.com/pmckelvy1/cryptobot/internal/ticks"
)

// Config carries the scheduler's tunables.
type Config struct {
	MajorTickSize         int
	ValidBaseCoins        []string // ["ALL"] tracks every base coin
	ValidMktCoins         []string
	RateLimitWindow       time.Duration
	RequestTimeout        time.Duration
	Replay                bool
	ReplayMajorTicks      int // majors to run before liquidating, replay only
	ReportAfterMajorTicks int // 0 disables periodic reports
}

// Scheduler owns the trading loop. One Run call samples quotes every minor
// tick, folds them into bars every MajorTickSize ticks, and routes the
// resulting decisions through the risk gate into the executor.
type Scheduler struct {
	client    exchange.Client
	buffer    *ticks.Buffer
	history   *ticks.History
	consensus *strategy.Consensus
	gate      *risk.Gate
	exec      *execution.Executor
	st        store.Store
	alerts    notify.Notifier
	limiter   *RateLimiter
	cfg       Config
	log       zerolog.Logger
	now       func() time.Time

	pairs      []market.Pair
	minorCount int
	majorCount int
}

// NewScheduler wires the loop. When the exchange client carries its own clock
// (replay mode) bar timestamps come from it instead of wall-clock, and the
// rate limiter is bypassed.
func NewScheduler(client exchange.Client, consensus *strategy.Consensus, gate *risk.Gate, exec *execution.Executor, st store.Store, alerts notify.Notifier, cfg Config, log zerolog.Logger) *Scheduler {
	if cfg.MajorTickSize <= 0 {
		cfg.MajorTickSize = 5
	}
	if st == nil {
		st = store.Noop{}
	}
	if alerts == nil {
		alerts = notify.Noop{}
	}
	s := &Scheduler{
		client:    client,
		buffer:    ticks.NewBuffer(),
		history:   ticks.NewHistory(),
		consensus: consensus,
		gate:      gate,
		exec:      exec,
		st:        st,
		alerts:    alerts,
		limiter:   NewRateLimiter(cfg.RateLimitWindow),
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
	if clock, ok := client.(exchange.Clock); ok {
		s.now = clock.Now
	}
	return s
}

// Pairs returns the tracked pair universe resolved at startup.
func (s *Scheduler) Pairs() []market.Pair {
	out := make([]market.Pair, len(s.pairs))
	copy(out, s.pairs)
	return out
}

// History exposes the accumulated bar history.
func (s *Scheduler) History() *ticks.History { return s.history }

// Run executes the tick loop until the context is cancelled or, in replay
// mode, until the configured number of major ticks has elapsed. Replay runs
// finish with a liquidation pass over every pair holding a position.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.discoverPairs(ctx); err != nil {
		return err
	}
	s.log.Info().Int("pairs", len(s.pairs)).Int("major_tick_size", s.cfg.MajorTickSize).
		Bool("replay", s.cfg.Replay).Msg("tick loop starting")

	for {
		if !s.cfg.Replay {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		s.sample(ctx)
		s.minorCount++

		if s.minorCount%s.cfg.MajorTickSize == 0 {
			s.majorTick(ctx)
			s.majorCount++
			if s.cfg.ReportAfterMajorTicks > 0 && s.majorCount%s.cfg.ReportAfterMajorTicks == 0 {
				s.report()
			}
			if s.cfg.Replay && s.majorCount >= s.cfg.ReplayMajorTicks {
				s.liquidateAll(ctx)
				s.log.Info().Int("major_ticks", s.majorCount).Msg("replay complete")
				return nil
			}
		}
	}
}

// discoverPairs resolves the tracked universe from the venue's listed pairs
// filtered by the configured allow-lists. "ALL" in a list matches every coin.
func (s *Scheduler) discoverPairs(ctx context.Context) error {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()
	listed, err := s.client.ListPairs(ctx)
	if err != nil {
		return fmt.Errorf("list pairs: %w", err)
	}
	for _, pair := range listed {
		if coinAllowed(pair.Base, s.cfg.ValidBaseCoins) && coinAllowed(pair.Market, s.cfg.ValidMktCoins) {
			s.pairs = append(s.pairs, pair)
		}
	}
	if len(s.pairs) == 0 {
		return fmt.Errorf("no tradeable pairs after filtering %d listed", len(listed))
	}
	return nil
}

func coinAllowed(coin string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(a, "ALL") || strings.EqualFold(a, coin) {
			return true
		}
	}
	return false
}

// sample fetches one quote per tracked pair. A failing pair is skipped for
// this tick and the loop moves on; it is retried at the next minor tick.
func (s *Scheduler) sample(ctx context.Context) {
	for _, pair := range s.pairs {
		callCtx, cancel := s.callCtx(ctx)
		quote, err := s.client.GetQuote(callCtx, pair)
		cancel()
		if err != nil {
			metrics.SamplingFailures.WithLabelValues(pair.ID).Inc()
			s.log.Warn().Str("pair", pair.ID).Int("tick", s.minorCount+1).Err(err).
				Msg("quote sampling failed")
			continue
		}
		s.buffer.Record(pair.ID, quote)
		metrics.QuotesTotal.WithLabelValues(pair.ID).Inc()
	}
}

// majorTick flushes each pair's pending quotes into a bar, feeds the strategy
// set, and routes the consensus decision through volume gating into the
// executor. A pair with no quotes this interval produces no bar and holds.
func (s *Scheduler) majorTick(ctx context.Context) {
	ts := s.now()
	for _, pair := range s.pairs {
		bar, ok := s.buffer.Flush(pair.ID, ts)
		if !ok {
			s.log.Debug().Str("pair", pair.ID).Msg("no quotes this interval")
			continue
		}
		if err := s.history.Append(bar); err != nil {
			s.log.Error().Str("pair", pair.ID).Err(err).Msg("bar rejected")
			continue
		}
		metrics.BarsTotal.WithLabelValues(pair.ID).Inc()

		saveCtx, cancel := s.callCtx(ctx)
		if err := s.st.SaveBars(saveCtx, pair.ID, []market.Bar{bar}); err != nil {
			s.log.Warn().Str("pair", pair.ID).Err(err).Msg("bar persistence failed")
		}
		cancel()

		bars := s.history.Bars(pair.ID)
		s.consensus.HandleData(pair.ID, bars)
		decision := s.consensus.Evaluate(pair.ID)
		if decision == market.DecideBuy && !s.gate.CheckVolume(pair, bar) {
			metrics.TradeRejections.WithLabelValues(pair.ID, "volume").Inc()
			s.log.Info().Str("pair", pair.ID).Float64("vol_mkt", bar.VolMkt).Msg("buy vetoed on thin volume")
			continue
		}
		outcome := s.exec.Trade(ctx, pair, decision, bar.Last)
		if decision != market.Hold {
			s.log.Info().Str("pair", pair.ID).Int("major_tick", s.majorCount+1).
				Str("decision", decision.String()).Str("outcome", string(outcome)).
				Msg("major tick resolved")
		}
	}
}

// liquidateAll closes every open position, used as the replay teardown pass.
func (s *Scheduler) liquidateAll(ctx context.Context) {
	for _, pair := range s.pairs {
		outcome := s.exec.Liquidate(ctx, pair)
		s.log.Info().Str("pair", pair.ID).Str("outcome", string(outcome)).Msg("position liquidated")
	}
}

// report pushes a best-effort trade summary to the operator channel.
func (s *Scheduler) report() {
	ledger := s.exec.Ledger()
	var b strings.Builder
	total := 0
	for _, pairID := range ledger.Pairs() {
		trades := ledger.All(pairID)
		total += len(trades)
		fmt.Fprintf(&b, "%s: %d trades\n", pairID, len(trades))
	}
	if total == 0 {
		b.WriteString("no trades yet\n")
	}
	s.alerts.Send(
		fmt.Sprintf("trading report, major tick %d", s.majorCount),
		b.String(),
	)
}

func (s *Scheduler) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.RequestTimeout)
}
