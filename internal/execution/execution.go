// Package execution handles order sizing, rate determination, and order
// lifecycle against the venue.
package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pmckelvy1/cryptobot/internal/exchange"
	"github.com/pmckelvy1/cryptobot/internal/market"
	"github.com/pmckelvy1/cryptobot/internal/metrics"
	"github.com/pmckelvy1/cryptobot/internal/notify"
	"github.com/pmckelvy1/cryptobot/internal/risk"
	"github.com/pmckelvy1/cryptobot/internal/store"
)

// Outcome is a pair's terminal state for one major tick. The pair returns to
// idle at the next major tick regardless of outcome.
type Outcome string

const (
	OutcomeFilled   Outcome = "FILLED"
	OutcomeFailed   Outcome = "FAILED"
	OutcomeRejected Outcome = "REJECTED"
	OutcomeHold     Outcome = "HOLD"
)

// Config carries the executor's tunables.
type Config struct {
	OrderBookDepth int
	SellFraction   float64 // fraction of holdings liquidated per sell, (0,1]
	ExecuteTrades  bool    // false = dry-run: decisions logged, no orders
}

// Executor converts approved decisions into sized, rate-checked limit orders
// and records the outcomes. Exactly one order attempt may be in flight per
// pair per major tick; failed attempts are abandoned until the next tick.
type Executor struct {
	client exchange.Client
	gate   *risk.Gate
	ledger *Ledger
	store  store.Store
	alerts notify.Notifier
	cfg    Config
	log    zerolog.Logger
	now    func() time.Time
}

// NewExecutor wires the execution engine. When the exchange client carries its
// own clock (replay mode) trade timestamps come from it instead of wall-clock.
func NewExecutor(client exchange.Client, gate *risk.Gate, st store.Store, alerts notify.Notifier, cfg Config, log zerolog.Logger) *Executor {
	if cfg.OrderBookDepth <= 0 {
		cfg.OrderBookDepth = 20
	}
	if cfg.SellFraction <= 0 || cfg.SellFraction > 1 {
		cfg.SellFraction = 1
	}
	if st == nil {
		st = store.Noop{}
	}
	if alerts == nil {
		alerts = notify.Noop{}
	}
	e := &Executor{
		client: client,
		gate:   gate,
		ledger: NewLedger(),
		store:  st,
		alerts: alerts,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
	if clock, ok := client.(exchange.Clock); ok {
		e.now = clock.Now
	}
	return e
}

// Ledger exposes the executed trade history.
func (e *Executor) Ledger() *Ledger { return e.ledger }

// Trade drives the pair through its per-tick state machine for the resolved
// decision. rate is the pair's latest aggregated last price, used for sizing.
func (e *Executor) Trade(ctx context.Context, pair market.Pair, decision market.Decision, rate float64) Outcome {
	metrics.DecisionsTotal.WithLabelValues(pair.ID, decision.String()).Inc()
	switch decision {
	case market.DecideBuy:
		return e.buy(ctx, pair, rate)
	case market.DecideSell:
		return e.sell(ctx, pair, e.cfg.SellFraction)
	default:
		return OutcomeHold
	}
}

// Liquidate closes the pair's full position, used by the replay teardown pass.
func (e *Executor) Liquidate(ctx context.Context, pair market.Pair) Outcome {
	return e.sell(ctx, pair, 1)
}

func (e *Executor) buy(ctx context.Context, pair market.Pair, rate float64) Outcome {
	spend, err := e.gate.ApproveBuy(ctx, pair)
	if err != nil {
		var insufficient *risk.InsufficientFundsError
		if errors.As(err, &insufficient) {
			e.log.Info().Str("pair", pair.ID).Err(err).Msg("buy rejected")
			metrics.TradeRejections.WithLabelValues(pair.ID, "funds").Inc()
			return OutcomeRejected
		}
		e.log.Warn().Str("pair", pair.ID).Err(err).Msg("buy approval failed")
		return OutcomeFailed
	}

	qty, err := CalculateNumCoins(market.Buy, spend, rate)
	if err != nil {
		e.log.Warn().Str("pair", pair.ID).Err(err).Msg("buy sizing failed")
		return OutcomeFailed
	}
	return e.submit(ctx, pair, market.Buy, qty)
}

func (e *Executor) sell(ctx context.Context, pair market.Pair, fraction float64) Outcome {
	holdings, ok := e.gate.ApproveSell(ctx, pair)
	if !ok {
		metrics.TradeRejections.WithLabelValues(pair.ID, "holdings").Inc()
		return OutcomeRejected
	}

	qty, err := CalculateNumCoins(market.Sell, holdings*fraction, 1)
	if err != nil {
		e.log.Warn().Str("pair", pair.ID).Err(err).Msg("sell sizing failed")
		return OutcomeFailed
	}

	outcome := e.submit(ctx, pair, market.Sell, qty)
	if outcome == OutcomeFilled {
		e.completeSell(pair)
	}
	return outcome
}

// submit determines the depth-aware rate, places the order, and records the
// trade. All submission failures are abandoned for this tick.
func (e *Executor) submit(ctx context.Context, pair market.Pair, side market.Side, qty float64) Outcome {
	orderRate, err := e.CalculateOrderRate(ctx, pair, side, qty)
	if err != nil {
		e.log.Warn().Str("pair", pair.ID).Str("side", string(side)).Err(err).Msg("order rate lookup failed")
		return OutcomeFailed
	}

	if !e.cfg.ExecuteTrades {
		e.log.Info().Str("pair", pair.ID).Str("side", string(side)).
			Float64("qty", qty).Float64("rate", orderRate).Msg("dry run, order not submitted")
		return OutcomeHold
	}

	orderID, err := e.client.PlaceLimitOrder(ctx, pair, side, qty, orderRate)
	if err != nil {
		e.log.Warn().Str("pair", pair.ID).Str("side", string(side)).Err(err).Msg("order submission failed")
		metrics.TradeRejections.WithLabelValues(pair.ID, "venue").Inc()
		return OutcomeFailed
	}

	trade := market.Trade{
		Side:     side,
		PairID:   pair.ID,
		Base:     pair.Base,
		Market:   pair.Market,
		Quantity: qty,
		Rate:     orderRate,
		OrderID:  orderID,
		Ts:       e.now(),
	}
	e.ledger.Append(trade)
	metrics.OrdersTotal.WithLabelValues(pair.ID, string(side)).Inc()
	e.log.Info().Str("pair", pair.ID).Str("side", string(side)).
		Float64("qty", qty).Float64("rate", orderRate).Str("order_id", orderID).Msg("order filled")

	if err := e.store.SaveTrade(ctx, trade); err != nil {
		e.log.Warn().Err(err).Str("pair", pair.ID).Msg("trade persistence failed")
	}
	return OutcomeFilled
}

// completeSell folds the closed round-trip into realized P&L, alerting the
// operator on a large loss. Accounting problems never unwind the trade.
func (e *Executor) completeSell(pair market.Pair) {
	tail := e.ledger.Tail(pair.ID, 2)
	if len(tail) < 2 {
		return
	}
	rt, err := risk.CloseRoundTrip(tail[0], tail[1])
	if err != nil {
		var large *risk.LargeLossError
		var mixed *risk.MixedTradeError
		switch {
		case errors.As(err, &large):
			e.log.Warn().Str("pair", pair.ID).Float64("pct", large.NetGainPct).Msg("large loss realized")
			e.alerts.Send(
				fmt.Sprintf("%s large loss", pair.ID),
				fmt.Sprintf("net loss %.8f %s (%.2f%%)", large.NetGain, pair.Base, large.NetGainPct),
			)
		case errors.As(err, &mixed):
			e.log.Warn().Str("pair", pair.ID).Err(err).Msg("mixed trade, P&L suppressed")
		default:
			e.log.Error().Str("pair", pair.ID).Err(err).Msg("round-trip accounting failed")
		}
		return
	}
	e.log.Info().Str("pair", pair.ID).
		Float64("net_gain", rt.NetGain).Float64("pct", rt.NetGainPct).
		Dur("hold_time", rt.HoldTime).Msg("round trip closed")
}

// CalculateNumCoins sizes an order. For a buy, amount is the base-currency
// spend and rate the current price: qty = amount/rate rounded to 8 decimals.
// For a sell, amount is already the market-coin quantity to liquidate.
func CalculateNumCoins(side market.Side, amount, rate float64) (float64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("non-positive order amount %.8f", amount)
	}
	if side == market.Buy {
		if rate <= 0 {
			return 0, fmt.Errorf("non-positive rate %.8f", rate)
		}
		qty := decimal.NewFromFloat(amount).Div(decimal.NewFromFloat(rate)).Round(8)
		return qty.InexactFloat64(), nil
	}
	return decimal.NewFromFloat(amount).Round(8).InexactFloat64(), nil
}

// CalculateOrderRate walks the relevant side of the live book accumulating
// amounts until the running total covers qty; the rate at that depth is the
// achievable fill price for the size. Asks are walked for buys, bids for
// sells.
func (e *Executor) CalculateOrderRate(ctx context.Context, pair market.Pair, side market.Side, qty float64) (float64, error) {
	bookSide := market.Asks
	if side == market.Sell {
		bookSide = market.Bids
	}
	book, err := e.client.GetOrderBook(ctx, pair, bookSide, e.cfg.OrderBookDepth)
	if err != nil {
		return 0, err
	}
	if len(book.Entries) == 0 {
		return 0, fmt.Errorf("empty %s book for %s", bookSide, pair.ID)
	}

	var total, rate float64
	for _, entry := range book.Entries {
		total += entry.Amount
		rate = entry.Price
		if total >= qty {
			break
		}
	}
	return rate, nil
}
