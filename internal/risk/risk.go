// Package risk guards every trade with funds checks and post-trade loss limits.
package risk

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pmckelvy1/cryptobot/internal/exchange"
	"github.com/pmckelvy1/cryptobot/internal/market"
)

// Gate verifies balances before trades and evaluates volume thresholds.
// Balance reads go through the exchange boundary on the control thread.
type Gate struct {
	client           exchange.Client
	maxSpend         map[string]float64
	volumeThresholds map[string]float64
	log              zerolog.Logger
}

// NewGate wires the funds gate over the exchange client. maxSpend caps the
// base-currency amount risked per buy; volumeThresholds set the minimum recent
// base-currency volume a pair must show before it may trade.
func NewGate(client exchange.Client, maxSpend, volumeThresholds map[string]float64, log zerolog.Logger) *Gate {
	return &Gate{
		client:           client,
		maxSpend:         maxSpend,
		volumeThresholds: volumeThresholds,
		log:              log,
	}
}

// ApproveBuy returns the base-currency amount to spend on the pair:
// min(configured max spend, current balance). It rejects with
// InsufficientFundsError when nothing can be spent.
func (g *Gate) ApproveBuy(ctx context.Context, pair market.Pair) (float64, error) {
	balance, err := g.client.GetBalance(ctx, pair.Base)
	if err != nil {
		return 0, err
	}
	required := math.Min(g.maxSpend[pair.Base], balance)
	if required <= 0 || balance < required {
		return 0, &InsufficientFundsError{Coin: pair.Base, Balance: balance, Required: g.maxSpend[pair.Base]}
	}
	return required, nil
}

// ApproveSell reports the pair's market-coin holdings and whether a sell may
// proceed. A zero balance is rejected silently: logged and skipped.
func (g *Gate) ApproveSell(ctx context.Context, pair market.Pair) (float64, bool) {
	balance, err := g.client.GetBalance(ctx, pair.Market)
	if err != nil {
		g.log.Warn().Err(err).Str("pair", pair.ID).Msg("balance check failed, skipping sell")
		return 0, false
	}
	if balance <= 0 {
		g.log.Debug().Str("pair", pair.ID).Msg("no holdings to sell")
		return 0, false
	}
	return balance, true
}

// CheckVolume reports whether the bar's recent base-currency volume clears the
// configured threshold for the pair's base coin. Pairs without a configured
// threshold always pass.
func (g *Gate) CheckVolume(pair market.Pair, bar market.Bar) bool {
	threshold, ok := g.volumeThresholds[pair.Base]
	if !ok || threshold <= 0 {
		return true
	}
	return bar.VolMkt*bar.Last >= threshold
}

// RoundTrip is the realized outcome of a buy followed by a sell on one pair.
type RoundTrip struct {
	PairID     string
	NetGain    float64 // in base currency
	NetGainPct float64
	HoldTime   time.Duration
}

// CloseRoundTrip computes realized P&L from a pair's last two trades.
// Arithmetic is decimal-exact at 8 decimal places. A mismatched base leg
// yields MixedTradeError (P&L suppressed, trade records stand). A loss at or
// beyond the threshold returns both the valid RoundTrip and a LargeLossError.
func CloseRoundTrip(buy, sell market.Trade) (RoundTrip, error) {
	if buy.Side != market.Buy || sell.Side != market.Sell {
		return RoundTrip{}, &BadMathError{Op: "close round trip", Detail: "trades out of order"}
	}
	if buy.Base != sell.Base {
		return RoundTrip{}, &MixedTradeError{BuyBase: buy.Base, SellBase: sell.Base, Market: sell.Market}
	}

	coinIn := decimal.NewFromFloat(buy.Quantity).Mul(decimal.NewFromFloat(buy.Rate)).Round(8)
	coinOut := decimal.NewFromFloat(sell.Quantity).Mul(decimal.NewFromFloat(sell.Rate)).Round(8)
	if coinIn.Sign() <= 0 {
		return RoundTrip{}, &BadMathError{Op: "close round trip", Detail: "non-positive buy cost"}
	}

	netGain := coinOut.Sub(coinIn)
	netGainPct := netGain.Div(coinIn).Mul(decimal.NewFromInt(100)).Round(8)

	rt := RoundTrip{
		PairID:     sell.PairID,
		NetGain:    netGain.InexactFloat64(),
		NetGainPct: netGainPct.InexactFloat64(),
		HoldTime:   sell.Ts.Sub(buy.Ts),
	}
	if rt.NetGainPct <= LargeLossThresholdPct {
		return rt, &LargeLossError{PairID: rt.PairID, NetGain: rt.NetGain, NetGainPct: rt.NetGainPct}
	}
	return rt, nil
}
