// Package strategy contains the trading signal generation logic driven by
// aggregated bars.
package strategy

import (
	"github.com/pmckelvy1/cryptobot/internal/market"
)

// Strategy defines the behaviour shared by strategy implementations. A
// strategy is configured once at startup with pair-agnostic parameters and
// maintains per-pair buy/sell flags as its only mutable state. HandleData is
// invoked once per pair per major tick; any derived series (moving averages,
// bands) a strategy computes are private to it. The bars themselves are never
// mutated.
type Strategy interface {
	Name() string
	HandleData(pairID string, bars []market.Bar)
	ShouldBuy(pairID string) bool
	ShouldSell(pairID string) bool
}

// position is the per-pair flag pair every strategy tracks. Buy and sell are
// mutually exclusive by construction.
type position struct {
	buy  bool
	sell bool
}

func sma(bars []market.Bar) float64 {
	if len(bars) == 0 {
		return 0
	}
	var sum float64
	for _, b := range bars {
		sum += b.Last
	}
	return sum / float64(len(bars))
}
