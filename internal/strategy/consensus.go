package strategy

import (
	"github.com/rs/zerolog"

	"github.com/pmckelvy1/cryptobot/internal/market"
)

// Consensus runs the configured strategies over a pair's bar history and
// combines their independent buy/sell flags into one decision.
type Consensus struct {
	strategies []Strategy
	requireAll bool
	log        zerolog.Logger
}

// NewConsensus wires the ordered strategy set under the given policy.
// requireAll means every strategy must agree before a decision fires;
// otherwise any single strategy triggers, with buy taking priority over sell.
func NewConsensus(strategies []Strategy, requireAll bool, log zerolog.Logger) *Consensus {
	return &Consensus{strategies: strategies, requireAll: requireAll, log: log}
}

// Strategies exposes the configured set for reporting.
func (c *Consensus) Strategies() []Strategy { return c.strategies }

// HandleData feeds the pair's history to every strategy in configured order.
// A pair with no new bar this tick is still handled: strategies simply see the
// same history again and restate their standing flags.
func (c *Consensus) HandleData(pairID string, bars []market.Bar) {
	for _, s := range c.strategies {
		s.HandleData(pairID, bars)
	}
}

// Evaluate resolves the pair's decision for the tick. Buy is checked before
// sell, so when flags conflict across strategies under the any-policy, buy
// takes priority.
func (c *Consensus) Evaluate(pairID string) market.Decision {
	if c.shouldBuy(pairID) {
		return market.DecideBuy
	}
	if c.shouldSell(pairID) {
		return market.DecideSell
	}
	return market.Hold
}

func (c *Consensus) shouldBuy(pairID string) bool {
	if len(c.strategies) == 0 {
		return false
	}
	if c.requireAll {
		for _, s := range c.strategies {
			if !s.ShouldBuy(pairID) {
				return false
			}
		}
		return true
	}
	for _, s := range c.strategies {
		if s.ShouldBuy(pairID) {
			c.log.Debug().Str("pair", pairID).Str("strat", s.Name()).Msg("buy flag set")
			return true
		}
	}
	return false
}

func (c *Consensus) shouldSell(pairID string) bool {
	if len(c.strategies) == 0 {
		return false
	}
	if c.requireAll {
		for _, s := range c.strategies {
			if !s.ShouldSell(pairID) {
				return false
			}
		}
		return true
	}
	for _, s := range c.strategies {
		if s.ShouldSell(pairID) {
			c.log.Debug().Str("pair", pairID).Str("strat", s.Name()).Msg("sell flag set")
			return true
		}
	}
	return false
}
