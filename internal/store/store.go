// Package store persists trades and bars. The boundary is fire-and-forget:
// failures are logged by callers and never block trading.
package store

import (
	"context"

	"github.com/pmckelvy1/cryptobot/internal/market"
)

// Store is the persistence boundary consumed by the execution engine and
// scheduler.
type Store interface {
	SaveTrade(ctx context.Context, trade market.Trade) error
	SaveBars(ctx context.Context, pairID string, bars []market.Bar) error
	Close() error
}

// Noop discards everything; useful for replay runs without a backend.
type Noop struct{}

func (Noop) SaveTrade(context.Context, market.Trade) error        { return nil }
func (Noop) SaveBars(context.Context, string, []market.Bar) error { return nil }
func (Noop) Close() error                                         { return nil }
