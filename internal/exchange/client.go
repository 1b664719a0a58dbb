// Package exchange hosts the venue boundary: a signed REST client, an optional
// websocket quote stream, and a deterministic replay client for backtests.
package exchange

import (
	"context"
	"errors"
	"time"

	"github.com/pmckelvy1/cryptobot/internal/market"
)

// Client is the exchange boundary consumed by the sampler, risk gate, and
// execution engine. Implementations must bound every call with the supplied
// context so a hung network call surfaces as a per-pair failure instead of
// stalling the tick loop.
type Client interface {
	ListPairs(ctx context.Context) ([]market.Pair, error)
	GetQuote(ctx context.Context, pair market.Pair) (market.Quote, error)
	GetOrderBook(ctx context.Context, pair market.Pair, side market.BookSide, depth int) (market.OrderBook, error)
	GetBalance(ctx context.Context, coin string) (float64, error)
	PlaceLimitOrder(ctx context.Context, pair market.Pair, side market.Side, amount, rate float64) (string, error)
	CancelOrder(ctx context.Context, orderID string) error
}

// Clock is implemented by clients that carry their own notion of time, such as
// the replay client. Bar timestamps come from here instead of the wall clock
// when the exchange provides one.
type Clock interface {
	Now() time.Time
}

// ErrOrderRejected is returned when the venue refuses an order placement.
var ErrOrderRejected = errors.New("exchange rejected order")
