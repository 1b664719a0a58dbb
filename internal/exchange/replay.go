package exchange

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pmckelvy1/cryptobot/internal/market"
)

// ReplayClient is a deterministic in-memory exchange used in replay mode.
// Each pair follows a scripted last-price path; orders fill instantly against
// virtual balances. The client advances its own clock one step per quote so
// bar timestamps are exchange-provided rather than wall-clock.
type ReplayClient struct {
	mu       sync.Mutex
	pairs    []market.Pair
	paths    map[string][]float64
	step     map[string]int
	balances map[string]float64
	failures map[string]int
	spread   float64
	volume   float64
	orderSeq int
	clock    time.Time
	stride   time.Duration
}

// NewReplayClient scripts an exchange from per-pair price paths and starting
// balances. Paths are replayed one price per GetQuote call, clamping at the
// final price once exhausted.
func NewReplayClient(pairs []market.Pair, paths map[string][]float64, balances map[string]float64) *ReplayClient {
	bal := make(map[string]float64, len(balances))
	for coin, amt := range balances {
		bal[coin] = amt
	}
	return &ReplayClient{
		pairs:    pairs,
		paths:    paths,
		step:     make(map[string]int),
		balances: bal,
		failures: make(map[string]int),
		spread:   0.001,
		volume:   10000,
		clock:    time.Date(2018, 3, 1, 0, 0, 0, 0, time.UTC),
		stride:   time.Minute,
	}
}

// FailNext makes the next n GetQuote calls for the pair fail, to exercise the
// per-pair sampling failure policy.
func (r *ReplayClient) FailNext(pairID string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[pairID] = n
}

// Now returns the replay clock.
func (r *ReplayClient) Now() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clock
}

// ListPairs returns the scripted pair universe.
func (r *ReplayClient) ListPairs(ctx context.Context) ([]market.Pair, error) {
	out := make([]market.Pair, len(r.pairs))
	copy(out, r.pairs)
	return out, nil
}

// GetQuote advances the pair one step along its price path.
func (r *ReplayClient) GetQuote(ctx context.Context, pair market.Pair) (market.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n := r.failures[pair.ID]; n > 0 {
		r.failures[pair.ID] = n - 1
		return market.Quote{}, fmt.Errorf("scripted sampling failure for %s", pair.ID)
	}

	last, err := r.advance(pair.ID)
	if err != nil {
		return market.Quote{}, err
	}
	r.clock = r.clock.Add(r.stride)
	return market.Quote{
		PairID:  pair.ID,
		Bid:     last * (1 - r.spread),
		Ask:     last * (1 + r.spread),
		Last:    last,
		VolBase: r.volume * last,
		VolMkt:  r.volume,
		Ts:      r.clock,
	}, nil
}

func (r *ReplayClient) advance(pairID string) (float64, error) {
	path := r.paths[pairID]
	if len(path) == 0 {
		return 0, fmt.Errorf("no price path scripted for %s", pairID)
	}
	i := r.step[pairID]
	if i >= len(path) {
		i = len(path) - 1
	} else {
		r.step[pairID] = i + 1
	}
	return path[i], nil
}

func (r *ReplayClient) current(pairID string) float64 {
	path := r.paths[pairID]
	if len(path) == 0 {
		return 0
	}
	i := r.step[pairID]
	if i > 0 {
		i--
	}
	if i >= len(path) {
		i = len(path) - 1
	}
	return path[i]
}

// GetOrderBook synthesizes a deep book around the pair's current price so
// depth-walking order rate calculations behave as they would live.
func (r *ReplayClient) GetOrderBook(ctx context.Context, pair market.Pair, side market.BookSide, depth int) (market.OrderBook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	px := r.current(pair.ID)
	if px <= 0 {
		return market.OrderBook{}, fmt.Errorf("no price for %s", pair.ID)
	}
	if depth <= 0 {
		depth = 20
	}
	book := market.OrderBook{PairID: pair.ID, Side: side, Entries: make([]market.BookEntry, 0, depth)}
	for i := 0; i < depth; i++ {
		level := px * (1 + float64(i+1)*r.spread)
		if side == market.Bids {
			level = px * (1 - float64(i+1)*r.spread)
		}
		book.Entries = append(book.Entries, market.BookEntry{Price: level, Amount: r.volume / float64(depth)})
	}
	return book, nil
}

// GetBalance returns the virtual balance for a coin.
func (r *ReplayClient) GetBalance(ctx context.Context, coin string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[coin], nil
}

// PlaceLimitOrder fills instantly against the virtual balances.
func (r *ReplayClient) PlaceLimitOrder(ctx context.Context, pair market.Pair, side market.Side, amount, rate float64) (string, error) {
	if amount <= 0 || rate <= 0 {
		return "", ErrOrderRejected
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cost := amount * rate
	switch side {
	case market.Buy:
		if r.balances[pair.Base] < cost {
			return "", ErrOrderRejected
		}
		r.balances[pair.Base] -= cost
		r.balances[pair.Market] += amount
	case market.Sell:
		if r.balances[pair.Market] < amount {
			return "", ErrOrderRejected
		}
		r.balances[pair.Market] -= amount
		r.balances[pair.Base] += cost
	default:
		return "", ErrOrderRejected
	}
	r.orderSeq++
	return fmt.Sprintf("replay-%d", r.orderSeq), nil
}

// CancelOrder is a no-op: replay fills are instant.
func (r *ReplayClient) CancelOrder(ctx context.Context, orderID string) error {
	return nil
}
