package execution

import (
	"sort"
	"sync"

	"github.com/pmckelvy1/cryptobot/internal/market"
)

// Ledger stores executed trades per pair in arrival order. The two most
// recent trades for a pair define a completed round-trip.
type Ledger struct {
	mu     sync.Mutex
	trades map[string][]market.Trade
}

// NewLedger creates an empty trade ledger.
func NewLedger() *Ledger {
	return &Ledger{trades: make(map[string][]market.Trade)}
}

// Append records a trade at the tail of its pair's history.
func (l *Ledger) Append(trade market.Trade) {
	l.mu.Lock()
	l.trades[trade.PairID] = append(l.trades[trade.PairID], trade)
	l.mu.Unlock()
}

// Tail returns a copy of the most recent n trades for the pair.
func (l *Ledger) Tail(pairID string, n int) []market.Trade {
	l.mu.Lock()
	defer l.mu.Unlock()
	trades := l.trades[pairID]
	if n > len(trades) {
		n = len(trades)
	}
	out := make([]market.Trade, n)
	copy(out, trades[len(trades)-n:])
	return out
}

// All returns a copy of every trade recorded for the pair.
func (l *Ledger) All(pairID string) []market.Trade {
	l.mu.Lock()
	defer l.mu.Unlock()
	trades := l.trades[pairID]
	out := make([]market.Trade, len(trades))
	copy(out, trades)
	return out
}

// Pairs lists every pair with at least one trade, sorted for determinism.
func (l *Ledger) Pairs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.trades))
	for pairID := range l.trades {
		out = append(out, pairID)
	}
	sort.Strings(out)
	return out
}
