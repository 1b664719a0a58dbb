package ticks

import (
	"fmt"
	"sync"
	"time"

	"github.com/pmckelvy1/cryptobot/internal/market"
)

// History keeps the append-only, time-ordered bar history per pair. Bars are
// never mutated after insertion; strategies read slices and keep any derived
// series private.
type History struct {
	mu   sync.RWMutex
	bars map[string][]market.Bar
}

// NewHistory creates an empty bar history store.
func NewHistory() *History {
	return &History{bars: make(map[string][]market.Bar)}
}

// Append adds a bar to the pair's history, enforcing time ordering.
func (h *History) Append(bar market.Bar) error {
	if bar.SourceCount < 1 {
		return fmt.Errorf("bar for %s has no source quotes", bar.PairID)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	existing := h.bars[bar.PairID]
	if n := len(existing); n > 0 && bar.Ts.Before(existing[n-1].Ts) {
		return fmt.Errorf("bar for %s at %s is older than history tail %s",
			bar.PairID, bar.Ts.Format(time.RFC3339), existing[n-1].Ts.Format(time.RFC3339))
	}
	h.bars[bar.PairID] = append(existing, bar)
	return nil
}

// Bars returns a copy of the pair's full history.
func (h *History) Bars(pairID string) []market.Bar {
	h.mu.RLock()
	defer h.mu.RUnlock()
	bars := h.bars[pairID]
	out := make([]market.Bar, len(bars))
	copy(out, bars)
	return out
}

// Tail returns a copy of the most recent n bars for the pair.
func (h *History) Tail(pairID string, n int) []market.Bar {
	h.mu.RLock()
	defer h.mu.RUnlock()
	bars := h.bars[pairID]
	if n > len(bars) {
		n = len(bars)
	}
	out := make([]market.Bar, n)
	copy(out, bars[len(bars)-n:])
	return out
}

// Len reports how many bars the pair has accumulated.
func (h *History) Len(pairID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.bars[pairID])
}
