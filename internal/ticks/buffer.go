// Package ticks accumulates raw per-pair quotes between aggregation points and
// reduces them into one OHLCV bar per major tick.
package ticks

import (
	"sync"
	"time"

	"github.com/pmckelvy1/cryptobot/internal/market"
)

// Buffer holds the pending quotes for every tracked pair. Record may run off
// the control thread while sampling is parallelized; Flush runs on the control
// thread only, after all sampling for the tick completes.
type Buffer struct {
	mu      sync.Mutex
	pending map[string][]market.Quote
}

// NewBuffer creates an empty minor-tick buffer.
func NewBuffer() *Buffer {
	return &Buffer{pending: make(map[string][]market.Quote)}
}

// Record appends a quote to the pair's pending buffer in arrival order.
func (b *Buffer) Record(pairID string, q market.Quote) {
	b.mu.Lock()
	defer b.mu.Unlock()
	q.PairID = pairID
	b.pending[pairID] = append(b.pending[pairID], q)
}

// Pending reports how many quotes are waiting for the pair.
func (b *Buffer) Pending(pairID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending[pairID])
}

// Flush consumes the pair's entire pending buffer and produces one bar.
// An empty buffer (the sampler failed every minor tick in the interval)
// produces no bar: ok is false and the pair simply has no update this cycle.
func (b *Buffer) Flush(pairID string, ts time.Time) (market.Bar, bool) {
	b.mu.Lock()
	quotes := b.pending[pairID]
	delete(b.pending, pairID)
	b.mu.Unlock()

	if len(quotes) == 0 {
		return market.Bar{}, false
	}

	first, last := quotes[0], quotes[len(quotes)-1]
	bar := market.Bar{
		PairID:      pairID,
		Open:        first.Last,
		High:        first.Last,
		Low:         first.Last,
		Close:       last.Last,
		Bid:         last.Bid,
		Ask:         last.Ask,
		Last:        last.Last,
		SourceCount: len(quotes),
		Ts:          ts,
	}
	for _, q := range quotes {
		if q.Last > bar.High {
			bar.High = q.Last
		}
		if q.Last < bar.Low {
			bar.Low = q.Last
		}
		bar.VolBase += q.VolBase
		bar.VolMkt += q.VolMkt
	}
	return bar, true
}
