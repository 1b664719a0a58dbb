package strategy

import (
	"sync"

	"github.com/pmckelvy1/cryptobot/internal/market"
)

// SMACrossover flags a buy when the last price crosses above its simple moving
// average and a sell when it crosses back below.
type SMACrossover struct {
	window    int
	mu        sync.Mutex
	positions map[string]position
}

// NewSMACrossover builds the strategy with the given averaging window.
func NewSMACrossover(window int) *SMACrossover {
	if window <= 0 {
		window = 5
	}
	return &SMACrossover{
		window:    window,
		positions: make(map[string]position),
	}
}

// Name returns the identifier for the strategy implementation.
func (s *SMACrossover) Name() string { return "SMACrossover" }

// HandleData recomputes the crossover flags for the pair from its bar history.
// With fewer than window+1 bars the strategy holds (both flags false).
func (s *SMACrossover) HandleData(pairID string, bars []market.Bar) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(bars)
	if n < s.window+1 {
		s.positions[pairID] = position{}
		return
	}

	curAvg := sma(bars[n-s.window:])
	prevAvg := sma(bars[n-s.window-1 : n-1])
	curLast := bars[n-1].Last
	prevLast := bars[n-2].Last

	pos := position{
		buy:  prevLast <= prevAvg && curLast > curAvg,
		sell: prevLast >= prevAvg && curLast < curAvg,
	}
	s.positions[pairID] = pos
}

// ShouldBuy reports whether the pair's last crossed above its moving average.
func (s *SMACrossover) ShouldBuy(pairID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positions[pairID].buy
}

// ShouldSell reports whether the pair's last crossed below its moving average.
func (s *SMACrossover) ShouldSell(pairID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positions[pairID].sell
}
