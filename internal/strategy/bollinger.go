package strategy

import (
	"math"
	"sync"

	"github.com/pmckelvy1/cryptobot/internal/market"
)

// BollingerBands flags a buy when the last price dips below the lower band and
// a sell when it rises above the upper band.
type BollingerBands struct {
	window     int
	numStdDevs float64
	mu         sync.Mutex
	positions  map[string]position
}

// NewBollingerBands builds the strategy with the given window and band width.
func NewBollingerBands(window int, numStdDevs float64) *BollingerBands {
	if window <= 1 {
		window = 5
	}
	if numStdDevs <= 0 {
		numStdDevs = 2
	}
	return &BollingerBands{
		window:     window,
		numStdDevs: numStdDevs,
		positions:  make(map[string]position),
	}
}

// Name returns the identifier for the strategy implementation.
func (s *BollingerBands) Name() string { return "BollingerBands" }

// HandleData recomputes the band flags for the pair from its bar history.
// With fewer than window bars the strategy holds (both flags false).
func (s *BollingerBands) HandleData(pairID string, bars []market.Bar) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(bars)
	if n < s.window {
		s.positions[pairID] = position{}
		return
	}

	window := bars[n-s.window:]
	mean := sma(window)
	var variance float64
	for _, b := range window {
		d := b.Last - mean
		variance += d * d
	}
	// sample standard deviation, matching a rolling-std indicator
	std := math.Sqrt(variance / float64(s.window-1))
	upper := mean + s.numStdDevs*std
	lower := mean - s.numStdDevs*std

	last := bars[n-1].Last
	s.positions[pairID] = position{
		buy:  last < lower,
		sell: last > upper,
	}
}

// ShouldBuy reports whether the pair's last closed below the lower band.
func (s *BollingerBands) ShouldBuy(pairID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positions[pairID].buy
}

// ShouldSell reports whether the pair's last closed above the upper band.
func (s *BollingerBands) ShouldSell(pairID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positions[pairID].sell
}
