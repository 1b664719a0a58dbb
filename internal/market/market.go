// Package market standardizes the payloads shared between sampling, strategy,
// and execution layers.
package market

import (
	"fmt"
	"strings"
	"time"
)

// Pair identifies a tradable base/market coin combination on the exchange.
// The universe of pairs is fixed at startup; a Pair never changes once discovered.
type Pair struct {
	Base   string // currency being spent on a buy (e.g. BTC)
	Market string // currency being acquired on a buy (e.g. LTC)
	ID     string // composite identifier, e.g. "BTC-LTC"
}

// NewPair builds a Pair from its two legs, normalizing to upper case.
func NewPair(base, mkt string) Pair {
	base = strings.ToUpper(strings.TrimSpace(base))
	mkt = strings.ToUpper(strings.TrimSpace(mkt))
	return Pair{Base: base, Market: mkt, ID: base + "-" + mkt}
}

// ParsePairID splits a composite "BASE-MKT" identifier back into a Pair.
func ParsePairID(id string) (Pair, error) {
	parts := strings.SplitN(strings.TrimSpace(id), "-", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Pair{}, fmt.Errorf("invalid pair id %q", id)
	}
	return NewPair(parts[0], parts[1]), nil
}

// Quote is a single point-in-time sample for a pair. Quotes are ephemeral:
// they live in the minor-tick buffer until aggregated into a Bar.
type Quote struct {
	PairID  string
	Bid     float64
	Ask     float64
	Last    float64
	VolBase float64
	VolMkt  float64
	Ts      time.Time
}

// Bar summarizes one aggregation interval for a pair. Bars are never mutated
// after creation and bar history per pair is append-only and time-ordered.
type Bar struct {
	PairID      string
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Bid         float64
	Ask         float64
	Last        float64
	VolBase     float64
	VolMkt      float64
	SourceCount int // raw quotes folded in, >= 1
	Ts          time.Time
}

// Side enumerates order directions.
type Side string

const (
	// Buy spends the base coin to acquire the market coin.
	Buy Side = "BUY"
	// Sell liquidates the market coin back into the base coin.
	Sell Side = "SELL"
)

// Decision is a pair's resolved action for one major tick.
type Decision int

const (
	Hold Decision = iota
	DecideBuy
	DecideSell
)

// String renders the decision for logs.
func (d Decision) String() string {
	switch d {
	case DecideBuy:
		return "BUY"
	case DecideSell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// Trade records an executed order outcome. Trades accumulate per pair in
// arrival order; the two most recent trades for a pair define a completed
// round-trip used for realized P&L.
type Trade struct {
	Side     Side      `json:"side"`
	PairID   string    `json:"pair"`
	Base     string    `json:"base"`
	Market   string    `json:"market"`
	Quantity float64   `json:"quantity"`
	Rate     float64   `json:"rate"`
	OrderID  string    `json:"order_id"`
	Ts       time.Time `json:"ts"`
}

// BookEntry is one price level of an order book side.
type BookEntry struct {
	Price  float64
	Amount float64
}

// BookSide selects which half of the order book to fetch.
type BookSide string

const (
	Asks BookSide = "asks"
	Bids BookSide = "bids"
)

// OrderBook holds one side of the live book for a pair, best price first.
type OrderBook struct {
	PairID  string
	Side    BookSide
	Entries []BookEntry
}
