package exchange

import (
	"context"
	"testing"

	"github.com/pmckelvy1/cryptobot/internal/market"
)

func newReplay() *ReplayClient {
	pair := market.NewPair("BTC", "LTC")
	return NewReplayClient(
		[]market.Pair{pair},
		map[string][]float64{pair.ID: {0.010, 0.011, 0.012}},
		map[string]float64{"BTC": 1.0},
	)
}

func TestReplayQuoteFollowsPath(t *testing.T) {
	client := newReplay()
	pair := market.NewPair("BTC", "LTC")
	ctx := context.Background()

	want := []float64{0.010, 0.011, 0.012, 0.012} // clamps at the final price
	var prev market.Quote
	for i, last := range want {
		q, err := client.GetQuote(ctx, pair)
		if err != nil {
			t.Fatalf("GetQuote returned error: %v", err)
		}
		if q.Last != last {
			t.Fatalf("step %d: expected last %.3f, got %.3f", i, last, q.Last)
		}
		if q.Bid >= q.Last || q.Ask <= q.Last {
			t.Fatalf("expected bid < last < ask, got %+v", q)
		}
		if i > 0 && !q.Ts.After(prev.Ts) {
			t.Fatalf("replay clock must advance between quotes")
		}
		prev = q
	}
}

func TestReplayFailNext(t *testing.T) {
	client := newReplay()
	pair := market.NewPair("BTC", "LTC")
	ctx := context.Background()

	client.FailNext(pair.ID, 2)
	for i := 0; i < 2; i++ {
		if _, err := client.GetQuote(ctx, pair); err == nil {
			t.Fatalf("expected scripted failure %d", i)
		}
	}
	if _, err := client.GetQuote(ctx, pair); err != nil {
		t.Fatalf("expected recovery after scripted failures: %v", err)
	}
}

func TestReplayOrdersMoveBalances(t *testing.T) {
	client := newReplay()
	pair := market.NewPair("BTC", "LTC")
	ctx := context.Background()

	if _, err := client.GetQuote(ctx, pair); err != nil {
		t.Fatalf("GetQuote returned error: %v", err)
	}

	id, err := client.PlaceLimitOrder(ctx, pair, market.Buy, 10, 0.010)
	if err != nil {
		t.Fatalf("buy returned error: %v", err)
	}
	if id == "" {
		t.Fatalf("expected an order id")
	}
	btc, _ := client.GetBalance(ctx, "BTC")
	ltc, _ := client.GetBalance(ctx, "LTC")
	if btc != 0.9 || ltc != 10 {
		t.Fatalf("unexpected balances after buy: btc=%.4f ltc=%.4f", btc, ltc)
	}

	if _, err := client.PlaceLimitOrder(ctx, pair, market.Sell, 10, 0.012); err != nil {
		t.Fatalf("sell returned error: %v", err)
	}
	btc, _ = client.GetBalance(ctx, "BTC")
	ltc, _ = client.GetBalance(ctx, "LTC")
	if ltc != 0 || btc <= 0.9 {
		t.Fatalf("unexpected balances after sell: btc=%.4f ltc=%.4f", btc, ltc)
	}

	if _, err := client.PlaceLimitOrder(ctx, pair, market.Buy, 1000, 1); err == nil {
		t.Fatalf("expected rejection when base balance is insufficient")
	}
}

func TestReplayOrderBookDepth(t *testing.T) {
	client := newReplay()
	pair := market.NewPair("BTC", "LTC")
	ctx := context.Background()

	if _, err := client.GetQuote(ctx, pair); err != nil {
		t.Fatalf("GetQuote returned error: %v", err)
	}
	asks, err := client.GetOrderBook(ctx, pair, market.Asks, 5)
	if err != nil {
		t.Fatalf("GetOrderBook returned error: %v", err)
	}
	if len(asks.Entries) != 5 {
		t.Fatalf("expected 5 levels, got %d", len(asks.Entries))
	}
	for i := 1; i < len(asks.Entries); i++ {
		if asks.Entries[i].Price <= asks.Entries[i-1].Price {
			t.Fatalf("ask levels must worsen with depth: %+v", asks.Entries)
		}
	}
	bids, err := client.GetOrderBook(ctx, pair, market.Bids, 5)
	if err != nil {
		t.Fatalf("GetOrderBook returned error: %v", err)
	}
	if bids.Entries[0].Price >= asks.Entries[0].Price {
		t.Fatalf("best bid must sit below best ask")
	}
}
