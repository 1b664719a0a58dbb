package risk

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pmckelvy1/cryptobot/internal/market"
)

// fakeClient provides canned balances for gate tests.
type fakeClient struct {
	balances map[string]float64
	balErr   error
}

func (f *fakeClient) ListPairs(context.Context) ([]market.Pair, error) { return nil, nil }
func (f *fakeClient) GetQuote(context.Context, market.Pair) (market.Quote, error) {
	return market.Quote{}, nil
}
func (f *fakeClient) GetOrderBook(context.Context, market.Pair, market.BookSide, int) (market.OrderBook, error) {
	return market.OrderBook{}, nil
}
func (f *fakeClient) GetBalance(_ context.Context, coin string) (float64, error) {
	if f.balErr != nil {
		return 0, f.balErr
	}
	return f.balances[coin], nil
}
func (f *fakeClient) PlaceLimitOrder(context.Context, market.Pair, market.Side, float64, float64) (string, error) {
	return "", nil
}
func (f *fakeClient) CancelOrder(context.Context, string) error { return nil }

func trade(side market.Side, base string, qty, rate float64, ts time.Time) market.Trade {
	return market.Trade{
		Side: side, PairID: base + "-LTC", Base: base, Market: "LTC",
		Quantity: qty, Rate: rate, OrderID: "t", Ts: ts,
	}
}

func TestApproveBuyCapsAtMaxSpend(t *testing.T) {
	client := &fakeClient{balances: map[string]float64{"BTC": 1.0}}
	gate := NewGate(client, map[string]float64{"BTC": 0.2}, nil, zerolog.Nop())

	spend, err := gate.ApproveBuy(context.Background(), market.NewPair("BTC", "LTC"))
	if err != nil {
		t.Fatalf("ApproveBuy returned error: %v", err)
	}
	if spend != 0.2 {
		t.Fatalf("expected spend capped at 0.2, got %.4f", spend)
	}
	if client.balances["BTC"] != 1.0 {
		t.Fatalf("approval must not mutate balances")
	}
}

func TestApproveBuyCapsAtBalance(t *testing.T) {
	client := &fakeClient{balances: map[string]float64{"BTC": 0.05}}
	gate := NewGate(client, map[string]float64{"BTC": 0.2}, nil, zerolog.Nop())

	spend, err := gate.ApproveBuy(context.Background(), market.NewPair("BTC", "LTC"))
	if err != nil {
		t.Fatalf("ApproveBuy returned error: %v", err)
	}
	if spend != 0.05 {
		t.Fatalf("expected spend capped at balance, got %.4f", spend)
	}
}

func TestApproveBuyInsufficientFunds(t *testing.T) {
	client := &fakeClient{balances: map[string]float64{"BTC": 0}}
	gate := NewGate(client, map[string]float64{"BTC": 0.2}, nil, zerolog.Nop())

	_, err := gate.ApproveBuy(context.Background(), market.NewPair("BTC", "LTC"))
	var insufficient *InsufficientFundsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientFundsError, got %v", err)
	}

	// no configured max spend behaves the same way
	gate = NewGate(&fakeClient{balances: map[string]float64{"ETH": 5}}, map[string]float64{}, nil, zerolog.Nop())
	if _, err := gate.ApproveBuy(context.Background(), market.NewPair("ETH", "LTC")); !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientFundsError without max spend, got %v", err)
	}
}

func TestApproveSell(t *testing.T) {
	client := &fakeClient{balances: map[string]float64{"LTC": 12}}
	gate := NewGate(client, nil, nil, zerolog.Nop())
	pair := market.NewPair("BTC", "LTC")

	qty, ok := gate.ApproveSell(context.Background(), pair)
	if !ok || qty != 12 {
		t.Fatalf("expected approval with qty 12, got %v %v", qty, ok)
	}

	client.balances["LTC"] = 0
	if _, ok := gate.ApproveSell(context.Background(), pair); ok {
		t.Fatalf("expected silent rejection with no holdings")
	}

	client.balErr = errors.New("venue down")
	if _, ok := gate.ApproveSell(context.Background(), pair); ok {
		t.Fatalf("expected rejection when the balance read fails")
	}
}

func TestCheckVolume(t *testing.T) {
	gate := NewGate(&fakeClient{}, nil, map[string]float64{"BTC": 5000}, zerolog.Nop())
	pair := market.NewPair("BTC", "LTC")

	thin := market.Bar{VolMkt: 1000, Last: 0.01}
	if gate.CheckVolume(pair, thin) {
		t.Fatalf("expected thin volume to fail the threshold")
	}
	deep := market.Bar{VolMkt: 1000000, Last: 0.01}
	if !gate.CheckVolume(pair, deep) {
		t.Fatalf("expected deep volume to pass the threshold")
	}
	if !gate.CheckVolume(market.NewPair("USDT", "LTC"), thin) {
		t.Fatalf("pairs without a threshold must pass")
	}
}

func TestCloseRoundTripExactGain(t *testing.T) {
	buyTs := time.Date(2018, 3, 1, 0, 0, 0, 0, time.UTC)
	sellTs := buyTs.Add(2 * time.Hour)
	buy := trade(market.Buy, "BTC", 3, 0.011, buyTs)
	sell := trade(market.Sell, "BTC", 3, 0.013, sellTs)

	rt, err := CloseRoundTrip(buy, sell)
	if err != nil {
		t.Fatalf("CloseRoundTrip returned error: %v", err)
	}
	// gain = quantity * (r2 - r1), exactly, at 8 decimal places
	if rt.NetGain != 0.006 {
		t.Fatalf("expected net gain 0.006, got %.10f", rt.NetGain)
	}
	if math.Abs(rt.NetGainPct-18.18181818) > 1e-8 {
		t.Fatalf("unexpected net gain pct: %.8f", rt.NetGainPct)
	}
	if rt.HoldTime != 2*time.Hour {
		t.Fatalf("unexpected hold time: %s", rt.HoldTime)
	}
}

func TestCloseRoundTripLargeLossBoundary(t *testing.T) {
	ts := time.Now()
	buy := trade(market.Buy, "BTC", 2, 0.01, ts)

	// exactly -25.00% must raise
	sell := trade(market.Sell, "BTC", 2, 0.0075, ts.Add(time.Hour))
	rt, err := CloseRoundTrip(buy, sell)
	var large *LargeLossError
	if !errors.As(err, &large) {
		t.Fatalf("expected LargeLossError at -25%%, got %v", err)
	}
	if rt.NetGainPct != -25 {
		t.Fatalf("expected -25%%, got %.8f", rt.NetGainPct)
	}

	// -24.99% must not
	sell = trade(market.Sell, "BTC", 2, 0.0075010, ts.Add(time.Hour))
	rt, err = CloseRoundTrip(buy, sell)
	if err != nil {
		t.Fatalf("expected no error at -24.99%%, got %v", err)
	}
	if rt.NetGainPct != -24.99 {
		t.Fatalf("expected -24.99%%, got %.8f", rt.NetGainPct)
	}
}

func TestCloseRoundTripMixedBase(t *testing.T) {
	ts := time.Now()
	buy := trade(market.Buy, "BTC", 1, 0.01, ts)
	sell := trade(market.Sell, "ETH", 1, 0.01, ts.Add(time.Hour))

	_, err := CloseRoundTrip(buy, sell)
	var mixed *MixedTradeError
	if !errors.As(err, &mixed) {
		t.Fatalf("expected MixedTradeError, got %v", err)
	}
}

func TestCloseRoundTripBadMath(t *testing.T) {
	ts := time.Now()
	sell := trade(market.Sell, "BTC", 1, 0.01, ts)
	buy := trade(market.Buy, "BTC", 1, 0.01, ts.Add(time.Hour))

	var bad *BadMathError
	if _, err := CloseRoundTrip(sell, buy); !errors.As(err, &bad) {
		t.Fatalf("expected BadMathError for out-of-order trades, got %v", err)
	}
	if _, err := CloseRoundTrip(trade(market.Buy, "BTC", 0, 0.01, ts), sell); !errors.As(err, &bad) {
		t.Fatalf("expected BadMathError for zero buy cost, got %v", err)
	}
}
