package store

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pmckelvy1/cryptobot/internal/market"
)

func TestJSONLSaveTradeAndBars(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "trades.jsonl")
	rec, err := NewJSONL(path)
	if err != nil {
		t.Fatalf("NewJSONL returned error: %v", err)
	}

	ctx := context.Background()
	trade := market.Trade{
		Side: market.Buy, PairID: "BTC-LTC", Base: "BTC", Market: "LTC",
		Quantity: 10, Rate: 0.017, OrderID: "order-1", Ts: time.Now().UTC(),
	}
	if err := rec.SaveTrade(ctx, trade); err != nil {
		t.Fatalf("SaveTrade returned error: %v", err)
	}
	bars := []market.Bar{
		{PairID: "BTC-LTC", Open: 1, High: 2, Low: 1, Close: 2, SourceCount: 3, Ts: time.Now().UTC()},
		{PairID: "BTC-LTC", Open: 2, High: 3, Low: 2, Close: 3, SourceCount: 5, Ts: time.Now().UTC()},
	}
	if err := rec.SaveBars(ctx, "BTC-LTC", bars); err != nil {
		t.Fatalf("SaveBars returned error: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open recorded file: %v", err)
	}
	defer file.Close()

	var kinds []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec struct {
			Kind string `json:"kind"`
			Pair string `json:"pair"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("line is not valid JSON: %v", err)
		}
		if rec.Pair != "BTC-LTC" {
			t.Fatalf("unexpected pair: %s", rec.Pair)
		}
		kinds = append(kinds, rec.Kind)
	}
	if len(kinds) != 3 || kinds[0] != "trade" || kinds[1] != "bar" || kinds[2] != "bar" {
		t.Fatalf("unexpected record kinds: %v", kinds)
	}
}
