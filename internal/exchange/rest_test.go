package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pmckelvy1/cryptobot/internal/market"
)

func restTestServer(t *testing.T) (*httptest.Server, *RESTClient) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/public/getmarkets", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"result":[
			{"MarketCurrency":"LTC","BaseCurrency":"BTC","MarketName":"BTC-LTC","IsActive":true},
			{"MarketCurrency":"DOGE","BaseCurrency":"BTC","MarketName":"BTC-DOGE","IsActive":false}
		]}`))
	})
	mux.HandleFunc("/public/getmarketsummary", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("market") != "BTC-LTC" {
			w.Write([]byte(`{"success":false,"message":"INVALID_MARKET"}`))
			return
		}
		w.Write([]byte(`{"success":true,"result":[
			{"MarketName":"BTC-LTC","Bid":0.017,"Ask":0.018,"Last":0.0175,"Volume":1200,"BaseVolume":21}
		]}`))
	})
	mux.HandleFunc("/public/getorderbook", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"result":[
			{"Quantity":5,"Rate":0.018},
			{"Quantity":10,"Rate":0.019}
		]}`))
	})
	mux.HandleFunc("/account/getbalance", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apisign") == "" {
			w.Write([]byte(`{"success":false,"message":"APISIGN_NOT_PROVIDED"}`))
			return
		}
		w.Write([]byte(`{"success":true,"result":{"Currency":"BTC","Balance":1.5,"Available":1.25}}`))
	})
	mux.HandleFunc("/market/buylimit", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"result":{"uuid":"order-123"}}`))
	})
	mux.HandleFunc("/market/selllimit", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"MIN_TRADE_REQUIREMENT_NOT_MET"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	client := NewRESTClient(srv.URL, "key", "secret", zerolog.Nop())
	return srv, client
}

func TestRESTListPairsFiltersInactive(t *testing.T) {
	_, client := restTestServer(t)
	pairs, err := client.ListPairs(context.Background())
	if err != nil {
		t.Fatalf("ListPairs returned error: %v", err)
	}
	if len(pairs) != 1 || pairs[0].ID != "BTC-LTC" {
		t.Fatalf("expected only active BTC-LTC, got %+v", pairs)
	}
}

func TestRESTGetQuote(t *testing.T) {
	_, client := restTestServer(t)
	q, err := client.GetQuote(context.Background(), market.NewPair("BTC", "LTC"))
	if err != nil {
		t.Fatalf("GetQuote returned error: %v", err)
	}
	if q.Bid != 0.017 || q.Ask != 0.018 || q.Last != 0.0175 {
		t.Fatalf("unexpected quote: %+v", q)
	}
	if q.VolBase != 21 || q.VolMkt != 1200 {
		t.Fatalf("unexpected volumes: %+v", q)
	}

	_, err = client.GetQuote(context.Background(), market.NewPair("BTC", "XMR"))
	if err == nil {
		t.Fatalf("expected error for unknown market")
	}
}

func TestRESTGetOrderBook(t *testing.T) {
	_, client := restTestServer(t)
	book, err := client.GetOrderBook(context.Background(), market.NewPair("BTC", "LTC"), market.Asks, 20)
	if err != nil {
		t.Fatalf("GetOrderBook returned error: %v", err)
	}
	if len(book.Entries) != 2 || book.Entries[0].Price != 0.018 || book.Entries[0].Amount != 5 {
		t.Fatalf("unexpected book: %+v", book)
	}
}

func TestRESTGetBalanceSignsRequest(t *testing.T) {
	_, client := restTestServer(t)
	bal, err := client.GetBalance(context.Background(), "btc")
	if err != nil {
		t.Fatalf("GetBalance returned error: %v", err)
	}
	if bal != 1.25 {
		t.Fatalf("expected available balance 1.25, got %.2f", bal)
	}
}

func TestRESTPlaceLimitOrder(t *testing.T) {
	_, client := restTestServer(t)
	pair := market.NewPair("BTC", "LTC")

	id, err := client.PlaceLimitOrder(context.Background(), pair, market.Buy, 10, 0.018)
	if err != nil {
		t.Fatalf("PlaceLimitOrder returned error: %v", err)
	}
	if id != "order-123" {
		t.Fatalf("unexpected order id: %s", id)
	}

	if _, err := client.PlaceLimitOrder(context.Background(), pair, market.Sell, 10, 0.018); err == nil {
		t.Fatalf("expected error when the venue rejects the order")
	}
}
