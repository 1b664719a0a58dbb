package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pmckelvy1/cryptobot/internal/market"
)

// RESTClient talks to a Bittrex-v1.1 style HTTP API. Public routes are
// unsigned; market and account routes carry an apisign header computed as
// HMAC-SHA512 of the full request URL.
type RESTClient struct {
	baseURL   string
	apiKey    string
	apiSecret string
	http      *http.Client
	log       zerolog.Logger
	stream    *QuoteStream // optional, overlays last trade price onto quotes
	staleness time.Duration
}

// RESTOption configures RESTClient construction parameters.
type RESTOption func(*RESTClient)

// WithHTTPTimeout bounds every request issued by the client.
func WithHTTPTimeout(d time.Duration) RESTOption {
	return func(c *RESTClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithQuoteStream folds the websocket trade stream's freshest last price into
// sampled quotes when it is newer than the REST snapshot.
func WithQuoteStream(qs *QuoteStream, staleness time.Duration) RESTOption {
	return func(c *RESTClient) {
		c.stream = qs
		if staleness > 0 {
			c.staleness = staleness
		}
	}
}

// NewRESTClient builds a signed REST client for the venue.
func NewRESTClient(baseURL, apiKey, apiSecret string, log zerolog.Logger, opts ...RESTOption) *RESTClient {
	c := &RESTClient{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		apiKey:    apiKey,
		apiSecret: apiSecret,
		http:      &http.Client{Timeout: 10 * time.Second},
		log:       log,
		staleness: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type restEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type restMarket struct {
	MarketCurrency string `json:"MarketCurrency"`
	BaseCurrency   string `json:"BaseCurrency"`
	MarketName     string `json:"MarketName"`
	IsActive       bool   `json:"IsActive"`
}

type restSummary struct {
	MarketName string  `json:"MarketName"`
	Bid        float64 `json:"Bid"`
	Ask        float64 `json:"Ask"`
	Last       float64 `json:"Last"`
	Volume     float64 `json:"Volume"`
	BaseVolume float64 `json:"BaseVolume"`
}

type restBookEntry struct {
	Quantity float64 `json:"Quantity"`
	Rate     float64 `json:"Rate"`
}

type restOrderRef struct {
	UUID string `json:"uuid"`
}

type restBalance struct {
	Currency  string  `json:"Currency"`
	Balance   float64 `json:"Balance"`
	Available float64 `json:"Available"`
}

// ListPairs fetches the venue's active market listing.
func (c *RESTClient) ListPairs(ctx context.Context) ([]market.Pair, error) {
	var markets []restMarket
	if err := c.query(ctx, "public/getmarkets", nil, false, &markets); err != nil {
		return nil, err
	}
	pairs := make([]market.Pair, 0, len(markets))
	for _, m := range markets {
		if !m.IsActive {
			continue
		}
		pairs = append(pairs, market.NewPair(m.BaseCurrency, m.MarketCurrency))
	}
	return pairs, nil
}

// GetQuote samples the current market summary for the pair. When a quote
// stream is wired and has a fresher trade, its price replaces the summary's
// last.
func (c *RESTClient) GetQuote(ctx context.Context, pair market.Pair) (market.Quote, error) {
	var summaries []restSummary
	params := url.Values{"market": {pair.ID}}
	if err := c.query(ctx, "public/getmarketsummary", params, false, &summaries); err != nil {
		return market.Quote{}, err
	}
	if len(summaries) == 0 {
		return market.Quote{}, fmt.Errorf("no summary returned for %s", pair.ID)
	}
	s := summaries[0]
	q := market.Quote{
		PairID:  pair.ID,
		Bid:     s.Bid,
		Ask:     s.Ask,
		Last:    s.Last,
		VolBase: s.BaseVolume,
		VolMkt:  s.Volume,
		Ts:      time.Now(),
	}
	if c.stream != nil {
		if px, ts, ok := c.stream.Last(pair.ID); ok && time.Since(ts) < c.staleness {
			q.Last = px
		}
	}
	return q, nil
}

// GetOrderBook fetches one side of the live book, best price first.
func (c *RESTClient) GetOrderBook(ctx context.Context, pair market.Pair, side market.BookSide, depth int) (market.OrderBook, error) {
	bookType := "sell" // asks
	if side == market.Bids {
		bookType = "buy"
	}
	params := url.Values{
		"market": {pair.ID},
		"type":   {bookType},
		"depth":  {strconv.Itoa(depth)},
	}
	var entries []restBookEntry
	if err := c.query(ctx, "public/getorderbook", params, false, &entries); err != nil {
		return market.OrderBook{}, err
	}
	book := market.OrderBook{PairID: pair.ID, Side: side, Entries: make([]market.BookEntry, 0, len(entries))}
	for _, e := range entries {
		book.Entries = append(book.Entries, market.BookEntry{Price: e.Rate, Amount: e.Quantity})
	}
	return book, nil
}

// GetBalance returns the available amount of a single coin.
func (c *RESTClient) GetBalance(ctx context.Context, coin string) (float64, error) {
	params := url.Values{"currency": {strings.ToUpper(coin)}}
	var bal restBalance
	if err := c.query(ctx, "account/getbalance", params, true, &bal); err != nil {
		return 0, err
	}
	return bal.Available, nil
}

// PlaceLimitOrder submits a limit order and returns the venue's order id.
func (c *RESTClient) PlaceLimitOrder(ctx context.Context, pair market.Pair, side market.Side, amount, rate float64) (string, error) {
	method := "market/buylimit"
	if side == market.Sell {
		method = "market/selllimit"
	}
	params := url.Values{
		"market":   {pair.ID},
		"quantity": {strconv.FormatFloat(amount, 'f', 8, 64)},
		"rate":     {strconv.FormatFloat(rate, 'f', 8, 64)},
	}
	var ref restOrderRef
	if err := c.query(ctx, method, params, true, &ref); err != nil {
		return "", err
	}
	if ref.UUID == "" {
		return "", ErrOrderRejected
	}
	return ref.UUID, nil
}

// CancelOrder cancels an open order by id.
func (c *RESTClient) CancelOrder(ctx context.Context, orderID string) error {
	params := url.Values{"uuid": {orderID}}
	var ref restOrderRef
	return c.query(ctx, "market/cancel", params, true, &ref)
}

func (c *RESTClient) query(ctx context.Context, method string, params url.Values, signed bool, out any) error {
	if params == nil {
		params = url.Values{}
	}
	if signed {
		params.Set("apikey", c.apiKey)
		params.Set("nonce", strconv.FormatInt(time.Now().UnixNano(), 10))
	}
	full := c.baseURL + "/" + method + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if signed {
		mac := hmac.New(sha512.New, []byte(c.apiSecret))
		mac.Write([]byte(full))
		req.Header.Set("apisign", hex.EncodeToString(mac.Sum(nil)))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, method)
	}

	var env restEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		return fmt.Errorf("%s: %s", method, env.Message)
	}
	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}
	return nil
}
