package exchange

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// QuoteStream consumes a public trade websocket and keeps the freshest trade
// price per pair. The REST client overlays these onto sampled quotes so the
// rate-limited sampler still sees recent prices between API windows.
type QuoteStream struct {
	url     string
	symbols map[string]string // stream symbol -> pair id
	log     zerolog.Logger

	mu     sync.RWMutex
	prices map[string]streamPrice
}

type streamPrice struct {
	px float64
	ts time.Time
}

type streamEnvelope struct {
	Stream string      `json:"stream"`
	Data   streamTrade `json:"data"`
}

type streamTrade struct {
	Price     string `json:"p"`
	Quantity  string `json:"q"`
	TradeTime int64  `json:"T"`
}

// NewQuoteStream builds a stream for the given websocket URL. symbols maps the
// venue's lowercase stream symbol (e.g. "ltcbtc") to the tracked pair id.
func NewQuoteStream(url string, symbols map[string]string, log zerolog.Logger) *QuoteStream {
	return &QuoteStream{
		url:     url,
		symbols: symbols,
		log:     log,
		prices:  make(map[string]streamPrice),
	}
}

// Last returns the freshest streamed trade price for the pair.
func (s *QuoteStream) Last(pairID string) (float64, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prices[pairID]
	return p.px, p.ts, ok
}

// Run consumes the stream until the context is canceled, reconnecting with a
// capped backoff after disconnects.
func (s *QuoteStream) Run(ctx context.Context) error {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warn().Err(err).Msg("quote stream disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (s *QuoteStream) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.log.Info().Str("url", s.url).Msg("connected quote stream")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					s.log.Warn().Err(err).Msg("quote stream ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var env streamEnvelope
		if err := json.Unmarshal(message, &env); err != nil {
			s.log.Warn().Err(err).Msg("failed to decode stream message")
			continue
		}
		s.record(env)
	}
}

func (s *QuoteStream) record(env streamEnvelope) {
	sym := env.Stream
	if i := strings.IndexByte(sym, '@'); i >= 0 {
		sym = sym[:i]
	}
	pairID, ok := s.symbols[sym]
	if !ok {
		return
	}
	px, err := strconv.ParseFloat(env.Data.Price, 64)
	if err != nil || px <= 0 {
		return
	}
	s.mu.Lock()
	s.prices[pairID] = streamPrice{px: px, ts: time.UnixMilli(env.Data.TradeTime)}
	s.mu.Unlock()
}
