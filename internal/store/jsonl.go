package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pmckelvy1/cryptobot/internal/market"
)

// JSONL appends trades and bars as JSON lines for later analysis.
type JSONL struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

type jsonlRecord struct {
	Kind   string        `json:"kind"`
	PairID string        `json:"pair,omitempty"`
	Trade  *market.Trade `json:"trade,omitempty"`
	Bar    *market.Bar   `json:"bar,omitempty"`
}

// NewJSONL creates/opens the target file and returns a recorder.
func NewJSONL(path string) (*JSONL, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONL{
		file: file,
		enc:  json.NewEncoder(file),
	}, nil
}

// SaveTrade writes a single trade line.
func (s *JSONL) SaveTrade(_ context.Context, trade market.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(jsonlRecord{Kind: "trade", PairID: trade.PairID, Trade: &trade})
}

// SaveBars writes one line per bar.
func (s *JSONL) SaveBars(_ context.Context, pairID string, bars []market.Bar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range bars {
		if err := s.enc.Encode(jsonlRecord{Kind: "bar", PairID: pairID, Bar: &bars[i]}); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and closes the file handle.
func (s *JSONL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
