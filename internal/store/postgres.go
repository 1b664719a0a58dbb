package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pmckelvy1/cryptobot/internal/market"
)

// Postgres persists trades and bars into two insert-only tables.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool and ensures the schema exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id BIGSERIAL PRIMARY KEY,
			side TEXT NOT NULL,
			pair TEXT NOT NULL,
			quantity DOUBLE PRECISION NOT NULL,
			rate DOUBLE PRECISION NOT NULL,
			order_id TEXT NOT NULL,
			ts TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bars (
			id BIGSERIAL PRIMARY KEY,
			pair TEXT NOT NULL,
			open DOUBLE PRECISION NOT NULL,
			high DOUBLE PRECISION NOT NULL,
			low DOUBLE PRECISION NOT NULL,
			close DOUBLE PRECISION NOT NULL,
			vol_base DOUBLE PRECISION NOT NULL,
			vol_mkt DOUBLE PRECISION NOT NULL,
			source_count INT NOT NULL,
			ts TIMESTAMPTZ NOT NULL
		)`,
	} {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &Postgres{pool: pool}, nil
}

// SaveTrade inserts one trade row.
func (s *Postgres) SaveTrade(ctx context.Context, trade market.Trade) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO trades (side, pair, quantity, rate, order_id, ts) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(trade.Side), trade.PairID, trade.Quantity, trade.Rate, trade.OrderID, trade.Ts,
	)
	return err
}

// SaveBars inserts the batch of bars for a pair.
func (s *Postgres) SaveBars(ctx context.Context, pairID string, bars []market.Bar) error {
	for _, bar := range bars {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO bars (pair, open, high, low, close, vol_base, vol_mkt, source_count, ts)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			pairID, bar.Open, bar.High, bar.Low, bar.Close, bar.VolBase, bar.VolMkt, bar.SourceCount, bar.Ts,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Close releases the pool.
func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
