// Package postgres owns the pgx connection pool used by the persistent
// stores.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"govseal/internal/platform/config"
)

// Connect opens a pgx pool and verifies the connection.
// Returns nil if no DSN is configured (in-memory stores are used instead).
func Connect(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, nil
	}
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	// Evidence reads run on a second connection while an assessment row
	// lock is held, so the pool must never shrink to one connection.
	if pcfg.MaxConns < 2 {
		pcfg.MaxConns = 2
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return pool, nil
}
