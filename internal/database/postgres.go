package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pingAttempts = 3
	pingTimeout  = 5 * time.Second
)

// NewPool opens a pgx connection pool and verifies connectivity before
// handing it back. Startup often races the database coming up, so the
// initial ping retries with backoff instead of failing on the first
// refused connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	cfg.MaxConns = 25
	cfg.MinConns = 5
	cfg.HealthCheckPeriod = time.Minute
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	backoff := time.Second
	for attempt := 0; attempt < pingAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = pool.Ping(pingCtx)
		cancel()
		if err == nil {
			return pool, nil
		}
		if attempt < pingAttempts-1 {
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	pool.Close()
	return nil, fmt.Errorf("ping database after %d attempts: %w", pingAttempts, err)
}
