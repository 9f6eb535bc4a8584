package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrInvalidConfig = errors.New("db: invalid DATABASE_CONN_URL")
	ErrUnavailable   = errors.New("db: postgres unavailable")
	ErrNotReady      = errors.New("db: pool not ready")
	ErrMigrate       = errors.New("db: schema migration failed")
)

// Healthcheck returns a probe that pings the pool, for use with health.Checks.
func Healthcheck(pool *pgxpool.Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		if pool == nil {
			return ErrNotReady
		}
		if err := pool.Ping(ctx); err != nil {
			return errors.Join(ErrNotReady, err)
		}
		return nil
	}
}

// Shutdown closes the pool once the listeners and the queue have stopped.
// Close blocks until every acquired connection is released.
func Shutdown(pool *pgxpool.Pool) func(context.Context) error {
	return func(context.Context) error {
		if pool != nil {
			pool.Close()
		}
		return nil
	}
}
