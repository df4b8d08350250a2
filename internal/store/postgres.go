// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Pool is the subset of *pgxpool.Pool used by repositories.
// pgxmock.PgxPoolIface satisfies it as well.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ConnectOptions control how a backend is opened.
type ConnectOptions struct {
	// MaxConns caps the pool size. Zero keeps the driver default.
	MaxConns int32
	// Retries is how many times a failed initial ping is retried.
	Retries uint64
	// Backoff is the first retry delay; it doubles on each attempt.
	Backoff time.Duration
}

func (o ConnectOptions) backoff() retry.Backoff {
	base := o.Backoff
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	b := retry.NewExponential(base)
	b = retry.WithCappedDuration(5*time.Second, b)
	return retry.WithMaxRetries(o.Retries, b)
}

// OpenPostgres creates a pgx pool and waits until the server answers a ping.
func OpenPostgres(ctx context.Context, databaseURL string, opts ConnectOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").Wrap(err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}

	err = retry.Do(ctx, opts.backoff(), func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("retries", opts.Retries).
			Wrap(err)
	}
	return pool, nil
}
