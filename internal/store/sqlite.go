// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package store

import (
	"context"
	"database/sql"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	// Register the pure-Go "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/tasklist/tasklist/internal/xdg"
)

// DBTX is the subset of *sql.DB and *sql.Tx used by SQLite repositories.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// sqlitePragmas are applied to every connection.
const sqlitePragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(ctx context.Context, path string, opts ConnectOptions) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := xdg.EnsureDir(dir); err != nil {
			return nil, oops.Code("DB_CONNECT_FAILED").With("path", path).Wrap(err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path+sqlitePragmas)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("path", path).Wrap(err)
	}
	if opts.MaxConns > 0 {
		db.SetMaxOpenConns(int(opts.MaxConns))
	}

	err = retry.Do(ctx, opts.backoff(), func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close() //nolint:errcheck // ping error takes precedence
		return nil, oops.Code("DB_CONNECT_FAILED").With("path", path).Wrap(err)
	}
	return db, nil
}
