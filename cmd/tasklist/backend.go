// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/tasklist/tasklist/internal/auth"
	authpg "github.com/tasklist/tasklist/internal/auth/postgres"
	authsqlite "github.com/tasklist/tasklist/internal/auth/sqlite"
	"github.com/tasklist/tasklist/internal/config"
	"github.com/tasklist/tasklist/internal/store"
	"github.com/tasklist/tasklist/internal/todo"
	todopg "github.com/tasklist/tasklist/internal/todo/postgres"
	todosqlite "github.com/tasklist/tasklist/internal/todo/sqlite"
)

// Backend is an open storage backend with its repositories.
type Backend struct {
	Dialect store.Dialect
	Users   auth.UserRepository
	Todos   todo.Repository

	ping     func(ctx context.Context) error
	migrator func() (*store.Migrator, error)
	close    func()
}

// Ping reports whether the database answers.
func (b *Backend) Ping(ctx context.Context) error {
	if err := b.ping(ctx); err != nil {
		return oops.Code("DB_PING_FAILED").With("dialect", string(b.Dialect)).Wrap(err)
	}
	return nil
}

// Migrator returns a migrator for the backend's database. Close it after use.
func (b *Backend) Migrator() (*store.Migrator, error) {
	return b.migrator()
}

// Close releases the backend's connections.
func (b *Backend) Close() {
	b.close()
}

func connectOptions(cfg *config.Config) store.ConnectOptions {
	return store.ConnectOptions{
		MaxConns: cfg.Database.MaxConns,
		Retries:  cfg.Database.ConnectRetries,
		Backoff:  250 * time.Millisecond,
	}
}

// openBackend connects to the database named by cfg.Database.URL.
func openBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	dialect, location, err := store.ParseURL(cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	switch dialect {
	case store.DialectPostgres:
		pool, err := store.OpenPostgres(ctx, cfg.Database.URL, connectOptions(cfg))
		if err != nil {
			return nil, err
		}
		return postgresBackend(pool, cfg.Database.URL), nil
	default:
		db, err := store.OpenSQLite(ctx, location, connectOptions(cfg))
		if err != nil {
			return nil, err
		}
		return sqliteBackend(db), nil
	}
}

func postgresBackend(pool *pgxpool.Pool, databaseURL string) *Backend {
	return &Backend{
		Dialect:  store.DialectPostgres,
		Users:    authpg.NewUserRepository(pool),
		Todos:    todopg.NewTodoRepository(pool),
		ping:     pool.Ping,
		migrator: func() (*store.Migrator, error) { return store.NewMigrator(databaseURL) },
		close:    pool.Close,
	}
}

func sqliteBackend(db *sql.DB) *Backend {
	return &Backend{
		Dialect:  store.DialectSQLite,
		Users:    authsqlite.NewUserRepository(db),
		Todos:    todosqlite.NewTodoRepository(db),
		ping:     db.PingContext,
		migrator: func() (*store.Migrator, error) { return store.NewSQLiteMigrator(db) },
		close:    func() { _ = db.Close() },
	}
}
