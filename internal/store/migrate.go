// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// Register pgx/v5 database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// migrateIface abstracts golang-migrate so Migrator can be tested without a database.
type migrateIface interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Close() (source error, database error)
}

// Migrator wraps golang-migrate for database schema management.
type Migrator struct {
	m       migrateIface
	dialect Dialect
	// src is closed on its own when the database handle is borrowed.
	src      source.Driver
	borrowed bool
}

func migrationDir(d Dialect) string {
	return "migrations/" + string(d)
}

func newSource(d Dialect) (source.Driver, error) {
	src, err := iofs.New(migrationsFS, migrationDir(d))
	if err != nil {
		return nil, oops.Code("MIGRATION_SOURCE_FAILED").
			With("operation", "create migration source").
			With("dialect", string(d)).
			Wrap(err)
	}
	return src, nil
}

// NewMigrator creates a Migrator that opens its own connection.
// postgres:// and postgresql:// URLs are rewritten to the pgx5:// scheme
// golang-migrate expects; sqlite:// URLs are used as given.
func NewMigrator(databaseURL string) (*Migrator, error) {
	dialect, _, err := ParseURL(databaseURL)
	if err != nil {
		return nil, oops.Code("MIGRATION_INIT_FAILED").Wrap(err)
	}

	src, err := newSource(dialect)
	if err != nil {
		return nil, err
	}

	migrateURL := databaseURL
	if dialect == DialectPostgres {
		_, rest, _ := strings.Cut(databaseURL, "://")
		migrateURL = "pgx5://" + rest
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL)
	if err != nil {
		_ = src.Close() //nolint:errcheck // init error takes precedence
		return nil, oops.Code("MIGRATION_INIT_FAILED").
			With("operation", "initialize migrator").
			With("dialect", string(dialect)).
			Wrap(err)
	}
	return &Migrator{m: m, dialect: dialect, src: src}, nil
}

// NewSQLiteMigrator creates a Migrator over an already open SQLite handle.
// Close leaves db open.
func NewSQLiteMigrator(db *sql.DB) (*Migrator, error) {
	src, err := newSource(DialectSQLite)
	if err != nil {
		return nil, err
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		_ = src.Close() //nolint:errcheck // init error takes precedence
		return nil, oops.Code("MIGRATION_INIT_FAILED").
			With("operation", "wrap sqlite handle").
			Wrap(err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		_ = src.Close() //nolint:errcheck // init error takes precedence
		return nil, oops.Code("MIGRATION_INIT_FAILED").
			With("operation", "initialize migrator").
			With("dialect", string(DialectSQLite)).
			Wrap(err)
	}
	return &Migrator{m: m, dialect: DialectSQLite, src: src, borrowed: true}, nil
}

// Dialect returns the dialect the migrator manages.
func (m *Migrator) Dialect() Dialect {
	return m.dialect
}

// Up applies all pending migrations.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code("MIGRATION_UP_FAILED").Wrap(err)
	}
	return nil
}

// Down rolls back all migrations, dropping every table and its data.
func (m *Migrator) Down() error {
	if err := m.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code("MIGRATION_DOWN_FAILED").Wrap(err)
	}
	return nil
}

// Steps applies n migrations. Positive n migrates up, negative n migrates down.
func (m *Migrator) Steps(n int) error {
	if n == 0 {
		return nil
	}
	if err := m.m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code("MIGRATION_STEPS_FAILED").With("steps", n).Wrap(err)
	}
	return nil
}

// Version returns the current migration version and dirty state.
// Returns version 0 with dirty=false if no migrations have been applied.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, oops.Code("MIGRATION_VERSION_FAILED").Wrap(err)
	}
	return version, dirty, nil
}

// Force sets the migration version without running migrations.
// Use only to recover from a dirty state after fixing the database by hand.
func (m *Migrator) Force(version int) error {
	if version < 0 {
		return oops.Code("INVALID_VERSION").Errorf("version must be non-negative, got %d", version)
	}
	if err := m.m.Force(version); err != nil {
		return oops.Code("MIGRATION_FORCE_FAILED").With("version", version).Wrap(err)
	}
	return nil
}

// Close releases resources.
func (m *Migrator) Close() error {
	if m.borrowed {
		if m.src == nil {
			return nil
		}
		if err := m.src.Close(); err != nil {
			return oops.Code("MIGRATION_CLOSE_FAILED").With("component", "source").Wrap(err)
		}
		return nil
	}

	srcErr, dbErr := m.m.Close()
	switch {
	case srcErr != nil && dbErr != nil:
		return oops.Code("MIGRATION_CLOSE_FAILED").
			With("component", "both").
			Errorf("source: %v; database: %v", srcErr, dbErr)
	case srcErr != nil:
		return oops.Code("MIGRATION_CLOSE_FAILED").With("component", "source").Wrap(srcErr)
	case dbErr != nil:
		return oops.Code("MIGRATION_CLOSE_FAILED").With("component", "database").Wrap(dbErr)
	}
	return nil
}

// PendingMigrations returns the versions Up would apply, ascending.
func (m *Migrator) PendingMigrations() ([]uint, error) {
	current, _, err := m.Version()
	if err != nil {
		return nil, oops.With("operation", "get pending migrations").Wrap(err)
	}
	all, err := MigrationVersions(m.dialect)
	if err != nil {
		return nil, oops.With("operation", "get pending migrations").Wrap(err)
	}

	var pending []uint
	for _, v := range all {
		if v > current {
			pending = append(pending, v)
		}
	}
	return pending, nil
}

// AppliedMigrations returns the versions already applied, ascending.
func (m *Migrator) AppliedMigrations() ([]uint, error) {
	current, _, err := m.Version()
	if err != nil {
		return nil, oops.With("operation", "get applied migrations").Wrap(err)
	}
	if current == 0 {
		return nil, nil
	}
	all, err := MigrationVersions(m.dialect)
	if err != nil {
		return nil, oops.With("operation", "get applied migrations").Wrap(err)
	}

	var applied []uint
	for _, v := range all {
		if v <= current {
			applied = append(applied, v)
		}
	}
	return applied, nil
}

// MigrationVersions lists the embedded migration versions for d, ascending.
// Files not named NNNNNN_name.up.sql are skipped with a warning.
func MigrationVersions(d Dialect) ([]uint, error) {
	entries, err := fs.ReadDir(migrationsFS, migrationDir(d))
	if err != nil {
		return nil, oops.Code("MIGRATION_LIST_FAILED").
			With("dialect", string(d)).
			Wrap(err)
	}

	var versions []uint
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		var version uint
		if _, err := fmt.Sscanf(name, "%06d", &version); err != nil {
			slog.Warn("migration file name doesn't match expected format, skipping",
				"filename", name,
				"expected_format", "NNNNNN_name.up.sql",
				"error", err)
			continue
		}
		versions = append(versions, version)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions, nil
}

// MigrationName returns the NNNNNN_name of a migration, or "" if unknown.
func MigrationName(d Dialect, version uint) (string, error) {
	entries, err := fs.ReadDir(migrationsFS, migrationDir(d))
	if err != nil {
		return "", oops.Code("MIGRATION_READ_FAILED").
			With("dialect", string(d)).
			Wrap(err)
	}

	prefix := fmt.Sprintf("%06d_", version)
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".up.sql") {
			return strings.TrimSuffix(name, ".up.sql"), nil
		}
	}
	return "", nil
}
