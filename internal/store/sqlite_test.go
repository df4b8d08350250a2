// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasklist/tasklist/internal/store"
)

func TestOpenSQLite_MigrateRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "tasklist.db")

	db, err := store.OpenSQLite(ctx, path, store.ConnectOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m, err := store.NewSQLiteMigrator(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, m.Up())
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	pending, err := m.PendingMigrations()
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Up is idempotent.
	require.NoError(t, m.Up())

	var fk int
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	require.NoError(t, m.Down())
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	// The borrowed handle is still usable after Close.
	require.NoError(t, m.Close())
	require.NoError(t, db.PingContext(ctx))
}
