// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCmd_Lifecycle(t *testing.T) {
	dbURL := isolateEnv(t)
	db := "--database-url=" + dbURL

	out, err := execute(t, "migrate", "status", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Dialect: sqlite")
	assert.Contains(t, out, "Version: 0")
	assert.Contains(t, out, "Pending: 2")
	assert.Contains(t, out, "000001_create_users")

	out, err = execute(t, "migrate", "up", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 2 migration(s)")

	out, err = execute(t, "migrate", "up", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No pending migrations")

	out, err = execute(t, "migrate", "down", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Rolled back 1 migration(s)")

	out, err = execute(t, "migrate", "status", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Version: 1")
	assert.Contains(t, out, "Applied: 1")
	assert.Contains(t, out, "Pending: 1")
	assert.Contains(t, out, "000002_create_todos")

	out, err = execute(t, "migrate", "force", "2", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Forced version 2")

	out, err = execute(t, "migrate", "down", "--all", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Rolled back all migrations")
}

func TestMigrateCmd_Errors(t *testing.T) {
	dbURL := isolateEnv(t)

	_, err := execute(t, "migrate", "force", "abc", "--database-url="+dbURL)
	require.Error(t, err)

	_, err = execute(t, "migrate", "down", "--steps=0", "--database-url="+dbURL)
	require.Error(t, err)

	_, err = execute(t, "migrate", "up", "--database-url=mysql://nope")
	require.Error(t, err)
}
