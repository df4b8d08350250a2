// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package store

import (
	"io/fs"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsFS_EmbeddedFiles(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{6}_\w+\.(up|down)\.sql$`)

	names := func(d Dialect) []string {
		entries, err := fs.ReadDir(migrationsFS, migrationDir(d))
		require.NoError(t, err)
		out := make([]string, 0, len(entries))
		for _, e := range entries {
			assert.True(t, pattern.MatchString(e.Name()),
				"file %s should match pattern NNNNNN_name.(up|down).sql", e.Name())
			out = append(out, e.Name())
		}
		return out
	}

	pg := names(DialectPostgres)
	lite := names(DialectSQLite)
	assert.Contains(t, pg, "000001_create_users.up.sql")
	assert.Contains(t, pg, "000001_create_users.down.sql")
	assert.Equal(t, pg, lite, "dialects must ship the same migration set")
}
