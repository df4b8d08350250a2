// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

// Package store opens the tasklist storage backends and manages their schema.
package store

import (
	"strings"

	"github.com/samber/oops"
)

// Dialect names a supported storage engine.
type Dialect string

// Supported dialects.
const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ParseURL identifies the dialect of a database URL.
// postgres:// and postgresql:// select PostgreSQL; sqlite://<path> selects
// an embedded SQLite file. For SQLite the returned location is the file path.
func ParseURL(databaseURL string) (Dialect, string, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return DialectPostgres, databaseURL, nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		path, _, _ := strings.Cut(strings.TrimPrefix(databaseURL, "sqlite://"), "?")
		if path == "" {
			return "", "", oops.Code("STORE_INVALID_URL").Errorf("sqlite url has no file path")
		}
		return DialectSQLite, path, nil
	default:
		scheme, _, _ := strings.Cut(databaseURL, "://")
		return "", "", oops.Code("STORE_INVALID_URL").
			With("scheme", scheme).
			Errorf("unsupported database url scheme %q", scheme)
	}
}
