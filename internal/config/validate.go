// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package config

import (
	"slices"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"

	"github.com/tasklist/tasklist/internal/auth"
	"github.com/tasklist/tasklist/internal/store"
	"github.com/tasklist/tasklist/pkg/errutil"
)

var (
	algorithms = []string{"HS256", "HS384", "HS512"}
	logFormats = []string{"json", "text"}
	logLevels  = []string{"debug", "info", "warn", "error"}
)

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	return c.validate(true)
}

func (c *Config) validate(tokens bool) error {
	var v errutil.ValidationError

	if c.HTTP.Addr == "" {
		v.Add("http.addr", "is required")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		v.Add("http.max_body_bytes", "must be positive")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		v.Add("http.shutdown_timeout", "must be positive")
	}

	if _, _, err := store.ParseURL(c.Database.URL); err != nil {
		v.Add("database.url", "must start with postgres://, postgresql:// or sqlite://")
	}
	if c.Database.MaxConns < 0 {
		v.Add("database.max_conns", "must not be negative")
	}

	if tokens {
		if len(c.Token.Secret) < auth.MinSecretBytes {
			v.Add("token.secret", "must be at least 32 bytes; set TASKLIST_TOKEN_SECRET")
		}
		if !slices.Contains(algorithms, c.Token.Algorithm) {
			v.Add("token.algorithm", "must be one of HS256, HS384, HS512")
		}
		if c.Token.TTL <= 0 {
			v.Add("token.ttl", "must be positive")
		}
	}

	if c.Password.MinLength < 1 || c.Password.MinLength > auth.MaxPasswordBytes {
		v.Add("password.min_length", "must be between 1 and 72")
	}
	if c.Password.BcryptCost < bcrypt.MinCost || c.Password.BcryptCost > bcrypt.MaxCost {
		v.Add("password.bcrypt_cost", "must be between 4 and 31")
	}

	if !slices.Contains(logFormats, c.Log.Format) {
		v.Add("log.format", "must be json or text")
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		v.Add("log.level", "must be one of debug, info, warn, error")
	}

	if err := v.Err(); err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return nil
}
