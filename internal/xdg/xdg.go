// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

// Package xdg provides XDG Base Directory paths for tasklist.
package xdg

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "tasklist"

// ConfigDir returns the XDG config directory for tasklist.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	return filepath.Join(base("XDG_CONFIG_HOME", ".config"), appName)
}

// DataDir returns the XDG data directory for tasklist.
// Checks XDG_DATA_HOME first, falls back to ~/.local/share.
func DataDir() string {
	return filepath.Join(base("XDG_DATA_HOME", filepath.Join(".local", "share")), appName)
}

// ConfigFile is the config file loaded when --config is not given.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DatabaseURL is the default embedded database location.
func DatabaseURL() string {
	return "sqlite://" + filepath.Join(DataDir(), "tasklist.db")
}

// EnsureDir creates a directory and all parent directories if they don't exist.
// Directories are created with 0700 permissions.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return oops.Code("DIR_CREATE_FAILED").With("path", path).Wrap(err)
	}
	return nil
}

func base(env, homeRel string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return filepath.Join(os.Getenv("HOME"), homeRel)
}
