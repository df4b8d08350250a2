// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

// Package config loads tasklist configuration.
//
// Sources are layered, later ones winning: built-in defaults, a YAML file,
// TASKLIST_* environment variables, then command-line flags the user set.
package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/tasklist/tasklist/internal/xdg"
)

// Config is the complete service configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Database DatabaseConfig `koanf:"database"`
	Token    TokenConfig    `koanf:"token"`
	Password PasswordConfig `koanf:"password"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr              string        `koanf:"addr" env:"TASKLIST_HTTP_ADDR"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" env:"TASKLIST_HTTP_READ_HEADER_TIMEOUT"`
	ReadTimeout       time.Duration `koanf:"read_timeout" env:"TASKLIST_HTTP_READ_TIMEOUT"`
	WriteTimeout      time.Duration `koanf:"write_timeout" env:"TASKLIST_HTTP_WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `koanf:"idle_timeout" env:"TASKLIST_HTTP_IDLE_TIMEOUT"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" env:"TASKLIST_HTTP_SHUTDOWN_TIMEOUT"`
	MaxBodyBytes      int64         `koanf:"max_body_bytes" env:"TASKLIST_HTTP_MAX_BODY_BYTES"`
}

// DatabaseConfig selects and tunes the storage backend.
type DatabaseConfig struct {
	// URL is postgres://..., postgresql://... or sqlite://<path>.
	URL            string `koanf:"url" env:"TASKLIST_DATABASE_URL"`
	MaxConns       int32  `koanf:"max_conns" env:"TASKLIST_DATABASE_MAX_CONNS"`
	ConnectRetries uint64 `koanf:"connect_retries" env:"TASKLIST_DATABASE_CONNECT_RETRIES"`
	AutoMigrate    bool   `koanf:"auto_migrate" env:"TASKLIST_DATABASE_AUTO_MIGRATE"`
}

// TokenConfig configures access token signing. Secret has no default.
type TokenConfig struct {
	Secret    string        `koanf:"secret" env:"TASKLIST_TOKEN_SECRET"`
	Algorithm string        `koanf:"algorithm" env:"TASKLIST_TOKEN_ALGORITHM"`
	TTL       time.Duration `koanf:"ttl" env:"TASKLIST_TOKEN_TTL"`
}

// PasswordConfig configures password policy and hashing.
type PasswordConfig struct {
	MinLength  int `koanf:"min_length" env:"TASKLIST_PASSWORD_MIN_LENGTH"`
	BcryptCost int `koanf:"bcrypt_cost" env:"TASKLIST_PASSWORD_BCRYPT_COST"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `koanf:"format" env:"TASKLIST_LOG_FORMAT"`
	Level  string `koanf:"level" env:"TASKLIST_LOG_LEVEL"`
}

// MetricsConfig configures the observability listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" env:"TASKLIST_METRICS_ADDR"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:              ":8000",
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			MaxBodyBytes:      1 << 20,
		},
		Database: DatabaseConfig{
			URL:            xdg.DatabaseURL(),
			MaxConns:       10,
			ConnectRetries: 5,
			AutoMigrate:    true,
		},
		Token: TokenConfig{
			Algorithm: "HS256",
			TTL:       20 * time.Minute,
		},
		Password: PasswordConfig{
			MinLength:  6,
			BcryptCost: 10,
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9100",
		},
	}
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"addr":         "http.addr",
	"database-url": "database.url",
	"auto-migrate": "database.auto_migrate",
	"token-ttl":    "token.ttl",
	"log-format":   "log.format",
	"log-level":    "log.level",
	"metrics-addr": "metrics.addr",
}

// RegisterFlags adds the overridable settings to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("addr", d.HTTP.Addr, "API listen address")
	fs.String("database-url", d.Database.URL, "database URL (postgres://, postgresql:// or sqlite://)")
	fs.Bool("auto-migrate", d.Database.AutoMigrate, "apply pending migrations on startup")
	fs.Duration("token-ttl", d.Token.TTL, "access token lifetime")
	fs.String("log-format", d.Log.Format, "log format (json or text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("metrics-addr", d.Metrics.Addr, "metrics and health listen address (empty disables)")
}

// Load builds the configuration for serving the API. path names a YAML file;
// when empty, the XDG config file is used if it exists. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	cfg, err := load(path, flags)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStorage is Load for commands that never sign tokens, such as migrate
// and seed. Token settings are not validated.
func LoadStorage(path string, flags *pflag.FlagSet) (*Config, error) {
	cfg, err := load(path, flags)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(false); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load(path string, flags *pflag.FlagSet) (*Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path == "" {
		if _, err := os.Stat(xdg.ConfigFile()); err == nil {
			path = xdg.ConfigFile()
		}
	} else if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, oops.Code("CONFIG_NOT_FOUND").With("path", path).Wrap(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_PARSE_FAILED").With("path", path).Wrap(err)
		}
		if err := k.Unmarshal("", &cfg); err != nil {
			return nil, oops.Code("CONFIG_PARSE_FAILED").With("path", path).Wrap(err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, oops.Code("CONFIG_ENV_INVALID").Wrap(err)
	}

	if flags != nil {
		fk := koanf.New(".")
		provider := posflag.ProviderWithFlag(flags, ".", fk, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := fk.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_INVALID").Wrap(err)
		}
		if err := fk.Unmarshal("", &cfg); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_INVALID").Wrap(err)
		}
	}

	return &cfg, nil
}
