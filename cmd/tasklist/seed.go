// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package main

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"os"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tasklist/tasklist/internal/auth"
	"github.com/tasklist/tasklist/internal/config"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// seedFile is the YAML document accepted by seed.
//
//	users:
//	  - username: alice
//	    email: alice@example.com
//	    password: secret1
//	  - username: bob
//	    email: bob@example.com
//	    role: admin
//	    password_hash: $2a$10$...
type seedFile struct {
	Users []seedUser `yaml:"users"`
}

type seedUser struct {
	Username     string `yaml:"username"`
	Email        string `yaml:"email"`
	FirstName    string `yaml:"first_name"`
	LastName     string `yaml:"last_name"`
	Role         string `yaml:"role"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
}

// seedResult counts what a seed run did.
type seedResult struct {
	Created int
	Skipped int
}

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	file    string
	timeout time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create user accounts from a YAML file",
		Long: `Creates the users listed in a YAML file. Each entry gives either a plaintext
password, which is hashed with the configured cost, or a password_hash
exported from another deployment. Existing usernames are skipped, so the
command is safe to run more than once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&cfg.file, "file", "f", "", "YAML file listing users (required)")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runSeed(cmd *cobra.Command, sc *seedConfig) error {
	cfg, err := loadStorageConfig(cmd)
	if err != nil {
		return err
	}

	f, err := os.Open(sc.file)
	if err != nil {
		return oops.Code("SEED_READ_FAILED").With("file", sc.file).Wrap(err)
	}
	defer func() { _ = f.Close() }()

	doc, err := parseSeed(f)
	if err != nil {
		return oops.With("file", sc.file).Wrap(err)
	}

	// Use cmd.Context() to respect SIGINT/SIGTERM signals
	ctx, cancel := context.WithTimeout(cmd.Context(), sc.timeout)
	defer cancel()

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer backend.Close()

	if cfg.Database.AutoMigrate {
		if err := migrateUp(backend); err != nil {
			return oops.Code("SEED_FAILED").With("operation", "auto migrate").Wrap(err)
		}
	}

	accounts, err := seedAccounts(cfg, backend)
	if err != nil {
		return err
	}

	res, err := seedUsers(ctx, accounts, doc.Users, func(u seedUser, created bool) {
		if created {
			cmd.Printf("created %s\n", u.Username)
		} else {
			cmd.Printf("skipped %s (already exists)\n", u.Username)
		}
	})
	if err != nil {
		return err
	}

	cmd.Printf("Seed complete: %d created, %d skipped\n", res.Created, res.Skipped)
	return nil
}

func parseSeed(r io.Reader) (*seedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc seedFile
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, oops.Code("SEED_PARSE_FAILED").Wrap(err)
	}
	return &doc, nil
}

// seedAccounts builds an account service for seeding. Seeding never issues
// tokens, so its signing key is random and discarded.
func seedAccounts(cfg *config.Config, backend *Backend) (*auth.Service, error) {
	hasher, err := auth.NewBcryptHasher(cfg.Password.BcryptCost)
	if err != nil {
		return nil, err
	}
	key := make([]byte, auth.MinSecretBytes)
	if _, err := rand.Read(key); err != nil {
		return nil, oops.Code("SEED_FAILED").Wrap(err)
	}
	tokens, err := auth.NewTokenService(key, "HS256")
	if err != nil {
		return nil, err
	}
	return auth.NewService(backend.Users, hasher, tokens, auth.ServiceConfig{
		MinPasswordLength: cfg.Password.MinLength,
	})
}

// userCreator is the part of auth.Service seeding needs.
type userCreator interface {
	Register(ctx context.Context, reg auth.Registration) (*auth.User, error)
	Import(ctx context.Context, reg auth.Registration, passwordHash string) (*auth.User, error)
}

// seedUsers creates each user in order, skipping taken usernames.
// report is called once per user.
func seedUsers(ctx context.Context, accounts userCreator, users []seedUser, report func(u seedUser, created bool)) (seedResult, error) {
	var res seedResult
	for i, u := range users {
		if u.Password != "" && u.PasswordHash != "" {
			return res, oops.Code("SEED_INVALID").
				With("index", i).
				With("username", u.Username).
				Errorf("user %q sets both password and password_hash", u.Username)
		}

		reg := auth.Registration{
			Username:  u.Username,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Role:      u.Role,
			Password:  u.Password,
		}

		var err error
		if u.PasswordHash != "" {
			_, err = accounts.Import(ctx, reg, u.PasswordHash)
		} else {
			_, err = accounts.Register(ctx, reg)
		}

		switch {
		case err == nil:
			res.Created++
			report(u, true)
		case errors.Is(err, auth.ErrUsernameTaken):
			res.Skipped++
			report(u, false)
		default:
			return res, oops.Code("SEED_FAILED").
				With("index", i).
				With("username", u.Username).
				Wrap(err)
		}
	}
	return res, nil
}
