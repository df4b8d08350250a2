// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package main

import (
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/tasklist/tasklist/internal/store"
)

// NewMigrateCmd creates the migrate subcommand and its children.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long: `Manage the database schema. Migrations are embedded in the binary and
exist for both PostgreSQL and SQLite; the dialect follows database.url.`,
	}

	cmd.AddCommand(newMigrateUpCmd())
	cmd.AddCommand(newMigrateDownCmd())
	cmd.AddCommand(newMigrateStatusCmd())
	cmd.AddCommand(newMigrateForceCmd())

	return cmd
}

// withMigrator opens the configured database and runs fn with a migrator.
func withMigrator(cmd *cobra.Command, fn func(m *store.Migrator) error) error {
	cfg, err := loadStorageConfig(cmd)
	if err != nil {
		return err
	}

	backend, err := openBackend(cmd.Context(), cfg)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer backend.Close()

	m, err := backend.Migrator()
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	return fn(m)
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *store.Migrator) error {
				pending, err := m.PendingMigrations()
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					cmd.Println("No pending migrations")
					return nil
				}
				if err := m.Up(); err != nil {
					return err
				}
				cmd.Printf("Applied %d migration(s)\n", len(pending))
				return nil
			})
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	var steps int
	var all bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Long: `Roll back the most recent migration, or --steps of them. --all rolls back
everything and drops every table with its data.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 1 {
				return oops.Code("INVALID_STEPS").Errorf("--steps must be at least 1, got %d", steps)
			}
			return withMigrator(cmd, func(m *store.Migrator) error {
				if all {
					if err := m.Down(); err != nil {
						return err
					}
					cmd.Println("Rolled back all migrations")
					return nil
				}
				if err := m.Steps(-steps); err != nil {
					return err
				}
				cmd.Printf("Rolled back %d migration(s)\n", steps)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.Flags().BoolVar(&all, "all", false, "roll back every migration")
	return cmd
}

func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *store.Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				applied, err := m.AppliedMigrations()
				if err != nil {
					return err
				}
				pending, err := m.PendingMigrations()
				if err != nil {
					return err
				}

				cmd.Printf("Dialect: %s\n", m.Dialect())
				cmd.Printf("Version: %d", version)
				if dirty {
					cmd.Print(" (dirty; fix the database and run migrate force)")
				}
				cmd.Println()
				printMigrations(cmd, "Applied", m.Dialect(), applied)
				printMigrations(cmd, "Pending", m.Dialect(), pending)
				return nil
			})
		},
	}
}

func printMigrations(cmd *cobra.Command, label string, d store.Dialect, versions []uint) {
	cmd.Printf("%s: %d\n", label, len(versions))
	for _, v := range versions {
		name, err := store.MigrationName(d, v)
		if err != nil || name == "" {
			name = strconv.FormatUint(uint64(v), 10)
		}
		cmd.Printf("  %s\n", name)
	}
}

func newMigrateForceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force VERSION",
		Short: "Set the migration version without running migrations",
		Long: `Set the recorded migration version and clear the dirty flag. Use only after
repairing a failed migration by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return oops.Code("INVALID_VERSION").With("version", args[0]).Wrap(err)
			}
			return withMigrator(cmd, func(m *store.Migrator) error {
				if err := m.Force(version); err != nil {
					return err
				}
				cmd.Printf("Forced version %d\n", version)
				return nil
			})
		},
	}
}
