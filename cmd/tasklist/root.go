// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/tasklist/tasklist/internal/config"
)

// NewRootCmd creates the root command for the tasklist CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasklist",
		Short: "Tasklist - a multi-user to-do service",
		Long: `Tasklist is a multi-user to-do service. Users register, log in for a
bearer token, and manage their own todos over a JSON HTTP API.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "config file path (default: $XDG_CONFIG_HOME/tasklist/config.yaml)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// loadConfig loads the full serving configuration for cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path, cmd.Flags())
}

// loadStorageConfig loads configuration for commands that only touch storage.
func loadStorageConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.LoadStorage(path, cmd.Flags())
}
