// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/tasklist/tasklist/internal/auth"
	"github.com/tasklist/tasklist/internal/config"
	"github.com/tasklist/tasklist/internal/httpapi"
	"github.com/tasklist/tasklist/internal/logging"
	"github.com/tasklist/tasklist/internal/observability"
	"github.com/tasklist/tasklist/internal/todo"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the tasklist HTTP API",
		Long: `Run the tasklist HTTP API. Pending migrations are applied first unless
database.auto_migrate is false. Metrics and health probes are served on
metrics.addr when it is set. SIGINT or SIGTERM shuts down gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServeWithDeps(cmd.Context(), cfg, cmd, nil)
		},
	}
}

// runServeWithDeps runs the API until ctx is cancelled or a server fails.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	deps = deps.withDefaults()
	logger := logging.SetDefault(version, cfg.Log.Format, cfg.Log.Level)

	backend, err := deps.BackendOpener(ctx, cfg)
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "open database").Wrap(err)
	}
	defer backend.Close()
	logger.Info("connected to database", "dialect", string(backend.Dialect))

	if cfg.Database.AutoMigrate {
		if err := migrateUp(backend); err != nil {
			return oops.Code("SERVE_FAILED").With("operation", "auto migrate").Wrap(err)
		}
		logger.Info("database schema up to date")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var metrics *observability.Metrics
	var obsServer ObservabilityServer
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, backend.Ping)
		obsErrCh, err := obsServer.Start()
		if err != nil {
			return oops.Code("SERVE_FAILED").With("operation", "start observability server").Wrap(err)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer stopCancel()
			if err := obsServer.Stop(stopCtx); err != nil {
				logger.Warn("error stopping observability server", "error", err)
			}
		}()
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
		metrics = obsServer.Metrics()
	} else {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	handler, err := buildAPI(cfg, backend, metrics, logger)
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "build api").Wrap(err)
	}

	listener, err := deps.ListenerFactory("tcp", cfg.HTTP.Addr)
	if err != nil {
		return oops.Code("SERVE_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := srv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	cmd.Printf("tasklist listening on %s\n", listener.Addr())
	logger.Info("api server started", "addr", listener.Addr().String())

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		serveErr = oops.Code("SERVE_FAILED").With("operation", "serve").Wrap(err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping api server", "error", err)
	}

	logger.Info("shutdown complete")
	return serveErr
}

// buildAPI assembles the services and returns the API handler.
func buildAPI(cfg *config.Config, backend *Backend, metrics *observability.Metrics, logger *slog.Logger) (http.Handler, error) {
	hasher, err := auth.NewBcryptHasher(cfg.Password.BcryptCost)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenService([]byte(cfg.Token.Secret), cfg.Token.Algorithm)
	if err != nil {
		return nil, err
	}
	accounts, err := auth.NewService(backend.Users, hasher, tokens, auth.ServiceConfig{
		TokenTTL:          cfg.Token.TTL,
		MinPasswordLength: cfg.Password.MinLength,
		Logger:            logger.With("component", "auth"),
	})
	if err != nil {
		return nil, err
	}
	todos, err := todo.NewService(backend.Todos)
	if err != nil {
		return nil, err
	}
	resolver, err := auth.NewResolver(tokens)
	if err != nil {
		return nil, err
	}

	api, err := httpapi.New(httpapi.Config{
		Accounts:     accounts,
		Todos:        todos,
		Resolver:     resolver,
		Metrics:      metrics,
		Logger:       logger.With("component", "http"),
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
	})
	if err != nil {
		return nil, err
	}
	return api.Handler(), nil
}

// migrateUp applies pending migrations on backend.
func migrateUp(backend *Backend) error {
	m, err := backend.Migrator()
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}

// monitorServerErrors cancels ctx when a background server fails.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, name string) {
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			slog.Error("server failed", "server", name, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
