// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasklist/tasklist/internal/config"
	"github.com/tasklist/tasklist/internal/observability"
)

func serveTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Database.URL = isolateEnv(t)
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.HTTP.ShutdownTimeout = 5 * time.Second
	cfg.Metrics.Addr = "127.0.0.1:0"
	cfg.Token.Secret = strings.Repeat("k", 32)
	cfg.Password.BcryptCost = 4
	cfg.Log.Level = "error"
	return &cfg
}

func restoreDefaultLogger(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestRunServe_EndToEnd(t *testing.T) {
	restoreDefaultLogger(t)
	cfg := serveTestConfig(t)

	listeners := make(chan net.Listener, 1)
	obsServers := make(chan ObservabilityServer, 1)
	deps := &ServeDeps{
		ListenerFactory: func(network, address string) (net.Listener, error) {
			ln, err := net.Listen(network, address)
			if err == nil {
				listeners <- ln
			}
			return ln, err
		},
		ObservabilityServerFactory: func(addr string, checker observability.ReadinessChecker) ObservabilityServer {
			srv := observability.NewServer(addr, checker)
			obsServers <- srv
			return srv
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := &cobra.Command{}
	cmd.SetOut(new(bytes.Buffer))

	done := make(chan error, 1)
	go func() { done <- runServeWithDeps(ctx, cfg, cmd, deps) }()

	var base string
	select {
	case ln := <-listeners:
		base = "http://" + ln.Addr().String()
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for listener")
	}
	obs := <-obsServers

	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Post(base+"/auth/", "application/json",
		strings.NewReader(`{"username":"alice","email":"alice@example.com","password":"secret1"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = client.PostForm(base+"/auth/token", url.Values{"username": {"alice"}, "password": {"secret1"}})
	require.NoError(t, err)
	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tok))
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer", tok.TokenType)

	req, err := http.NewRequest(http.MethodGet, base+"/todos/", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	resp, err = client.Do(req)
	require.NoError(t, err)
	var todos []json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&todos))
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, todos)

	status := queryServerStatus(ctx, client, probeBaseURL(obs.Addr()))
	assert.True(t, status.Running)
	assert.True(t, status.Ready, status.Error)

	resp, err = client.Get(probeBaseURL(obs.Addr()) + "/metrics")
	require.NoError(t, err)
	var metrics bytes.Buffer
	_, _ = metrics.ReadFrom(resp.Body)
	_ = resp.Body.Close()
	assert.Contains(t, metrics.String(), "tasklist_http_requests_total")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not shut down")
	}
}

func TestRunServe_BackendFailure(t *testing.T) {
	restoreDefaultLogger(t)
	cfg := serveTestConfig(t)

	deps := &ServeDeps{
		BackendOpener: func(context.Context, *config.Config) (*Backend, error) {
			return nil, errors.New("connection refused")
		},
	}

	err := runServeWithDeps(context.Background(), cfg, &cobra.Command{}, deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRunServe_ListenFailure(t *testing.T) {
	restoreDefaultLogger(t)
	cfg := serveTestConfig(t)
	cfg.Metrics.Addr = ""

	deps := &ServeDeps{
		ListenerFactory: func(string, string) (net.Listener, error) {
			return nil, errors.New("address in use")
		},
	}

	err := runServeWithDeps(context.Background(), cfg, &cobra.Command{}, deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address in use")
}

func TestRunServe_ListenFailureStopsObservability(t *testing.T) {
	restoreDefaultLogger(t)
	cfg := serveTestConfig(t)

	var obs ObservabilityServer
	var obsAddr string
	deps := &ServeDeps{
		ObservabilityServerFactory: func(addr string, checker observability.ReadinessChecker) ObservabilityServer {
			obs = observability.NewServer(addr, checker)
			return obs
		},
		ListenerFactory: func(string, string) (net.Listener, error) {
			obsAddr = obs.Addr()
			return nil, errors.New("address in use")
		},
	}

	err := runServeWithDeps(context.Background(), cfg, &cobra.Command{}, deps)
	require.Error(t, err)
	require.NotEmpty(t, obsAddr, "observability server was started")

	client := &http.Client{Timeout: time.Second}
	resp, err := client.Get(probeBaseURL(obsAddr) + "/healthz/liveness")
	if err == nil {
		_ = resp.Body.Close()
	}
	require.Error(t, err, "observability server still serving on %s", obsAddr)
}

func TestServeCmd_RequiresSecret(t *testing.T) {
	restoreDefaultLogger(t)
	isolateEnv(t)

	_, err := execute(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token.secret")
}
