// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestServer_Metrics(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)
	h := server.Handler()

	status, body := get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "# HELP")
	assert.Contains(t, body, "go_")
	assert.Contains(t, body, "process_")

	m := server.Metrics()
	m.ObserveRequest(http.MethodGet, "/todo/", http.StatusOK, 15*time.Millisecond)
	m.RecordAuth("login", "success")

	_, body = get(t, h, "/metrics")
	assert.Contains(t, body, `tasklist_http_requests_total{method="GET",route="/todo/",status="200"} 1`)
	assert.Contains(t, body, "tasklist_http_request_duration_seconds_bucket")
	assert.Contains(t, body, `tasklist_auth_events_total{event="login",outcome="success"} 1`)
}

func TestMetrics_Counts(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordAuth("login", "failure")
	m.RecordAuth("login", "failure")
	m.ObserveRequest(http.MethodPost, "/auth/token", http.StatusUnauthorized, time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.AuthEvents.WithLabelValues("login", "failure")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/auth/token", "401")), 0)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Second)
		m.RecordAuth("login", "success")
	})
}

func TestServer_Liveness(t *testing.T) {
	server := NewServer("127.0.0.1:0", func(context.Context) error { return errors.New("down") })

	status, body := get(t, server.Handler(), "/healthz/liveness")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", strings.TrimSpace(body))
}

func TestServer_Readiness(t *testing.T) {
	tests := []struct {
		name    string
		checker ReadinessChecker
		status  int
		body    string
	}{
		{"nil checker", nil, http.StatusOK, "ok"},
		{"ready", func(context.Context) error { return nil }, http.StatusOK, "ok"},
		{"database down", func(context.Context) error { return errors.New("ping failed") }, http.StatusServiceUnavailable, "not ready"},
		{"checker gets a deadline", func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				return errors.New("no deadline")
			}
			return nil
		}, http.StatusOK, "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := get(t, NewServer("127.0.0.1:0", tt.checker).Handler(), "/healthz/readiness")
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.body, strings.TrimSpace(body))
		})
	}
}

func TestServer_StartStop(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)

	errCh, err := server.Start()
	require.NoError(t, err)
	require.NotEmpty(t, server.Addr())

	_, err = server.Start()
	require.Error(t, err, "second Start should fail")

	resp, err := http.Get("http://" + server.Addr() + "/healthz/liveness")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Stop(ctx))
	require.NoError(t, server.Stop(ctx), "second Stop is a no-op")

	_, open := <-errCh
	assert.False(t, open, "error channel closes on graceful stop")
}

func TestServer_StartListenError(t *testing.T) {
	server := NewServer("256.0.0.1:bad", nil)
	_, err := server.Start()
	require.Error(t, err)

	_, err = server.Start()
	require.Error(t, err, "failed Start must not leave the server marked running")
}
