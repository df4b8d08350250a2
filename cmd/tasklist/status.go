// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// probeTimeout bounds each health probe.
const probeTimeout = 2 * time.Second

// ServerStatus is the health of a running tasklist server.
type ServerStatus struct {
	Addr    string `json:"addr"`
	Running bool   `json:"running"`
	Ready   bool   `json:"ready"`
	Error   string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show status of a running tasklist server",
		Long: `Show the health of a running tasklist server by probing the liveness and
readiness endpoints on metrics.addr. Readiness includes a database ping.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, sc *statusConfig) error {
	cfg, err := loadStorageConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Metrics.Addr == "" {
		return oops.Code("STATUS_UNAVAILABLE").Errorf("metrics.addr is empty; the health endpoints are disabled")
	}

	client := &http.Client{Timeout: probeTimeout}
	status := queryServerStatus(cmd.Context(), client, probeBaseURL(cfg.Metrics.Addr))

	if sc.jsonOutput {
		out, err := formatStatusJSON(status)
		if err != nil {
			return err
		}
		cmd.Println(out)
	} else {
		cmd.Print(formatStatusTable(status))
	}

	if !status.Ready {
		return oops.Code("STATUS_NOT_READY").With("addr", status.Addr).Errorf("server is not ready")
	}
	return nil
}

// probeBaseURL turns a listen address into a URL a local client can reach.
func probeBaseURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// queryServerStatus probes liveness then readiness.
func queryServerStatus(ctx context.Context, client *http.Client, baseURL string) ServerStatus {
	status := ServerStatus{Addr: strings.TrimPrefix(baseURL, "http://")}

	code, _, err := probe(ctx, client, baseURL+"/healthz/liveness")
	if err != nil {
		status.Error = fmt.Sprintf("failed to connect: %v", err)
		return status
	}
	status.Running = code == http.StatusOK

	code, body, err := probe(ctx, client, baseURL+"/healthz/readiness")
	if err != nil {
		status.Error = fmt.Sprintf("readiness probe failed: %v", err)
		return status
	}
	status.Ready = code == http.StatusOK
	if !status.Ready {
		status.Error = strings.TrimSpace(body)
	}
	return status
}

func probe(ctx context.Context, client *http.Client, url string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return resp.StatusCode, string(body), nil
}

// formatStatusTable formats the status as a human-readable table.
func formatStatusTable(status ServerStatus) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "ADDR\tSTATUS\tREADY\tDETAIL")
	state := "stopped"
	if status.Running {
		state = "running"
	}
	ready := "no"
	if status.Ready {
		ready = "yes"
	}
	detail := status.Error
	if detail == "" {
		detail = "-"
	}
	_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", status.Addr, state, ready, detail)

	_ = w.Flush()
	return sb.String()
}

// formatStatusJSON formats the status as JSON.
func formatStatusJSON(status ServerStatus) (string, error) {
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return "", oops.Code("STATUS_FORMAT_FAILED").Wrap(err)
	}
	return string(data), nil
}
