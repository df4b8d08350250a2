// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"runtime/debug"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tasklist/tasklist/internal/auth"
	"github.com/tasklist/tasklist/internal/logging"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// unmatchedRoute labels requests no pattern matched.
const unmatchedRoute = "unmatched"

// inboundRequestID bounds what a client may supply as a request id.
var inboundRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// requestInfo is filled in by inner layers and read by the outer ones
// once the request completes.
type requestInfo struct {
	route    string
	username string
}

type requestInfoKey struct{}

func infoFrom(ctx context.Context) *requestInfo {
	if info, ok := ctx.Value(requestInfoKey{}).(*requestInfo); ok {
		return info
	}
	return &requestInfo{}
}

// statusWriter records the status and size of a response.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += int64(n)
	return n, err
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (w *statusWriter) code() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// withRequestID assigns every request an id, reusing a well-formed inbound one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !inboundRequestID.MatchString(id) {
			id = ulid.Make().String()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := logging.WithRequestID(r.Context(), id)
		ctx = context.WithValue(ctx, requestInfoKey{}, &requestInfo{route: unmatchedRoute})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withTracing wraps each request in a server span.
func (a *API) withTracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := a.tracer.Start(r.Context(), "HTTP "+r.Method,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("url.path", r.URL.Path),
			),
		)
		defer span.End()

		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r.WithContext(ctx))

		info := infoFrom(ctx)
		span.SetName(r.Method + " " + info.route)
		span.SetAttributes(
			attribute.String("http.route", info.route),
			attribute.Int("http.response.status_code", sw.code()),
		)
		if sw.code() >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(sw.code()))
		}
	})
}

// withObservation logs one line per request and records request metrics.
func (a *API) withObservation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}

		next.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		info := infoFrom(r.Context())
		a.metrics.ObserveRequest(r.Method, info.route, sw.code(), elapsed)

		attrs := []any{
			"method", r.Method,
			"route", info.route,
			"path", r.URL.Path,
			"status", sw.code(),
			"duration_ms", elapsed.Milliseconds(),
			"bytes", sw.bytes,
		}
		if info.username != "" {
			attrs = append(attrs, "username", info.username)
		}
		a.logger.InfoContext(r.Context(), "http.request", attrs...)
	})
}

// withRecovery turns a handler panic into a 500.
func (a *API) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			a.logger.ErrorContext(r.Context(), "handler panic",
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()),
			)
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Error: apiError{Code: "internal", Message: "internal server error"},
			})
		}()
		next.ServeHTTP(w, r)
	})
}

// route records the matched pattern for the outer layers.
func route(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		infoFrom(r.Context()).route = r.Pattern
		next(w, r)
	}
}

// identityHandler is a handler that runs only for an authenticated caller.
type identityHandler func(w http.ResponseWriter, r *http.Request, who auth.Identity)

// authenticated resolves the bearer credential before calling next.
// The identity lives in the request context and nowhere else.
func (a *API) authenticated(next identityHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		who, err := a.resolver.Resolve(r.Header.Get("Authorization"))
		if err != nil {
			a.metrics.RecordAuth("token", "rejected")
			a.writeError(w, r, err)
			return
		}
		infoFrom(r.Context()).username = who.Username
		next(w, r.WithContext(auth.WithIdentity(r.Context(), who)), who)
	}
}
