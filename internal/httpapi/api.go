// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

// Package httpapi exposes the tasklist HTTP API.
//
// Routes:
//
//	POST   /auth/             register
//	POST   /auth/token        log in (form-encoded), returns a bearer token
//	GET    /users/            current user
//	PUT    /users/            change password
//	GET    /todos/            list own todos
//	POST   /todos/            create a todo
//	GET    /todos/{todo_id}   read a todo
//	PUT    /todos/{todo_id}   replace a todo
//	DELETE /todos/{todo_id}   delete a todo
//
// Collection routes also answer without the trailing slash.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/tasklist/tasklist/internal/auth"
	"github.com/tasklist/tasklist/internal/observability"
	"github.com/tasklist/tasklist/internal/todo"
)

// DefaultMaxBodyBytes bounds request bodies when Config leaves it unset.
const DefaultMaxBodyBytes = 1 << 20

// AccountService is the account side of the API.
type AccountService interface {
	Register(ctx context.Context, reg auth.Registration) (*auth.User, error)
	Login(ctx context.Context, username, password string) (auth.IssuedToken, error)
	ChangePassword(ctx context.Context, who auth.Identity, current, next string) error
	CurrentUser(ctx context.Context, who auth.Identity) (*auth.User, error)
}

// TodoService is the todo side of the API. Every call is owner-scoped.
type TodoService interface {
	List(ctx context.Context, who auth.Identity) ([]todo.Todo, error)
	Get(ctx context.Context, who auth.Identity, id int64) (*todo.Todo, error)
	Create(ctx context.Context, who auth.Identity, d todo.Draft) (*todo.Todo, error)
	Update(ctx context.Context, who auth.Identity, id int64, d todo.Draft) error
	Delete(ctx context.Context, who auth.Identity, id int64) error
}

// IdentityResolver turns an Authorization header into a caller identity.
type IdentityResolver interface {
	Resolve(authorization string) (auth.Identity, error)
}

// Config wires an API.
type Config struct {
	Accounts AccountService
	Todos    TodoService
	Resolver IdentityResolver

	// Metrics may be nil.
	Metrics *observability.Metrics
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Tracer defaults to the global otel tracer provider.
	Tracer trace.Tracer
	// MaxBodyBytes defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// Now is used to compute expires_in. Defaults to time.Now.
	Now func() time.Time
}

// API serves the tasklist HTTP endpoints.
type API struct {
	accounts AccountService
	todos    TodoService
	resolver IdentityResolver
	metrics  *observability.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
	maxBody  int64
	now      func() time.Time
	schemas  validators
}

// New creates an API.
func New(cfg Config) (*API, error) {
	if cfg.Accounts == nil || cfg.Todos == nil || cfg.Resolver == nil {
		return nil, oops.Code("HTTPAPI_INVALID_CONFIG").Errorf("accounts, todos and resolver are required")
	}

	schemas, err := compileValidators()
	if err != nil {
		return nil, err
	}

	a := &API{
		accounts: cfg.Accounts,
		todos:    cfg.Todos,
		resolver: cfg.Resolver,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		tracer:   cfg.Tracer,
		maxBody:  cfg.MaxBodyBytes,
		now:      cfg.Now,
		schemas:  schemas,
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.tracer == nil {
		a.tracer = otel.Tracer("github.com/tasklist/tasklist/internal/httpapi")
	}
	if a.maxBody <= 0 {
		a.maxBody = DefaultMaxBodyBytes
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a, nil
}

// Handler returns the API with its middleware stack applied.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	a.routes(mux)

	var h http.Handler = mux
	h = a.withRecovery(h)
	h = a.withObservation(h)
	h = a.withTracing(h)
	return withRequestID(h)
}

func (a *API) routes(mux *http.ServeMux) {
	both := func(method, path string, h http.HandlerFunc) {
		mux.HandleFunc(method+" "+path+"/{$}", route(h))
		mux.HandleFunc(method+" "+path, route(h))
	}

	both(http.MethodPost, "/auth", a.handleRegister)
	mux.HandleFunc("POST /auth/token", route(a.handleLogin))

	both(http.MethodGet, "/users", a.authenticated(a.handleCurrentUser))
	both(http.MethodPut, "/users", a.authenticated(a.handleChangePassword))

	both(http.MethodGet, "/todos", a.authenticated(a.handleListTodos))
	both(http.MethodPost, "/todos", a.authenticated(a.handleCreateTodo))
	mux.HandleFunc("GET /todos/{todo_id}", route(a.authenticated(a.handleGetTodo)))
	mux.HandleFunc("PUT /todos/{todo_id}", route(a.authenticated(a.handleUpdateTodo)))
	mux.HandleFunc("DELETE /todos/{todo_id}", route(a.authenticated(a.handleDeleteTodo)))
}
