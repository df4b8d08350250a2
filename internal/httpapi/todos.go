// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package httpapi

import (
	"net/http"
	"strconv"

	"github.com/samber/oops"

	"github.com/tasklist/tasklist/internal/auth"
	"github.com/tasklist/tasklist/internal/todo"
	"github.com/tasklist/tasklist/pkg/errutil"
)

type todoResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Completed   bool   `json:"completed"`
	OwnerID     int64  `json:"owner_id"`
}

func toTodoResponse(t *todo.Todo) todoResponse {
	return todoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Completed:   t.Completed,
		OwnerID:     t.OwnerID,
	}
}

func (req todoRequest) draft() todo.Draft {
	return todo.Draft{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Completed:   req.Completed,
	}
}

// todoID parses the {todo_id} path segment.
func todoID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("todo_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, oops.Code("REQUEST_INVALID").
			With("todo_id", r.PathValue("todo_id")).
			Wrap(errutil.Invalid("todo_id", "must be a positive integer"))
	}
	return id, nil
}

func (a *API) handleListTodos(w http.ResponseWriter, r *http.Request, who auth.Identity) {
	todos, err := a.todos.List(r.Context(), who)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]todoResponse, 0, len(todos))
	for i := range todos {
		out = append(out, toTodoResponse(&todos[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleGetTodo(w http.ResponseWriter, r *http.Request, who auth.Identity) {
	id, err := todoID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	t, err := a.todos.Get(r.Context(), who, id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTodoResponse(t))
}

func (a *API) handleCreateTodo(w http.ResponseWriter, r *http.Request, who auth.Identity) {
	var req todoRequest
	if err := a.decodeJSON(w, r, SchemaTodo, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	t, err := a.todos.Create(r.Context(), who, req.draft())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/todos/"+strconv.FormatInt(t.ID, 10))
	writeJSON(w, http.StatusCreated, toTodoResponse(t))
}

func (a *API) handleUpdateTodo(w http.ResponseWriter, r *http.Request, who auth.Identity) {
	id, err := todoID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req todoRequest
	if err := a.decodeJSON(w, r, SchemaTodo, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.todos.Update(r.Context(), who, id, req.draft()); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleDeleteTodo(w http.ResponseWriter, r *http.Request, who auth.Identity) {
	id, err := todoID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.todos.Delete(r.Context(), who, id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
