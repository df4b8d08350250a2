// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

// Package sqlite implements todo.Repository on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/samber/oops"

	"github.com/tasklist/tasklist/internal/store"
	"github.com/tasklist/tasklist/internal/todo"
)

// TodoRepository implements todo.Repository using SQLite.
// Every statement filters on owner_id.
type TodoRepository struct {
	db store.DBTX
}

// NewTodoRepository creates a new TodoRepository.
func NewTodoRepository(db store.DBTX) *TodoRepository {
	return &TodoRepository{db: db}
}

// List returns the owner's todos ordered by ID.
func (r *TodoRepository) List(ctx context.Context, ownerID int64) ([]todo.Todo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, description, priority, completed, owner_id
		FROM todos
		WHERE owner_id = ?
		ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, oops.With("operation", "list todos").With("owner_id", ownerID).Wrap(err)
	}
	defer rows.Close()

	todos := []todo.Todo{}
	for rows.Next() {
		var t todo.Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.Completed, &t.OwnerID); err != nil {
			return nil, oops.With("operation", "scan todo row").Wrap(err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate todos").Wrap(err)
	}
	return todos, nil
}

// Get returns one todo owned by ownerID.
func (r *TodoRepository) Get(ctx context.Context, ownerID, id int64) (*todo.Todo, error) {
	var t todo.Todo
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, description, priority, completed, owner_id
		FROM todos
		WHERE id = ? AND owner_id = ?
	`, id, ownerID).Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.Completed, &t.OwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.With("todo_id", id).Wrap(todo.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get todo").With("todo_id", id).Wrap(err)
	}
	return &t, nil
}

// Create stores t and sets its ID.
func (r *TodoRepository) Create(ctx context.Context, t *todo.Todo) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO todos (title, description, priority, completed, owner_id)
		VALUES (?, ?, ?, ?, ?)
	`, t.Title, t.Description, t.Priority, t.Completed, t.OwnerID)
	if err != nil {
		return oops.With("operation", "insert todo").With("owner_id", t.OwnerID).Wrap(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return oops.With("operation", "read inserted id").Wrap(err)
	}
	t.ID = id
	return nil
}

// Update overwrites the todo content where id and owner match.
func (r *TodoRepository) Update(ctx context.Context, t *todo.Todo) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE todos
		SET title = ?, description = ?, priority = ?, completed = ?
		WHERE id = ? AND owner_id = ?
	`, t.Title, t.Description, t.Priority, t.Completed, t.ID, t.OwnerID)
	if err != nil {
		return oops.With("operation", "update todo").With("todo_id", t.ID).Wrap(err)
	}
	return requireRow(res, t.ID)
}

// Delete removes the todo where id and owner match.
func (r *TodoRepository) Delete(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return oops.With("operation", "delete todo").With("todo_id", id).Wrap(err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return oops.With("operation", "rows affected").Wrap(err)
	}
	if n == 0 {
		return oops.With("todo_id", id).Wrap(todo.ErrNotFound)
	}
	return nil
}

var _ todo.Repository = (*TodoRepository)(nil)
