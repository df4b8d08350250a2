// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

// Package postgres implements todo.Repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/tasklist/tasklist/internal/store"
	"github.com/tasklist/tasklist/internal/todo"
)

// TodoRepository implements todo.Repository using PostgreSQL.
// Every statement filters on owner_id.
type TodoRepository struct {
	pool store.Pool
}

// NewTodoRepository creates a new TodoRepository.
func NewTodoRepository(pool store.Pool) *TodoRepository {
	return &TodoRepository{pool: pool}
}

// List returns the owner's todos ordered by ID.
func (r *TodoRepository) List(ctx context.Context, ownerID int64) ([]todo.Todo, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, description, priority, completed, owner_id
		FROM todos
		WHERE owner_id = $1
		ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, oops.With("operation", "list todos").With("owner_id", ownerID).Wrap(err)
	}
	defer rows.Close()

	todos := []todo.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, oops.With("operation", "scan todo row").Wrap(err)
		}
		todos = append(todos, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate todos").Wrap(err)
	}
	return todos, nil
}

// Get returns one todo owned by ownerID.
func (r *TodoRepository) Get(ctx context.Context, ownerID, id int64) (*todo.Todo, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, title, description, priority, completed, owner_id
		FROM todos
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID)

	t, err := scanTodo(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("todo_id", id).Wrap(todo.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get todo").With("todo_id", id).Wrap(err)
	}
	return t, nil
}

// Create stores t and sets its ID.
func (r *TodoRepository) Create(ctx context.Context, t *todo.Todo) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO todos (title, description, priority, completed, owner_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, t.Title, t.Description, t.Priority, t.Completed, t.OwnerID).Scan(&t.ID)
	if err != nil {
		return oops.With("operation", "insert todo").With("owner_id", t.OwnerID).Wrap(err)
	}
	return nil
}

// Update overwrites the todo content where id and owner match.
func (r *TodoRepository) Update(ctx context.Context, t *todo.Todo) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE todos
		SET title = $3, description = $4, priority = $5, completed = $6
		WHERE id = $1 AND owner_id = $2
	`, t.ID, t.OwnerID, t.Title, t.Description, t.Priority, t.Completed)
	if err != nil {
		return oops.With("operation", "update todo").With("todo_id", t.ID).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.With("todo_id", t.ID).Wrap(todo.ErrNotFound)
	}
	return nil
}

// Delete removes the todo where id and owner match.
func (r *TodoRepository) Delete(ctx context.Context, ownerID, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM todos WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return oops.With("operation", "delete todo").With("todo_id", id).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.With("todo_id", id).Wrap(todo.ErrNotFound)
	}
	return nil
}

func scanTodo(row pgx.Row) (*todo.Todo, error) {
	var t todo.Todo
	var priority int16
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &priority, &t.Completed, &t.OwnerID); err != nil {
		return nil, err
	}
	t.Priority = int(priority)
	return &t, nil
}

var _ todo.Repository = (*TodoRepository)(nil)
