// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

// Package todo manages per-user to-do records.
//
// Every operation is scoped to the calling identity: a todo owned by someone
// else is indistinguishable from one that does not exist.
package todo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tasklist/tasklist/pkg/errutil"
)

// Field constraints.
const (
	MinTitleLength       = 3
	MinDescriptionLength = 3
	MaxDescriptionLength = 100
	MinPriority          = 1
	MaxPriority          = 5
)

// ErrNotFound is returned when a todo does not exist or belongs to another user.
var ErrNotFound = errors.New("todo not found")

// Todo is a single task owned by one user.
type Todo struct {
	ID          int64
	Title       string
	Description string
	Priority    int
	Completed   bool
	OwnerID     int64
}

// Draft is the client-supplied content of a todo.
type Draft struct {
	Title       string
	Description string
	Priority    int
	Completed   bool
}

// Validate checks every field and reports all failures at once.
func (d Draft) Validate() error {
	var v errutil.ValidationError
	if utf8.RuneCountInString(strings.TrimSpace(d.Title)) < MinTitleLength {
		v.Add("title", fmt.Sprintf("must be at least %d characters", MinTitleLength))
	}
	n := utf8.RuneCountInString(strings.TrimSpace(d.Description))
	if n < MinDescriptionLength || n > MaxDescriptionLength {
		v.Add("description", fmt.Sprintf("must be between %d and %d characters", MinDescriptionLength, MaxDescriptionLength))
	}
	if d.Priority < MinPriority || d.Priority > MaxPriority {
		v.Add("priority", fmt.Sprintf("must be between %d and %d", MinPriority, MaxPriority))
	}
	return v.Err()
}

// apply copies the draft content onto t.
func (d Draft) apply(t *Todo) {
	t.Title = strings.TrimSpace(d.Title)
	t.Description = strings.TrimSpace(d.Description)
	t.Priority = d.Priority
	t.Completed = d.Completed
}

// Repository persists todos. Every method is constrained by owner ID;
// a row with a different owner is treated as absent.
type Repository interface {
	// List returns the owner's todos ordered by ID.
	List(ctx context.Context, ownerID int64) ([]Todo, error)

	// Get returns one todo, or ErrNotFound.
	Get(ctx context.Context, ownerID, id int64) (*Todo, error)

	// Create stores t and sets its ID.
	Create(ctx context.Context, t *Todo) error

	// Update overwrites content where id and owner match, or returns ErrNotFound.
	Update(ctx context.Context, t *Todo) error

	// Delete removes the todo where id and owner match, or returns ErrNotFound.
	Delete(ctx context.Context, ownerID, id int64) error
}
