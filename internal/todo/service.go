// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package todo

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/tasklist/tasklist/internal/auth"
	"github.com/tasklist/tasklist/pkg/errutil"
)

// Service applies the ownership policy to todo operations.
type Service struct {
	repo Repository
}

// NewService creates a new Service.
func NewService(repo Repository) (*Service, error) {
	if repo == nil {
		return nil, oops.Code("TODO_INVALID_CONFIG").Errorf("todo repository is required")
	}
	return &Service{repo: repo}, nil
}

// owner returns the owner ID for who, refusing incomplete identities.
func owner(who auth.Identity) (int64, error) {
	if err := who.Validate(); err != nil {
		return 0, err
	}
	return who.UserID, nil
}

func checkID(id int64) error {
	if id <= 0 {
		return oops.Code("TODO_INVALID").Wrap(errutil.Invalid("todo_id", "must be greater than 0"))
	}
	return nil
}

// List returns the caller's todos. It never returns nil.
func (s *Service) List(ctx context.Context, who auth.Identity) ([]Todo, error) {
	ownerID, err := owner(who)
	if err != nil {
		return nil, err
	}
	todos, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, oops.Code("TODO_LIST_FAILED").With("owner_id", ownerID).Wrap(err)
	}
	if todos == nil {
		todos = []Todo{}
	}
	return todos, nil
}

// Get returns one of the caller's todos.
func (s *Service) Get(ctx context.Context, who auth.Identity, id int64) (*Todo, error) {
	ownerID, err := owner(who)
	if err != nil {
		return nil, err
	}
	if err := checkID(id); err != nil {
		return nil, err
	}
	t, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, wrapLookup("TODO_GET_FAILED", ownerID, id, err)
	}
	return t, nil
}

// Create validates d and stores it as a todo owned by the caller.
func (s *Service) Create(ctx context.Context, who auth.Identity, d Draft) (*Todo, error) {
	ownerID, err := owner(who)
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, oops.Code("TODO_INVALID").Wrap(err)
	}

	t := &Todo{OwnerID: ownerID}
	d.apply(t)
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, oops.Code("TODO_CREATE_FAILED").With("owner_id", ownerID).Wrap(err)
	}
	return t, nil
}

// Update replaces the content of one of the caller's todos.
func (s *Service) Update(ctx context.Context, who auth.Identity, id int64, d Draft) error {
	ownerID, err := owner(who)
	if err != nil {
		return err
	}
	if err := checkID(id); err != nil {
		return err
	}
	if err := d.Validate(); err != nil {
		return oops.Code("TODO_INVALID").Wrap(err)
	}

	t := &Todo{ID: id, OwnerID: ownerID}
	d.apply(t)
	if err := s.repo.Update(ctx, t); err != nil {
		return wrapLookup("TODO_UPDATE_FAILED", ownerID, id, err)
	}
	return nil
}

// Delete removes one of the caller's todos.
func (s *Service) Delete(ctx context.Context, who auth.Identity, id int64) error {
	ownerID, err := owner(who)
	if err != nil {
		return err
	}
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return wrapLookup("TODO_DELETE_FAILED", ownerID, id, err)
	}
	return nil
}

// wrapLookup keeps not-found uniform whether the row is missing or foreign.
func wrapLookup(code string, ownerID, id int64, err error) error {
	if errors.Is(err, ErrNotFound) {
		return oops.Code("TODO_NOT_FOUND").With("todo_id", id).Wrap(ErrNotFound)
	}
	return oops.Code(code).With("owner_id", ownerID).With("todo_id", id).Wrap(err)
}
