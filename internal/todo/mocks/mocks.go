// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

// Package mocks provides testify mocks for todo interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tasklist/tasklist/internal/todo"
)

// MockRepository is a mock todo.Repository.
type MockRepository struct {
	mock.Mock
}

// NewMockRepository creates a mock that asserts its expectations on cleanup.
func NewMockRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockRepository {
	m := &MockRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// List records the call.
func (m *MockRepository) List(ctx context.Context, ownerID int64) ([]todo.Todo, error) {
	args := m.Called(ctx, ownerID)
	todos, _ := args.Get(0).([]todo.Todo)
	return todos, args.Error(1)
}

// Get records the call.
func (m *MockRepository) Get(ctx context.Context, ownerID, id int64) (*todo.Todo, error) {
	args := m.Called(ctx, ownerID, id)
	t, _ := args.Get(0).(*todo.Todo)
	return t, args.Error(1)
}

// Create records the call.
func (m *MockRepository) Create(ctx context.Context, t *todo.Todo) error {
	return m.Called(ctx, t).Error(0)
}

// Update records the call.
func (m *MockRepository) Update(ctx context.Context, t *todo.Todo) error {
	return m.Called(ctx, t).Error(0)
}

// Delete records the call.
func (m *MockRepository) Delete(ctx context.Context, ownerID, id int64) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

var _ todo.Repository = (*MockRepository)(nil)
