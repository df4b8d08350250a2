// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

// Package sqlite implements auth repositories on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/samber/oops"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/tasklist/tasklist/internal/auth"
	"github.com/tasklist/tasklist/internal/store"
)

// UserRepository implements auth.UserRepository using SQLite.
type UserRepository struct {
	db store.DBTX
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db store.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, first_name, last_name, role, password_hash, is_active, created_at`

// Create stores a new user and sets its ID.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, email, first_name, last_name, role, password_hash, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Role,
		user.PasswordHash,
		user.IsActive,
		now.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("USER_USERNAME_TAKEN").
				With("username", user.Username).
				Wrap(auth.ErrUsernameTaken)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("username", user.Username).
			Wrap(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "read inserted id").
			Wrap(err)
	}
	user.ID = id
	user.CreatedAt = now
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*auth.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id).
			Wrap(err)
	}
	return user, nil
}

// GetByUsername retrieves a user by exact username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_USERNAME_FAILED").
			With("operation", "get user by username").
			With("username", username).
			Wrap(err)
	}
	return user, nil
}

// UpdatePassword updates only the password hash for a user.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return oops.Code("USER_UPDATE_PASSWORD_FAILED").
			With("operation", "update password").
			With("id", id).
			Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return oops.Code("USER_UPDATE_PASSWORD_FAILED").
			With("operation", "rows affected").
			Wrap(err)
	}
	if n == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

func scanUser(row *sql.Row) (*auth.User, error) {
	var (
		u       auth.User
		created int64
	)
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&u.PasswordHash,
		&u.IsActive,
		&created,
	)
	if err != nil {
		return nil, err
	}
	u.CreatedAt = time.Unix(created, 0).UTC()
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}

var _ auth.UserRepository = (*UserRepository)(nil)
