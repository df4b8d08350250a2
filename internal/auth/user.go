// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package auth

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tasklist/tasklist/pkg/errutil"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// DefaultMinPasswordLength is the shortest accepted password.
const DefaultMinPasswordLength = 6

// DefaultRole is assigned when registration omits a role.
const DefaultRole = "user"

// usernameRegex matches usernames that:
// - Start with a letter (a-z, A-Z)
// - Contain only letters, numbers, and underscores
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID           int64
	Username     string
	Email        string
	FirstName    string
	LastName     string
	Role         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}

// Identity returns the token identity for u.
func (u *User) Identity() Identity {
	return Identity{Username: u.Username, UserID: u.ID, Role: u.Role}
}

// Registration is the input to Service.Register.
type Registration struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	Role      string
}

// normalize trims surrounding whitespace from every field except Password.
func (r Registration) normalize() Registration {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Role = strings.TrimSpace(r.Role)
	if r.Role == "" {
		r.Role = DefaultRole
	}
	return r
}

// validate collects every field failure into v.
func (r Registration) validate(v *errutil.ValidationError, minPassword int) {
	if msg := usernameProblem(r.Username); msg != "" {
		v.Add("username", msg)
	}
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		v.Add("email", "must be a valid email address")
	}
	if msg := passwordProblem(r.Password, minPassword); msg != "" {
		v.Add("password", msg)
	}
}

// ValidateUsername validates a username against rules.
// Username requirements:
// - Length: MinUsernameLength to MaxUsernameLength characters
// - Must start with a letter
// - Can contain only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateUsername(username string) error {
	if msg := usernameProblem(username); msg != "" {
		return errutil.Invalid("username", msg)
	}
	return nil
}

// ValidatePassword checks length bounds for a new password.
func ValidatePassword(field, password string, minLength int) error {
	if msg := passwordProblem(password, minLength); msg != "" {
		return errutil.Invalid(field, msg)
	}
	return nil
}

func usernameProblem(username string) string {
	switch {
	case username == "":
		return "cannot be empty"
	case len(username) < MinUsernameLength:
		return fmt.Sprintf("must be at least %d characters", MinUsernameLength)
	case len(username) > MaxUsernameLength:
		return fmt.Sprintf("must be at most %d characters", MaxUsernameLength)
	case !usernameRegex.MatchString(username):
		return "must start with a letter and contain only letters, numbers, and underscores"
	}
	return ""
}

func passwordProblem(password string, minLength int) string {
	switch {
	case utf8.RuneCountInString(password) < minLength:
		return fmt.Sprintf("must be at least %d characters", minLength)
	case len(password) > MaxPasswordBytes:
		return fmt.Sprintf("must be at most %d bytes", MaxPasswordBytes)
	}
	return ""
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user and sets its ID.
	// Returns ErrUsernameTaken if the username exists.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByUsername retrieves a user by exact username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// UpdatePassword updates only the password hash for a user.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}
