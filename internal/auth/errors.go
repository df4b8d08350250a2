// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package auth

import "errors"

// Sentinel errors. Operations wrap these with oops codes; match with errors.Is.
var (
	// ErrNotFound is returned by repositories when a user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already registered")

	// ErrInvalidCredentials is the single outcome of every failed login or
	// password confirmation. It never says which part was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUnauthenticated is the single outcome of every failed bearer
	// credential check: missing, malformed, badly signed, expired or incomplete.
	ErrUnauthenticated = errors.New("could not validate credentials")
)
