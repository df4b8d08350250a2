// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

// Package auth provides authentication for tasklist.
//
// # Primitives
//
//   - PasswordHasher / BcryptHasher - one-way password hashing
//   - TokenService - signs and verifies HMAC bearer tokens
//   - Identity - the fixed-shape caller identity carried by a token
//   - Resolver - turns a raw bearer credential into an Identity
//
// # Services
//
// Service coordinates registration, login, password change and current-user
// lookup against a UserRepository. It is created with NewService, which
// validates its dependencies.
//
// Every credential failure surfaces as ErrInvalidCredentials (login and
// password confirmation) or ErrUnauthenticated (bearer tokens). Callers must
// not try to tell the underlying causes apart.
package auth
