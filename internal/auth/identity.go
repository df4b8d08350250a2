// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package auth

import (
	"context"
	"strings"

	"github.com/samber/oops"
)

// Identity is the caller resolved from a verified bearer token.
// It lives for a single request.
type Identity struct {
	Username string
	UserID   int64
	Role     string
}

// NewIdentity creates an Identity after checking every field is present.
func NewIdentity(username string, userID int64, role string) (Identity, error) {
	id := Identity{Username: username, UserID: userID, Role: role}
	if err := id.Validate(); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// Validate reports whether all identity fields are populated.
func (i Identity) Validate() error {
	switch {
	case strings.TrimSpace(i.Username) == "":
		return oops.Code("AUTH_IDENTITY_INCOMPLETE").With("field", "username").Wrap(ErrUnauthenticated)
	case i.UserID <= 0:
		return oops.Code("AUTH_IDENTITY_INCOMPLETE").With("field", "user_id").Wrap(ErrUnauthenticated)
	case strings.TrimSpace(i.Role) == "":
		return oops.Code("AUTH_IDENTITY_INCOMPLETE").With("field", "role").Wrap(ErrUnauthenticated)
	}
	return nil
}

type identityKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
