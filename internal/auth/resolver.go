// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package auth

import (
	"strings"

	"github.com/samber/oops"
)

// TokenVerifier verifies a raw bearer credential.
type TokenVerifier interface {
	Verify(token string) (Identity, error)
}

// Resolver resolves the caller identity from a request's Authorization header.
// It keeps no state between requests.
type Resolver struct {
	tokens TokenVerifier
}

// NewResolver creates a Resolver backed by tokens.
func NewResolver(tokens TokenVerifier) (*Resolver, error) {
	if tokens == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("token verifier is required")
	}
	return &Resolver{tokens: tokens}, nil
}

// Resolve returns the identity for an Authorization header value.
// A missing scheme, empty token or failed verification is ErrUnauthenticated.
func (r *Resolver) Resolve(authorization string) (Identity, error) {
	token := BearerToken(authorization)
	if token == "" {
		return Identity{}, oops.Code("AUTH_MISSING_BEARER").Wrap(ErrUnauthenticated)
	}
	return r.tokens.Verify(token)
}

// BearerToken extracts the credential from "Bearer <token>".
// The scheme is matched case-insensitively; anything else yields "".
func BearerToken(authorization string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
