// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// DefaultTokenTTL is how long an issued access token stays valid.
const DefaultTokenTTL = 20 * time.Minute

// MinSecretBytes is the shortest accepted signing secret.
const MinSecretBytes = 32

// TokenType is the token_type reported to clients.
const TokenType = "Bearer"

// tokenClaims is the signed claim set: {sub, id, role, exp, iat}.
type tokenClaims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"id"`
	Role   string `json:"role"`
}

// IssuedToken is a freshly signed access token.
type IssuedToken struct {
	AccessToken string
	ExpiresAt   time.Time
}

// TokenService signs and verifies access tokens with a symmetric secret.
// It holds no per-token state.
type TokenService struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	now    func() time.Time
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService creates a TokenService. algorithm is one of HS256, HS384
// or HS512; tokens signed with any other algorithm are rejected.
func NewTokenService(secret []byte, algorithm string, opts ...TokenOption) (*TokenService, error) {
	if len(secret) < MinSecretBytes {
		return nil, oops.Code("AUTH_SECRET_TOO_SHORT").
			With("min_bytes", MinSecretBytes).
			Errorf("token secret must be at least %d bytes", MinSecretBytes)
	}

	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, oops.Code("AUTH_UNSUPPORTED_ALGORITHM").
			With("algorithm", algorithm).
			Errorf("unsupported token algorithm %q", algorithm)
	}

	s := &TokenService{
		secret: append([]byte(nil), secret...),
		method: method,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Algorithm returns the pinned signing algorithm name.
func (s *TokenService) Algorithm() string {
	return s.method.Alg()
}

// Issue signs a token for id that expires ttl from now.
func (s *TokenService) Issue(id Identity, ttl time.Duration) (IssuedToken, error) {
	if err := id.Validate(); err != nil {
		return IssuedToken{}, oops.Code("AUTH_TOKEN_ISSUE_FAILED").Wrap(err)
	}
	if ttl <= 0 {
		return IssuedToken{}, oops.Code("AUTH_TOKEN_ISSUE_FAILED").
			With("ttl", ttl.String()).
			Errorf("token ttl must be positive")
	}

	now := s.now()
	expiresAt := now.Add(ttl)
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: id.UserID,
		Role:   id.Role,
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return IssuedToken{}, oops.Code("AUTH_TOKEN_ISSUE_FAILED").Wrap(err)
	}
	return IssuedToken{AccessToken: signed, ExpiresAt: expiresAt}, nil
}

// Verify checks the token signature, algorithm and expiry, and returns the
// identity it carries. Every failure is ErrUnauthenticated.
func (s *TokenService) Verify(token string) (Identity, error) {
	if token == "" {
		return Identity{}, oops.Code("AUTH_TOKEN_INVALID").Wrap(ErrUnauthenticated)
	}

	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return Identity{}, oops.Code("AUTH_TOKEN_INVALID").Wrap(ErrUnauthenticated)
	}

	id, err := NewIdentity(claims.Subject, claims.UserID, claims.Role)
	if err != nil {
		return Identity{}, oops.Code("AUTH_TOKEN_INVALID").Wrap(ErrUnauthenticated)
	}
	return id, nil
}
