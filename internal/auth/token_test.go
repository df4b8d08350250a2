// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasklist/tasklist/internal/auth"
	"github.com/tasklist/tasklist/pkg/errutil"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTokenService(t *testing.T, clock *fakeClock) *auth.TokenService {
	t.Helper()
	svc, err := auth.NewTokenService(testSecret, "HS256", auth.WithClock(clock.Now))
	require.NoError(t, err)
	return svc
}

var alice = auth.Identity{Username: "alice", UserID: 1, Role: "user"}

func TestNewTokenService_Validation(t *testing.T) {
	t.Run("short secret", func(t *testing.T) {
		_, err := auth.NewTokenService([]byte("short"), "HS256")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_SECRET_TOO_SHORT")
	})

	for _, alg := range []string{"none", "RS256", "ES256", "", "hs256"} {
		t.Run("rejects algorithm "+alg, func(t *testing.T) {
			_, err := auth.NewTokenService(testSecret, alg)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "AUTH_UNSUPPORTED_ALGORITHM")
		})
	}

	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		t.Run("accepts "+alg, func(t *testing.T) {
			svc, err := auth.NewTokenService(testSecret, alg)
			require.NoError(t, err)
			assert.Equal(t, alg, svc.Algorithm())
		})
	}
}

func TestTokenService_RoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTokenService(t, clock)

	issued, err := svc.Issue(alice, auth.DefaultTokenTTL)
	require.NoError(t, err)
	assert.Equal(t, clock.now.Add(20*time.Minute), issued.ExpiresAt)
	assert.Len(t, strings.Split(issued.AccessToken, "."), 3)

	got, err := svc.Verify(issued.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, alice, got)
}

func TestTokenService_Expiry(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	svc := newTokenService(t, clock)

	issued, err := svc.Issue(alice, 20*time.Minute)
	require.NoError(t, err)

	clock.now = start.Add(19*time.Minute + 59*time.Second)
	_, err = svc.Verify(issued.AccessToken)
	require.NoError(t, err, "valid before ttl elapses")

	clock.now = start.Add(20 * time.Minute)
	_, err = svc.Verify(issued.AccessToken)
	require.ErrorIs(t, err, auth.ErrUnauthenticated, "invalid at expiry")

	clock.now = start.Add(time.Hour)
	_, err = svc.Verify(issued.AccessToken)
	require.ErrorIs(t, err, auth.ErrUnauthenticated, "invalid after expiry")
}

func TestTokenService_IssueRejectsBadInput(t *testing.T) {
	svc := newTokenService(t, &fakeClock{now: time.Now()})

	_, err := svc.Issue(auth.Identity{Username: "alice", Role: "user"}, time.Minute)
	require.Error(t, err)

	_, err = svc.Issue(alice, 0)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "AUTH_TOKEN_ISSUE_FAILED")
}

func TestTokenService_RejectsForeignTokens(t *testing.T) {
	now := time.Now()
	clock := &fakeClock{now: now}
	svc := newTokenService(t, clock)

	sign := func(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	full := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub":  "alice",
			"id":   1,
			"role": "user",
			"exp":  now.Add(time.Minute).Unix(),
		}
	}
	without := func(key string) jwt.MapClaims {
		c := full()
		delete(c, key)
		return c
	}

	other, err := auth.NewTokenService([]byte("ffffffffffffffffffffffffffffffff"), "HS256", auth.WithClock(clock.Now))
	require.NoError(t, err)
	otherIssued, err := other.Issue(alice, time.Minute)
	require.NoError(t, err)

	hs512, err := auth.NewTokenService(testSecret, "HS512", auth.WithClock(clock.Now))
	require.NoError(t, err)
	hs512Issued, err := hs512.Issue(alice, time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"different secret", otherIssued.AccessToken},
		{"different algorithm same secret", hs512Issued.AccessToken},
		{"alg none", sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, full())},
		{"missing sub", sign(t, jwt.SigningMethodHS256, testSecret, without("sub"))},
		{"missing id", sign(t, jwt.SigningMethodHS256, testSecret, without("id"))},
		{"missing role", sign(t, jwt.SigningMethodHS256, testSecret, without("role"))},
		{"missing exp", sign(t, jwt.SigningMethodHS256, testSecret, without("exp"))},
		{"zero id", sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
			"sub": "alice", "id": 0, "role": "user", "exp": now.Add(time.Minute).Unix(),
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, auth.ErrUnauthenticated)
			assert.Equal(t, auth.ErrUnauthenticated.Error(), err.Error())
		})
	}
}
