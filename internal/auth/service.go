// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/tasklist/tasklist/pkg/errutil"
)

// ServiceConfig holds the policy knobs of a Service.
type ServiceConfig struct {
	// TokenTTL is the lifetime of issued access tokens. Zero means DefaultTokenTTL.
	TokenTTL time.Duration

	// MinPasswordLength is the shortest accepted password.
	// Zero means DefaultMinPasswordLength.
	MinPasswordLength int

	// Logger receives login and upgrade diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// Service provides registration, login and account operations.
type Service struct {
	users  UserRepository
	hasher PasswordHasher
	tokens *TokenService
	ttl    time.Duration
	minPw  int
	logger *slog.Logger

	dummyMu   sync.Mutex
	dummyHash string
}

// NewService creates a new Service.
func NewService(users UserRepository, hasher PasswordHasher, tokens *TokenService, cfg ServiceConfig) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("token service is required")
	}
	if cfg.TokenTTL < 0 || cfg.MinPasswordLength < 0 {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("token ttl and minimum password length must not be negative")
	}

	s := &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		ttl:    cfg.TokenTTL,
		minPw:  cfg.MinPasswordLength,
		logger: cfg.Logger,
	}
	if s.ttl == 0 {
		s.ttl = DefaultTokenTTL
	}
	if s.minPw == 0 {
		s.minPw = DefaultMinPasswordLength
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// TokenTTL returns the lifetime of tokens issued by Login.
func (s *Service) TokenTTL() time.Duration {
	return s.ttl
}

// Register validates reg, hashes its password and stores a new active user.
// The returned user still carries the hash; callers must not expose it.
func (s *Service) Register(ctx context.Context, reg Registration) (*User, error) {
	reg = reg.normalize()

	var v errutil.ValidationError
	reg.validate(&v, s.minPw)
	if err := v.Err(); err != nil {
		return nil, oops.Code("AUTH_REGISTRATION_INVALID").Wrap(err)
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user := &User{
		Username:     reg.Username,
		Email:        reg.Email,
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		Role:         reg.Role,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create user").
			With("username", reg.Username).
			Wrap(err)
	}
	return user, nil
}

// Import stores an active user whose password was hashed elsewhere, as when
// seeding accounts from an older deployment. The password itself is not
// validated; the hash must be one Verify understands.
func (s *Service) Import(ctx context.Context, reg Registration, passwordHash string) (*User, error) {
	reg = reg.normalize()

	var v errutil.ValidationError
	if msg := usernameProblem(reg.Username); msg != "" {
		v.Add("username", msg)
	}
	if reg.Email == "" || !strings.Contains(reg.Email, "@") {
		v.Add("email", "must be a valid email address")
	}
	if !recognizedHash(passwordHash) {
		v.Add("password_hash", "must be a bcrypt or argon2id hash")
	}
	if err := v.Err(); err != nil {
		return nil, oops.Code("AUTH_REGISTRATION_INVALID").Wrap(err)
	}

	user := &User{
		Username:     reg.Username,
		Email:        reg.Email,
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		Role:         reg.Role,
		PasswordHash: passwordHash,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "import user").
			With("username", reg.Username).
			Wrap(err)
	}
	return user, nil
}

// Login authenticates username and password and issues an access token.
// Unknown users, wrong passwords and inactive accounts all yield
// ErrInvalidCredentials, and unknown users still pay for a hash verification.
func (s *Service) Login(ctx context.Context, username, password string) (IssuedToken, error) {
	user, lookupErr := s.users.GetByUsername(ctx, username)

	var targetHash string
	userExists := false
	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return IssuedToken{}, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get user by username").
				Wrap(lookupErr)
		}
		targetHash = s.timingHash(ctx)
		if targetHash == "" {
			// Pay for a hash anyway so the miss is not measurably faster.
			_, _ = s.hasher.Hash(timingFallbackPassword) //nolint:errcheck // result unused
		}
	} else {
		targetHash = user.PasswordHash
		userExists = true
	}

	valid := s.hasher.Verify(password, targetHash)

	switch {
	case !userExists:
		s.logger.WarnContext(ctx, "login failed", "username", username, "reason", "unknown user")
		return IssuedToken{}, invalidCredentials()
	case !valid:
		s.logger.WarnContext(ctx, "login failed", "username", username, "reason", "wrong password")
		return IssuedToken{}, invalidCredentials()
	case !user.IsActive:
		s.logger.WarnContext(ctx, "login failed", "username", username, "reason", "inactive")
		return IssuedToken{}, invalidCredentials()
	}

	s.upgradeHash(ctx, user, password)

	token, err := s.tokens.Issue(user.Identity(), s.ttl)
	if err != nil {
		return IssuedToken{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}
	return token, nil
}

// ChangePassword replaces the caller's password after confirming the current one.
func (s *Service) ChangePassword(ctx context.Context, who Identity, current, next string) error {
	if err := ValidatePassword("new_password", next, s.minPw); err != nil {
		return oops.Code("AUTH_PASSWORD_INVALID").Wrap(err)
	}

	user, err := s.users.GetByID(ctx, who.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalidCredentials()
		}
		return oops.Code("AUTH_PASSWORD_CHANGE_FAILED").
			With("operation", "get user").
			With("user_id", who.UserID).
			Wrap(err)
	}

	if !s.hasher.Verify(current, user.PasswordHash) {
		s.logger.WarnContext(ctx, "password change rejected", "user_id", who.UserID, "reason", "wrong password")
		return invalidCredentials()
	}
	if !user.IsActive {
		s.logger.WarnContext(ctx, "password change rejected", "user_id", who.UserID, "reason", "inactive")
		return invalidCredentials()
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return oops.Code("AUTH_PASSWORD_CHANGE_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalidCredentials()
		}
		return oops.Code("AUTH_PASSWORD_CHANGE_FAILED").
			With("operation", "update password").
			With("user_id", user.ID).
			Wrap(err)
	}
	return nil
}

// CurrentUser loads the account behind who. A token whose user has since
// disappeared or been deactivated is ErrUnauthenticated.
func (s *Service) CurrentUser(ctx context.Context, who Identity) (*User, error) {
	user, err := s.users.GetByID(ctx, who.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("AUTH_USER_GONE").
				With("user_id", who.UserID).
				Wrap(ErrUnauthenticated)
		}
		return nil, oops.Code("AUTH_CURRENT_USER_FAILED").
			With("user_id", who.UserID).
			Wrap(err)
	}
	if !user.IsActive {
		return nil, oops.Code("AUTH_USER_INACTIVE").
			With("user_id", who.UserID).
			Wrap(ErrUnauthenticated)
	}
	return user, nil
}

// upgradeHash rehashes password when the stored hash is outdated.
// Failures are logged; login succeeds regardless.
func (s *Service) upgradeHash(ctx context.Context, user *User, password string) {
	if !s.hasher.NeedsUpgrade(user.PasswordHash) {
		return
	}
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.users.UpdatePassword(ctx, user.ID, hash)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "password hash upgrade failed", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = hash
}

// timingFallbackPassword is hashed when no timing hash is available.
const timingFallbackPassword = "tasklist-timing-equalizer"

// timingHash returns a real hash of a random secret so a lookup miss costs
// the same verification work as a wrong password. The hash is cached once
// computed; a failure is logged and retried on the next miss.
func (s *Service) timingHash(ctx context.Context) string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()
	if s.dummyHash != "" {
		return s.dummyHash
	}

	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		s.logger.ErrorContext(ctx, "timing hash unavailable", "operation", "read random secret", "error", err)
		return ""
	}
	hash, err := s.hasher.Hash(base64.RawStdEncoding.EncodeToString(buf))
	if err != nil {
		s.logger.ErrorContext(ctx, "timing hash unavailable", "operation", "hash random secret", "error", err)
		return ""
	}
	s.dummyHash = hash
	return hash
}

func invalidCredentials() error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
}
