// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt will accept.
const MaxPasswordBytes = 72

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = errors.New("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted one-way hash of the password.
	Hash(password string) (string, error)

	// Verify reports whether password matches hash.
	// A malformed or unsupported hash is a mismatch, never an error.
	Verify(password, hash string) bool

	// NeedsUpgrade returns true if hash should be replaced by a fresh Hash.
	NeedsUpgrade(hash string) bool
}

// BcryptHasher implements PasswordHasher using bcrypt.
// It also verifies argon2id PHC hashes imported from older deployments and
// reports them as needing an upgrade.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher with the given cost.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, oops.Code("AUTH_INVALID_HASH_COST").
			With("cost", cost).
			Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

// Cost returns the configured bcrypt cost.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash produces a bcrypt hash of the password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", oops.Code("AUTH_EMPTY_PASSWORD").Wrap(ErrEmptyPassword)
	}
	if len(password) > MaxPasswordBytes {
		return "", oops.Code("AUTH_PASSWORD_TOO_LONG").
			With("max_bytes", MaxPasswordBytes).
			Errorf("password must be at most %d bytes", MaxPasswordBytes)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}
	return string(hash), nil
}

// Verify checks if the password matches the hash.
// bcrypt ignores input past MaxPasswordBytes, so longer passwords never
// match a bcrypt hash.
func (h *BcryptHasher) Verify(password, hash string) bool {
	switch {
	case isBcrypt(hash):
		if len(password) > MaxPasswordBytes {
			return false
		}
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	case strings.HasPrefix(hash, "$argon2id$"):
		ok, err := verifyArgon2id(password, hash)
		return err == nil && ok
	default:
		return false
	}
}

// NeedsUpgrade returns true for non-bcrypt hashes and for bcrypt hashes
// whose cost differs from the configured one.
func (h *BcryptHasher) NeedsUpgrade(hash string) bool {
	if !isBcrypt(hash) {
		return true
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost != h.cost
}

// recognizedHash reports whether hash has a format Verify can check.
func recognizedHash(hash string) bool {
	return isBcrypt(hash) || strings.HasPrefix(hash, "$argon2id$")
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}

// verifyArgon2id checks a PHC-formatted argon2id hash:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func verifyArgon2id(password, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if version != argon2.Version {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported argon2 version %d", version)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if threads == 0 || threads > 255 || time == 0 || memory == 0 || memory > 1<<20 {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("invalid argon2 parameters")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if len(expected) == 0 || len(expected) > 1024 {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash key length: %d", len(expected))
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
