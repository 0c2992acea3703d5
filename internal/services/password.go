package services

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// dummyPassword is hashed once so logins for unknown identifiers cost one bcrypt compare
const dummyPassword = "health-tracker-dummy-password"

// passwordHasher hashes and verifies passwords with bcrypt
type passwordHasher struct {
	cost      int
	dummyHash []byte
}

// NewPasswordHasher creates a bcrypt password hasher.
// A cost outside bcrypt's accepted range falls back to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) *passwordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte(dummyPassword), cost)
	return &passwordHasher{
		cost:      cost,
		dummyHash: dummy,
	}
}

// Hash returns a salted digest of the plaintext. Two calls never return the same digest.
func (h *passwordHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest.
// A malformed digest is a mismatch, not an error.
func (h *passwordHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// VerifyDummy burns one compare against a fixed digest and always fails
func (h *passwordHasher) VerifyDummy(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(plaintext))
}
