/*-------------------------------------------------------------------------
 *
 * pgEdge Sales Analyst
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword creates a bcrypt hash of the password
// Uses bcrypt cost of 12 for strong security
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks if the provided password matches the hash.
// A malformed hash is a verification failure, never a success: bcrypt
// returns an error for hashes it cannot parse, and that error is passed
// through unchanged.
func VerifyPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// GenerateSessionToken creates a new random session token
func GenerateSessionToken() (string, error) {
	// Generate 32 bytes of random data
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}

	// Encode as base64 for easy transmission
	token := base64.URLEncoding.EncodeToString(bytes)
	return token, nil
}

// Verifier holds the stored password hash and checks submitted passwords
// against it. The hash can be swapped at runtime by the file watcher, so
// access is guarded.
type Verifier struct {
	mu   sync.RWMutex
	hash string
}

// NewVerifier creates a verifier for the given bcrypt hash
func NewVerifier(hash string) *Verifier {
	return &Verifier{hash: hash}
}

// Verify checks a submitted password against the stored hash.
// Returns nil on a match; any other condition (wrong password, empty or
// malformed stored hash) is an error.
func (v *Verifier) Verify(password string) error {
	v.mu.RLock()
	hash := v.hash
	v.mu.RUnlock()

	if hash == "" {
		return fmt.Errorf("no password hash configured")
	}
	return VerifyPassword(password, hash)
}

// SetHash replaces the stored hash
func (v *Verifier) SetHash(hash string) {
	v.mu.Lock()
	v.hash = hash
	v.mu.Unlock()
}
