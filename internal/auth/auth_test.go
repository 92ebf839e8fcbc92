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
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if !strings.HasPrefix(hash, "$2a$12$") {
		t.Errorf("hash = %q, want bcrypt cost 12 prefix", hash[:7])
	}

	t.Run("matching password", func(t *testing.T) {
		if err := VerifyPassword("correct horse battery staple", hash); err != nil {
			t.Errorf("VerifyPassword() = %v, want nil for matching password", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if err := VerifyPassword("wrong password", hash); err == nil {
			t.Error("VerifyPassword() = nil, want error for wrong password")
		}
	})

	t.Run("malformed hash fails closed", func(t *testing.T) {
		for _, bad := range []string{"", "not-a-hash", "$2a$garbage"} {
			if err := VerifyPassword("anything", bad); err == nil {
				t.Errorf("VerifyPassword() with hash %q = nil, want error", bad)
			}
		}
	})
}

func TestGenerateSessionToken(t *testing.T) {
	token, err := GenerateSessionToken()
	if err != nil {
		t.Fatalf("GenerateSessionToken() error = %v", err)
	}

	// 32 bytes base64-encoded with padding
	if len(token) != 44 {
		t.Errorf("token length = %d, want 44", len(token))
	}

	other, err := GenerateSessionToken()
	if err != nil {
		t.Fatalf("GenerateSessionToken() error = %v", err)
	}
	if token == other {
		t.Error("two generated tokens are identical")
	}
}

func TestVerifier(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	t.Run("verifies against stored hash", func(t *testing.T) {
		v := NewVerifier(hash)
		if err := v.Verify("secret"); err != nil {
			t.Errorf("Verify() = %v, want nil", err)
		}
		if err := v.Verify("not the secret"); err == nil {
			t.Error("Verify() = nil for wrong password")
		}
	})

	t.Run("empty hash rejects everything", func(t *testing.T) {
		v := NewVerifier("")
		if err := v.Verify(""); err == nil {
			t.Error("Verify() = nil with no configured hash")
		}
	})

	t.Run("SetHash swaps the hash", func(t *testing.T) {
		v := NewVerifier(hash)

		newHash, err := HashPassword("rotated")
		if err != nil {
			t.Fatalf("HashPassword() error = %v", err)
		}
		v.SetHash(newHash)

		if err := v.Verify("secret"); err == nil {
			t.Error("old password still verifies after SetHash")
		}
		if err := v.Verify("rotated"); err != nil {
			t.Errorf("Verify() with new password = %v, want nil", err)
		}
	})
}
