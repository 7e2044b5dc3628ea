package token

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	codec := NewCodec([]byte("super-secret"), time.Hour)
	raw, err := codec.Issue("user-123", "user@example.com", "user")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := codec.Verify(raw)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Fatalf("user id mismatch: got %q", claims.UserID)
	}
	if claims.Email != "user@example.com" {
		t.Fatalf("email mismatch: got %q", claims.Email)
	}
	if claims.Role != "user" {
		t.Fatalf("role mismatch: got %q", claims.Role)
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(time.Now()) {
		t.Fatalf("expected future expiry, got %v", claims.ExpiresAt)
	}
	if claims.IssuedAt == nil {
		t.Fatalf("expected issued-at to be set")
	}
}

func TestVerifyIsIdempotent(t *testing.T) {
	t.Parallel()

	codec := NewCodec([]byte("super-secret"), time.Hour)
	raw, err := codec.Issue("user-123", "user@example.com", "user")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	first, err := codec.Verify(raw)
	if err != nil {
		t.Fatalf("first Verify error: %v", err)
	}
	second, err := codec.Verify(raw)
	if err != nil {
		t.Fatalf("second Verify error: %v", err)
	}
	if first.UserID != second.UserID || first.Email != second.Email || first.Role != second.Role {
		t.Fatalf("repeated verification changed claims: %+v vs %+v", first, second)
	}
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()

	codec := NewCodec([]byte("super-secret"), -2*time.Second)
	raw, err := codec.Issue("user-123", "user@example.com", "user")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := codec.Verify(raw); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewCodec([]byte("secret-a"), time.Hour)
	raw, err := issuer.Issue("user-123", "user@example.com", "user")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	verifier := NewCodec([]byte("secret-b"), time.Hour)
	if _, err := verifier.Verify(raw); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyTampered(t *testing.T) {
	t.Parallel()

	codec := NewCodec([]byte("super-secret"), time.Hour)
	raw, err := codec.Issue("user-123", "user@example.com", "user")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", raw)
	}

	flip := func(s string) string {
		b := []byte(s)
		if b[0] == 'A' {
			b[0] = 'B'
		} else {
			b[0] = 'A'
		}
		return string(b)
	}

	tamperedClaims := parts[0] + "." + flip(parts[1]) + "." + parts[2]
	if _, err := codec.Verify(tamperedClaims); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected rejection of tampered claims, got %v", err)
	}

	tamperedSig := parts[0] + "." + parts[1] + "." + flip(parts[2])
	if _, err := codec.Verify(tamperedSig); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected rejection of tampered signature, got %v", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	t.Parallel()

	codec := NewCodec([]byte("super-secret"), time.Hour)
	for _, raw := range []string{"", "   ", "not-a-token", "a.b", "a.b.c.d"} {
		if _, err := codec.Verify(raw); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("expected ErrTokenInvalid for %q, got %v", raw, err)
		}
	}
}
