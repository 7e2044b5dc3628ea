package crypto

import (
	"strings"
	"testing"
)

func TestHashAndVerify(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("Secure123!", DefaultCost)
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if strings.Contains(hash, "Secure123!") {
		t.Fatalf("hash leaks plaintext")
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Fatalf("expected bcrypt self-describing hash, got %q", hash)
	}
	if !VerifyPassword("Secure123!", hash) {
		t.Fatalf("expected matching password to verify")
	}
}

func TestVerifyMismatch(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("Secure123!", DefaultCost)
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if VerifyPassword("wrong-password", hash) {
		t.Fatalf("expected mismatch to read false")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	t.Parallel()

	if VerifyPassword("anything", "not-a-bcrypt-hash") {
		t.Fatalf("expected malformed hash to read false")
	}
	if VerifyPassword("anything", "") {
		t.Fatalf("expected empty hash to read false")
	}
}

func TestHashOutOfRangeCostFallsBack(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("Secure123!", 99)
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if !VerifyPassword("Secure123!", hash) {
		t.Fatalf("expected fallback-cost hash to verify")
	}
}
