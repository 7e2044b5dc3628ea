// Package crypto wraps password hashing for the auth service.
package crypto

import "golang.org/x/crypto/bcrypt"

// DefaultCost matches the salt rounds used across deployments.
const DefaultCost = 12

// HashPassword produces a salted bcrypt hash of the plaintext.
func HashPassword(plaintext string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches the stored hash.
// A mismatch or malformed hash reads as false, never an error.
func VerifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
