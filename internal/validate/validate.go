// Package validate checks request inputs at the service boundary.
// Persistence uses parameterized queries, so validation here is about
// rejecting junk early, not escaping.
package validate

import (
	"errors"
	"regexp"
)

var (
	ErrInvalidEmail = errors.New("validate: invalid email format")
	ErrInvalidWord  = errors.New("validate: invalid word format")
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	wordRe  = regexp.MustCompile(`[a-zA-Z]`)
)

// Email validates the basic shape of an email address.
func Email(email string) error {
	if !emailRe.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// Word requires at least one letter.
func Word(word string) error {
	if !wordRe.MatchString(word) {
		return ErrInvalidWord
	}
	return nil
}
