// Package auth implements credential verification and token issuance.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/moodsong/api/internal/crypto"
	"github.com/moodsong/api/internal/domain"
	"github.com/moodsong/api/internal/repository"
	"github.com/moodsong/api/internal/token"
	"github.com/moodsong/api/internal/validate"
)

var (
	// ErrMissingFields indicates an empty email or password.
	ErrMissingFields = errors.New("auth: missing fields")
	// ErrUserNotFound indicates no account exists for the email.
	ErrUserNotFound = errors.New("auth: user not found")
	// ErrInvalidPassword indicates the password did not match.
	ErrInvalidPassword = errors.New("auth: invalid password")
)

// Service handles registration, login, and token verification.
type Service struct {
	users      repository.UserRepository
	codec      *token.Codec
	logger     *slog.Logger
	bcryptCost int
}

// New constructs a Service.
func New(users repository.UserRepository, codec *token.Codec, logger *slog.Logger, bcryptCost int) Service {
	return Service{users: users, codec: codec, logger: logger, bcryptCost: bcryptCost}
}

// Register hashes the password and creates an account with the default role.
// The plaintext is discarded after hashing and never logged.
func (s Service) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if err := validate.Email(email); err != nil {
		return nil, err
	}
	hash, err := crypto.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and issues a signed token on success.
// Lookup is case-insensitive on email. Not-found and wrong-password are
// distinct outcomes, per the client contract.
func (s Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, "", ErrMissingFields
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", err
	}
	if !crypto.VerifyPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidPassword
	}
	issued, err := s.codec.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return user, issued, nil
}

// Authorize verifies a presented token and returns its claims. No store
// access happens here; the token is the sole credential.
func (s Service) Authorize(raw string) (*token.Claims, error) {
	return s.codec.Verify(raw)
}

// TokenTTL exposes the configured token validity window, used for the
// auth cookie max-age.
func (s Service) TokenTTL() time.Duration {
	return s.codec.TTL()
}
