package auth

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"log/slog"

	"github.com/moodsong/api/internal/crypto"
	"github.com/moodsong/api/internal/domain"
	"github.com/moodsong/api/internal/repository"
	"github.com/moodsong/api/internal/token"
	"github.com/moodsong/api/internal/validate"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCodec() *token.Codec {
	return token.NewCodec([]byte("test-secret"), time.Hour)
}

type userRepoMock struct {
	createFunc     func(context.Context, *domain.User) error
	getByEmailFunc func(context.Context, string) (*domain.User, error)
	getByIDFunc    func(context.Context, string) (*domain.User, error)
}

func (m userRepoMock) CreateUser(ctx context.Context, user *domain.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m userRepoMock) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, repository.ErrNotFound
}

func (m userRepoMock) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func TestRegisterHashesPasswordAndDefaultsRole(t *testing.T) {
	var stored *domain.User
	repo := userRepoMock{
		createFunc: func(_ context.Context, user *domain.User) error {
			stored = user
			return nil
		},
	}
	svc := New(repo, newCodec(), newLogger(), crypto.DefaultCost)

	user, err := svc.Register(context.Background(), "user@example.com", "Secure123!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil {
		t.Fatalf("expected user to be persisted")
	}
	if user.ID == "" {
		t.Fatalf("expected generated id")
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected default role, got %q", user.Role)
	}
	if stored.PasswordHash == "Secure123!" || strings.Contains(stored.PasswordHash, "Secure123!") {
		t.Fatalf("plaintext stored instead of hash")
	}
	if !crypto.VerifyPassword("Secure123!", stored.PasswordHash) {
		t.Fatalf("stored hash does not verify against the password")
	}
}

func TestRegisterMissingFields(t *testing.T) {
	svc := New(userRepoMock{}, newCodec(), newLogger(), crypto.DefaultCost)

	if _, err := svc.Register(context.Background(), "", "Secure123!"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "user@example.com", ""); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestRegisterInvalidEmail(t *testing.T) {
	svc := New(userRepoMock{}, newCodec(), newLogger(), crypto.DefaultCost)

	if _, err := svc.Register(context.Background(), "not-an-email", "Secure123!"); !errors.Is(err, validate.ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestRegisterStoreFailure(t *testing.T) {
	storeErr := errors.New("insert failed")
	repo := userRepoMock{
		createFunc: func(context.Context, *domain.User) error { return storeErr },
	}
	svc := New(repo, newCodec(), newLogger(), crypto.DefaultCost)

	if _, err := svc.Register(context.Background(), "user@example.com", "Secure123!"); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
}

func TestLoginSuccessIssuesVerifiableToken(t *testing.T) {
	hash, err := crypto.HashPassword("Secure123!", crypto.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	repo := userRepoMock{
		getByEmailFunc: func(_ context.Context, email string) (*domain.User, error) {
			if email != "user@example.com" {
				t.Fatalf("unexpected email lookup: %s", email)
			}
			return &domain.User{ID: "user-123", Email: email, PasswordHash: hash, Role: domain.RoleUser}, nil
		},
	}
	codec := newCodec()
	svc := New(repo, codec, newLogger(), crypto.DefaultCost)

	user, issued, err := svc.Login(context.Background(), "user@example.com", "Secure123!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-123" {
		t.Fatalf("unexpected user id: %s", user.ID)
	}

	claims, err := codec.Verify(issued)
	if err != nil {
		t.Fatalf("issued token failed verification: %v", err)
	}
	if claims.UserID != "user-123" || claims.Email != "user@example.com" || claims.Role != domain.RoleUser {
		t.Fatalf("token claims do not match identity: %+v", claims)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := crypto.HashPassword("Secure123!", crypto.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	repo := userRepoMock{
		getByEmailFunc: func(_ context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: "user-123", Email: email, PasswordHash: hash, Role: domain.RoleUser}, nil
		},
	}
	svc := New(repo, newCodec(), newLogger(), crypto.DefaultCost)

	_, _, err = svc.Login(context.Background(), "user@example.com", "wrong-password")
	if !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := New(userRepoMock{}, newCodec(), newLogger(), crypto.DefaultCost)

	_, _, err := svc.Login(context.Background(), "missing@example.com", "anything")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestLoginStoreFailureIsNotUserNotFound(t *testing.T) {
	storeErr := errors.New("connection reset")
	repo := userRepoMock{
		getByEmailFunc: func(context.Context, string) (*domain.User, error) { return nil, storeErr },
	}
	svc := New(repo, newCodec(), newLogger(), crypto.DefaultCost)

	_, _, err := svc.Login(context.Background(), "user@example.com", "Secure123!")
	if errors.Is(err, ErrUserNotFound) {
		t.Fatalf("store failure must not read as user-not-found")
	}
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
}

func TestAuthorizeRejectsGarbage(t *testing.T) {
	svc := New(userRepoMock{}, newCodec(), newLogger(), crypto.DefaultCost)

	if _, err := svc.Authorize("not-a-token"); !errors.Is(err, token.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
