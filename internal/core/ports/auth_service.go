package ports

import (
	"context"
	"time"

	"github.com/todo-app/identity-service/internal/core/domain"
)

// RegisterInput carries a new account's credentials and display metadata.
type RegisterInput struct {
	Username      string
	Password      string
	FirstName     string
	LastName      string
	FirstNameRuby string
	LastNameRuby  string
}

// LoginInput carries credentials presented at login.
type LoginInput struct {
	Username string
	Password string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*domain.AuthResult, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// PasswordHasher wraps the one-way credential hashing primitive.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	// Verify reports a mismatch as false with a nil error. An error means the
	// stored hash itself is unusable.
	Verify(plain, hash string) (bool, error)
}

// TokenService issues and verifies signed identity tokens.
type TokenService interface {
	Issue(id domain.Identity) (token string, expiresAt time.Time, err error)
	Verify(token string) (domain.Identity, error)
}

// LoginThrottle counts failed logins per username.
type LoginThrottle interface {
	Blocked(ctx context.Context, username string) (bool, error)
	RecordFailure(ctx context.Context, username string) error
	Reset(ctx context.Context, username string) error
}
