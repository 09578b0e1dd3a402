package ports

import (
	"context"

	"github.com/todo-app/identity-service/internal/core/domain"
)

// UserRepository is the user store consumed by the auth core.
// Soft-deleted users are never returned by the lookups.
type UserRepository interface {
	// FindByUsername returns domain.ErrUserNotFound when no active user matches.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// FindByID returns domain.ErrUserNotFound when no active user matches.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Create assigns ID and timestamps. A username already held by an active
	// user yields domain.ErrDuplicateUsername.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}
