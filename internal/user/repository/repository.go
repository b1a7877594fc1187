package repository

import (
	"context"
	"time"

	"storefront/backend/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetCredentialsByEmail(ctx context.Context, email string) (*domain.Credentials, error)
	Create(ctx context.Context, u *domain.User, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}
