package repository

import (
	"context"
	"errors"
	"time"

	"storefront/backend/internal/session/domain"
)

// ErrSessionNotFound is returned by Rotate when no active session row matched.
var ErrSessionNotFound = errors.New("session not found")

// Repository defines persistence for sessions.
type Repository interface {
	Create(ctx context.Context, s *domain.Session) error
	FindActiveByID(ctx context.Context, id string) (*domain.Session, error)
	ListActiveByUser(ctx context.Context, userID string) ([]*domain.Session, error)
	Expire(ctx context.Context, id string) (bool, error)
	Rotate(ctx context.Context, id, refreshTokenHash string, expiresAt time.Time) error
}
