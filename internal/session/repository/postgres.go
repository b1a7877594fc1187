package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"storefront/backend/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `id, user_id, refresh_token_hash, login_at, last_refreshed_at, expires_at, is_expired, device, ip_address`

// Create persists the session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.UserID, s.RefreshTokenHash, s.LoginAt, timeToNullTime(s.LastRefreshedAt),
		s.ExpiresAt, s.IsExpired, s.Device, s.IPAddress,
	)
	return err
}

// FindActiveByID returns the non-terminal session for id, or nil if absent or
// already flagged expired. It returns an error only for database failures.
func (r *PostgresRepository) FindActiveByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1 AND is_expired = FALSE`, id)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// ListActiveByUser returns the user's live sessions, oldest login first.
// Rows past expires_at are excluded even when not yet flagged.
func (r *PostgresRepository) ListActiveByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE user_id = $1 AND is_expired = FALSE AND expires_at > now()
		 ORDER BY login_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Expire flags the session terminal if it is still active. Returns true when a
// row transitioned; false when the session was missing or already terminal.
func (r *PostgresRepository) Expire(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET is_expired = TRUE, expires_at = now()
		 WHERE id = $1 AND is_expired = FALSE`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Rotate installs a new refresh token hash and lifetime on the active session
// in a single UPDATE. Returns ErrSessionNotFound when no active row matched.
func (r *PostgresRepository) Rotate(ctx context.Context, id, refreshTokenHash string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET refresh_token_hash = $2, last_refreshed_at = now(), expires_at = $3
		 WHERE id = $1 AND is_expired = FALSE`, id, refreshTokenHash, expiresAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var s domain.Session
	var lastRefreshed sql.NullTime
	err := row.Scan(&s.ID, &s.UserID, &s.RefreshTokenHash, &s.LoginAt, &lastRefreshed,
		&s.ExpiresAt, &s.IsExpired, &s.Device, &s.IPAddress)
	if err != nil {
		return nil, err
	}
	if lastRefreshed.Valid {
		s.LastRefreshedAt = &lastRefreshed.Time
	}
	return &s, nil
}

func timeToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
