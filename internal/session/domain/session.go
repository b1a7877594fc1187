package domain

import "time"

// Session is one authenticated login on one device. Sessions are never
// physically deleted; terminal sessions are flagged is_expired and kept for audit.
type Session struct {
	ID               string
	UserID           string
	RefreshTokenHash string // SHA-256 hex of the current refresh token, rotated on every refresh
	LoginAt          time.Time
	LastRefreshedAt  *time.Time // nil until the first refresh
	ExpiresAt        time.Time
	IsExpired        bool
	Device           string // human-readable descriptor parsed from the User-Agent
	IPAddress        string
}

// Active reports whether the session can still be used at the given instant.
func (s *Session) Active(now time.Time) bool {
	return !s.IsExpired && s.ExpiresAt.After(now)
}
