package service

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront/backend/internal/audit"
	"storefront/backend/internal/device"
	"storefront/backend/internal/security"
	sessiondomain "storefront/backend/internal/session/domain"
	sessionrepo "storefront/backend/internal/session/repository"
	"storefront/backend/internal/telemetry"
	userdomain "storefront/backend/internal/user/domain"
)

// Sentinel errors for the auth service; handler maps them to HTTP status and error codes.
var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrSessionNotFound     = errors.New("session not found")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrWeakPassword        = errors.New("password must be at least 8 characters")
)

// AuthResult holds the outcome of Register, Login, or Refresh.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	SessionID    string
}

// RegisterParams carries the register request plus request context for audit.
type RegisterParams struct {
	Email     string
	Password  string
	Name      string
	IP        string
	UserAgent string
}

// LoginParams carries the login request plus request context for audit.
type LoginParams struct {
	Email     string
	Password  string
	IP        string
	UserAgent string
}

// RefreshParams carries the presented refresh token plus request context for audit.
type RefreshParams struct {
	RefreshToken string
	IP           string
	UserAgent    string
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	GetCredentialsByEmail(ctx context.Context, email string) (*userdomain.Credentials, error)
	Create(ctx context.Context, u *userdomain.User, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	Create(ctx context.Context, s *sessiondomain.Session) error
	FindActiveByID(ctx context.Context, id string) (*sessiondomain.Session, error)
	ListActiveByUser(ctx context.Context, userID string) ([]*sessiondomain.Session, error)
	Expire(ctx context.Context, id string) (bool, error)
	Rotate(ctx context.Context, id, refreshTokenHash string, expiresAt time.Time) error
}

// AuthService implements register, login, refresh-with-rotation, and logout
// over server-side session records.
type AuthService struct {
	userRepo          UserRepo
	sessionRepo       SessionRepo
	hasher            *security.Hasher
	tokens            *security.TokenProvider
	maxActiveSessions int
	auditLogger       audit.AuditLogger
	metrics           *telemetry.Metrics
}

// NewAuthService returns an AuthService with the given dependencies.
// auditLogger and metrics may be nil; both are best-effort side channels.
func NewAuthService(
	userRepo UserRepo,
	sessionRepo SessionRepo,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	maxActiveSessions int,
	auditLogger audit.AuditLogger,
	metrics *telemetry.Metrics,
) *AuthService {
	if maxActiveSessions < 1 {
		maxActiveSessions = 3
	}
	return &AuthService{
		userRepo:          userRepo,
		sessionRepo:       sessionRepo,
		hasher:            hasher,
		tokens:            tokens,
		maxActiveSessions: maxActiveSessions,
		auditLogger:       auditLogger,
		metrics:           metrics,
	}
}

// Register creates a user with the default role and immediately opens a first
// session, returning a token pair bound to it.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (*AuthResult, error) {
	email := strings.TrimSpace(strings.ToLower(p.Email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(p.Password); err != nil {
		return nil, err
	}
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	hashed, err := s.hasher.Hash([]byte(p.Password))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      strings.TrimSpace(p.Name),
		Roles:     userdomain.DefaultRoles,
		Status:    userdomain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user, hashed); err != nil {
		return nil, err
	}
	result, err := s.openSession(ctx, user, p.IP, p.UserAgent)
	if err != nil {
		return nil, err
	}
	s.metrics.Registration(ctx)
	s.audit(ctx, user.ID, audit.ActionRegister, "session:"+result.SessionID, p.IP, device.Describe(p.UserAgent))
	return result, nil
}

// Login authenticates with email/password, opens a session, and enforces the
// per-user active-session cap by evicting the oldest when exceeded.
func (s *AuthService) Login(ctx context.Context, p LoginParams) (*AuthResult, error) {
	email := strings.TrimSpace(strings.ToLower(p.Email))
	if email == "" || p.Password == "" {
		s.loginFailure(ctx, "", p.IP, p.UserAgent)
		return nil, ErrInvalidCredentials
	}

	// The stored hash is re-fetched and verified here even though the caller
	// may already have located the user; this is the sole credential gate.
	creds, err := s.userRepo.GetCredentialsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if creds == nil || creds.Status != userdomain.UserStatusActive ||
		!s.hasher.Verify(creds.PasswordHash, []byte(p.Password)) {
		s.loginFailure(ctx, "", p.IP, p.UserAgent)
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByID(ctx, creds.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.loginFailure(ctx, "", p.IP, p.UserAgent)
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}

	result, err := s.openSession(ctx, user, p.IP, p.UserAgent)
	if err != nil {
		return nil, err
	}

	s.enforceSessionCap(ctx, user.ID, p.IP)

	s.metrics.Login(ctx)
	s.audit(ctx, user.ID, audit.ActionLogin, "session:"+result.SessionID, p.IP, device.Describe(p.UserAgent))
	return result, nil
}

// Refresh validates the presented refresh token against the session record,
// rotates the stored token, and returns a fresh pair. The old token is dead
// the instant rotation persists; a replay fails with ErrInvalidRefreshToken.
func (s *AuthService) Refresh(ctx context.Context, p RefreshParams) (*AuthResult, error) {
	if p.RefreshToken == "" {
		s.refreshFailure(ctx, "", p.IP, p.UserAgent)
		return nil, ErrInvalidRefreshToken
	}
	claims, err := s.tokens.VerifyRefresh(p.RefreshToken)
	if err != nil {
		s.refreshFailure(ctx, "", p.IP, p.UserAgent)
		return nil, ErrInvalidRefreshToken
	}

	sess, err := s.sessionRepo.FindActiveByID(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		s.refreshFailure(ctx, claims.Subject, p.IP, p.UserAgent)
		return nil, ErrSessionNotFound
	}
	now := time.Now().UTC()
	if !sess.ExpiresAt.After(now) {
		// Lazy expiry: the row outlived its lifetime without being flagged.
		if _, err := s.sessionRepo.Expire(ctx, sess.ID); err != nil {
			log.Printf("auth: lazy expire of session %s: %v", sess.ID, err)
		}
		s.refreshFailure(ctx, sess.UserID, p.IP, p.UserAgent)
		return nil, ErrInvalidRefreshToken
	}
	if !security.RefreshTokenHashEqual(p.RefreshToken, sess.RefreshTokenHash) {
		// Rotation already replaced this token; only this call fails, other
		// sessions are untouched.
		s.refreshFailure(ctx, sess.UserID, p.IP, p.UserAgent)
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.refreshFailure(ctx, sess.UserID, p.IP, p.UserAgent)
		return nil, ErrUserNotFound
	}

	pair, err := s.tokens.IssuePair(user.ID, sess.ID, user.Email, user.Roles)
	if err != nil {
		return nil, err
	}
	newExpiry := now.Add(s.tokens.RefreshTTL())
	if err := s.sessionRepo.Rotate(ctx, sess.ID, security.HashRefreshToken(pair.RefreshToken), newExpiry); err != nil {
		if errors.Is(err, sessionrepo.ErrSessionNotFound) {
			s.refreshFailure(ctx, sess.UserID, p.IP, p.UserAgent)
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	s.metrics.Refresh(ctx)
	s.audit(ctx, user.ID, audit.ActionRefresh, "session:"+sess.ID, p.IP, device.Describe(p.UserAgent))
	return &AuthResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UserID:       user.ID,
		SessionID:    sess.ID,
	}, nil
}

// Logout expires the session. Returns ErrSessionNotFound when no active row
// matched; the caller clears client cookies in either case.
func (s *AuthService) Logout(ctx context.Context, userID, sessionID, ip string) error {
	expired, err := s.sessionRepo.Expire(ctx, sessionID)
	if err != nil {
		return err
	}
	if !expired {
		return ErrSessionNotFound
	}
	s.metrics.Logout(ctx)
	s.audit(ctx, userID, audit.ActionLogout, "session:"+sessionID, ip, "")
	return nil
}

// openSession creates one ACTIVE session for the user and issues the bound token pair.
func (s *AuthService) openSession(ctx context.Context, user *userdomain.User, ip, userAgent string) (*AuthResult, error) {
	sessionID := uuid.New().String()
	pair, err := s.tokens.IssuePair(user.ID, sessionID, user.Email, user.Roles)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &sessiondomain.Session{
		ID:               sessionID,
		UserID:           user.ID,
		RefreshTokenHash: security.HashRefreshToken(pair.RefreshToken),
		LoginAt:          now,
		ExpiresAt:        now.Add(s.tokens.RefreshTTL()),
		Device:           device.Describe(userAgent),
		IPAddress:        ip,
	}
	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UserID:       user.ID,
		SessionID:    sessionID,
	}, nil
}

// enforceSessionCap runs after session creation: when the user's active count
// exceeds the cap, the single oldest session by loginAt is expired. Best-effort
// and not transactional with the creation; a brief overshoot self-corrects on
// the next login.
func (s *AuthService) enforceSessionCap(ctx context.Context, userID, ip string) {
	active, err := s.sessionRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		log.Printf("auth: list active sessions for %s: %v", userID, err)
		return
	}
	if len(active) <= s.maxActiveSessions {
		return
	}
	oldest := active[0]
	expired, err := s.sessionRepo.Expire(ctx, oldest.ID)
	if err != nil {
		log.Printf("auth: evict session %s: %v", oldest.ID, err)
		return
	}
	if expired {
		s.metrics.SessionEviction(ctx)
		s.audit(ctx, userID, audit.ActionSessionEvicted, "session:"+oldest.ID, ip, oldest.Device)
	}
}

func (s *AuthService) loginFailure(ctx context.Context, userID, ip, userAgent string) {
	s.metrics.LoginFailure(ctx)
	s.audit(ctx, userID, audit.ActionLoginFailure, "login", ip, device.Describe(userAgent))
}

func (s *AuthService) refreshFailure(ctx context.Context, userID, ip, userAgent string) {
	s.metrics.RefreshFailure(ctx)
	s.audit(ctx, userID, audit.ActionRefreshFailure, "refresh", ip, device.Describe(userAgent))
}

func (s *AuthService) audit(ctx context.Context, userID, action, resource, ip, metadata string) {
	if s.auditLogger == nil {
		return
	}
	s.auditLogger.LogEvent(ctx, userID, action, resource, ip, metadata)
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" || !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	return nil
}
