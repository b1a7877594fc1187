package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront/backend/internal/security"
	sessiondomain "storefront/backend/internal/session/domain"
	sessionrepo "storefront/backend/internal/session/repository"
	userdomain "storefront/backend/internal/user/domain"
)

type memUserRepo struct {
	mu     sync.Mutex
	byID   map[string]*userdomain.User
	hashes map[string]string // user id -> password hash
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*userdomain.User{}, hashes: map[string]string{}}
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) GetCredentialsByEmail(ctx context.Context, email string) (*userdomain.Credentials, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			return &userdomain.Credentials{UserID: u.ID, PasswordHash: r.hashes[u.ID], Status: u.Status}, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Create(ctx context.Context, u *userdomain.User, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u2 := *u
	r.byID[u.ID] = &u2
	r.hashes[u.ID] = passwordHash
	return nil
}

func (r *memUserRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (r *memUserRepo) delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
}

type memSessionRepo struct {
	mu sync.Mutex
	m  map[string]*sessiondomain.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{m: map[string]*sessiondomain.Session{}}
}

func (r *memSessionRepo) Create(ctx context.Context, s *sessiondomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s2 := *s
	r.m[s.ID] = &s2
	return nil
}

func (r *memSessionRepo) FindActiveByID(ctx context.Context, id string) (*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.m[id]
	if !ok || s.IsExpired {
		return nil, nil
	}
	s2 := *s
	return &s2, nil
}

func (r *memSessionRepo) ListActiveByUser(ctx context.Context, userID string) ([]*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	var out []*sessiondomain.Session
	for _, s := range r.m {
		if s.UserID == userID && s.Active(now) {
			s2 := *s
			out = append(out, &s2)
		}
	}
	// loginAt ascending
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].LoginAt.Before(out[i].LoginAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (r *memSessionRepo) Expire(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.m[id]
	if !ok || s.IsExpired {
		return false, nil
	}
	s.IsExpired = true
	s.ExpiresAt = time.Now()
	return true, nil
}

func (r *memSessionRepo) Rotate(ctx context.Context, id, refreshTokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.m[id]
	if !ok || s.IsExpired {
		return sessionrepo.ErrSessionNotFound
	}
	now := time.Now()
	s.RefreshTokenHash = refreshTokenHash
	s.LastRefreshedAt = &now
	s.ExpiresAt = expiresAt
	return nil
}

func (r *memSessionRepo) get(id string) *sessiondomain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok {
		s2 := *s
		return &s2
	}
	return nil
}

func newTestService(t *testing.T) (*AuthService, *memUserRepo, *memSessionRepo) {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("test token provider: %v", err)
	}
	users := newMemUserRepo()
	sessions := newMemSessionRepo()
	svc := NewAuthService(users, sessions, security.NewHasher(), tokens, 3, nil, nil)
	return svc, users, sessions
}

const (
	testEmail    = "ada@example.com"
	testPassword = "correct horse battery"
	testUA       = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
)

func register(t *testing.T, svc *AuthService) *AuthResult {
	t.Helper()
	res, err := svc.Register(context.Background(), RegisterParams{
		Email: testEmail, Password: testPassword, Name: "Ada", IP: "203.0.113.9", UserAgent: testUA,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return res
}

func TestRegisterCreatesSessionBoundToTokens(t *testing.T) {
	svc, _, sessions := newTestService(t)
	res := register(t, svc)

	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatal("expected issued token pair")
	}
	sess := sessions.get(res.SessionID)
	if sess == nil {
		t.Fatal("expected session row")
	}
	if sess.IsExpired {
		t.Error("new session must be active")
	}
	if !security.RefreshTokenHashEqual(res.RefreshToken, sess.RefreshTokenHash) {
		t.Error("stored hash does not match the issued refresh token")
	}
	if sess.Device == "" {
		t.Error("expected device descriptor from user agent")
	}
	if sess.IPAddress != "203.0.113.9" {
		t.Errorf("ip = %q", sess.IPAddress)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc)

	_, err := svc.Register(context.Background(), RegisterParams{
		Email: "ADA@example.com", Password: testPassword, Name: "Ada Again",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.Register(context.Background(), RegisterParams{Email: "not-an-email", Password: testPassword, Name: "X"}); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("err = %v, want ErrInvalidEmail", err)
	}
	if _, err := svc.Register(context.Background(), RegisterParams{Email: "ok@example.com", Password: "short", Name: "X"}); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("err = %v, want ErrWeakPassword", err)
	}
}

func TestLoginWrongPasswordNoEmailLeak(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc)

	_, errKnown := svc.Login(context.Background(), LoginParams{Email: testEmail, Password: "wrong password!"})
	_, errUnknown := svc.Login(context.Background(), LoginParams{Email: "nobody@example.com", Password: "wrong password!"})
	if !errors.Is(errKnown, ErrInvalidCredentials) {
		t.Errorf("known email err = %v, want ErrInvalidCredentials", errKnown)
	}
	if !errors.Is(errUnknown, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v, want ErrInvalidCredentials", errUnknown)
	}
}

func TestLoginRejectsDisabledUser(t *testing.T) {
	svc, users, _ := newTestService(t)
	res := register(t, svc)
	users.byID[res.UserID].Status = userdomain.UserStatusDisabled

	_, err := svc.Login(context.Background(), LoginParams{Email: testEmail, Password: testPassword})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginUpdatesLastLogin(t *testing.T) {
	svc, users, _ := newTestService(t)
	res := register(t, svc)

	if _, err := svc.Login(context.Background(), LoginParams{Email: testEmail, Password: testPassword, UserAgent: testUA}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	u, _ := users.GetByID(context.Background(), res.UserID)
	if u.LastLoginAt == nil {
		t.Error("expected last_login_at set")
	}
}

func TestFourLoginsEvictOldest(t *testing.T) {
	svc, _, sessions := newTestService(t)
	first := register(t, svc)

	// Registration opened session #1; three more logins bring the total to 4.
	var ids []string
	ids = append(ids, first.SessionID)
	for i := 0; i < 3; i++ {
		time.Sleep(2 * time.Millisecond) // distinct loginAt ordering
		res, err := svc.Login(context.Background(), LoginParams{Email: testEmail, Password: testPassword, UserAgent: testUA})
		if err != nil {
			t.Fatalf("Login %d: %v", i, err)
		}
		ids = append(ids, res.SessionID)
	}

	active, err := sessions.ListActiveByUser(context.Background(), first.UserID)
	if err != nil {
		t.Fatalf("ListActiveByUser: %v", err)
	}
	if len(active) != 3 {
		t.Fatalf("active sessions = %d, want 3", len(active))
	}
	oldest := sessions.get(ids[0])
	if !oldest.IsExpired {
		t.Error("session from the first login must be expired")
	}
	for _, id := range ids[1:] {
		if sessions.get(id).IsExpired {
			t.Errorf("session %s unexpectedly expired", id)
		}
	}
}

func TestRefreshRotatesAndOldTokenDies(t *testing.T) {
	svc, _, sessions := newTestService(t)
	res := register(t, svc)
	oldToken := res.RefreshToken

	renewed, err := svc.Refresh(context.Background(), RefreshParams{RefreshToken: oldToken})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if renewed.RefreshToken == oldToken {
		t.Fatal("rotation must produce a new refresh token")
	}
	if renewed.SessionID != res.SessionID {
		t.Errorf("rotation must stay on session %s, got %s", res.SessionID, renewed.SessionID)
	}
	sess := sessions.get(res.SessionID)
	if sess.LastRefreshedAt == nil {
		t.Error("expected last_refreshed_at set")
	}
	if !security.RefreshTokenHashEqual(renewed.RefreshToken, sess.RefreshTokenHash) {
		t.Error("stored hash does not match the rotated token")
	}

	// Replay of the pre-rotation token must fail; the session itself stays live.
	if _, err := svc.Refresh(context.Background(), RefreshParams{RefreshToken: oldToken}); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("replay err = %v, want ErrInvalidRefreshToken", err)
	}
	if sessions.get(res.SessionID).IsExpired {
		t.Error("failed replay must not kill the session")
	}

	// The rotated token still works.
	if _, err := svc.Refresh(context.Background(), RefreshParams{RefreshToken: renewed.RefreshToken}); err != nil {
		t.Errorf("rotated token refresh: %v", err)
	}
}

func TestRefreshAfterLogoutIsSessionNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	res := register(t, svc)

	if err := svc.Logout(context.Background(), res.UserID, res.SessionID, ""); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), RefreshParams{RefreshToken: res.RefreshToken}); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestRefreshLapsedSessionIsInvalidToken(t *testing.T) {
	svc, _, sessions := newTestService(t)
	res := register(t, svc)

	// Age the row past its lifetime without flagging it.
	sessions.mu.Lock()
	sessions.m[res.SessionID].ExpiresAt = time.Now().Add(-time.Minute)
	sessions.mu.Unlock()

	if _, err := svc.Refresh(context.Background(), RefreshParams{RefreshToken: res.RefreshToken}); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("err = %v, want ErrInvalidRefreshToken", err)
	}
	// Lazy expiry flags the row on the failed read.
	if !sessions.get(res.SessionID).IsExpired {
		t.Error("lapsed session should be flagged on read")
	}
}

func TestRefreshMissingUser(t *testing.T) {
	svc, users, _ := newTestService(t)
	res := register(t, svc)
	users.delete(res.UserID)

	if _, err := svc.Refresh(context.Background(), RefreshParams{RefreshToken: res.RefreshToken}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestRefreshGarbageToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	for _, tok := range []string{"", "garbage"} {
		if _, err := svc.Refresh(context.Background(), RefreshParams{RefreshToken: tok}); !errors.Is(err, ErrInvalidRefreshToken) {
			t.Errorf("Refresh(%q) err = %v, want ErrInvalidRefreshToken", tok, err)
		}
	}
}

func TestLogoutTwice(t *testing.T) {
	svc, _, _ := newTestService(t)
	res := register(t, svc)

	if err := svc.Logout(context.Background(), res.UserID, res.SessionID, ""); err != nil {
		t.Fatalf("first Logout: %v", err)
	}
	if err := svc.Logout(context.Background(), res.UserID, res.SessionID, ""); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Logout err = %v, want ErrSessionNotFound", err)
	}
}

func TestLogoutUnknownSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	if err := svc.Logout(context.Background(), "u", "no-such-session", ""); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}
