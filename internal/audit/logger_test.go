package audit

import (
	"context"
	"errors"
	"testing"

	"storefront/backend/internal/audit/domain"
)

// mockAuditRepo implements audit repository interface for tests.
type mockAuditRepo struct {
	entries   []*domain.AuditLog
	createErr error
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepo) ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*domain.AuditLog, error) {
	return nil, nil
}

func TestLogEventPersistsEntry(t *testing.T) {
	repo := &mockAuditRepo{}
	l := NewLogger(repo)

	l.LogEvent(context.Background(), "user-1", ActionLogin, "session:sess-1", "203.0.113.9", "Chrome 120 / Windows 10")

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	e := repo.entries[0]
	if e.ID == "" {
		t.Error("expected generated id")
	}
	if e.UserID != "user-1" || e.Action != ActionLogin || e.Resource != "session:sess-1" {
		t.Errorf("unexpected entry %+v", e)
	}
	if e.IP != "203.0.113.9" {
		t.Errorf("ip = %q", e.IP)
	}
	if e.CreatedAt.IsZero() {
		t.Error("expected created_at set")
	}
}

func TestLogEventDefaultsUnknownIP(t *testing.T) {
	repo := &mockAuditRepo{}
	NewLogger(repo).LogEvent(context.Background(), "user-1", ActionLogout, "session:s", "", "")
	if repo.entries[0].IP != "unknown" {
		t.Errorf("ip = %q, want unknown", repo.entries[0].IP)
	}
}

func TestLogEventSwallowsRepoError(t *testing.T) {
	repo := &mockAuditRepo{createErr: errors.New("db down")}
	// Must not panic or propagate.
	NewLogger(repo).LogEvent(context.Background(), "user-1", ActionRegister, "user:user-1", "1.2.3.4", "")
}

func TestLogEventNilSafe(t *testing.T) {
	var l *Logger
	l.LogEvent(context.Background(), "u", ActionLogin, "r", "", "")
	NewLogger(nil).LogEvent(context.Background(), "u", ActionLogin, "r", "", "")
}
