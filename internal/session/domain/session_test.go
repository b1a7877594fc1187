package domain

import (
	"testing"
	"time"
)

func TestSessionActive(t *testing.T) {
	now := time.Now()
	s := &Session{ExpiresAt: now.Add(time.Hour)}
	if !s.Active(now) {
		t.Error("unexpired session should be active")
	}
	s.IsExpired = true
	if s.Active(now) {
		t.Error("flagged session should be inactive")
	}
	past := &Session{ExpiresAt: now.Add(-time.Minute)}
	if past.Active(now) {
		t.Error("session past expires_at should be inactive")
	}
}
