package middleware

import (
	"context"
	"testing"
)

func TestIdentityRoundTrip(t *testing.T) {
	ctx := WithIdentity(context.Background(), "user-1", "sess-1")
	if v, ok := GetUserID(ctx); !ok || v != "user-1" {
		t.Errorf("GetUserID = %q, %v", v, ok)
	}
	if v, ok := GetSessionID(ctx); !ok || v != "sess-1" {
		t.Errorf("GetSessionID = %q, %v", v, ok)
	}
}

func TestIdentityAbsent(t *testing.T) {
	if _, ok := GetUserID(context.Background()); ok {
		t.Error("GetUserID on empty context should report absent")
	}
	if _, ok := GetSessionID(context.Background()); ok {
		t.Error("GetSessionID on empty context should report absent")
	}
}
