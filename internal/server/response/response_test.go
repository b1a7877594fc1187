package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body
}

func TestOKEnvelopeHasAllKeys(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, "done", map[string]string{"id": "u1"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := decodeBody(t, rec)
	for _, key := range []string{"message", "data", "errorCode"} {
		if _, ok := body[key]; !ok {
			t.Errorf("success body missing %q key: %v", key, body)
		}
	}
	if body["errorCode"] != "" {
		t.Errorf("errorCode = %v, want empty string", body["errorCode"])
	}
}

func TestErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusConflict, "email already registered", "EMAIL_TAKEN")

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["errorCode"] != "EMAIL_TAKEN" {
		t.Errorf("errorCode = %v", body["errorCode"])
	}
	if body["data"] != nil {
		t.Errorf("data = %v, want null", body["data"])
	}
}

func TestInternalEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Internal(rec)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["errorCode"] != "INTERNAL" || body["message"] != "internal server error" {
		t.Errorf("body = %v", body)
	}
}
