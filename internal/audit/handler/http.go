// Package handler exposes a user's own audit trail over HTTP.
package handler

import (
	"net/http"
	"strconv"
	"time"

	auditrepo "storefront/backend/internal/audit/repository"
	"storefront/backend/internal/server/middleware"
	"storefront/backend/internal/server/response"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Handler serves GET /auth/login-history.
type Handler struct {
	repo auditrepo.Repository
}

// NewHandler returns the audit history handler.
func NewHandler(repo auditrepo.Repository) *Handler {
	return &Handler{repo: repo}
}

// historyEntry is the wire shape of one audit event. Metadata carries the
// device descriptor for auth events, so it is surfaced as "device".
type historyEntry struct {
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	IP        string    `json:"ip"`
	Device    string    `json:"device"`
	CreatedAt time.Time `json:"createdAt"`
}

// History returns the authenticated caller's recent auth events, newest first.
// Supports ?limit= and ?offset= with a hard cap.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing or invalid authorization", "UNAUTHENTICATED")
		return
	}

	limit := queryInt(r, "limit", defaultHistoryLimit)
	if limit < 1 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	logs, err := h.repo.ListByUser(r.Context(), userID, int32(limit), int32(offset))
	if err != nil {
		response.Internal(w)
		return
	}

	entries := make([]historyEntry, 0, len(logs))
	for _, l := range logs {
		entries = append(entries, historyEntry{
			Action:    l.Action,
			Resource:  l.Resource,
			IP:        l.IP,
			Device:    l.Metadata,
			CreatedAt: l.CreatedAt,
		})
	}
	response.OK(w, "login history", entries)
}

func queryInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
