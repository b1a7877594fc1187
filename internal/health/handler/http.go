// Package handler serves readiness for load balancers and deploy checks.
package handler

import (
	"context"
	"net/http"
	"time"

	"storefront/backend/internal/server/response"
)

// Pinger reports backing-store reachability (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler serves GET /healthz.
type Handler struct {
	pinger Pinger
}

// NewHandler returns the health handler. pinger may be nil; then the DB check is skipped.
func NewHandler(pinger Pinger) *Handler {
	return &Handler{pinger: pinger}
}

// Healthz reports readiness: 200 when the database answers a ping, 503 otherwise.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.PingContext(ctx); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "database unreachable", "NOT_READY")
			return
		}
	}
	response.OK(w, "ok", nil)
}
