// Package server assembles the HTTP routing surface.
package server

import (
	"net/http"

	audithandler "storefront/backend/internal/audit/handler"
	authhandler "storefront/backend/internal/auth/handler"
	healthhandler "storefront/backend/internal/health/handler"
	"storefront/backend/internal/security"
	"storefront/backend/internal/server/middleware"
)

// Deps holds the handlers and collaborators the router wires together.
type Deps struct {
	Auth   *authhandler.Handler
	Audit  *audithandler.Handler
	Tokens *security.TokenProvider
	// HealthPinger is used for readiness (e.g. *sql.DB). If nil, /healthz skips the DB ping.
	HealthPinger healthhandler.Pinger
}

// NewRouter returns the service's HTTP handler: /auth endpoints, /healthz,
// request logging around everything. Logout and login history require auth.
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/register", deps.Auth.Register)
	mux.HandleFunc("POST /auth/login", deps.Auth.Login)
	mux.HandleFunc("POST /auth/re-access-token", deps.Auth.Refresh)
	mux.Handle("POST /auth/logout", middleware.RequireAuth(deps.Tokens, http.HandlerFunc(deps.Auth.Logout)))
	if deps.Audit != nil {
		mux.Handle("GET /auth/login-history", middleware.RequireAuth(deps.Tokens, http.HandlerFunc(deps.Audit.History)))
	}

	mux.HandleFunc("GET /healthz", healthhandler.NewHandler(deps.HealthPinger).Healthz)

	return middleware.RequestLog(mux)
}
