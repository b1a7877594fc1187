// Package handler exposes the auth service over HTTP with the cookie-based
// token contract used by the storefront web client.
package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"storefront/backend/internal/auth/service"
	"storefront/backend/internal/security"
	"storefront/backend/internal/server/middleware"
	"storefront/backend/internal/server/response"
)

// Handler serves the /auth endpoints.
type Handler struct {
	auth       *service.AuthService
	tokens     *security.TokenProvider
	production bool
}

// NewHandler returns the auth HTTP handler. production selects the cross-site
// cookie attributes.
func NewHandler(auth *service.AuthService, tokens *security.TokenProvider, production bool) *Handler {
	return &Handler{auth: auth, tokens: tokens, production: production}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /auth/register: creates the account, opens the first
// session, and sets both token cookies.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body", "INVALID_REQUEST")
		return
	}
	res, err := h.auth.Register(r.Context(), service.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		IP:        middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	h.setAuthCookies(w, res.AccessToken, res.RefreshToken)
	response.Write(w, http.StatusCreated, "registration successful", nil, "")
}

// Login handles POST /auth/login: verifies credentials, opens a session, and
// sets both token cookies.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body", "INVALID_REQUEST")
		return
	}
	res, err := h.auth.Login(r.Context(), service.LoginParams{
		Email:     req.Email,
		Password:  req.Password,
		IP:        middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	h.setAuthCookies(w, res.AccessToken, res.RefreshToken)
	response.OK(w, "login successful", nil)
}

// Refresh handles POST /auth/re-access-token: reads the refreshToken cookie,
// rotates it, and resets both cookies like a login.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie(middleware.RefreshTokenCookie); err == nil {
		token = c.Value
	}
	res, err := h.auth.Refresh(r.Context(), service.RefreshParams{
		RefreshToken: token,
		IP:           middleware.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	h.setAuthCookies(w, res.AccessToken, res.RefreshToken)
	response.OK(w, "token refreshed", nil)
}

// Logout handles POST /auth/logout (authenticated): expires the session and
// clears both cookies. Cookies are cleared even when the session row was
// already gone, so a stale client always ends up logged out.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		h.clearAuthCookies(w)
		response.Error(w, http.StatusUnauthorized, "missing or invalid authorization", "UNAUTHENTICATED")
		return
	}
	userID, _ := middleware.GetUserID(r.Context())
	err := h.auth.Logout(r.Context(), userID, sessionID, middleware.ClientIP(r))
	h.clearAuthCookies(w)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	response.OK(w, "logout successful", nil)
}

// writeAuthError maps service sentinels to status codes and stable error
// codes; anything unexpected becomes a generic 500.
func (h *Handler) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		response.Error(w, http.StatusConflict, "email already registered", "EMAIL_TAKEN")
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, http.StatusUnauthorized, "invalid email or password", "INVALID_CREDENTIALS")
	case errors.Is(err, service.ErrSessionNotFound):
		response.Error(w, http.StatusNotFound, "session not found", "SESSION_NOT_FOUND")
	case errors.Is(err, service.ErrInvalidRefreshToken):
		response.Error(w, http.StatusUnauthorized, "invalid or expired refresh token", "INVALID_REFRESH_TOKEN")
	case errors.Is(err, service.ErrUserNotFound):
		response.Error(w, http.StatusNotFound, "user not found", "USER_NOT_FOUND")
	case errors.Is(err, service.ErrInvalidEmail):
		response.Error(w, http.StatusBadRequest, err.Error(), "INVALID_EMAIL")
	case errors.Is(err, service.ErrWeakPassword):
		response.Error(w, http.StatusBadRequest, err.Error(), "WEAK_PASSWORD")
	default:
		log.Printf("auth: unexpected error: %v", err)
		response.Internal(w)
	}
}
