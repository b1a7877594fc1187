package handler

import (
	"net/http"
	"time"

	"storefront/backend/internal/server/middleware"
)

// authCookie builds one token cookie. Production fronts the API from another
// origin, so cookies there need Secure + SameSite=None; elsewhere Lax keeps
// local development on plain http working.
func (h *Handler) authCookie(name, value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(maxAge / time.Second),
		SameSite: http.SameSiteLaxMode,
	}
	if h.production {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

// setAuthCookies installs both token cookies with lifetimes matching the token TTLs.
func (h *Handler) setAuthCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	http.SetCookie(w, h.authCookie(middleware.AccessTokenCookie, accessToken, h.tokens.AccessTTL()))
	http.SetCookie(w, h.authCookie(middleware.RefreshTokenCookie, refreshToken, h.tokens.RefreshTTL()))
}

// clearAuthCookies expires both token cookies on the client.
func (h *Handler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		c := h.authCookie(name, "", 0)
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}
