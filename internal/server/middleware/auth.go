package middleware

import (
	"net/http"
	"strings"

	"storefront/backend/internal/security"
	"storefront/backend/internal/server/response"
)

const bearerPrefix = "bearer "

// Cookie names shared with browser clients. The auth handlers set and clear
// them; RequireAuth reads the access one.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// RequireAuth validates the access token from the accessToken cookie or the
// Authorization Bearer header and stores user_id and session_id in the request
// context. Requests without a valid token get a 401 envelope.
func RequireAuth(tokens *security.TokenProvider, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractAccessToken(r)
		if token == "" {
			response.Error(w, http.StatusUnauthorized, "missing or invalid authorization", "UNAUTHENTICATED")
			return
		}
		claims, err := tokens.VerifyAccess(token)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "missing or invalid authorization", "UNAUTHENTICATED")
			return
		}
		ctx := WithIdentity(r.Context(), claims.Subject, claims.SessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractAccessToken returns the access token from the cookie or the
// Authorization header, or "" if neither is present.
func extractAccessToken(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) <= len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
