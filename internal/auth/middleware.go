package auth

import (
	"net/http"
	"strings"

	"github.com/murliorganic/backend-store/internal/common"
)

// Middleware guards routes behind a valid bearer access token.
type Middleware struct {
	Svc *Service
}

// RequireAuth rejects requests without a valid Authorization bearer token and
// stores the authenticated user identifier on the request context.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing authorization header", nil)
			return
		}
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid authorization header", nil)
			return
		}
		userID, err := m.Svc.ParseAccessToken(strings.TrimSpace(token))
		if err != nil {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(common.WithUserID(r.Context(), userID)))
	})
}
