package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/xelth-com/campusgate/internal/config"
	"github.com/xelth-com/campusgate/internal/utils"
)

type contextKey string

// UserContextKey holds the authenticated operator's claims
const UserContextKey contextKey = "user"

// Auth verifies Bearer JWT tokens and stores the claims in the request
// context. Visitor-record operations require nothing beyond a signed-in
// session.
func Auth(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			// Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := utils.ValidateToken(parts[1], cfg.JWTSecret)
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
