package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// clientContextKey is the context key for storing the authenticated client
const clientContextKey contextKey = "client"

// Middleware returns an HTTP middleware validating the Authorization bearer
// token on every request. Requests without a valid token get 401.
func (m *JWTManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" || token == header {
			http.Error(w, "malformed authorization header", http.StatusUnauthorized)
			return
		}

		claims, err := m.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), clientContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientFromContext extracts the authenticated client's claims from context.
func ClientFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(clientContextKey).(*Claims)
	return claims, ok
}
