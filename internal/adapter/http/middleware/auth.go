package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/iho/banksaga/internal/infrastructure/auth"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// ServiceContextKey is the context key for the calling service's name
	ServiceContextKey ContextKey = "service"
)

// TokenVerifier validates a bearer token.
type TokenVerifier interface {
	Verify(tokenString string) (*auth.Claims, error)
}

// ServiceAuth rejects requests without a valid service token. When allowed
// is non-empty only those services are admitted.
func ServiceAuth(verifier TokenVerifier, allowed ...string) func(http.Handler) http.Handler {
	permitted := make(map[string]struct{}, len(allowed))
	for _, s := range allowed {
		permitted[s] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				http.Error(w, "invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			if len(permitted) > 0 {
				if _, ok := permitted[claims.Service]; !ok {
					http.Error(w, "service not permitted", http.StatusForbidden)
					return
				}
			}

			ctx := context.WithValue(r.Context(), ServiceContextKey, claims.Service)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ServiceFromContext returns the authenticated calling service.
func ServiceFromContext(ctx context.Context) (string, bool) {
	service, ok := ctx.Value(ServiceContextKey).(string)
	return service, ok
}
