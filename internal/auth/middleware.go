package auth

import (
	"context"
	"net/http"
)

type contextKey struct{}

var claimsKey contextKey

// Middleware guards a downstream handler with bearer-token verification.
// On success the decoded claims are attached to the request context.
func Middleware(service *Service, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "authorization token required")
			return
		}

		claims, err := service.VerifyRequest(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// ClaimsFromContext returns the claims attached by Middleware.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(Claims)
	return claims, ok
}
