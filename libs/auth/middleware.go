package auth

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey int

const ctxKeyUserID ctxKey = iota

// UserIDFromContext returns the authenticated caller id, or "" when the
// request was not authenticated.
func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyUserID).(string)
	return v
}

// RequireHS256 rejects requests without a valid bearer token and stores the
// caller id on the request context. Every entry point behind it can assume a
// non-empty caller identity.
func RequireHS256(next http.Handler, secret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		claims, err := ParseAndVerifyHS256(strings.TrimPrefix(header, "Bearer "), secret)
		if err != nil || claims.Sub == "" {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyUserID, claims.Sub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
