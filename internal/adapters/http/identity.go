package httpadapter

import (
	"context"
	"net/http"
	"strings"
)

// userHeader carries the authenticated username, set by the fronting proxy.
// Authentication itself happens upstream; the service only trusts the header.
const userHeader = "X-User"

type userContextKey struct{}

func userFromContext(ctx context.Context) string {
	username, _ := ctx.Value(userContextKey{}).(string)
	return username
}

func identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := strings.TrimSpace(r.Header.Get(userHeader))
		if username == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "X-User header is required"})
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey{}, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
