package auth

import (
	"context"
	"net/http"
	"strings"
)

// A private key for context that only this package can access. This is
// important to prevent collisions between different context uses.
var userCtxKey = &contextKey{"user"}

type contextKey struct {
	name string
}

// Middleware verifies the Authorization bearer token and packs the caller's
// user id into the request context. Requests without a valid token are
// rejected before reaching a handler.
func Middleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
			if len(t) != 2 || !strings.EqualFold(t[0], "Bearer") {
				http.Error(w, `{"message":"No token provided"}`, http.StatusUnauthorized)
				return
			}

			claims, err := ParseToken(secret, t[1])
			if err != nil {
				http.Error(w, `{"message":"Token invalid or expired"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userCtxKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ForContext finds the caller's user id from the context. REQUIRES Middleware
// to have run; returns "" otherwise.
func ForContext(ctx context.Context) string {
	raw, _ := ctx.Value(userCtxKey).(string)
	return raw
}
