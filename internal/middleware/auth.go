// Package middleware implements the HTTP middleware stack: session auth,
// request logging, and metrics.
package middleware

import (
	"context"
	"net/http"

	"github.com/PaulBabatuyi/filekeeper/internal/session"
)

// tokenHeader carries the opaque session token on every authenticated call.
const tokenHeader = "X-Token"

type contextKey string

const userIDKey contextKey = "user_id"

// Auth resolves the X-Token header to a user id and stores it in the request
// context. Requests without a resolvable token get 401 and never reach the
// handler.
func Auth(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := sessions.Resolve(r.Context(), r.Header.Get(tokenHeader))
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"Unauthorized"}`))
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user id set by Auth.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// Token returns the session token from the request headers.
func Token(r *http.Request) string {
	return r.Header.Get(tokenHeader)
}
