package middleware

import (
	"context"
	"net/http"

	"github.com/signal-otp-api/internal/domain"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionCookie carries the signed admin session token.
const SessionCookie = "api-server-session"

// SessionResolver turns a session token into a live session.
type SessionResolver interface {
	Current(ctx context.Context, token string) (*domain.Session, error)
}

// RequireSession rejects requests without a valid admin session cookie and
// injects the session into the request context.
func RequireSession(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(SessionCookie)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			sess, err := sessions.Current(r.Context(), c.Value)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext extracts the admin session from the request context.
func SessionFromContext(ctx context.Context) (*domain.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*domain.Session)
	return s, ok
}
