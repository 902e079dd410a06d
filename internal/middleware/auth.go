package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ubloom/ubloom/backend/internal/model/session"
	"github.com/ubloom/ubloom/backend/pkg/utils"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "ubloom_session"

// Authenticator resolves a session token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (session.Session, error)
}

type sessionKey struct{}

// Auth rejects requests without a valid session and stores the session in
// the request context. The token is read from a Bearer header first, then
// from the session cookie.
func Auth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := tokenFromRequest(r)
			if !ok {
				utils.RespondError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			sess, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess session.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFromContext returns the session stored by Auth.
func SessionFromContext(ctx context.Context) (session.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(session.Session)
	return sess, ok
}

func tokenFromRequest(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", false
		}
		return strings.TrimSpace(parts[1]), true
	}

	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}
