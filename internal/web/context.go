package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/csvedit/internal/core"
	"github.com/JonMunkholm/csvedit/internal/logging"
	"github.com/JonMunkholm/csvedit/internal/session"
	"github.com/JonMunkholm/csvedit/internal/web/middleware"
)

// SessionHeader lets API clients without a cookie jar name their session.
const SessionHeader = "X-Session-ID"

type ctxKey int

const sessionKey ctxKey = iota

// withSession attaches the caller's session to the request context,
// creating one (and setting the cookie) when none is found.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionHeader)
		if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil && c.Value != "" {
			id = c.Value
		}

		sess, ok := s.sessions.Get(id)
		if !ok {
			sess = s.sessions.Create()
			http.SetCookie(w, &http.Cookie{
				Name:     s.cfg.Session.CookieName,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.cfg.Session.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		w.Header().Set(SessionHeader, sess.ID)

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		ctx = logging.WithSessionID(ctx, sess.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFrom returns the session stored by withSession.
func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey).(*session.Session)
	return sess
}

// WithRequestMetadata adds client IP and User-Agent to ctx for audit entries.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithClient(ctx, middleware.ClientIP(r), r.UserAgent())
}
