package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"novenantes/pkg/requestcontext"
)

// SessionCookie is the cookie carrying the login token. The legacy app kept a
// "user" cookie; the Go server issues a signed JWT instead.
const SessionCookie = "session"

// SessionClaims represents the claims the session validator extracts from a
// login token.
type SessionClaims struct {
	UserID    int64
	SessionID string
	Role      string
}

// SessionValidator validates a login token and checks that its session is
// still live (not revoked, not expired).
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*SessionClaims, error)
}

// RequireAuth rejects requests without a valid session cookie and loads the
// authenticated identity into the request context.
func RequireAuth(validator SessionValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				unauthorized(w, "missing session")
				return
			}

			claims, err := validator.ValidateSession(ctx, cookie.Value)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid session",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				unauthorized(w, "invalid or expired session")
				return
			}

			ctx = requestcontext.WithUserID(ctx, claims.UserID)
			ctx = requestcontext.WithSessionID(ctx, claims.SessionID)
			ctx = requestcontext.WithRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin must run after RequireAuth; it rejects non-admin roles.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if requestcontext.Role(ctx) != "admin" {
				logger.WarnContext(ctx, "forbidden - admin role required",
					"request_id", requestcontext.RequestID(ctx),
					"user_id", requestcontext.UserID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"admin role required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientMetadata records the caller's IP and user agent for session tracking.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ctx = requestcontext.WithClientIP(ctx, host)
		ctx = requestcontext.WithUserAgent(ctx, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + msg + `"}`))
}
