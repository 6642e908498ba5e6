package middleware

import (
	"net/http"
	"time"

	"novenantes/pkg/requestcontext"
)

// RequestTime pins one "now" per request so session timestamps and audit
// events within a request agree.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
