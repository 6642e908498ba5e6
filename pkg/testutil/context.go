package testutil

import (
	"context"

	"novenantes/pkg/requestcontext"
)

// AuthContext returns a context carrying an authenticated user, role, and
// session, simulating what the auth middleware does for logged-in requests.
func AuthContext(ctx context.Context, userID int64, role, sessionID string) context.Context {
	ctx = requestcontext.WithUserID(ctx, userID)
	ctx = requestcontext.WithRole(ctx, role)
	ctx = requestcontext.WithSessionID(ctx, sessionID)
	return ctx
}
