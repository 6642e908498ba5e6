// Package store persists the one-template-per-member mapping.
package store

import (
	"context"

	"novenantes/internal/biometric"
)

// Store is the durable mapping from member id to biometric template.
//
// ListAll must reflect the latest committed state on every call — the
// orchestrator builds a fresh candidate set per identification and
// correctness depends on that freshness.
type Store interface {
	// Upsert replaces or creates the template for a member. Idempotent.
	// Returns sentinel.ErrNotFound when the member does not exist.
	Upsert(ctx context.Context, memberID int64, template biometric.Template) error

	// Remove clears the template; no error if none existed.
	Remove(ctx context.Context, memberID int64) error

	// Get returns the member's template and whether one is present.
	// Returns sentinel.ErrNotFound when the member does not exist.
	Get(ctx context.Context, memberID int64) (biometric.Template, bool, error)

	// ListAll returns every (member, template) pair with a template present.
	ListAll(ctx context.Context) ([]biometric.Candidate, error)
}
