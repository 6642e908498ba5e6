// Package audit captures key administrative and biometric actions as events.
// Events are emitted from domain logic and published to a Kafka topic for the
// association's record-keeping; publishing is best-effort and never fails the
// business operation.
package audit

import "time"

// Action names the operation an event records.
type Action string

const (
	// Auth events
	ActionLoginSucceeded Action = "login_succeeded"
	ActionLoginFailed    Action = "login_failed"
	ActionSessionRevoked Action = "session_revoked"
	ActionUserCreated    Action = "user_created"
	ActionUserDeleted    Action = "user_deleted"

	// Biometric events
	ActionTemplateEnrolled   Action = "template_enrolled"
	ActionTemplateUpdated    Action = "template_updated"
	ActionTemplateRemoved    Action = "template_removed"
	ActionMemberIdentified   Action = "member_identified"
	ActionIdentificationMiss Action = "identification_no_match"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so publishers can fan out.
type Event struct {
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	// ActorID is the authenticated user performing the action, 0 when the
	// action has no authenticated actor (e.g. failed login).
	ActorID int64 `json:"actor_id,omitempty"`
	// MemberID is the member the action concerns, when applicable.
	MemberID int64 `json:"member_id,omitempty"`
	// Subject carries a free-form identifier (username on auth events).
	Subject   string `json:"subject,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
