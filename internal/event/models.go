// Package event manages events, their types, and member registrations
// (inscripciones).
package event

import "time"

type EventType struct {
	ID          int64  `json:"id"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion,omitempty"`
}

type Event struct {
	ID          int64     `json:"id"`
	Name        string    `json:"nombre"`
	Description string    `json:"descripcion,omitempty"`
	Date        time.Time `json:"fecha"`
	Place       string    `json:"lugar,omitempty"`
	TypeID      *int64    `json:"tipo_evento_id,omitempty"`
	TypeName    string    `json:"tipo_evento,omitempty"`
	Status      string    `json:"estado"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Registration is an inscripciones row joined with member and event names.
type Registration struct {
	ID         int64     `json:"id"`
	MemberID   int64     `json:"fraterno_id"`
	MemberName string    `json:"fraterno_nombre,omitempty"`
	MemberCI   string    `json:"fraterno_ci,omitempty"`
	EventID    int64     `json:"evento_id"`
	EventName  string    `json:"evento_nombre,omitempty"`
	Date       time.Time `json:"fecha"`
}
