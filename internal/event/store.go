package event

import "context"

// Store persists events, types, and registrations. Duplicate registration for
// the same member+event pair returns sentinel.ErrConflict.
type Store interface {
	ListEvents(ctx context.Context) ([]Event, error)
	GetEvent(ctx context.Context, id int64) (*Event, error)
	CreateEvent(ctx context.Context, e *Event) (int64, error)
	UpdateEvent(ctx context.Context, e *Event) error
	DeleteEvent(ctx context.Context, id int64) error

	ListTypes(ctx context.Context) ([]EventType, error)

	ListRegistrations(ctx context.Context, eventID *int64) ([]Registration, error)
	CreateRegistration(ctx context.Context, memberID, eventID int64) (int64, error)
	DeleteRegistration(ctx context.Context, id int64) error
}
