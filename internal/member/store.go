package member

import "context"

// Store persists members. Implementations return sentinel errors for
// infrastructure facts; validation happens in the service.
type Store interface {
	List(ctx context.Context, filter Filter) ([]Member, error)
	Get(ctx context.Context, id int64) (*Member, error)
	Create(ctx context.Context, m *Member) (int64, error)
	Update(ctx context.Context, m *Member) error
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
	SetPhoto(ctx context.Context, id int64, path string) error
}
