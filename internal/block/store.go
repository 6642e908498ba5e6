package block

import "context"

// Store persists blocks. Delete must refuse while members are assigned
// (sentinel.ErrConflict).
type Store interface {
	List(ctx context.Context, blockType string) ([]Block, error)
	Get(ctx context.Context, id int64) (*Block, error)
	Members(ctx context.Context, id int64) ([]BlockMember, error)
	Create(ctx context.Context, b *Block) (int64, error)
	Update(ctx context.Context, b *Block) error
	Delete(ctx context.Context, id int64) error
}
