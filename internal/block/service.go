package block

import (
	"context"
	"errors"
	"log/slog"

	dErrors "novenantes/pkg/domain-errors"
	"novenantes/pkg/platform/sentinel"
)

type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) List(ctx context.Context, blockType string) ([]Block, error) {
	if blockType != "" && !validType(blockType) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown block type %q", blockType)
	}
	blocks, err := s.store.List(ctx, blockType)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list blocks")
	}
	return blocks, nil
}

// Detail is a block plus its roster.
type Detail struct {
	Block
	Members []BlockMember `json:"fraternos"`
}

func (s *Service) Get(ctx context.Context, id int64) (*Detail, error) {
	b, err := s.store.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "block not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to get block")
	}
	members, err := s.store.Members(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list block members")
	}
	return &Detail{Block: *b, Members: members}, nil
}

func (s *Service) Create(ctx context.Context, b *Block) (*Block, error) {
	if err := validate(b); err != nil {
		return nil, err
	}
	if b.Status == "" {
		b.Status = "Activo"
	}
	id, err := s.store.Create(ctx, b)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create block")
	}
	s.logger.InfoContext(ctx, "block created", "block_id", id, "name", b.Name)
	created, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load created block")
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, b *Block) (*Block, error) {
	if err := validate(b); err != nil {
		return nil, err
	}
	err := s.store.Update(ctx, b)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "block not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update block")
	}
	updated, err := s.store.Get(ctx, b.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load updated block")
	}
	return updated, nil
}

// Delete refuses while members are still assigned.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.store.Delete(ctx, id)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "block not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "block still has members assigned")
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete block")
	}
	s.logger.InfoContext(ctx, "block deleted", "block_id", id)
	return nil
}

func validate(b *Block) error {
	if b.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "nombre_bloque is required")
	}
	if !validType(b.Type) {
		return dErrors.Newf(dErrors.CodeValidation, "unknown block type %q", b.Type)
	}
	return nil
}
