package block

import (
	"context"
	"sort"
	"sync"
	"time"

	"novenantes/pkg/platform/sentinel"
)

// MemoryStore backs tests and development. Member assignment is tracked
// explicitly since there is no fraternos table behind it.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	blocks  map[int64]Block
	members map[int64][]BlockMember
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:  1,
		blocks:  make(map[int64]Block),
		members: make(map[int64][]BlockMember),
	}
}

// AssignMember adds a roster entry to a block.
func (s *MemoryStore) AssignMember(blockID int64, m BlockMember) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[blockID] = append(s.members[blockID], m)
}

func (s *MemoryStore) List(_ context.Context, blockType string) ([]Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Block, 0, len(s.blocks))
	for id, b := range s.blocks {
		if blockType != "" && b.Type != blockType {
			continue
		}
		b.MemberCount = len(s.members[id])
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (*Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blocks[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	b.MemberCount = len(s.members[id])
	return &b, nil
}

func (s *MemoryStore) Members(_ context.Context, id int64) ([]BlockMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.blocks[id]; !ok {
		return nil, sentinel.ErrNotFound
	}
	return append([]BlockMember(nil), s.members[id]...), nil
}

func (s *MemoryStore) Create(_ context.Context, b *Block) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	now := time.Now()
	stored := *b
	stored.ID = id
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.blocks[id] = stored
	return id, nil
}

func (s *MemoryStore) Update(_ context.Context, b *Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.blocks[b.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	updated := *b
	updated.CreatedAt = prev.CreatedAt
	updated.UpdatedAt = time.Now()
	s.blocks[b.ID] = updated
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blocks[id]; !ok {
		return sentinel.ErrNotFound
	}
	if len(s.members[id]) > 0 {
		return sentinel.ErrConflict
	}
	delete(s.blocks, id)
	return nil
}
