package member

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"novenantes/pkg/platform/sentinel"
)

// MemoryStore is the in-memory Store for tests and development.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	members map[int64]Member
	// cis tracks uniqueness of the national id.
	cis map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:  1,
		members: make(map[int64]Member),
		cis:     make(map[string]int64),
	}
}

func (s *MemoryStore) List(_ context.Context, filter Filter) ([]Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Member, 0, len(s.members))
	for _, m := range s.members {
		if filter.BlockID != nil && (m.BlockID == nil || *m.BlockID != *filter.BlockID) {
			continue
		}
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		if q := strings.ToLower(filter.Search); q != "" {
			if !strings.Contains(strings.ToLower(m.Name), q) &&
				!strings.Contains(m.CI, q) &&
				!strings.Contains(m.Phone, q) {
				continue
			}
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &m, nil
}

func (s *MemoryStore) Create(_ context.Context, m *Member) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.cis[m.CI]; dup {
		return 0, sentinel.ErrConflict
	}
	id := s.nextID
	s.nextID++
	now := time.Now()
	stored := *m
	stored.ID = id
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.members[id] = stored
	s.cis[m.CI] = id
	return id, nil
}

func (s *MemoryStore) Update(_ context.Context, m *Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.members[m.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if other, dup := s.cis[m.CI]; dup && other != m.ID {
		return sentinel.ErrConflict
	}
	delete(s.cis, prev.CI)
	updated := *m
	updated.CreatedAt = prev.CreatedAt
	updated.UpdatedAt = time.Now()
	updated.HasTemplate = prev.HasTemplate
	updated.PhotoPath = prev.PhotoPath
	s.members[m.ID] = updated
	s.cis[m.CI] = m.ID
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.cis, m.CI)
	delete(s.members, id)
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[id]
	return ok, nil
}

func (s *MemoryStore) SetPhoto(_ context.Context, id int64, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	m.PhotoPath = path
	m.UpdatedAt = time.Now()
	s.members[id] = m
	return nil
}
