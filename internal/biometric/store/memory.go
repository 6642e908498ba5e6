package store

import (
	"context"
	"sort"
	"sync"

	"novenantes/internal/biometric"
	"novenantes/pkg/platform/sentinel"
)

// InMemory keeps templates in a map. It tracks member existence itself so the
// upsert precondition behaves like the database-backed store.
type InMemory struct {
	mu        sync.RWMutex
	members   map[int64]struct{}
	templates map[int64]biometric.Template
}

func NewInMemory() *InMemory {
	return &InMemory{
		members:   make(map[int64]struct{}),
		templates: make(map[int64]biometric.Template),
	}
}

// AddMember registers a member id so Upsert accepts it.
func (s *InMemory) AddMember(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[id] = struct{}{}
}

// RemoveMember deletes a member and, with it, any stored template.
func (s *InMemory) RemoveMember(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, id)
	delete(s.templates, id)
}

func (s *InMemory) Upsert(_ context.Context, memberID int64, template biometric.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[memberID]; !ok {
		return sentinel.ErrNotFound
	}
	s.templates[memberID] = template
	return nil
}

func (s *InMemory) Remove(_ context.Context, memberID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.templates, memberID)
	return nil
}

func (s *InMemory) Get(_ context.Context, memberID int64) (biometric.Template, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.members[memberID]; !ok {
		return "", false, sentinel.ErrNotFound
	}
	tpl, ok := s.templates[memberID]
	return tpl, ok, nil
}

func (s *InMemory) ListAll(_ context.Context) ([]biometric.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]biometric.Candidate, 0, len(s.templates))
	for id, tpl := range s.templates {
		out = append(out, biometric.Candidate{MemberID: id, Template: tpl})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out, nil
}
