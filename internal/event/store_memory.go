package event

import (
	"context"
	"sort"
	"sync"
	"time"

	"novenantes/pkg/platform/sentinel"
)

type MemoryStore struct {
	mu            sync.RWMutex
	nextEventID   int64
	nextRegID     int64
	events        map[int64]Event
	types         []EventType
	registrations map[int64]Registration
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextEventID:   1,
		nextRegID:     1,
		events:        make(map[int64]Event),
		registrations: make(map[int64]Registration),
	}
}

// SeedTypes loads the event type catalog.
func (s *MemoryStore) SeedTypes(types ...EventType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types = append(s.types, types...)
}

func (s *MemoryStore) ListEvents(_ context.Context) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *MemoryStore) GetEvent(_ context.Context, id int64) (*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &e, nil
}

func (s *MemoryStore) CreateEvent(_ context.Context, e *Event) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextEventID
	s.nextEventID++
	now := time.Now()
	stored := *e
	stored.ID = id
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.events[id] = stored
	return id, nil
}

func (s *MemoryStore) UpdateEvent(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.events[e.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	updated := *e
	updated.CreatedAt = prev.CreatedAt
	updated.UpdatedAt = time.Now()
	s.events[e.ID] = updated
	return nil
}

func (s *MemoryStore) DeleteEvent(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.events, id)
	for rid, reg := range s.registrations {
		if reg.EventID == id {
			delete(s.registrations, rid)
		}
	}
	return nil
}

func (s *MemoryStore) ListTypes(_ context.Context) ([]EventType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]EventType(nil), s.types...), nil
}

func (s *MemoryStore) ListRegistrations(_ context.Context, eventID *int64) ([]Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Registration, 0, len(s.registrations))
	for _, reg := range s.registrations {
		if eventID != nil && reg.EventID != *eventID {
			continue
		}
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CreateRegistration(_ context.Context, memberID, eventID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[eventID]; !ok {
		return 0, sentinel.ErrNotFound
	}
	for _, reg := range s.registrations {
		if reg.MemberID == memberID && reg.EventID == eventID {
			return 0, sentinel.ErrConflict
		}
	}
	id := s.nextRegID
	s.nextRegID++
	s.registrations[id] = Registration{
		ID:       id,
		MemberID: memberID,
		EventID:  eventID,
		Date:     time.Now(),
	}
	return id, nil
}

func (s *MemoryStore) DeleteRegistration(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registrations[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.registrations, id)
	return nil
}
