package report

import "context"

// MemoryStore serves canned aggregates for tests.
type MemoryStore struct {
	Stats    GeneralStats
	Genders  []GenderCount
	SizeRows []SizeCount
	Missing  []MemberRow
	Members  []MemberRow
}

func (s *MemoryStore) GeneralStats(context.Context) (*GeneralStats, error) {
	st := s.Stats
	return &st, nil
}

func (s *MemoryStore) MembersByGender(context.Context) ([]GenderCount, error) {
	return s.Genders, nil
}

func (s *MemoryStore) SizeBreakdown(context.Context) ([]SizeCount, error) {
	return s.SizeRows, nil
}

func (s *MemoryStore) MembersWithoutTemplate(context.Context) ([]MemberRow, error) {
	return s.Missing, nil
}

func (s *MemoryStore) AllMembers(context.Context) ([]MemberRow, error) {
	return s.Members, nil
}
