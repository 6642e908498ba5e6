package report

import "context"

// Store runs the aggregate queries. Read-only.
type Store interface {
	GeneralStats(ctx context.Context) (*GeneralStats, error)
	MembersByGender(ctx context.Context) ([]GenderCount, error)
	SizeBreakdown(ctx context.Context) ([]SizeCount, error)
	MembersWithoutTemplate(ctx context.Context) ([]MemberRow, error)
	AllMembers(ctx context.Context) ([]MemberRow, error)
}
