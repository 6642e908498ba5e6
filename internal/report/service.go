package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	dErrors "novenantes/pkg/domain-errors"
)

type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) General(ctx context.Context) (*GeneralStats, error) {
	st, err := s.store.GeneralStats(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute stats")
	}
	return st, nil
}

func (s *Service) ByGender(ctx context.Context) ([]GenderCount, error) {
	out, err := s.store.MembersByGender(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute gender report")
	}
	return out, nil
}

func (s *Service) Sizes(ctx context.Context) ([]SizeCount, error) {
	out, err := s.store.SizeBreakdown(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute size report")
	}
	return out, nil
}

func (s *Service) WithoutFingerprint(ctx context.Context) ([]MemberRow, error) {
	out, err := s.store.MembersWithoutTemplate(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute fingerprint report")
	}
	return out, nil
}

// ExportMembersXLSX renders the full roster workbook: one sheet with the
// member list, one with the aggregates.
func (s *Service) ExportMembersXLSX(ctx context.Context) (*excelize.File, error) {
	members, err := s.store.AllMembers(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load members")
	}
	stats, err := s.store.GeneralStats(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute stats")
	}
	genders, err := s.store.MembersByGender(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute gender report")
	}

	f := excelize.NewFile()
	const roster = "Fraternos"
	if err := f.SetSheetName("Sheet1", roster); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build workbook")
	}

	headers := []string{"ID", "CI", "Nombre", "Celular", "Bloque", "Estado"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(roster, cell, h); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build workbook")
		}
	}
	for row, m := range members {
		values := []any{m.ID, m.CI, m.Name, m.Phone, m.Block, m.Status}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(roster, cell, v); err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build workbook")
			}
		}
	}

	const summary = "Resumen"
	if _, err := f.NewSheet(summary); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build workbook")
	}
	summaryRows := [][]any{
		{"Total fraternos", stats.TotalMembers},
		{"Activos", stats.ActiveMembers},
		{"Inactivos", stats.InactiveMembers},
		{"Suspendidos", stats.SuspendedMembers},
		{"Bloques", stats.TotalBlocks},
		{"Eventos", stats.TotalEvents},
		{"Con huella registrada", stats.EnrolledMembers},
	}
	for _, g := range genders {
		summaryRows = append(summaryRows, []any{fmt.Sprintf("Genero: %s", g.Gender), g.Count})
	}
	for row, pair := range summaryRows {
		for col, v := range pair {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+1)
			if err := f.SetCellValue(summary, cell, v); err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build workbook")
			}
		}
	}

	s.logger.InfoContext(ctx, "roster workbook exported", "members", len(members))
	return f, nil
}
