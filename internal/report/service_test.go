package report

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_ExportMembersXLSX(t *testing.T) {
	store := &MemoryStore{
		Stats: GeneralStats{TotalMembers: 2, ActiveMembers: 2, TotalBlocks: 1},
		Genders: []GenderCount{
			{Gender: "Masculino", Count: 1},
			{Gender: "Femenino", Count: 1},
		},
		Members: []MemberRow{
			{ID: 1, CI: "100", Name: "Ana", Block: "Norte", Status: "Activo"},
			{ID: 2, CI: "200", Name: "Bruno", Status: "Activo"},
		},
	}
	svc := NewService(store, slog.New(slog.DiscardHandler))

	f, err := svc.ExportMembersXLSX(context.Background())
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Fraternos", "Resumen"}, f.GetSheetList())

	name, err := f.GetCellValue("Fraternos", "C2")
	require.NoError(t, err)
	assert.Equal(t, "Ana", name)

	header, err := f.GetCellValue("Fraternos", "A1")
	require.NoError(t, err)
	assert.Equal(t, "ID", header)

	total, err := f.GetCellValue("Resumen", "B1")
	require.NoError(t, err)
	assert.Equal(t, "2", total)
}

func TestService_Aggregates(t *testing.T) {
	store := &MemoryStore{
		Stats:   GeneralStats{TotalMembers: 5, EnrolledMembers: 3},
		Missing: []MemberRow{{ID: 4, Name: "Sin Huella"}},
	}
	svc := NewService(store, slog.New(slog.DiscardHandler))
	ctx := context.Background()

	st, err := svc.General(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, st.TotalMembers)

	missing, err := svc.WithoutFingerprint(ctx)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, "Sin Huella", missing[0].Name)
}
