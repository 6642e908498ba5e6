package block

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "novenantes/pkg/domain-errors"
)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewService(store, slog.New(slog.DiscardHandler)), store
}

func TestService_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	created, err := svc.Create(ctx, &Block{Name: "Bloque Norte", Type: TypeTroop})
	require.NoError(t, err)
	assert.Equal(t, "Activo", created.Status)

	store.AssignMember(created.ID, BlockMember{ID: 1, CI: "100", Name: "Ana"})

	detail, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.MemberCount)
	require.Len(t, detail.Members, 1)
	assert.Equal(t, "Ana", detail.Members[0].Name)
}

func TestService_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Create(ctx, &Block{Type: TypeTroop})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = svc.Create(ctx, &Block{Name: "X", Type: "Banda"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = svc.List(ctx, "Banda")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestService_ListFiltersByType(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Create(ctx, &Block{Name: "Tropa 1", Type: TypeTroop})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &Block{Name: "Libres", Type: TypeIndependent})
	require.NoError(t, err)

	blocks, err := svc.List(ctx, TypeTroop)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "Tropa 1", blocks[0].Name)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestService_DeleteRefusesWithMembers(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	created, err := svc.Create(ctx, &Block{Name: "Bloque", Type: TypeSpecial})
	require.NoError(t, err)
	store.AssignMember(created.ID, BlockMember{ID: 1, Name: "Ana"})

	err = svc.Delete(ctx, created.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	err = svc.Delete(ctx, 999)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
