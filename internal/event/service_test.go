package event

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "novenantes/pkg/domain-errors"
)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewService(store, slog.New(slog.DiscardHandler)), store
}

func seedEvent(t *testing.T, svc *Service, name string) *Event {
	t.Helper()
	e, err := svc.CreateEvent(context.Background(), &Event{
		Name: name,
		Date: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return e
}

func TestService_EventCRUD(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	created := seedEvent(t, svc, "Aniversario")
	assert.Equal(t, "Activo", created.Status)

	created.Place = "Sede central"
	updated, err := svc.UpdateEvent(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "Sede central", updated.Place)

	require.NoError(t, svc.DeleteEvent(ctx, created.ID))
	_, err = svc.GetEvent(ctx, created.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestService_EventValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.CreateEvent(ctx, &Event{Date: time.Now()})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = svc.CreateEvent(ctx, &Event{Name: "X"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestService_Registrations(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	e := seedEvent(t, svc, "Convivencia")

	t.Run("registers once per member and event", func(t *testing.T) {
		_, err := svc.Register(ctx, 1, e.ID)
		require.NoError(t, err)

		_, err = svc.Register(ctx, 1, e.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("unknown event is not found", func(t *testing.T) {
		_, err := svc.Register(ctx, 1, 999)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("lists with event filter", func(t *testing.T) {
		other := seedEvent(t, svc, "Campeonato")
		_, err := svc.Register(ctx, 2, other.ID)
		require.NoError(t, err)

		regs, err := svc.ListRegistrations(ctx, &other.ID)
		require.NoError(t, err)
		require.Len(t, regs, 1)
		assert.Equal(t, int64(2), regs[0].MemberID)

		all, err := svc.ListRegistrations(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("unregister removes the row", func(t *testing.T) {
		id, err := svc.Register(ctx, 3, e.ID)
		require.NoError(t, err)
		require.NoError(t, svc.Unregister(ctx, id))
		err = svc.Unregister(ctx, id)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("deleting the event cascades registrations", func(t *testing.T) {
		victim := seedEvent(t, svc, "Efimero")
		_, err := svc.Register(ctx, 9, victim.ID)
		require.NoError(t, err)

		require.NoError(t, svc.DeleteEvent(ctx, victim.ID))
		regs, err := svc.ListRegistrations(ctx, &victim.ID)
		require.NoError(t, err)
		assert.Empty(t, regs)
	})
}
