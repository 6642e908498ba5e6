package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novenantes/internal/biometric"
	"novenantes/pkg/platform/sentinel"
)

func TestInMemory(t *testing.T) {
	ctx := context.Background()

	t.Run("upsert requires an existing member", func(t *testing.T) {
		s := NewInMemory()
		err := s.Upsert(ctx, 1, "tpl")
		require.ErrorIs(t, err, sentinel.ErrNotFound)

		s.AddMember(1)
		require.NoError(t, s.Upsert(ctx, 1, "tpl"))

		got, found, err := s.Get(ctx, 1)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, biometric.Template("tpl"), got)
	})

	t.Run("get distinguishes missing member from missing template", func(t *testing.T) {
		s := NewInMemory()
		s.AddMember(1)

		_, found, err := s.Get(ctx, 1)
		require.NoError(t, err)
		assert.False(t, found)

		_, _, err = s.Get(ctx, 2)
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("upsert replaces the previous template", func(t *testing.T) {
		s := NewInMemory()
		s.AddMember(1)
		require.NoError(t, s.Upsert(ctx, 1, "old"))
		require.NoError(t, s.Upsert(ctx, 1, "new"))

		got, _, err := s.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, biometric.Template("new"), got)
	})

	t.Run("remove clears the template but keeps the member", func(t *testing.T) {
		s := NewInMemory()
		s.AddMember(1)
		require.NoError(t, s.Upsert(ctx, 1, "tpl"))
		require.NoError(t, s.Remove(ctx, 1))

		_, found, err := s.Get(ctx, 1)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("list all returns only enrolled members, ordered", func(t *testing.T) {
		s := NewInMemory()
		for _, id := range []int64{3, 1, 2} {
			s.AddMember(id)
		}
		require.NoError(t, s.Upsert(ctx, 3, "tpl-3"))
		require.NoError(t, s.Upsert(ctx, 1, "tpl-1"))

		candidates, err := s.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, candidates, 2)
		assert.Equal(t, int64(1), candidates[0].MemberID)
		assert.Equal(t, int64(3), candidates[1].MemberID)
	})
}
