//go:build integration

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novenantes/internal/biometric"
	"novenantes/pkg/platform/sentinel"
	"novenantes/pkg/testutil/containers"
)

func setupPostgres(t *testing.T) *Postgres {
	t.Helper()
	pg := containers.NewPostgresContainer(t)

	schema, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", "schema.sql"))
	require.NoError(t, err)
	_, err = pg.Pool.Exec(context.Background(), string(schema))
	require.NoError(t, err)

	return NewPostgres(pg.Pool)
}

func insertMember(t *testing.T, s *Postgres, ci, name string) int64 {
	t.Helper()
	var id int64
	err := s.pool.QueryRow(context.Background(),
		`INSERT INTO fraternos (ci, nombre) VALUES ($1, $2) RETURNING id`, ci, name,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestPostgres_TemplateLifecycle(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()
	id := insertMember(t, s, "1234567", "Juan Perez")

	_, found, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Upsert(ctx, id, "tpl-v1"))
	tpl, found, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, biometric.Template("tpl-v1"), tpl)

	require.NoError(t, s.Upsert(ctx, id, "tpl-v2"))
	tpl, _, err = s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, biometric.Template("tpl-v2"), tpl)

	require.NoError(t, s.Remove(ctx, id))
	_, found, err = s.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPostgres_MissingMember(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	err := s.Upsert(ctx, 9999, "tpl")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	_, _, err = s.Get(ctx, 9999)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	// Remove of a non-existent row stays a no-op.
	assert.NoError(t, s.Remove(ctx, 9999))
}

func TestPostgres_ListAll(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	a := insertMember(t, s, "100", "A")
	b := insertMember(t, s, "200", "B")
	insertMember(t, s, "300", "C")

	require.NoError(t, s.Upsert(ctx, b, "tpl-b"))
	require.NoError(t, s.Upsert(ctx, a, "tpl-a"))

	candidates, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, a, candidates[0].MemberID)
	assert.Equal(t, b, candidates[1].MemberID)
}
