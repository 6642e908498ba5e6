package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"novenantes/internal/biometric"
	"novenantes/pkg/platform/sentinel"
)

// Postgres stores templates on the legacy fraternos table: the
// huella_template column owns the member's one template. Writes are
// single-row UPDATEs, so per-member serialization comes from the database and
// concurrent upserts for different members never block each other.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Upsert(ctx context.Context, memberID int64, template biometric.Template) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE fraternos SET huella_template = $1, updated_at = NOW() WHERE id = $2`,
		string(template), memberID,
	)
	if err != nil {
		return fmt.Errorf("upsert template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Remove(ctx context.Context, memberID int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE fraternos SET huella_template = NULL, updated_at = NOW() WHERE id = $1`,
		memberID,
	)
	if err != nil {
		return fmt.Errorf("remove template: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, memberID int64) (biometric.Template, bool, error) {
	var tpl *string
	err := s.pool.QueryRow(ctx,
		`SELECT huella_template FROM fraternos WHERE id = $1`,
		memberID,
	).Scan(&tpl)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, sentinel.ErrNotFound
	}
	if err != nil {
		return "", false, fmt.Errorf("get template: %w", err)
	}
	if tpl == nil || *tpl == "" {
		return "", false, nil
	}
	return biometric.Template(*tpl), true, nil
}

func (s *Postgres) ListAll(ctx context.Context) ([]biometric.Candidate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, huella_template FROM fraternos
		 WHERE huella_template IS NOT NULL AND huella_template <> ''
		 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []biometric.Candidate
	for rows.Next() {
		var c biometric.Candidate
		var tpl string
		if err := rows.Scan(&c.MemberID, &tpl); err != nil {
			return nil, fmt.Errorf("scan template row: %w", err)
		}
		c.Template = biometric.Template(tpl)
		out = append(out, c)
	}
	return out, rows.Err()
}
