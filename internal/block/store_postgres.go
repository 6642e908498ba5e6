package block

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"novenantes/pkg/platform/sentinel"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const blockColumns = `
	b.id, b.nombre_bloque, b.tipobloque, b.estado, b.fraterno_id,
	COALESCE(r.nombre, ''),
	(SELECT COUNT(*) FROM fraternos f WHERE f.bloque_id = b.id),
	b.created_at, b.updated_at`

func scanBlock(row pgx.Row) (*Block, error) {
	var b Block
	err := row.Scan(
		&b.ID, &b.Name, &b.Type, &b.Status, &b.ResponsibleID,
		&b.ResponsibleName, &b.MemberCount, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *PostgresStore) List(ctx context.Context, blockType string) ([]Block, error) {
	query := `SELECT ` + blockColumns + `
		FROM bloques b LEFT JOIN fraternos r ON r.id = b.fraterno_id`
	var args []any
	if blockType != "" {
		query += ` WHERE b.tipobloque = $1`
		args = append(args, blockType)
	}
	query += ` ORDER BY b.nombre_bloque`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	defer rows.Close()

	var out []Block
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*Block, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+blockColumns+`
		FROM bloques b LEFT JOIN fraternos r ON r.id = b.fraterno_id
		WHERE b.id = $1`, id)
	b, err := scanBlock(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get block: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) Members(ctx context.Context, id int64) ([]BlockMember, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, ci, nombre, estado FROM fraternos
		 WHERE bloque_id = $1 ORDER BY nombre`, id)
	if err != nil {
		return nil, fmt.Errorf("list block members: %w", err)
	}
	defer rows.Close()

	var out []BlockMember
	for rows.Next() {
		var m BlockMember
		if err := rows.Scan(&m.ID, &m.CI, &m.Name, &m.Status); err != nil {
			return nil, fmt.Errorf("scan block member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Create(ctx context.Context, b *Block) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO bloques (nombre_bloque, tipobloque, estado, fraterno_id)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		b.Name, b.Type, b.Status, b.ResponsibleID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create block: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) Update(ctx context.Context, b *Block) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE bloques SET nombre_bloque = $1, tipobloque = $2, estado = $3,
			fraterno_id = $4, updated_at = NOW()
		WHERE id = $5`,
		b.Name, b.Type, b.Status, b.ResponsibleID, b.ID,
	)
	if err != nil {
		return fmt.Errorf("update block: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM fraternos WHERE bloque_id = $1`, id,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("count block members: %w", err)
	}
	if count > 0 {
		return sentinel.ErrConflict
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM bloques WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
