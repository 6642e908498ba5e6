package member

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"novenantes/pkg/platform/sentinel"
)

// PostgresStore persists members on the legacy fraternos table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const memberColumns = `
	f.id, f.ci, f.nombre, f.fechanacimiento, f.celular, f.genero,
	f.bloque_id, COALESCE(b.nombre_bloque, ''), f.foto,
	COALESCE(f.talla_polera, ''), COALESCE(f.talla_pantalon, ''),
	COALESCE(f.talla_zapato, ''), f.monto_pagado, f.estado,
	(f.huella_template IS NOT NULL AND f.huella_template <> ''),
	f.created_at, f.updated_at`

func scanMember(row pgx.Row) (*Member, error) {
	var m Member
	var phone, gender, photo *string
	err := row.Scan(
		&m.ID, &m.CI, &m.Name, &m.BirthDate, &phone, &gender,
		&m.BlockID, &m.BlockName, &photo,
		&m.ShirtSize, &m.PantsSize, &m.ShoeSize,
		&m.AmountPaid, &m.Status, &m.HasTemplate,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if phone != nil {
		m.Phone = *phone
	}
	if gender != nil {
		m.Gender = *gender
	}
	if photo != nil {
		m.PhotoPath = *photo
	}
	return &m, nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]Member, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + memberColumns + `
		FROM fraternos f LEFT JOIN bloques b ON b.id = f.bloque_id`)

	var conds []string
	var args []any
	if filter.BlockID != nil {
		args = append(args, *filter.BlockID)
		conds = append(conds, fmt.Sprintf("f.bloque_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("f.estado = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(f.nombre ILIKE $%d OR f.ci ILIKE $%d OR f.celular ILIKE $%d)", n, n, n))
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY f.nombre")

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*Member, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+memberColumns+`
		FROM fraternos f LEFT JOIN bloques b ON b.id = f.bloque_id
		WHERE f.id = $1`, id)
	m, err := scanMember(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) Create(ctx context.Context, m *Member) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO fraternos
			(ci, nombre, fechanacimiento, celular, genero, bloque_id,
			 talla_polera, talla_pantalon, talla_zapato, monto_pagado, estado)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		m.CI, m.Name, m.BirthDate, nullable(m.Phone), nullable(m.Gender), m.BlockID,
		nullable(m.ShirtSize), nullable(m.PantsSize), nullable(m.ShoeSize),
		m.AmountPaid, m.Status,
	).Scan(&id)
	if err != nil {
		return 0, translatePgError(err, "create member")
	}
	return id, nil
}

func (s *PostgresStore) Update(ctx context.Context, m *Member) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE fraternos SET
			ci = $1, nombre = $2, fechanacimiento = $3, celular = $4,
			genero = $5, bloque_id = $6, talla_polera = $7,
			talla_pantalon = $8, talla_zapato = $9, monto_pagado = $10,
			estado = $11, updated_at = NOW()
		WHERE id = $12`,
		m.CI, m.Name, m.BirthDate, nullable(m.Phone), nullable(m.Gender), m.BlockID,
		nullable(m.ShirtSize), nullable(m.PantsSize), nullable(m.ShoeSize),
		m.AmountPaid, m.Status, m.ID,
	)
	if err != nil {
		return translatePgError(err, "update member")
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM fraternos WHERE id = $1`, id)
	if err != nil {
		return translatePgError(err, "delete member")
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM fraternos WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("member exists: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) SetPhoto(ctx context.Context, id int64, path string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE fraternos SET foto = $1, updated_at = NOW() WHERE id = $2`,
		path, id,
	)
	if err != nil {
		return fmt.Errorf("set photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// translatePgError maps unique and foreign key violations to sentinels.
func translatePgError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return sentinel.ErrConflict
		case "23503": // foreign_key_violation
			return sentinel.ErrConflict
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
