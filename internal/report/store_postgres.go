package report

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) GeneralStats(ctx context.Context) (*GeneralStats, error) {
	var st GeneralStats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM fraternos),
			(SELECT COUNT(*) FROM fraternos WHERE estado = 'Activo'),
			(SELECT COUNT(*) FROM fraternos WHERE estado = 'Inactivo'),
			(SELECT COUNT(*) FROM fraternos WHERE estado = 'Suspendido'),
			(SELECT COUNT(*) FROM bloques),
			(SELECT COUNT(*) FROM eventos),
			(SELECT COUNT(*) FROM fraternos
				WHERE huella_template IS NOT NULL AND huella_template <> '')`,
	).Scan(
		&st.TotalMembers, &st.ActiveMembers, &st.InactiveMembers,
		&st.SuspendedMembers, &st.TotalBlocks, &st.TotalEvents,
		&st.EnrolledMembers,
	)
	if err != nil {
		return nil, fmt.Errorf("general stats: %w", err)
	}
	return &st, nil
}

func (s *PostgresStore) MembersByGender(ctx context.Context) ([]GenderCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT COALESCE(genero, 'Sin registrar'), COUNT(*)
		FROM fraternos GROUP BY genero ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("members by gender: %w", err)
	}
	defer rows.Close()

	var out []GenderCount
	for rows.Next() {
		var g GenderCount
		if err := rows.Scan(&g.Gender, &g.Count); err != nil {
			return nil, fmt.Errorf("scan gender count: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SizeBreakdown(ctx context.Context) ([]SizeCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT kind, size, COUNT(*) FROM (
			SELECT 'polera' AS kind, talla_polera AS size FROM fraternos WHERE talla_polera IS NOT NULL
			UNION ALL
			SELECT 'pantalon', talla_pantalon FROM fraternos WHERE talla_pantalon IS NOT NULL
			UNION ALL
			SELECT 'zapato', talla_zapato FROM fraternos WHERE talla_zapato IS NOT NULL
		) sizes
		GROUP BY kind, size
		ORDER BY kind, size`)
	if err != nil {
		return nil, fmt.Errorf("size breakdown: %w", err)
	}
	defer rows.Close()

	var out []SizeCount
	for rows.Next() {
		var sc SizeCount
		if err := rows.Scan(&sc.Kind, &sc.Size, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan size count: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

const memberRowQuery = `
	SELECT f.id, f.ci, f.nombre, COALESCE(f.celular, ''),
		COALESCE(b.nombre_bloque, ''), f.estado
	FROM fraternos f LEFT JOIN bloques b ON b.id = f.bloque_id`

func (s *PostgresStore) MembersWithoutTemplate(ctx context.Context) ([]MemberRow, error) {
	return s.memberRows(ctx, memberRowQuery+`
		WHERE f.huella_template IS NULL OR f.huella_template = ''
		ORDER BY f.nombre`)
}

func (s *PostgresStore) AllMembers(ctx context.Context) ([]MemberRow, error) {
	return s.memberRows(ctx, memberRowQuery+` ORDER BY f.nombre`)
}

func (s *PostgresStore) memberRows(ctx context.Context, query string) ([]MemberRow, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("member rows: %w", err)
	}
	defer rows.Close()

	var out []MemberRow
	for rows.Next() {
		var m MemberRow
		if err := rows.Scan(&m.ID, &m.CI, &m.Name, &m.Phone, &m.Block, &m.Status); err != nil {
			return nil, fmt.Errorf("scan member row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
