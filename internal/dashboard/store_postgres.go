package dashboard

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

func (s *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM fraternos),
			(SELECT COUNT(*) FROM fraternos WHERE estado = 'Activo'),
			(SELECT COUNT(*) FROM fraternos
				WHERE huella_template IS NOT NULL AND huella_template <> ''),
			(SELECT COUNT(*) FROM bloques),
			(SELECT COUNT(*) FROM eventos WHERE fecha >= CURRENT_DATE)`,
	).Scan(&st.TotalMembers, &st.ActiveMembers, &st.EnrolledMembers,
		&st.TotalBlocks, &st.UpcomingEvents)
	if err != nil {
		return nil, fmt.Errorf("dashboard counters: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT b.id, b.nombre_bloque, COUNT(f.id)
		FROM bloques b LEFT JOIN fraternos f ON f.bloque_id = b.id
		GROUP BY b.id, b.nombre_bloque
		ORDER BY b.nombre_bloque`)
	if err != nil {
		return nil, fmt.Errorf("dashboard per-block: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var bc BlockCount
		if err := rows.Scan(&bc.BlockID, &bc.Name, &bc.Count); err != nil {
			return nil, fmt.Errorf("scan block count: %w", err)
		}
		st.PerBlock = append(st.PerBlock, bc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	genderRows, err := s.pool.Query(ctx, `
		SELECT COALESCE(genero, 'Sin registrar'), COUNT(*)
		FROM fraternos GROUP BY genero`)
	if err != nil {
		return nil, fmt.Errorf("dashboard per-gender: %w", err)
	}
	defer genderRows.Close()
	for genderRows.Next() {
		var g GenderTile
		if err := genderRows.Scan(&g.Gender, &g.Count); err != nil {
			return nil, fmt.Errorf("scan gender tile: %w", err)
		}
		st.PerGender = append(st.PerGender, g)
	}
	return &st, genderRows.Err()
}
