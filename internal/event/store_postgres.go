package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"novenantes/pkg/platform/sentinel"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const eventColumns = `
	e.id, e.nombre, COALESCE(e.descripcion, ''), e.fecha,
	COALESCE(e.lugar, ''), e.tipo_evento_id, COALESCE(t.nombre, ''),
	e.estado, e.created_at, e.updated_at`

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.Date, &e.Place,
		&e.TypeID, &e.TypeName, &e.Status, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *PostgresStore) ListEvents(ctx context.Context) ([]Event, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+eventColumns+`
		FROM eventos e LEFT JOIN tipo_eventos t ON t.id = e.tipo_evento_id
		ORDER BY e.fecha DESC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetEvent(ctx context.Context, id int64) (*Event, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+eventColumns+`
		FROM eventos e LEFT JOIN tipo_eventos t ON t.id = e.tipo_evento_id
		WHERE e.id = $1`, id)
	e, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) CreateEvent(ctx context.Context, e *Event) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO eventos (nombre, descripcion, fecha, lugar, tipo_evento_id, estado)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		e.Name, e.Description, e.Date, e.Place, e.TypeID, e.Status,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create event: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) UpdateEvent(ctx context.Context, e *Event) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE eventos SET nombre = $1, descripcion = $2, fecha = $3,
			lugar = $4, tipo_evento_id = $5, estado = $6, updated_at = NOW()
		WHERE id = $7`,
		e.Name, e.Description, e.Date, e.Place, e.TypeID, e.Status, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteEvent(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM eventos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListTypes(ctx context.Context) ([]EventType, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, nombre, COALESCE(descripcion, '') FROM tipo_eventos ORDER BY nombre`)
	if err != nil {
		return nil, fmt.Errorf("list event types: %w", err)
	}
	defer rows.Close()

	var out []EventType
	for rows.Next() {
		var t EventType
		if err := rows.Scan(&t.ID, &t.Name, &t.Description); err != nil {
			return nil, fmt.Errorf("scan event type: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListRegistrations(ctx context.Context, eventID *int64) ([]Registration, error) {
	query := `
		SELECT i.id, i.fraterno_id, f.nombre, f.ci, i.evento_id, e.nombre, i.fecha
		FROM inscripciones i
		JOIN fraternos f ON f.id = i.fraterno_id
		JOIN eventos e ON e.id = i.evento_id`
	var args []any
	if eventID != nil {
		query += ` WHERE i.evento_id = $1`
		args = append(args, *eventID)
	}
	query += ` ORDER BY i.fecha DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var out []Registration
	for rows.Next() {
		var reg Registration
		err := rows.Scan(&reg.ID, &reg.MemberID, &reg.MemberName, &reg.MemberCI,
			&reg.EventID, &reg.EventName, &reg.Date)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateRegistration(ctx context.Context, memberID, eventID int64) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO inscripciones (fraterno_id, evento_id)
		VALUES ($1, $2) RETURNING id`,
		memberID, eventID,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return 0, sentinel.ErrConflict
			case "23503":
				return 0, sentinel.ErrNotFound
			}
		}
		return 0, fmt.Errorf("create registration: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) DeleteRegistration(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM inscripciones WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
