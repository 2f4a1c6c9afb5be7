package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventmanager/internal/domain"
)

const eventColumns = `id, name, description, start_time, end_time, location, max_attendees, status, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var descNull sql.NullString
	var status string
	if err := row.Scan(
		&e.ID, &e.Name, &descNull, &e.StartTime, &e.EndTime, &e.Location,
		&e.MaxAttendees, &status, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if descNull.Valid {
		e.Description = &descNull.String
	}
	e.Status = domain.EventStatus(status)
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (name, description, start_time, end_time, location, max_attendees, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		e.Name, e.Description, e.StartTime, e.EndTime, e.Location, e.MaxAttendees, string(e.Status), e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		if pqCode(err) == codeCheckViolation {
			return domain.NewValidationError("event violates a field constraint")
		}
		return storageErr(err)
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, storageErr(err)
	}
	return e, nil
}

// Update replaces all writable fields. Status is left as stored.
func (r *eventRepository) Update(ctx context.Context, id int64, in domain.EventInput) (*domain.Event, error) {
	query := `
		UPDATE events
		SET name = $1, description = $2, start_time = $3, end_time = $4, location = $5, max_attendees = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING ` + eventColumns
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query,
		in.Name, in.Description, in.StartTime, in.EndTime, in.Location, in.MaxAttendees, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		if pqCode(err) == codeCheckViolation {
			return nil, domain.NewValidationError("event violates a field constraint")
		}
		return nil, storageErr(err)
	}
	return e, nil
}

func (r *eventRepository) UpdateStatus(ctx context.Context, id int64, status domain.EventStatus) error {
	query := `UPDATE events SET status = $1, updated_at = NOW() WHERE id = $2 AND status <> $1`
	if _, err := r.DB.ExecContext(ctx, query, string(status), id); err != nil {
		return storageErr(err)
	}
	return nil
}

func (r *eventRepository) RefreshStatuses(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE events
		SET status = CASE WHEN end_time <= $1 THEN 'completed' ELSE 'ongoing' END,
		    updated_at = NOW()
		WHERE (start_time <= $1 AND $1 < end_time AND status <> 'ongoing')
		   OR (end_time <= $1 AND status <> 'completed')
	`
	res, err := r.DB.ExecContext(ctx, query, now)
	if err != nil {
		return 0, storageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (r *eventRepository) List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	var where []string
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Location != "" {
		args = append(args, filter.Location)
		where = append(where, fmt.Sprintf("location = $%d", len(args)))
	}
	query := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY start_time ASC, id ASC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return events, nil
}
