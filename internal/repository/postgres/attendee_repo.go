package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"eventmanager/internal/domain"
)

const attendeeColumns = `id, first_name, last_name, email, phone_number, event_id, check_in_status, created_at`

type attendeeRepository struct {
	DB *sql.DB
}

func NewAttendeeRepository(db *sql.DB) domain.AttendeeRepository {
	return &attendeeRepository{
		DB: db,
	}
}

// Register locks the event row for the duration of the transaction, so
// concurrent registrations for one event run their checks and insert one at a time.
func (r *attendeeRepository) Register(ctx context.Context, a *domain.Attendee) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", storageErr(err))
	}
	defer tx.Rollback()

	var maxAttendees int
	err = tx.QueryRowContext(ctx, `SELECT max_attendees FROM events WHERE id = $1 FOR UPDATE`, a.EventID).Scan(&maxAttendees)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrEventNotFound
		}
		return fmt.Errorf("lock event: %w", storageErr(err))
	}

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM attendees WHERE event_id = $1 AND email = $2)`,
		a.EventID, a.Email,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check duplicate: %w", storageErr(err))
	}
	if exists {
		return domain.ErrDuplicateAttendee
	}

	var count int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM attendees WHERE event_id = $1`, a.EventID).Scan(&count); err != nil {
		return fmt.Errorf("count attendees: %w", storageErr(err))
	}
	if count >= maxAttendees {
		return domain.ErrEventFull
	}

	query := `
		INSERT INTO attendees (first_name, last_name, email, phone_number, event_id, check_in_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, query,
		a.FirstName, a.LastName, a.Email, a.PhoneNumber, a.EventID, a.CheckInStatus, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		switch pqCode(err) {
		case codeUniqueViolation:
			return domain.ErrDuplicateAttendee
		case codeForeignKeyViolation:
			return domain.ErrEventNotFound
		}
		return fmt.Errorf("insert attendee: %w", storageErr(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", storageErr(err))
	}
	return nil
}

func (r *attendeeRepository) ListByEvent(ctx context.Context, eventID int64, filter domain.AttendeeFilter) ([]*domain.Attendee, error) {
	where := []string{"event_id = $1"}
	args := []any{eventID}
	addLike := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, "%"+escapeLike(value)+"%")
		where = append(where, fmt.Sprintf("%s ILIKE $%d", column, len(args)))
	}
	addLike("first_name", filter.FirstName)
	addLike("last_name", filter.LastName)
	addLike("email", filter.Email)
	if filter.CheckInStatus != nil {
		args = append(args, *filter.CheckInStatus)
		where = append(where, fmt.Sprintf("check_in_status = $%d", len(args)))
	}

	query := `SELECT ` + attendeeColumns + ` FROM attendees WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id ASC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	attendees := make([]*domain.Attendee, 0)
	for rows.Next() {
		a := &domain.Attendee{}
		if err := rows.Scan(&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.PhoneNumber, &a.EventID, &a.CheckInStatus, &a.CreatedAt); err != nil {
			return nil, err
		}
		attendees = append(attendees, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return attendees, nil
}

func (r *attendeeRepository) CheckIn(ctx context.Context, attendeeID int64) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE attendees SET check_in_status = TRUE WHERE id = $1`, attendeeID)
	if err != nil {
		return storageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrAttendeeNotFound
	}
	return nil
}

func (r *attendeeRepository) CheckInByEmails(ctx context.Context, eventID int64, emails []string) (int64, error) {
	if len(emails) == 0 {
		return 0, nil
	}
	query := `
		UPDATE attendees
		SET check_in_status = TRUE
		WHERE event_id = $1 AND email = ANY($2) AND check_in_status = FALSE
	`
	res, err := r.DB.ExecContext(ctx, query, eventID, pq.Array(emails))
	if err != nil {
		return 0, storageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
