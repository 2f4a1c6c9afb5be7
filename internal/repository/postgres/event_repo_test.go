package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"eventmanager/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eventRowColumns = []string{"id", "name", "description", "start_time", "end_time", "location", "max_attendees", "status", "created_at", "updated_at"}

func TestEventRepository_Create(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	desc := "Annual meetup"

	tests := []struct {
		name    string
		event   *domain.Event
		mock    func(mock sqlmock.Sqlmock)
		wantID  int64
		wantErr error
	}{
		{
			name:  "success",
			event: domain.NewEvent("GopherCon", &desc, start, end, "Berlin", 100, now),
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events \(name, description, start_time, end_time, location, max_attendees, status, created_at, updated_at\)`).
					WithArgs("GopherCon", "Annual meetup", start, end, "Berlin", 100, "scheduled", now, now).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
			},
			wantID: 1,
		},
		{
			name:  "nil description is stored as NULL",
			event: domain.NewEvent("Meetup", nil, start, end, "Paris", 10, now),
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events`).
					WithArgs("Meetup", nil, start, end, "Paris", 10, "scheduled", now, now).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
			},
			wantID: 2,
		},
		{
			name:  "check violation is a validation error",
			event: domain.NewEvent("Bad", nil, end, start, "Paris", 10, now),
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events`).
					WillReturnError(&pq.Error{Code: "23514"})
			},
			wantErr: domain.ErrValidation,
		},
		{
			name:  "connection error",
			event: domain.NewEvent("Conf", nil, start, end, "Paris", 10, now),
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: domain.ErrStorageUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(db)
			err = repo.Create(ctx, tt.event)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, tt.event.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		want    *domain.Event
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM events WHERE id = $1`)).
					WithArgs(int64(1)).
					WillReturnRows(sqlmock.NewRows(eventRowColumns).
						AddRow(int64(1), "Conf", nil, start, end, "Hall", 5, "scheduled", ts, ts))
			},
			want: &domain.Event{
				ID: 1, Name: "Conf", StartTime: start, EndTime: end, Location: "Hall",
				MaxAttendees: 5, Status: domain.EventStatusScheduled, CreatedAt: ts, UpdatedAt: ts,
			},
		},
		{
			name: "not found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM events WHERE id = $1`)).
					WithArgs(int64(1)).
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrEventNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			got, err := NewEventRepository(db).GetByID(ctx, 1)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_Update(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	desc := "updated"
	in := domain.EventInput{Name: "Conf 2", Description: &desc, StartTime: start, EndTime: end, Location: "Hall B", MaxAttendees: 50}

	t.Run("success keeps stored status", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`UPDATE events\s+SET name = \$1, description = \$2`).
			WithArgs("Conf 2", "updated", start, end, "Hall B", 50, int64(4)).
			WillReturnRows(sqlmock.NewRows(eventRowColumns).
				AddRow(int64(4), "Conf 2", "updated", start, end, "Hall B", 50, "ongoing", ts, ts))

		got, err := NewEventRepository(db).Update(ctx, 4, in)
		require.NoError(t, err)
		require.NotNil(t, got.Description)
		assert.Equal(t, "updated", *got.Description)
		assert.Equal(t, domain.EventStatusOngoing, got.Status)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`UPDATE events`).WillReturnError(sql.ErrNoRows)

		_, err = NewEventRepository(db).Update(ctx, 4, in)
		require.ErrorIs(t, err, domain.ErrEventNotFound)
	})
}

func TestEventRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE events SET status = $1, updated_at = NOW() WHERE id = $2 AND status <> $1`)).
		WithArgs("completed", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewEventRepository(db).UpdateStatus(context.Background(), 3, domain.EventStatusCompleted))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_RefreshStatuses(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE events\s+SET status = CASE WHEN end_time <= \$1 THEN 'completed' ELSE 'ongoing' END`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := NewEventRepository(db).RefreshStatuses(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_List(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter domain.EventFilter
		query  string
		args   []driver.Value
	}{
		{
			name:  "no filters",
			query: `FROM events ORDER BY start_time ASC, id ASC`,
		},
		{
			name:   "status and location",
			filter: domain.EventFilter{Status: domain.EventStatusOngoing, Location: "Berlin"},
			query:  `FROM events WHERE status = $1 AND location = $2 ORDER BY start_time ASC, id ASC`,
			args:   []driver.Value{"ongoing", "Berlin"},
		},
		{
			name:   "location only",
			filter: domain.EventFilter{Location: "Berlin"},
			query:  `FROM events WHERE location = $1 ORDER BY`,
			args:   []driver.Value{"Berlin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			exp := mock.ExpectQuery(regexp.QuoteMeta(tt.query))
			if len(tt.args) > 0 {
				exp = exp.WithArgs(tt.args...)
			}
			exp.WillReturnRows(sqlmock.NewRows(eventRowColumns).
				AddRow(int64(1), "A", nil, start, start.Add(time.Hour), "Berlin", 5, "ongoing", ts, ts).
				AddRow(int64(2), "B", "desc", start, start.Add(time.Hour), "Berlin", 5, "ongoing", ts, ts))

			got, err := NewEventRepository(db).List(ctx, tt.filter)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Nil(t, got[0].Description)
			require.NotNil(t, got[1].Description)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
