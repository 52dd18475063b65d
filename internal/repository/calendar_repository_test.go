package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-planner-api/internal/models"
)

var calendarRowColumns = []string{"id", "user_id", "period_id", "title", "date", "category", "color", "reminder", "discipline_id", "created_at", "updated_at"}

func TestCalendarListWithRange(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	rows := sqlmock.NewRows(calendarRowColumns).AddRow("c1", "u1", "p1", "P1 Cálculo", from, "exam", "#ff0000", "1d", "d1", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM calendar_events WHERE user_id = $1 AND period_id = $2 AND date >= $3 AND date <= $4 ORDER BY date ASC")).
		WithArgs("u1", "p1", from, to).
		WillReturnRows(rows)

	events, err := repo.List(context.Background(), "u1", models.CalendarFilter{PeriodID: "p1", DateRange: models.DateRange{From: &from, To: &to}})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.ReminderOneDay, events[0].Reminder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarListOnDaysExpandsIn(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	d1 := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND reminder <> $2 AND date IN ($3, $4)")).
		WithArgs("u1", "none", d1, d2).
		WillReturnRows(sqlmock.NewRows(calendarRowColumns))

	_, err := repo.ListOnDays(context.Background(), "u1", []time.Time{d1, d2})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarCreateBatchAllOrNothing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO calendar_events").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO calendar_events").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.CreateBatch(context.Background(), []*models.CalendarEvent{{UserID: "u1", PeriodID: "p1"}, {UserID: "u1", PeriodID: "p1"}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
