package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-planner-api/internal/models"
)

var periodRowColumns = []string{"id", "user_id", "enrollment_id", "name", "start_date", "end_date", "status", "calendar_url", "created_at", "updated_at"}

func TestPeriodListOrdersByStart(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(periodRowColumns).
		AddRow("p1", "u1", "e1", "2024.1", now.AddDate(0, -6, 0), now.AddDate(0, -1, 0), "closed", nil, now, now).
		AddRow("p2", "u1", "e1", "2024.2", now, now.AddDate(0, 5, 0), "active", "https://cal", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM periods WHERE user_id = $1 AND enrollment_id = $2 ORDER BY start_date ASC, created_at ASC")).
		WithArgs("u1", "e1").
		WillReturnRows(rows)

	periods, err := repo.ListByEnrollment(context.Background(), "u1", "e1")
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, models.PeriodStatusClosed, periods[0].Status)
	require.NotNil(t, periods[1].CalendarURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodCreateSetsPointer(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM enrollments WHERE id = $1 AND user_id = $2 FOR UPDATE")).
		WithArgs("e1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("e1"))
	mock.ExpectExec("INSERT INTO periods").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET active_period_id = $1")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	period := &models.Period{UserID: "u1", EnrollmentID: "e1", Name: "2024.2"}
	require.NoError(t, repo.Create(context.Background(), period))
	assert.NotEmpty(t, period.ID)
	assert.Equal(t, models.PeriodStatusActive, period.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodCreateUnknownEnrollment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM enrollments").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Period{UserID: "u1", EnrollmentID: "ghost"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodDeleteCascadeOrder(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM periods WHERE id = $1 AND user_id = $2 FOR UPDATE")).
		WithArgs("p1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p1"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM absences WHERE discipline_id IN (SELECT id FROM disciplines WHERE period_id = $1)")).WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("UPDATE study_sessions SET discipline_id = NULL").WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM disciplines WHERE period_id = $1")).WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM calendar_events WHERE period_id = $1")).WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM periods WHERE id = $1")).WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteCascade(context.Background(), "u1", "p1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodDeleteCascadeRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM periods").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p1"))
	mock.ExpectExec("DELETE FROM absences").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("UPDATE study_sessions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM disciplines").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.DeleteCascade(context.Background(), "u1", "p1")
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodUpdateStatusMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE periods SET status = $1")).
		WithArgs("closed", sqlmock.AnyArg(), "p9", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "u1", "p9", models.PeriodStatusClosed)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
