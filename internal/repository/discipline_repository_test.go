package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-planner-api/internal/models"
)

func TestDisciplineCreateAppendsPosition(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDisciplineRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(position), -1) + 1 FROM disciplines WHERE user_id = $1 AND period_id = $2")).
		WithArgs("u1", "p1").
		WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(3))
	mock.ExpectExec("INSERT INTO disciplines").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	d := &models.Discipline{UserID: "u1", EnrollmentID: "e1", PeriodID: "p1", Name: "Física I"}
	require.NoError(t, repo.Create(context.Background(), d))
	assert.Equal(t, 3, d.Position)
	assert.NotEmpty(t, d.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDisciplineMutateWritesBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDisciplineRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockDisciplineQuery).WithArgs("d1", "u1").WillReturnRows(disciplineRow(0, false))
	mock.ExpectExec("UPDATE disciplines SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	nine := 9.0
	d, err := repo.Mutate(context.Background(), "u1", "d1", func(d *models.Discipline) error {
		d.Grades[1].Grade = &nine
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 9.0, *d.Grades[1].Grade)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDisciplineDeleteRemovesAbsences(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDisciplineRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockDisciplineQuery).WillReturnRows(disciplineRow(2, false))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM absences WHERE discipline_id = $1")).WithArgs("d1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE calendar_events SET discipline_id = NULL").WithArgs("d1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE study_sessions SET discipline_id = NULL").WithArgs("d1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM disciplines WHERE id = $1")).WithArgs("d1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "u1", "d1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDisciplineReorder(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDisciplineRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE disciplines SET position = $1")).WithArgs(0, sqlmock.AnyArg(), "d2", "u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE disciplines SET position = $1")).WithArgs(1, sqlmock.AnyArg(), "d1", "u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Reorder(context.Background(), "u1", []string{"d2", "d1"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
