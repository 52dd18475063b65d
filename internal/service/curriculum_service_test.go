package service

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
)

type memCurriculum struct {
	mu       sync.Mutex
	seq      int
	subjects map[string]*models.CurriculumSubject
}

func (m *memCurriculum) ListByEnrollment(ctx context.Context, userID, enrollmentID string) ([]models.CurriculumSubject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.CurriculumSubject{}
	for _, s := range m.subjects {
		if s.UserID == userID && s.EnrollmentID == enrollmentID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TargetPeriod != out[j].TargetPeriod {
			return out[i].TargetPeriod < out[j].TargetPeriod
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *memCurriculum) Create(ctx context.Context, subject *models.CurriculumSubject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	subject.ID = "subj-" + strconv.Itoa(m.seq)
	stored := *subject
	m.subjects[subject.ID] = &stored
	return nil
}

func (m *memCurriculum) Delete(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subjects[id]
	if !ok || s.UserID != userID {
		return sql.ErrNoRows
	}
	delete(m.subjects, id)
	return nil
}

func TestCurriculumServiceProgress(t *testing.T) {
	store := newMemStore()
	enr := store.addEnrollment(models.Enrollment{UserID: "u1", PassingGrade: floatPtr(6)})
	p1 := store.addPeriod(models.Period{UserID: "u1", EnrollmentID: enr.ID})
	p2 := store.addPeriod(models.Period{UserID: "u1", EnrollmentID: enr.ID})
	arith := models.GradeConfig{Rule: models.GradeRuleArithmetic, Evaluations: []models.EvaluationDefinition{{Name: "P1"}}}
	graded := func(period *models.Period, code string, grade float64, failedByAbsence bool) {
		store.addDiscipline(models.Discipline{
			UserID: "u1", EnrollmentID: enr.ID, PeriodID: period.ID, Code: code, FailedByAbsence: failedByAbsence,
			GradeConfig: arith, Grades: models.GradeEntries{{Name: "P1", Grade: floatPtr(grade)}},
		})
	}
	graded(p1, "mat101", 8, false)
	graded(p1, "FIS101", 3, false)
	graded(p2, "FIS101", 7, false)
	graded(p1, "QUI101", 9, true)
	store.addDiscipline(models.Discipline{UserID: "u1", EnrollmentID: enr.ID, PeriodID: p2.ID, Code: "ALG201", GradeConfig: arith})

	svc := NewCurriculumService(&memCurriculum{subjects: map[string]*models.CurriculumSubject{}}, memEnrollments{store}, memDisciplines{store}, PlannerSettings{DefaultPassingGrade: 7}, nil, zap.NewNop())
	ctx := context.Background()
	for _, req := range []models.CurriculumSubjectRequest{
		{TargetPeriod: 1, Name: "Calculus", Code: "MAT101"},
		{TargetPeriod: 1, Name: "Physics", Code: "fis101"},
		{TargetPeriod: 1, Name: "Chemistry", Code: "QUI101"},
		{TargetPeriod: 2, Name: "Algebra", Code: "ALG201"},
		{TargetPeriod: 3, Name: "Compilers", Code: "CMP301"},
	} {
		_, err := svc.Create(ctx, "u1", enr.ID, req)
		require.NoError(t, err)
	}

	progress, err := svc.Progress(ctx, "u1", enr.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, progress.Total)
	assert.Equal(t, 2, progress.Completed)
	assert.Equal(t, 1, progress.InProgress)
	assert.Equal(t, 1, progress.Failed)
	assert.Equal(t, 1, progress.Pending)
	assert.Equal(t, 40.0, progress.PercentComplete)

	states := map[string]models.CurriculumProgressState{}
	for _, s := range progress.Subjects {
		states[s.Subject.Name] = s.State
	}
	assert.Equal(t, models.CurriculumCompleted, states["Calculus"])
	assert.Equal(t, models.CurriculumCompleted, states["Physics"])
	assert.Equal(t, models.CurriculumFailed, states["Chemistry"])
	assert.Equal(t, models.CurriculumInProgress, states["Algebra"])
	assert.Equal(t, models.CurriculumPending, states["Compilers"])
}

func TestCurriculumServiceErrors(t *testing.T) {
	store := newMemStore()
	enr := store.addEnrollment(models.Enrollment{UserID: "u1"})
	svc := NewCurriculumService(&memCurriculum{subjects: map[string]*models.CurriculumSubject{}}, memEnrollments{store}, memDisciplines{store}, PlannerSettings{}, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", enr.ID, models.CurriculumSubjectRequest{TargetPeriod: 0, Name: "x", Code: "X"})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(ctx, "u1", "missing", models.CurriculumSubjectRequest{TargetPeriod: 1, Name: "x", Code: "X"})
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Progress(ctx, "u2", enr.ID)
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	require.ErrorIs(t, svc.Delete(ctx, "u1", "missing"), appErrors.ErrNotFound)

	progress, err := svc.Progress(ctx, "u1", enr.ID)
	require.NoError(t, err)
	assert.Zero(t, progress.PercentComplete)
	assert.Empty(t, progress.Subjects)
}
