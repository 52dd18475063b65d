package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
)

type gradeFixture struct {
	store       *memStore
	grades      *GradeService
	disciplines *DisciplineService
	period      *models.Period
}

func newGradeFixture() *gradeFixture {
	store := newMemStore()
	enr := store.addEnrollment(models.Enrollment{UserID: "u1"})
	period := store.addPeriod(models.Period{UserID: "u1", EnrollmentID: enr.ID, Name: "2024.1"})
	settings := PlannerSettings{DefaultPassingGrade: 7, AbsenceRatio: 0.25}
	return &gradeFixture{
		store:       store,
		grades:      NewGradeService(memDisciplines{store}, memPeriods{store}, memEnrollments{store}, nil, settings, nil, nil),
		disciplines: NewDisciplineService(memDisciplines{store}, memPeriods{store}, nil, nil, nil),
		period:      period,
	}
}

func weighted(pairs ...interface{}) models.GradeConfig {
	cfg := models.GradeConfig{Rule: models.GradeRuleWeighted}
	for i := 0; i < len(pairs); i += 2 {
		cfg.Evaluations = append(cfg.Evaluations, models.EvaluationDefinition{Name: pairs[i].(string), Weight: floatPtr(pairs[i+1].(float64))})
	}
	return cfg
}

func TestDisciplineCreateDefaultsAndAlignment(t *testing.T) {
	f := newGradeFixture()
	cfg := weighted("P1", 40.0, "P2", 60.0)
	d, err := f.disciplines.Create(context.Background(), "u1", f.period.ID, models.DisciplineRequest{
		Name: " Calculus ", Code: "MAT101", Workload: 60, HoursPerClass: 2, GradeConfig: &cfg,
		Schedules: []models.Schedule{{Day: 1, Start: "08:00", End: "10:00"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Calculus", d.Name)
	assert.Equal(t, f.period.EnrollmentID, d.EnrollmentID)
	require.Len(t, d.Grades, 2)
	assert.Nil(t, d.Grades[0].Grade)

	plain, err := f.disciplines.Create(context.Background(), "u1", f.period.ID, models.DisciplineRequest{Name: "Physics"})
	require.NoError(t, err)
	assert.Equal(t, models.GradeRuleArithmetic, plain.GradeConfig.Rule)
	assert.Empty(t, plain.Grades)
}

func TestDisciplineCreateRejectsInvalidWeights(t *testing.T) {
	f := newGradeFixture()
	cfg := weighted("P1", 40.0, "P2", 50.0)
	_, err := f.disciplines.Create(context.Background(), "u1", f.period.ID, models.DisciplineRequest{Name: "Calculus", GradeConfig: &cfg})
	assert.ErrorIs(t, err, appErrors.ErrInvalidWeights)
}

func TestDisciplineCreateRefusedOnClosedPeriod(t *testing.T) {
	f := newGradeFixture()
	require.NoError(t, memPeriods{f.store}.UpdateStatus(context.Background(), "u1", f.period.ID, models.PeriodStatusClosed))
	_, err := f.disciplines.Create(context.Background(), "u1", f.period.ID, models.DisciplineRequest{Name: "Calculus"})
	assert.ErrorIs(t, err, appErrors.ErrPeriodClosed)

	_, err = f.disciplines.Create(context.Background(), "u1", "missing", models.DisciplineRequest{Name: "Calculus"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestGradeUpdateConfigKeepsSurvivingValues(t *testing.T) {
	f := newGradeFixture()
	d := f.store.addDiscipline(models.Discipline{
		UserID: "u1", EnrollmentID: f.period.EnrollmentID, PeriodID: f.period.ID,
		GradeConfig: models.GradeConfig{Rule: models.GradeRuleArithmetic, Evaluations: []models.EvaluationDefinition{{Name: "P1"}, {Name: "P2"}}},
		Grades:      models.GradeEntries{{Name: "P1", Grade: floatPtr(8)}, {Name: "P2", Grade: floatPtr(6)}},
	})

	updated, err := f.grades.UpdateConfig(context.Background(), "u1", d.ID, weighted("P1", 30.0, "P3", 70.0))
	require.NoError(t, err)
	require.Len(t, updated.Grades, 2)
	assert.Equal(t, "P1", updated.Grades[0].Name)
	assert.Equal(t, 8.0, *updated.Grades[0].Grade)
	assert.Equal(t, "P3", updated.Grades[1].Name)
	assert.Nil(t, updated.Grades[1].Grade)
}

func TestGradeUpdateConfigStoresTrimmedNames(t *testing.T) {
	f := newGradeFixture()
	d := f.store.addDiscipline(models.Discipline{
		UserID: "u1", EnrollmentID: f.period.EnrollmentID, PeriodID: f.period.ID,
		GradeConfig: models.GradeConfig{Rule: models.GradeRuleArithmetic, Evaluations: []models.EvaluationDefinition{{Name: "P1"}}},
		Grades:      models.GradeEntries{{Name: "P1", Grade: floatPtr(8)}},
	})

	updated, err := f.grades.UpdateConfig(context.Background(), "u1", d.ID, weighted(" P1 ", 40.0, "P2\t", 60.0))
	require.NoError(t, err)
	stored := f.store.discipline(d.ID)
	assert.Equal(t, "P1", stored.GradeConfig.Evaluations[0].Name)
	assert.Equal(t, "P2", stored.GradeConfig.Evaluations[1].Name)
	require.Len(t, updated.Grades, 2)
	assert.Equal(t, 8.0, *updated.Grades[0].Grade)

	_, err = f.grades.UpdateGrades(context.Background(), "u1", d.ID, models.UpdateGradesRequest{Grades: []models.GradeEntry{{Name: "P2", Grade: floatPtr(9)}}})
	require.NoError(t, err)
}

func TestDisciplineCreateStoresTrimmedEvaluationNames(t *testing.T) {
	f := newGradeFixture()
	cfg := models.GradeConfig{Rule: models.GradeRuleArithmetic, Evaluations: []models.EvaluationDefinition{{Name: "  Exam "}}}
	d, err := f.disciplines.Create(context.Background(), "u1", f.period.ID, models.DisciplineRequest{Name: "Calculus", GradeConfig: &cfg})
	require.NoError(t, err)
	assert.Equal(t, "Exam", d.GradeConfig.Evaluations[0].Name)
	assert.Equal(t, "Exam", d.Grades[0].Name)
	assert.Equal(t, "  Exam ", cfg.Evaluations[0].Name)
}

func TestGradeUpdateConfigValidatesWeights(t *testing.T) {
	f := newGradeFixture()
	d := f.store.addDiscipline(models.Discipline{UserID: "u1", EnrollmentID: f.period.EnrollmentID, PeriodID: f.period.ID, GradeConfig: models.GradeConfig{Rule: models.GradeRuleArithmetic}})

	_, err := f.grades.UpdateConfig(context.Background(), "u1", d.ID, weighted("P1", 30.0, "P2", 30.0))
	assert.ErrorIs(t, err, appErrors.ErrInvalidWeights)

	_, err = f.grades.UpdateConfig(context.Background(), "u1", d.ID, models.GradeConfig{Rule: "median"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	stored := f.store.discipline(d.ID)
	assert.Equal(t, models.GradeRuleArithmetic, stored.GradeConfig.Rule)
}

func TestGradeUpdateGrades(t *testing.T) {
	f := newGradeFixture()
	d := f.store.addDiscipline(models.Discipline{
		UserID: "u1", EnrollmentID: f.period.EnrollmentID, PeriodID: f.period.ID,
		GradeConfig: weighted("P1", 40.0, "P2", 60.0),
		Grades:      models.GradeEntries{{Name: "P1", Grade: floatPtr(5)}, {Name: "P2"}},
	})

	updated, err := f.grades.UpdateGrades(context.Background(), "u1", d.ID, models.UpdateGradesRequest{Grades: []models.GradeEntry{{Name: "P2", Grade: floatPtr(10)}}})
	require.NoError(t, err)
	assert.Equal(t, 5.0, *updated.Grades[0].Grade)
	assert.Equal(t, 10.0, *updated.Grades[1].Grade)

	summary, err := f.grades.Summary(context.Background(), "u1", d.ID)
	require.NoError(t, err)
	require.NotNil(t, summary.Average)
	assert.Equal(t, 8.0, *summary.Average)
	assert.Equal(t, models.StatusApproved, summary.Status)
}

func TestGradeUpdateGradesRejectsBadInput(t *testing.T) {
	f := newGradeFixture()
	d := f.store.addDiscipline(models.Discipline{
		UserID: "u1", EnrollmentID: f.period.EnrollmentID, PeriodID: f.period.ID,
		GradeConfig: models.GradeConfig{Rule: models.GradeRuleArithmetic, Evaluations: []models.EvaluationDefinition{{Name: "P1"}}},
		Grades:      models.GradeEntries{{Name: "P1", Grade: floatPtr(5)}},
	})

	cases := map[string][]models.GradeEntry{
		"above range":  {{Name: "P1", Grade: floatPtr(10.5)}},
		"below range":  {{Name: "P1", Grade: floatPtr(-1)}},
		"unknown name": {{Name: "P9", Grade: floatPtr(5)}},
		"duplicate":    {{Name: "P1", Grade: floatPtr(5)}, {Name: "P1", Grade: floatPtr(6)}},
	}
	for name, grades := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.grades.UpdateGrades(context.Background(), "u1", d.ID, models.UpdateGradesRequest{Grades: grades})
			assert.ErrorIs(t, err, appErrors.ErrValidation)
			assert.Equal(t, 5.0, *f.store.discipline(d.ID).Grades[0].Grade)
		})
	}
}

func TestGradeUpdateGradesRefusedOnClosedPeriod(t *testing.T) {
	f := newGradeFixture()
	d := f.store.addDiscipline(models.Discipline{
		UserID: "u1", EnrollmentID: f.period.EnrollmentID, PeriodID: f.period.ID,
		GradeConfig: models.GradeConfig{Rule: models.GradeRuleArithmetic, Evaluations: []models.EvaluationDefinition{{Name: "P1"}}},
	})
	require.NoError(t, memPeriods{f.store}.UpdateStatus(context.Background(), "u1", f.period.ID, models.PeriodStatusClosed))

	_, err := f.grades.UpdateGrades(context.Background(), "u1", d.ID, models.UpdateGradesRequest{Grades: []models.GradeEntry{{Name: "P1", Grade: floatPtr(7)}}})
	assert.ErrorIs(t, err, appErrors.ErrPeriodClosed)
}

func TestGradeSummaryNotAvailable(t *testing.T) {
	f := newGradeFixture()
	d := f.store.addDiscipline(models.Discipline{UserID: "u1", EnrollmentID: f.period.EnrollmentID, PeriodID: f.period.ID, GradeConfig: models.GradeConfig{Rule: models.GradeRuleArithmetic}})

	summary, err := f.grades.Summary(context.Background(), "u1", d.ID)
	require.NoError(t, err)
	assert.Nil(t, summary.Average)
	assert.Equal(t, models.StatusNotAvailable, summary.Status)

	_, err = f.grades.Summary(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestDisciplineUpdateAndDelete(t *testing.T) {
	f := newGradeFixture()
	d, err := f.disciplines.Create(context.Background(), "u1", f.period.ID, models.DisciplineRequest{Name: "Calculus", Workload: 60, HoursPerClass: 2})
	require.NoError(t, err)

	updated, err := f.disciplines.Update(context.Background(), "u1", d.ID, models.DisciplineRequest{Name: "Calculus I", Teacher: "Ana", Workload: 80, HoursPerClass: 2})
	require.NoError(t, err)
	assert.Equal(t, "Calculus I", updated.Name)
	assert.Equal(t, 80.0, updated.Workload)

	require.NoError(t, f.disciplines.Delete(context.Background(), "u1", d.ID))
	_, err = f.disciplines.Get(context.Background(), "u1", d.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
