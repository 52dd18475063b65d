package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-planner-api/internal/models"
	"github.com/noah-isme/academic-planner-api/pkg/cache"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
)

type absenceFixture struct {
	store   *memStore
	cache   *memCache
	svc     *AbsenceService
	metrics *MetricsService
	period  *models.Period
}

func newAbsenceFixture(t *testing.T) *absenceFixture {
	t.Helper()
	store := newMemStore()
	enr := store.addEnrollment(models.Enrollment{UserID: "u1", PassingGrade: floatPtr(6)})
	period := store.addPeriod(models.Period{UserID: "u1", EnrollmentID: enr.ID, Name: "2024.1"})
	mc := newMemCache()
	metrics := NewMetricsService()
	svc := NewAbsenceService(AbsenceServiceParams{
		Absences:    memAbsences{store},
		Disciplines: memDisciplines{store},
		Periods:     memPeriods{store},
		Enrollments: memEnrollments{store},
		Cache:       NewCacheService(mc, metrics, time.Minute, zap.NewNop(), true),
		Metrics:     metrics,
		Settings:    PlannerSettings{DefaultPassingGrade: 7, AbsenceRatio: 0.25},
	})
	return &absenceFixture{store: store, cache: mc, svc: svc, metrics: metrics, period: period}
}

// workload 16h at 2h per class gives 8 classes and a limit of 2 absences.
func (f *absenceFixture) discipline(grades ...*float64) *models.Discipline {
	cfg := models.GradeConfig{Rule: models.GradeRuleArithmetic}
	entries := models.GradeEntries{}
	for i, g := range grades {
		name := string(rune('A' + i))
		cfg.Evaluations = append(cfg.Evaluations, models.EvaluationDefinition{Name: name})
		entries = append(entries, models.GradeEntry{Name: name, Grade: g})
	}
	return f.store.addDiscipline(models.Discipline{
		UserID:        "u1",
		EnrollmentID:  f.period.EnrollmentID,
		PeriodID:      f.period.ID,
		Name:          "Calculus",
		Workload:      16,
		HoursPerClass: 2,
		GradeConfig:   cfg,
		Grades:        entries,
	})
}

func record(t *testing.T, f *absenceFixture, disciplineID string) *models.AbsenceResult {
	t.Helper()
	res, err := f.svc.Record(context.Background(), "u1", disciplineID, models.RecordAbsenceRequest{Date: "2024-03-04"})
	require.NoError(t, err)
	return res
}

func TestAbsenceRecordWithinLimit(t *testing.T) {
	f := newAbsenceFixture(t)
	d := f.discipline(floatPtr(8), floatPtr(9))

	res := record(t, f, d.ID)
	require.NotNil(t, res.Absence)
	assert.NotEmpty(t, res.Absence.ID)
	assert.Equal(t, 1, res.Discipline.Absences)
	assert.False(t, res.Discipline.FailedByAbsence)
	assert.Equal(t, 8, res.Summary.TotalClasses)
	assert.Equal(t, 2, res.Summary.AbsenceLimit)
	assert.Equal(t, 1, res.Summary.RemainingAbsences)
	assert.Equal(t, models.StatusApproved, res.Summary.Status)
	assert.Equal(t, 1, f.store.absenceCount(d.ID))
}

func TestAbsenceRecordPastLimitFailsAndZeroesGrades(t *testing.T) {
	f := newAbsenceFixture(t)
	d := f.discipline(floatPtr(8), nil)

	record(t, f, d.ID)
	record(t, f, d.ID)
	res := record(t, f, d.ID)

	assert.Equal(t, 3, res.Discipline.Absences)
	assert.True(t, res.Discipline.FailedByAbsence)
	for _, g := range res.Discipline.Grades {
		require.NotNil(t, g.Grade)
		assert.Equal(t, 0.0, *g.Grade)
	}
	assert.Equal(t, models.StatusFailedByAbsence, res.Summary.EffectiveStatus)
	assert.Equal(t, 0, res.Summary.RemainingAbsences)

	stored := f.store.discipline(d.ID)
	assert.True(t, stored.FailedByAbsence)
	assert.Equal(t, uint64(1), f.metrics.Snapshot().AbsenceTransitions)
}

func TestAbsenceRemoveRecoversWithoutRestoringGrades(t *testing.T) {
	f := newAbsenceFixture(t)
	d := f.discipline(floatPtr(8))

	record(t, f, d.ID)
	record(t, f, d.ID)
	last := record(t, f, d.ID)
	require.True(t, last.Discipline.FailedByAbsence)

	res, err := f.svc.Remove(context.Background(), "u1", d.ID, last.Absence.ID)
	require.NoError(t, err)
	assert.Nil(t, res.Absence)
	assert.Equal(t, 2, res.Discipline.Absences)
	assert.False(t, res.Discipline.FailedByAbsence)
	require.NotNil(t, res.Discipline.Grades[0].Grade)
	assert.Equal(t, 0.0, *res.Discipline.Grades[0].Grade)
	assert.Equal(t, 2, f.store.absenceCount(d.ID))
	assert.Equal(t, uint64(2), f.metrics.Snapshot().AbsenceTransitions)
}

func TestAbsenceZeroLimitNeverFails(t *testing.T) {
	f := newAbsenceFixture(t)
	d := f.store.addDiscipline(models.Discipline{UserID: "u1", EnrollmentID: f.period.EnrollmentID, PeriodID: f.period.ID, Grades: models.GradeEntries{{Name: "P1", Grade: floatPtr(9)}}})

	for i := 0; i < 5; i++ {
		res := record(t, f, d.ID)
		assert.False(t, res.Discipline.FailedByAbsence)
		assert.Equal(t, 9.0, *res.Discipline.Grades[0].Grade)
	}
	assert.Equal(t, 5, f.store.discipline(d.ID).Absences)
}

func TestAbsenceRecordRefusedOnClosedPeriod(t *testing.T) {
	f := newAbsenceFixture(t)
	d := f.discipline(floatPtr(8))
	require.NoError(t, memPeriods{f.store}.UpdateStatus(context.Background(), "u1", f.period.ID, models.PeriodStatusClosed))

	_, err := f.svc.Record(context.Background(), "u1", d.ID, models.RecordAbsenceRequest{Date: "2024-03-04"})
	assert.ErrorIs(t, err, appErrors.ErrPeriodClosed)
	assert.Equal(t, 0, f.store.absenceCount(d.ID))
	assert.Equal(t, 0, f.store.discipline(d.ID).Absences)
}

func TestAbsenceMissingTargets(t *testing.T) {
	f := newAbsenceFixture(t)
	d := f.discipline(floatPtr(8))

	_, err := f.svc.Record(context.Background(), "u1", "missing", models.RecordAbsenceRequest{Date: "2024-03-04"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = f.svc.Record(context.Background(), "u2", d.ID, models.RecordAbsenceRequest{Date: "2024-03-04"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = f.svc.Remove(context.Background(), "u1", d.ID, "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, 0, f.store.discipline(d.ID).Absences)

	_, err = f.svc.Record(context.Background(), "u1", d.ID, models.RecordAbsenceRequest{Date: "04/03/2024"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAbsenceRemoveNeverGoesNegative(t *testing.T) {
	f := newAbsenceFixture(t)
	d := f.discipline(floatPtr(8))
	res := record(t, f, d.ID)

	// a stale counter of zero must not drop below zero when the row is removed
	_, err := memDisciplines{f.store}.Mutate(context.Background(), "u1", d.ID, func(x *models.Discipline) error {
		x.Absences = 0
		return nil
	})
	require.NoError(t, err)

	out, err := f.svc.Remove(context.Background(), "u1", d.ID, res.Absence.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Discipline.Absences)
}

func TestAbsenceMutationInvalidatesDashboard(t *testing.T) {
	f := newAbsenceFixture(t)
	d := f.discipline(floatPtr(8))
	key := cache.DashboardKey("u1")
	require.NoError(t, f.cache.Set(context.Background(), key, map[string]string{"stale": "yes"}, time.Minute))

	record(t, f, d.ID)
	assert.False(t, f.cache.has(key))
}

func TestAbsenceConcurrentRecordsAreSerialised(t *testing.T) {
	f := newAbsenceFixture(t)
	d := f.discipline(floatPtr(8))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Record(context.Background(), "u1", d.ID, models.RecordAbsenceRequest{Date: "2024-03-04"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored := f.store.discipline(d.ID)
	assert.Equal(t, 10, stored.Absences)
	assert.Equal(t, 10, f.store.absenceCount(d.ID))
	assert.True(t, stored.FailedByAbsence)
	assert.Equal(t, uint64(1), f.metrics.Snapshot().AbsenceTransitions)
}

func TestAbsenceList(t *testing.T) {
	f := newAbsenceFixture(t)
	d := f.discipline()
	_, err := f.svc.Record(context.Background(), "u1", d.ID, models.RecordAbsenceRequest{Date: "2024-03-01"})
	require.NoError(t, err)
	_, err = f.svc.Record(context.Background(), "u1", d.ID, models.RecordAbsenceRequest{Date: "2024-03-08", Justification: strPtr("  medical  ")})
	require.NoError(t, err)

	items, err := f.svc.List(context.Background(), "u1", d.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "2024-03-08", items[0].Date.Format(models.DateLayout))
	require.NotNil(t, items[0].Justification)
	assert.Equal(t, "medical", *items[0].Justification)
}
