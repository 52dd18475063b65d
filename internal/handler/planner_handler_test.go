package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-planner-api/internal/dto"
	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
)

type fakePeriodSrv struct {
	closeErr error
	closed   int
}

func (f *fakePeriodSrv) List(ctx context.Context, userID, enrollmentID string) ([]models.Period, error) {
	return []models.Period{{ID: "p1", EnrollmentID: enrollmentID}}, nil
}

func (f *fakePeriodSrv) Get(ctx context.Context, userID, id string) (*models.Period, error) {
	return &models.Period{ID: id}, nil
}

func (f *fakePeriodSrv) Create(ctx context.Context, userID, enrollmentID string, req models.CreatePeriodRequest) (*models.Period, error) {
	return &models.Period{ID: "p2", EnrollmentID: enrollmentID, Name: req.Name}, nil
}

func (f *fakePeriodSrv) Update(ctx context.Context, userID, id string, req models.UpdatePeriodRequest) (*models.Period, error) {
	return nil, appErrors.ErrPeriodClosed
}

func (f *fakePeriodSrv) Close(ctx context.Context, userID, id string) (*models.Period, error) {
	if f.closeErr != nil {
		return nil, f.closeErr
	}
	return &models.Period{ID: id, Status: models.PeriodStatusClosed}, nil
}

func (f *fakePeriodSrv) Reopen(ctx context.Context, userID, id string) (*models.Period, error) {
	return &models.Period{ID: id, Status: models.PeriodStatusActive}, nil
}

func (f *fakePeriodSrv) Delete(ctx context.Context, userID, id string) error { return nil }

func (f *fakePeriodSrv) AutoCloseOutdated(ctx context.Context, userID, enrollmentID string) (int, error) {
	return f.closed, nil
}

func TestPeriodHandlerLifecycle(t *testing.T) {
	srv := &fakePeriodSrv{closed: 2}
	h := NewPeriodHandler(srv)

	c, w := newGinContext(http.MethodPost, "/periods/p1/close", nil)
	asUser(c, "u1")
	withID(c, "p1")
	h.Close(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"status":"closed"`)

	c, w = newGinContext(http.MethodPut, "/periods/p1", mustJSON(t, models.CreatePeriodRequest{Name: "x", StartDate: "2024-01-01", EndDate: "2024-06-01"}))
	asUser(c, "u1")
	withID(c, "p1")
	h.Update(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, appErrors.ErrPeriodClosed.Code, decode(t, w).Error.Code)

	c, w = newGinContext(http.MethodPost, "/enrollments/e1/periods/auto-close", nil)
	asUser(c, "u1")
	withID(c, "e1")
	h.AutoClose(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"closed":2}`, string(decode(t, w).Data))
}

type fakeGradeSrv struct {
	cfg models.GradeConfig
}

func (f *fakeGradeSrv) UpdateConfig(ctx context.Context, userID, disciplineID string, cfg models.GradeConfig) (*models.Discipline, error) {
	f.cfg = cfg
	if cfg.Rule == models.GradeRuleWeighted {
		return nil, appErrors.ErrInvalidWeights
	}
	return &models.Discipline{ID: disciplineID, GradeConfig: cfg}, nil
}

func (f *fakeGradeSrv) UpdateGrades(ctx context.Context, userID, disciplineID string, req models.UpdateGradesRequest) (*models.Discipline, error) {
	return &models.Discipline{ID: disciplineID, Grades: req.Grades}, nil
}

func (f *fakeGradeSrv) Summary(ctx context.Context, userID, disciplineID string) (*models.DisciplineSummary, error) {
	avg := 8.5
	return &models.DisciplineSummary{DisciplineID: disciplineID, Average: &avg, Status: models.StatusApproved}, nil
}

func TestDisciplineHandlerGradeEndpoints(t *testing.T) {
	grades := &fakeGradeSrv{}
	h := NewDisciplineHandler(nil, grades)

	c, w := newGinContext(http.MethodPut, "/disciplines/d1/grade-config", []byte(`{"rule":"weighted","evaluations":[{"name":"P1","weight":60}]}`))
	asUser(c, "u1")
	withID(c, "d1")
	h.UpdateGradeConfig(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrInvalidWeights.Code, decode(t, w).Error.Code)
	require.Len(t, grades.cfg.Evaluations, 1)

	c, w = newGinContext(http.MethodGet, "/disciplines/d1/summary", nil)
	asUser(c, "u1")
	withID(c, "d1")
	h.Summary(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"average":8.5`)
}

type fakeAbsenceSrv struct {
	removed string
}

func (f *fakeAbsenceSrv) List(ctx context.Context, userID, disciplineID string) ([]models.Absence, error) {
	return nil, nil
}

func (f *fakeAbsenceSrv) Record(ctx context.Context, userID, disciplineID string, req models.RecordAbsenceRequest) (*models.AbsenceResult, error) {
	return &models.AbsenceResult{
		Absence:    &models.Absence{ID: "a1", DisciplineID: disciplineID},
		Discipline: &models.Discipline{ID: disciplineID, Absences: 8, FailedByAbsence: true},
	}, nil
}

func (f *fakeAbsenceSrv) Remove(ctx context.Context, userID, disciplineID, absenceID string) (*models.AbsenceResult, error) {
	f.removed = absenceID
	return &models.AbsenceResult{Discipline: &models.Discipline{ID: disciplineID}}, nil
}

func TestAbsenceHandlerRecordAndRemove(t *testing.T) {
	srv := &fakeAbsenceSrv{}
	h := NewAbsenceHandler(srv)

	c, w := newGinContext(http.MethodPost, "/disciplines/d1/absences", []byte(`{"date":"2024-03-04"}`))
	asUser(c, "u1")
	withID(c, "d1")
	h.Record(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"failed_by_absence":true`)

	c, w = newGinContext(http.MethodDelete, "/disciplines/d1/absences/a1", nil)
	asUser(c, "u1")
	withID(c, "d1")
	c.Params = append(c.Params, gin.Param{Key: "absenceId", Value: "a1"})
	h.Remove(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a1", srv.removed)
}

type fakeCalendarSrv struct {
	filter    models.CalendarFilter
	extractOn bool
}

func (f *fakeCalendarSrv) List(ctx context.Context, userID string, filter models.CalendarFilter) ([]models.CalendarEvent, error) {
	f.filter = filter
	return []models.CalendarEvent{}, nil
}

func (f *fakeCalendarSrv) Create(ctx context.Context, userID, periodID string, req models.CalendarEventRequest) (*models.CalendarEvent, error) {
	return &models.CalendarEvent{ID: "ev1", PeriodID: periodID, Title: req.Title}, nil
}

func (f *fakeCalendarSrv) Update(ctx context.Context, userID, id string, req models.CalendarEventRequest) (*models.CalendarEvent, error) {
	return &models.CalendarEvent{ID: id, Title: req.Title}, nil
}

func (f *fakeCalendarSrv) Delete(ctx context.Context, userID, id string) error { return nil }

func (f *fakeCalendarSrv) Reminders(ctx context.Context, userID, day string) ([]models.CalendarEvent, error) {
	return []models.CalendarEvent{{ID: "ev1"}}, nil
}

func (f *fakeCalendarSrv) Extract(ctx context.Context, req models.ExtractEventsRequest) ([]models.ExtractedEvent, error) {
	if !f.extractOn {
		return nil, appErrors.ErrFeatureDisabled
	}
	return []models.ExtractedEvent{{Title: "P1", Date: "2024-04-10", Category: "exam"}}, nil
}

func (f *fakeCalendarSrv) Import(ctx context.Context, userID, periodID string, req models.ImportEventsRequest) ([]models.CalendarEvent, error) {
	return make([]models.CalendarEvent, len(req.Events)), nil
}

func TestCalendarHandlerListParsesRange(t *testing.T) {
	srv := &fakeCalendarSrv{}
	h := NewCalendarHandler(srv)

	c, w := newGinContext(http.MethodGet, "/events?periodId=p1&from=2024-03-01&to=2024-03-31", nil)
	asUser(c, "u1")
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "p1", srv.filter.PeriodID)
	require.NotNil(t, srv.filter.From)
	require.NotNil(t, srv.filter.To)
	assert.Equal(t, 31, srv.filter.To.Day())

	c, w = newGinContext(http.MethodGet, "/events?from=03/01/2024", nil)
	asUser(c, "u1")
	h.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Error.Message, "from")
}

func TestCalendarHandlerExtractDisabled(t *testing.T) {
	srv := &fakeCalendarSrv{}
	h := NewCalendarHandler(srv)

	c, w := newGinContext(http.MethodPost, "/events/extract", []byte(`{"text":"P1 on 10/04"}`))
	asUser(c, "u1")
	h.Extract(c)
	require.Equal(t, http.StatusNotImplemented, w.Code)

	srv.extractOn = true
	c, w = newGinContext(http.MethodPost, "/events/extract", []byte(`{"text":"P1 on 10/04"}`))
	asUser(c, "u1")
	h.Extract(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), "2024-04-10")
}

type fakeTodoSrv struct {
	day string
}

func (f *fakeTodoSrv) List(ctx context.Context, userID, day string) ([]models.Todo, error) {
	f.day = day
	return []models.Todo{}, nil
}

func (f *fakeTodoSrv) Create(ctx context.Context, userID string, req models.CreateTodoRequest) (*models.Todo, error) {
	return &models.Todo{ID: "t1", Text: req.Text}, nil
}

func (f *fakeTodoSrv) ToggleCompleted(ctx context.Context, userID, id string) (*models.Todo, error) {
	return &models.Todo{ID: id, Completed: true}, nil
}

func (f *fakeTodoSrv) TogglePinned(ctx context.Context, userID, id string) (*models.Todo, error) {
	return &models.Todo{ID: id, Pinned: true}, nil
}

func (f *fakeTodoSrv) Delete(ctx context.Context, userID, id string) error { return nil }

func (f *fakeTodoSrv) ClearCompleted(ctx context.Context, userID, day string) (int64, error) {
	f.day = day
	return 3, nil
}

func TestTodoHandler(t *testing.T) {
	srv := &fakeTodoSrv{}
	h := NewTodoHandler(srv)

	c, w := newGinContext(http.MethodGet, "/todos?day=2024-05-02", nil)
	asUser(c, "u1")
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-05-02", srv.day)

	c, w = newGinContext(http.MethodPatch, "/todos/t1/pin", nil)
	asUser(c, "u1")
	withID(c, "t1")
	h.TogglePinned(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"pinned":true`)

	c, w = newGinContext(http.MethodDelete, "/todos/completed", nil)
	asUser(c, "u1")
	h.ClearCompleted(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, srv.day)
	assert.JSONEq(t, `{"removed":3}`, string(decode(t, w).Data))
}

type fakeTranscriptSrv struct {
	format dto.TranscriptFormat
}

func (f *fakeTranscriptSrv) Build(ctx context.Context, userID, enrollmentID string) (*dto.Transcript, error) {
	return &dto.Transcript{Enrollment: models.Enrollment{ID: enrollmentID}}, nil
}

func (f *fakeTranscriptSrv) Export(ctx context.Context, userID, enrollmentID string, format dto.TranscriptFormat) (*dto.TranscriptFile, error) {
	f.format = format
	return &dto.TranscriptFile{Filename: "transcript-cs.csv", ContentType: "text/csv", Content: []byte("Period,Code\n")}, nil
}

func TestTranscriptHandlerExport(t *testing.T) {
	srv := &fakeTranscriptSrv{}
	h := NewTranscriptHandler(srv)

	c, w := newGinContext(http.MethodGet, "/enrollments/e1/transcript/export?format=CSV", nil)
	asUser(c, "u1")
	withID(c, "e1")
	h.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.TranscriptCSV, srv.format)
	assert.Equal(t, `attachment; filename="transcript-cs.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Period,Code\n", w.Body.String())

	c, w = newGinContext(http.MethodGet, "/enrollments/e1/transcript/export?format=xlsx", nil)
	asUser(c, "u1")
	withID(c, "e1")
	h.Export(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	c, _ = newGinContext(http.MethodGet, "/enrollments/e1/transcript/export", nil)
	asUser(c, "u1")
	withID(c, "e1")
	h.Export(c)
	assert.Equal(t, dto.TranscriptPDF, srv.format)
}

type fakeDashboardSrv struct {
	hit bool
}

func (f *fakeDashboardSrv) Get(ctx context.Context, userID string) (*dto.DashboardResponse, bool, error) {
	return &dto.DashboardResponse{UserID: userID, GeneratedAt: time.Date(2024, 4, 10, 18, 0, 0, 0, time.UTC)}, f.hit, nil
}

func TestDashboardHandlerReportsCacheHit(t *testing.T) {
	h := NewDashboardHandler(&fakeDashboardSrv{hit: true})
	c, w := newGinContext(http.MethodGet, "/dashboard", nil)
	asUser(c, "u1")
	h.Get(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Equal(t, "2024-04-10T18:00:00Z", env.Meta["generated_at"])
	assert.Contains(t, env.Meta, "processing_time_ms")
}

type fakeNavigationSrv struct {
	nav dto.NavigationContext
}

func (f *fakeNavigationSrv) Get(userID string) dto.NavigationContext { return f.nav }

func (f *fakeNavigationSrv) SelectEnrollment(ctx context.Context, userID string, req dto.SelectEnrollmentRequest) (dto.NavigationContext, error) {
	f.nav.ActiveEnrollmentID = req.EnrollmentID
	return f.nav, nil
}

func (f *fakeNavigationSrv) SelectPeriod(userID string, req dto.SelectPeriodRequest) (dto.NavigationContext, error) {
	if req.Index >= len(f.nav.Periods) {
		return dto.NavigationContext{}, appErrors.Clone(appErrors.ErrValidation, "period index out of range")
	}
	f.nav.ActivePeriodIndex = req.Index
	return f.nav, nil
}

func (f *fakeNavigationSrv) SetEditing(userID string, req dto.SetEditingRequest) dto.NavigationContext {
	f.nav.EditingDisciplineID = req.DisciplineID
	return f.nav
}

func TestNavigationHandler(t *testing.T) {
	srv := &fakeNavigationSrv{}
	h := NewNavigationHandler(srv)

	c, w := newGinContext(http.MethodPut, "/navigation/enrollment", []byte(`{"enrollmentId":"e1"}`))
	asUser(c, "u1")
	h.SelectEnrollment(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "e1", srv.nav.ActiveEnrollmentID)

	c, w = newGinContext(http.MethodPut, "/navigation/period", []byte(`{"index":4}`))
	asUser(c, "u1")
	h.SelectPeriod(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
