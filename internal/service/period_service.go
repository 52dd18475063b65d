package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-planner-api/internal/academic"
	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
	"github.com/noah-isme/academic-planner-api/pkg/jobs"
)

// JobAutoClose is the queue job type running the outdated-period sweep for one user.
const JobAutoClose = "period.autoclose"

type periodRepository interface {
	ListByEnrollment(ctx context.Context, userID, enrollmentID string) ([]models.Period, error)
	FindByID(ctx context.Context, userID, id string) (*models.Period, error)
	Create(ctx context.Context, period *models.Period) error
	Update(ctx context.Context, period *models.Period) error
	UpdateStatus(ctx context.Context, userID, id string, status models.PeriodStatus) error
	DeleteCascade(ctx context.Context, userID, id string) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// navigationSync keeps a user's navigation context in line with period changes.
type navigationSync interface {
	SyncPeriods(ctx context.Context, userID, enrollmentID, focusPeriodID string)
}

// PeriodService drives the period lifecycle: creation with the active pointer, close and
// reopen, cascade deletion and the auto-close sweep.
type PeriodService struct {
	periods     periodRepository
	enrollments enrollmentRepository
	cache       *CacheService
	metrics     *MetricsService
	queue       jobEnqueuer
	navigation  navigationSync
	settings    PlannerSettings
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// PeriodServiceParams groups the collaborators of PeriodService.
type PeriodServiceParams struct {
	Periods     periodRepository
	Enrollments enrollmentRepository
	Cache       *CacheService
	Metrics     *MetricsService
	Queue       jobEnqueuer
	Navigation  navigationSync
	Settings    PlannerSettings
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// NewPeriodService constructs the service.
func NewPeriodService(p PeriodServiceParams) *PeriodService {
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	return &PeriodService{
		periods:     p.Periods,
		enrollments: p.Enrollments,
		cache:       p.Cache,
		metrics:     p.Metrics,
		queue:       p.Queue,
		navigation:  p.Navigation,
		settings:    p.Settings,
		validator:   p.Validator,
		logger:      p.Logger,
		now:         time.Now,
	}
}

// List returns the periods of an enrollment ordered by start date.
func (s *PeriodService) List(ctx context.Context, userID, enrollmentID string) ([]models.Period, error) {
	if _, err := s.enrollments.FindByID(ctx, userID, enrollmentID); err != nil {
		return nil, repoError(err, "enrollment not found", "failed to load enrollment")
	}
	periods, err := s.periods.ListByEnrollment(ctx, userID, enrollmentID)
	if err != nil {
		return nil, repoError(err, "enrollment not found", "failed to list periods")
	}
	academic.SortByStart(periods)
	return periods, nil
}

// Get returns one period.
func (s *PeriodService) Get(ctx context.Context, userID, id string) (*models.Period, error) {
	p, err := s.periods.FindByID(ctx, userID, id)
	if err != nil {
		return nil, repoError(err, "period not found", "failed to load period")
	}
	return p, nil
}

// Create adds an active period and makes it the enrollment's active period.
func (s *PeriodService) Create(ctx context.Context, userID, enrollmentID string, req models.CreatePeriodRequest) (*models.Period, error) {
	if strings.TrimSpace(enrollmentID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid period payload")
	}
	start, end, err := academic.ParsePeriodDates(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	period := &models.Period{
		UserID:       userID,
		EnrollmentID: enrollmentID,
		Name:         strings.TrimSpace(req.Name),
		StartDate:    start,
		EndDate:      end,
		Status:       models.PeriodStatusActive,
		CalendarURL:  req.CalendarURL,
	}
	if err := s.periods.Create(ctx, period); err != nil {
		return nil, repoError(err, "enrollment not found", "failed to create period")
	}
	s.cache.InvalidateDashboard(ctx, userID)
	s.syncNavigation(ctx, userID, enrollmentID, period.ID)
	return period, nil
}

// Update changes name, dates and calendar link. Status is untouched.
func (s *PeriodService) Update(ctx context.Context, userID, id string, req models.UpdatePeriodRequest) (*models.Period, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid period payload")
	}
	start, end, err := academic.ParsePeriodDates(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	period, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	period.Name = strings.TrimSpace(req.Name)
	period.StartDate = start
	period.EndDate = end
	period.CalendarURL = req.CalendarURL
	if err := s.periods.Update(ctx, period); err != nil {
		return nil, repoError(err, "period not found", "failed to update period")
	}
	s.cache.InvalidateDashboard(ctx, userID)
	s.syncNavigation(ctx, userID, period.EnrollmentID, "")
	return period, nil
}

// Close marks the period closed.
func (s *PeriodService) Close(ctx context.Context, userID, id string) (*models.Period, error) {
	return s.setStatus(ctx, userID, id, models.PeriodStatusClosed)
}

// Reopen marks the period active again.
func (s *PeriodService) Reopen(ctx context.Context, userID, id string) (*models.Period, error) {
	return s.setStatus(ctx, userID, id, models.PeriodStatusActive)
}

func (s *PeriodService) setStatus(ctx context.Context, userID, id string, status models.PeriodStatus) (*models.Period, error) {
	period, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if period.Status == status {
		return period, nil
	}
	if err := s.periods.UpdateStatus(ctx, userID, id, status); err != nil {
		return nil, repoError(err, "period not found", "failed to update period status")
	}
	period.Status = status
	if status == models.PeriodStatusClosed {
		s.metrics.RecordPeriodsClosed("manual", 1)
	}
	s.cache.InvalidateDashboard(ctx, userID)
	s.syncNavigation(ctx, userID, period.EnrollmentID, "")
	return period, nil
}

// Delete removes the period with its disciplines, absences and events, then repoints the
// enrollment's active period to the earliest remaining one. The pointer is read before the
// cascade because the foreign key clears it once the period row is gone. The repoint runs after
// the cascade commits; a failure there is logged and leaves the pointer empty.
func (s *PeriodService) Delete(ctx context.Context, userID, id string) error {
	period, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	enrollment, err := s.enrollments.FindByID(ctx, userID, period.EnrollmentID)
	if err != nil {
		return repoError(err, "enrollment not found", "failed to load enrollment")
	}
	pointer := enrollment.ActivePeriodID

	if err := s.periods.DeleteCascade(ctx, userID, id); err != nil {
		return repoError(err, "period not found", "failed to delete period")
	}
	s.cache.InvalidateDashboard(ctx, userID)

	if err := s.repoint(ctx, userID, period.EnrollmentID, id, pointer); err != nil {
		s.logger.Warn("failed to repoint active period",
			zap.String("user_id", userID),
			zap.String("enrollment_id", period.EnrollmentID),
			zap.String("deleted_period_id", id),
			zap.Error(err))
	}
	s.syncNavigation(ctx, userID, period.EnrollmentID, "")
	return nil
}

func (s *PeriodService) repoint(ctx context.Context, userID, enrollmentID, deletedID string, pointer *string) error {
	remaining, err := s.periods.ListByEnrollment(ctx, userID, enrollmentID)
	if err != nil {
		return fmt.Errorf("list remaining periods: %w", err)
	}
	next, changed := academic.RepointAfterDelete(pointer, deletedID, remaining)
	if !changed {
		return nil
	}
	return s.enrollments.SetActivePeriod(ctx, userID, enrollmentID, next)
}

func (s *PeriodService) syncNavigation(ctx context.Context, userID, enrollmentID, focusPeriodID string) {
	if s.navigation != nil {
		s.navigation.SyncPeriods(ctx, userID, enrollmentID, focusPeriodID)
	}
}

// AutoCloseOutdated closes every active period of the enrollment whose end date is before today
// in the planner timezone. It is idempotent; a period that fails to close is logged and skipped.
func (s *PeriodService) AutoCloseOutdated(ctx context.Context, userID, enrollmentID string) (int, error) {
	periods, err := s.periods.ListByEnrollment(ctx, userID, enrollmentID)
	if err != nil {
		return 0, repoError(err, "enrollment not found", "failed to list periods")
	}

	closed := 0
	for _, p := range academic.OutdatedPeriods(periods, s.settings.today(s.now())) {
		if err := s.periods.UpdateStatus(ctx, userID, p.ID, models.PeriodStatusClosed); err != nil {
			s.logger.Warn("auto-close failed",
				zap.String("user_id", userID),
				zap.String("period_id", p.ID),
				zap.Error(err))
			continue
		}
		closed++
	}
	if closed > 0 {
		s.metrics.RecordPeriodsClosed("auto", closed)
		s.cache.InvalidateDashboard(ctx, userID)
		s.syncNavigation(ctx, userID, enrollmentID, "")
	}
	return closed, nil
}

// AutoCloseAll runs the sweep over every enrollment of the user.
func (s *PeriodService) AutoCloseAll(ctx context.Context, userID string) (int, error) {
	enrollments, err := s.enrollments.List(ctx, userID)
	if err != nil {
		return 0, repoError(err, "enrollment not found", "failed to list enrollments")
	}
	total := 0
	for _, e := range enrollments {
		n, err := s.AutoCloseOutdated(ctx, userID, e.ID)
		if err != nil {
			s.logger.Warn("auto-close sweep failed", zap.String("enrollment_id", e.ID), zap.Error(err))
			continue
		}
		total += n
	}
	return total, nil
}

// ScheduleAutoClose queues the sweep for the user. Queue failures are logged only.
func (s *PeriodService) ScheduleAutoClose(userID string) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(jobs.Job{ID: userID, Type: JobAutoClose, Payload: userID}); err != nil {
		s.logger.Warn("failed to enqueue auto-close", zap.String("user_id", userID), zap.Error(err))
	}
}

// HandleAutoCloseJob is the queue handler for JobAutoClose.
func (s *PeriodService) HandleAutoCloseJob(ctx context.Context, job jobs.Job) error {
	userID, ok := job.Payload.(string)
	if !ok || userID == "" {
		return fmt.Errorf("auto-close job %s: missing user id", job.ID)
	}
	n, err := s.AutoCloseAll(ctx, userID)
	s.metrics.RecordJob(JobAutoClose, err)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("periods auto-closed", zap.String("user_id", userID), zap.Int("count", n))
	}
	return nil
}
