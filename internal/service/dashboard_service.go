package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/academic-planner-api/internal/academic"
	"github.com/noah-isme/academic-planner-api/internal/dto"
	"github.com/noah-isme/academic-planner-api/internal/models"
	"github.com/noah-isme/academic-planner-api/pkg/cache"
)

type enrollmentLister interface {
	List(ctx context.Context, userID string) ([]models.Enrollment, error)
}

type periodLister interface {
	ListByEnrollment(ctx context.Context, userID, enrollmentID string) ([]models.Period, error)
}

type periodDisciplines interface {
	ListByPeriod(ctx context.Context, userID, periodID string) ([]models.Discipline, error)
}

type eventLister interface {
	List(ctx context.Context, userID string, filter models.CalendarFilter) ([]models.CalendarEvent, error)
}

type reminderSource interface {
	Reminders(ctx context.Context, userID, day string) ([]models.CalendarEvent, error)
}

type periodAutoCloser interface {
	AutoCloseAll(ctx context.Context, userID string) (int, error)
	ScheduleAutoClose(userID string)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL            time.Duration
	UpcomingDays        int
	UpcomingEventsLimit int
	AutoClose           bool
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Enrollments enrollmentLister
	Periods     periodLister
	Disciplines periodDisciplines
	Events      eventLister
	Reminders   reminderSource
	AutoCloser  periodAutoCloser
	Cache       *CacheService
	Settings    PlannerSettings
	Logger      *zap.Logger
	Config      DashboardServiceConfig
}

// DashboardService composes the per-user landing summary.
type DashboardService struct {
	enrollments enrollmentLister
	periods     periodLister
	disciplines periodDisciplines
	events      eventLister
	reminders   reminderSource
	autoCloser  periodAutoCloser
	cache       *CacheService
	settings    PlannerSettings
	logger      *zap.Logger
	now         func() time.Time
	cfg         DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.UpcomingDays <= 0 {
		cfg.UpcomingDays = 7
	}
	if cfg.UpcomingEventsLimit <= 0 {
		cfg.UpcomingEventsLimit = 10
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		enrollments: params.Enrollments,
		periods:     params.Periods,
		disciplines: params.Disciplines,
		events:      params.Events,
		reminders:   params.Reminders,
		autoCloser:  params.AutoCloser,
		cache:       params.Cache,
		settings:    params.Settings,
		logger:      logger,
		now:         time.Now,
		cfg:         cfg,
	}
}

// Get returns the dashboard of a user and whether it came from the cache. Outdated periods are
// closed before the summary is read. When that sweep fails the sweep is queued for a retry and the
// fresh summary is not cached.
func (s *DashboardService) Get(ctx context.Context, userID string) (*dto.DashboardResponse, bool, error) {
	swept := s.sweep(ctx, userID)

	key := cache.DashboardKey(userID)
	var cached dto.DashboardResponse
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	summary, err := s.compose(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if !swept {
		return summary, false, nil
	}
	if err := s.cache.Set(ctx, key, summary, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
	return summary, false, nil
}

// sweep reports whether the period statuses are current.
func (s *DashboardService) sweep(ctx context.Context, userID string) bool {
	if !s.cfg.AutoClose || s.autoCloser == nil {
		return true
	}
	n, err := s.autoCloser.AutoCloseAll(ctx, userID)
	if err != nil {
		s.logger.Warn("dashboard auto-close failed", zap.String("user_id", userID), zap.Error(err))
		s.autoCloser.ScheduleAutoClose(userID)
		return false
	}
	if n > 0 {
		s.logger.Info("periods auto-closed", zap.String("user_id", userID), zap.Int("count", n))
	}
	return true
}

func (s *DashboardService) compose(ctx context.Context, userID string) (*dto.DashboardResponse, error) {
	enrollments, err := s.enrollments.List(ctx, userID)
	if err != nil {
		return nil, repoError(err, "enrollment not found", "failed to list enrollments")
	}

	now := s.now()
	today := s.settings.today(now)
	resp := &dto.DashboardResponse{
		UserID:         userID,
		GeneratedAt:    now.UTC(),
		Enrollments:    make([]dto.EnrollmentOverview, len(enrollments)),
		UpcomingEvents: []dto.UpcomingEvent{},
		Reminders:      []dto.UpcomingEvent{},
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range enrollments {
		i := i
		g.Go(func() error {
			overview, err := s.overview(gctx, userID, enrollments[i])
			if err != nil {
				return err
			}
			resp.Enrollments[i] = *overview
			return nil
		})
	}
	g.Go(func() error {
		from, to := today, today.AddDate(0, 0, s.cfg.UpcomingDays)
		events, err := s.events.List(gctx, userID, models.CalendarFilter{DateRange: models.DateRange{From: &from, To: &to}})
		if err != nil {
			return repoError(err, "event not found", "failed to list upcoming events")
		}
		if len(events) > s.cfg.UpcomingEventsLimit {
			events = events[:s.cfg.UpcomingEventsLimit]
		}
		resp.UpcomingEvents = toUpcoming(events)
		return nil
	})
	if s.reminders != nil {
		g.Go(func() error {
			due, err := s.reminders.Reminders(gctx, userID, today.Format(models.DateLayout))
			if err != nil {
				return err
			}
			resp.Reminders = toUpcoming(due)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *DashboardService) overview(ctx context.Context, userID string, enrollment models.Enrollment) (*dto.EnrollmentOverview, error) {
	periods, err := s.periods.ListByEnrollment(ctx, userID, enrollment.ID)
	if err != nil {
		return nil, repoError(err, "enrollment not found", "failed to list periods")
	}
	academic.SortByStart(periods)

	overview := &dto.EnrollmentOverview{
		Enrollment:  enrollment,
		Periods:     periods,
		Disciplines: []models.DisciplineSummary{},
		AtRisk:      []string{},
	}
	if periods == nil {
		overview.Periods = []models.Period{}
	}

	passing := s.settings.passingGrade(&enrollment)
	ratio := s.settings.ratio()
	var crItems []academic.CRItem
	for i := range periods {
		p := periods[i]
		isActive := enrollment.ActivePeriodID != nil && *enrollment.ActivePeriodID == p.ID
		disciplines, err := s.disciplines.ListByPeriod(ctx, userID, p.ID)
		if err != nil {
			return nil, repoError(err, "period not found", "failed to list disciplines")
		}
		for _, d := range disciplines {
			crItems = append(crItems, academic.CRItem{Average: academic.AveragePtr(d), Workload: d.Workload})
			if !isActive {
				continue
			}
			summary := academic.Summarize(d, passing, ratio)
			overview.Disciplines = append(overview.Disciplines, summary)
			if atRisk(summary) {
				overview.AtRisk = append(overview.AtRisk, d.ID)
			}
		}
		if isActive {
			overview.ActivePeriod = &p
		}
	}
	if cr, ok := academic.ComputeCR(crItems); ok {
		overview.CR = &cr
	}
	return overview, nil
}

// atRisk flags disciplines failed by absence or one absence away from the limit.
func atRisk(summary models.DisciplineSummary) bool {
	if summary.FailedByAbsence {
		return true
	}
	return summary.AbsenceLimit > 0 && summary.RemainingAbsences <= 1
}

func toUpcoming(events []models.CalendarEvent) []dto.UpcomingEvent {
	sort.SliceStable(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	out := make([]dto.UpcomingEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, dto.UpcomingEvent{
			ID:           ev.ID,
			Title:        ev.Title,
			Date:         ev.Date.Format(models.DateLayout),
			Category:     ev.Category,
			DisciplineID: ev.DisciplineID,
		})
	}
	return out
}
