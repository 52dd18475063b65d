package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-planner-api/internal/academic"
	"github.com/noah-isme/academic-planner-api/internal/models"
)

type absenceRepository interface {
	ListByDiscipline(ctx context.Context, userID, disciplineID string) ([]models.Absence, error)
	Record(ctx context.Context, absence *models.Absence, fn models.DisciplineMutation) (*models.Discipline, error)
	Remove(ctx context.Context, userID, disciplineID, absenceID string, fn models.DisciplineMutation) (*models.Discipline, error)
}

// AbsenceService records and removes absences. Each mutation runs as one atomic repository
// operation that updates the absence rows, the counter, the failed-by-absence flag and, on
// failure, zeroes the grades.
type AbsenceService struct {
	absences    absenceRepository
	disciplines disciplineRepository
	periods     periodLookup
	enrollments enrollmentLookup
	cache       *CacheService
	metrics     *MetricsService
	settings    PlannerSettings
	validator   *validator.Validate
	logger      *zap.Logger
}

// AbsenceServiceParams groups the collaborators of AbsenceService.
type AbsenceServiceParams struct {
	Absences    absenceRepository
	Disciplines disciplineRepository
	Periods     periodLookup
	Enrollments enrollmentLookup
	Cache       *CacheService
	Metrics     *MetricsService
	Settings    PlannerSettings
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// NewAbsenceService constructs the service.
func NewAbsenceService(p AbsenceServiceParams) *AbsenceService {
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	return &AbsenceService{
		absences:    p.Absences,
		disciplines: p.Disciplines,
		periods:     p.Periods,
		enrollments: p.Enrollments,
		cache:       p.Cache,
		metrics:     p.Metrics,
		settings:    p.Settings,
		validator:   p.Validator,
		logger:      p.Logger,
	}
}

// List returns the absences of a discipline, newest first.
func (s *AbsenceService) List(ctx context.Context, userID, disciplineID string) ([]models.Absence, error) {
	if _, err := s.disciplines.FindByID(ctx, userID, disciplineID); err != nil {
		return nil, repoError(err, "discipline not found", "failed to load discipline")
	}
	items, err := s.absences.ListByDiscipline(ctx, userID, disciplineID)
	if err != nil {
		return nil, repoError(err, "discipline not found", "failed to list absences")
	}
	return items, nil
}

// Record registers one absence. Going past the limit fails the discipline by absence and zeroes
// its grades in the same transaction.
func (s *AbsenceService) Record(ctx context.Context, userID, disciplineID string, req models.RecordAbsenceRequest) (*models.AbsenceResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid absence payload")
	}
	day, err := academic.ParseDay(req.Date)
	if err != nil {
		return nil, err
	}
	current, err := s.disciplines.FindByID(ctx, userID, disciplineID)
	if err != nil {
		return nil, repoError(err, "discipline not found", "failed to load discipline")
	}
	if _, err := openPeriod(ctx, s.periods, userID, current.PeriodID); err != nil {
		return nil, err
	}

	absence := &models.Absence{
		UserID:        userID,
		DisciplineID:  disciplineID,
		Date:          day,
		Justification: trimmedOrNil(req.Justification),
	}
	ratio := s.settings.ratio()
	transition := academic.TransitionNone
	updated, err := s.absences.Record(ctx, absence, func(d *models.Discipline) error {
		transition = academic.ApplyAbsenceRecorded(d, ratio)
		return nil
	})
	if err != nil {
		return nil, repoError(err, "discipline not found", "failed to record absence")
	}
	s.afterMutation(ctx, userID, updated, transition)
	return s.result(ctx, userID, absence, updated), nil
}

// Remove deletes one absence. Coming back within the limit clears the failure flag; zeroed
// grades are not restored.
func (s *AbsenceService) Remove(ctx context.Context, userID, disciplineID, absenceID string) (*models.AbsenceResult, error) {
	ratio := s.settings.ratio()
	transition := academic.TransitionNone
	updated, err := s.absences.Remove(ctx, userID, disciplineID, absenceID, func(d *models.Discipline) error {
		transition = academic.ApplyAbsenceRemoved(d, ratio)
		return nil
	})
	if err != nil {
		return nil, repoError(err, "absence not found", "failed to remove absence")
	}
	s.afterMutation(ctx, userID, updated, transition)
	return s.result(ctx, userID, nil, updated), nil
}

func (s *AbsenceService) afterMutation(ctx context.Context, userID string, d *models.Discipline, transition academic.Transition) {
	if transition != academic.TransitionNone {
		s.metrics.RecordAbsenceTransition(string(transition))
		s.logger.Info("absence transition",
			zap.String("user_id", userID),
			zap.String("discipline_id", d.ID),
			zap.String("transition", string(transition)),
			zap.Int("absences", d.Absences))
	}
	s.cache.InvalidateDashboard(ctx, userID)
}

// result attaches a summary. A failure to load the enrollment falls back to the default
// passing grade since the mutation is already committed.
func (s *AbsenceService) result(ctx context.Context, userID string, absence *models.Absence, d *models.Discipline) *models.AbsenceResult {
	var enrollment *models.Enrollment
	if s.enrollments != nil {
		e, err := s.enrollments.FindByID(ctx, userID, d.EnrollmentID)
		if err != nil {
			s.logger.Warn("failed to load enrollment for summary", zap.String("enrollment_id", d.EnrollmentID), zap.Error(err))
		} else {
			enrollment = e
		}
	}
	summary := academic.Summarize(*d, s.settings.passingGrade(enrollment), s.settings.ratio())
	return &models.AbsenceResult{Absence: absence, Discipline: d, Summary: &summary}
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
