package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-planner-api/internal/academic"
	"github.com/noah-isme/academic-planner-api/internal/models"
)

type disciplineRepository interface {
	ListByPeriod(ctx context.Context, userID, periodID string) ([]models.Discipline, error)
	ListByEnrollment(ctx context.Context, userID, enrollmentID string) ([]models.Discipline, error)
	FindByID(ctx context.Context, userID, id string) (*models.Discipline, error)
	Create(ctx context.Context, discipline *models.Discipline) error
	Mutate(ctx context.Context, userID, id string, fn models.DisciplineMutation) (*models.Discipline, error)
	Reorder(ctx context.Context, userID string, ids []string) error
	Delete(ctx context.Context, userID, id string) error
}

type periodLookup interface {
	FindByID(ctx context.Context, userID, id string) (*models.Period, error)
}

type enrollmentLookup interface {
	FindByID(ctx context.Context, userID, id string) (*models.Enrollment, error)
}

// DisciplineService manages the disciplines of a period.
type DisciplineService struct {
	disciplines disciplineRepository
	periods     periodLookup
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewDisciplineService constructs the service.
func NewDisciplineService(disciplines disciplineRepository, periods periodLookup, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *DisciplineService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DisciplineService{disciplines: disciplines, periods: periods, cache: cache, validator: validate, logger: logger}
}

// List returns the disciplines of a period in display order.
func (s *DisciplineService) List(ctx context.Context, userID, periodID string) ([]models.Discipline, error) {
	if _, err := s.periods.FindByID(ctx, userID, periodID); err != nil {
		return nil, repoError(err, "period not found", "failed to load period")
	}
	items, err := s.disciplines.ListByPeriod(ctx, userID, periodID)
	if err != nil {
		return nil, repoError(err, "period not found", "failed to list disciplines")
	}
	return items, nil
}

// Get returns one discipline.
func (s *DisciplineService) Get(ctx context.Context, userID, id string) (*models.Discipline, error) {
	d, err := s.disciplines.FindByID(ctx, userID, id)
	if err != nil {
		return nil, repoError(err, "discipline not found", "failed to load discipline")
	}
	return d, nil
}

// Create adds a discipline to an open period. Without a grade config the arithmetic rule with no
// evaluations is used.
func (s *DisciplineService) Create(ctx context.Context, userID, periodID string, req models.DisciplineRequest) (*models.Discipline, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid discipline payload")
	}
	period, err := openPeriod(ctx, s.periods, userID, periodID)
	if err != nil {
		return nil, err
	}

	cfg := models.GradeConfig{Rule: models.GradeRuleArithmetic, Evaluations: []models.EvaluationDefinition{}}
	if req.GradeConfig != nil {
		cfg = academic.NormalizeGradeConfig(*req.GradeConfig)
		if err := academic.ValidateGradeConfig(cfg); err != nil {
			return nil, err
		}
	}

	discipline := &models.Discipline{
		UserID:       userID,
		EnrollmentID: period.EnrollmentID,
		PeriodID:     period.ID,
		GradeConfig:  cfg,
		Grades:       academic.AlignGrades(cfg, nil),
		Schedules:    models.Schedules{},
	}
	applyDisciplineRequest(discipline, req)

	if err := s.disciplines.Create(ctx, discipline); err != nil {
		return nil, repoError(err, "period not found", "failed to create discipline")
	}
	s.cache.InvalidateDashboard(ctx, userID)
	return discipline, nil
}

// Update replaces descriptive attributes. A provided grade config is validated and the recorded
// grades are realigned to it.
func (s *DisciplineService) Update(ctx context.Context, userID, id string, req models.DisciplineRequest) (*models.Discipline, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid discipline payload")
	}
	if req.GradeConfig != nil {
		cfg := academic.NormalizeGradeConfig(*req.GradeConfig)
		if err := academic.ValidateGradeConfig(cfg); err != nil {
			return nil, err
		}
		req.GradeConfig = &cfg
	}
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if _, err := openPeriod(ctx, s.periods, userID, current.PeriodID); err != nil {
		return nil, err
	}

	updated, err := s.disciplines.Mutate(ctx, userID, id, func(d *models.Discipline) error {
		applyDisciplineRequest(d, req)
		if req.GradeConfig != nil {
			d.GradeConfig = *req.GradeConfig
			d.Grades = academic.AlignGrades(d.GradeConfig, d.Grades)
		}
		return nil
	})
	if err != nil {
		return nil, repoError(err, "discipline not found", "failed to update discipline")
	}
	s.cache.InvalidateDashboard(ctx, userID)
	return updated, nil
}

// Reorder stores a new display order.
func (s *DisciplineService) Reorder(ctx context.Context, userID string, req models.ReorderRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid reorder payload")
	}
	if err := s.disciplines.Reorder(ctx, userID, req.IDs); err != nil {
		return repoError(err, "discipline not found", "failed to reorder disciplines")
	}
	s.cache.InvalidateDashboard(ctx, userID)
	return nil
}

// Delete removes the discipline and its absences.
func (s *DisciplineService) Delete(ctx context.Context, userID, id string) error {
	if err := s.disciplines.Delete(ctx, userID, id); err != nil {
		return repoError(err, "discipline not found", "failed to delete discipline")
	}
	s.cache.InvalidateDashboard(ctx, userID)
	return nil
}

func applyDisciplineRequest(d *models.Discipline, req models.DisciplineRequest) {
	d.Name = strings.TrimSpace(req.Name)
	d.Teacher = strings.TrimSpace(req.Teacher)
	d.Location = strings.TrimSpace(req.Location)
	d.Code = strings.TrimSpace(req.Code)
	d.Workload = req.Workload
	d.HoursPerClass = req.HoursPerClass
	if req.Schedules != nil {
		d.Schedules = append(models.Schedules{}, req.Schedules...)
	}
}

// openPeriod loads a period and refuses it when closed.
func openPeriod(ctx context.Context, periods periodLookup, userID, periodID string) (*models.Period, error) {
	period, err := periods.FindByID(ctx, userID, periodID)
	if err != nil {
		return nil, repoError(err, "period not found", "failed to load period")
	}
	if err := academic.EnsureOpen(period); err != nil {
		return nil, err
	}
	return period, nil
}
