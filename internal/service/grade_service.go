package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-planner-api/internal/academic"
	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
)

// GradeService owns grade configuration, grade entry and the derived discipline summary.
type GradeService struct {
	disciplines disciplineRepository
	periods     periodLookup
	enrollments enrollmentLookup
	cache       *CacheService
	settings    PlannerSettings
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradeService constructs the service.
func NewGradeService(disciplines disciplineRepository, periods periodLookup, enrollments enrollmentLookup, cache *CacheService, settings PlannerSettings, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		disciplines: disciplines,
		periods:     periods,
		enrollments: enrollments,
		cache:       cache,
		settings:    settings,
		validator:   validate,
		logger:      logger,
	}
}

// UpdateConfig validates and stores a grade configuration. Recorded grades follow the new
// evaluation names; values of surviving names are kept.
func (s *GradeService) UpdateConfig(ctx context.Context, userID, disciplineID string, cfg models.GradeConfig) (*models.Discipline, error) {
	if err := s.validator.Struct(cfg); err != nil {
		return nil, validationError(err, "invalid grade config payload")
	}
	cfg = academic.NormalizeGradeConfig(cfg)
	if err := academic.ValidateGradeConfig(cfg); err != nil {
		return nil, err
	}
	if err := s.ensureWritable(ctx, userID, disciplineID); err != nil {
		return nil, err
	}

	updated, err := s.disciplines.Mutate(ctx, userID, disciplineID, func(d *models.Discipline) error {
		d.GradeConfig = cfg
		d.Grades = academic.AlignGrades(cfg, d.Grades)
		return nil
	})
	if err != nil {
		return nil, repoError(err, "discipline not found", "failed to update grade config")
	}
	s.cache.InvalidateDashboard(ctx, userID)
	return updated, nil
}

// UpdateGrades records grade values. Every name must match a configured evaluation and every
// value must lie in [0, 10] or be null. Evaluations not mentioned keep their value.
func (s *GradeService) UpdateGrades(ctx context.Context, userID, disciplineID string, req models.UpdateGradesRequest) (*models.Discipline, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid grades payload")
	}
	seen := make(map[string]struct{}, len(req.Grades))
	for _, g := range req.Grades {
		if err := academic.ValidateGradeValue(g.Grade); err != nil {
			return nil, err
		}
		if _, dup := seen[g.Name]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("grade %q given twice", g.Name))
		}
		seen[g.Name] = struct{}{}
	}
	if err := s.ensureWritable(ctx, userID, disciplineID); err != nil {
		return nil, err
	}

	updated, err := s.disciplines.Mutate(ctx, userID, disciplineID, func(d *models.Discipline) error {
		known := make(map[string]struct{}, len(d.GradeConfig.Evaluations))
		for _, ev := range d.GradeConfig.Evaluations {
			known[ev.Name] = struct{}{}
		}
		merged := make(models.GradeEntries, 0, len(d.Grades)+len(req.Grades))
		merged = append(merged, d.Grades...)
		for _, g := range req.Grades {
			if _, ok := known[g.Name]; !ok {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown evaluation %q", strings.TrimSpace(g.Name)))
			}
			merged = upsertGrade(merged, g)
		}
		d.Grades = academic.AlignGrades(d.GradeConfig, merged)
		return nil
	})
	if err != nil {
		return nil, repoError(err, "discipline not found", "failed to update grades")
	}
	s.cache.InvalidateDashboard(ctx, userID)
	return updated, nil
}

// Summary computes average, status and absence situation of a discipline.
func (s *GradeService) Summary(ctx context.Context, userID, disciplineID string) (*models.DisciplineSummary, error) {
	d, err := s.disciplines.FindByID(ctx, userID, disciplineID)
	if err != nil {
		return nil, repoError(err, "discipline not found", "failed to load discipline")
	}
	enrollment, err := s.enrollments.FindByID(ctx, userID, d.EnrollmentID)
	if err != nil {
		return nil, repoError(err, "enrollment not found", "failed to load enrollment")
	}
	summary := academic.Summarize(*d, s.settings.passingGrade(enrollment), s.settings.ratio())
	return &summary, nil
}

func (s *GradeService) ensureWritable(ctx context.Context, userID, disciplineID string) error {
	d, err := s.disciplines.FindByID(ctx, userID, disciplineID)
	if err != nil {
		return repoError(err, "discipline not found", "failed to load discipline")
	}
	_, err = openPeriod(ctx, s.periods, userID, d.PeriodID)
	return err
}

func upsertGrade(entries models.GradeEntries, g models.GradeEntry) models.GradeEntries {
	for i := range entries {
		if entries[i].Name == g.Name {
			entries[i].Grade = g.Grade
			return entries
		}
	}
	return append(entries, g)
}
