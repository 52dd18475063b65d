package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-planner-api/internal/academic"
	"github.com/noah-isme/academic-planner-api/internal/models"
)

type enrollmentRepository interface {
	List(ctx context.Context, userID string) ([]models.Enrollment, error)
	FindByID(ctx context.Context, userID, id string) (*models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment, firstPeriod *models.Period) error
	Update(ctx context.Context, enrollment *models.Enrollment) error
	SetActivePeriod(ctx context.Context, userID, enrollmentID string, periodID *string) error
	Reorder(ctx context.Context, userID string, ids []string) error
	Delete(ctx context.Context, userID, id string) error
}

// EnrollmentService manages the programs a user is registered in.
type EnrollmentService struct {
	repo      enrollmentRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	onDelete  []func(userID, enrollmentID string)
}

// NewEnrollmentService constructs the service. onDelete hooks run after an enrollment is removed.
func NewEnrollmentService(repo enrollmentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, onDelete ...func(userID, enrollmentID string)) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, cache: cache, validator: validate, logger: logger, onDelete: onDelete}
}

// List returns the user's enrollments in display order.
func (s *EnrollmentService) List(ctx context.Context, userID string) ([]models.Enrollment, error) {
	items, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, repoError(err, "enrollment not found", "failed to list enrollments")
	}
	return items, nil
}

// Get returns one enrollment.
func (s *EnrollmentService) Get(ctx context.Context, userID, id string) (*models.Enrollment, error) {
	e, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, repoError(err, "enrollment not found", "failed to load enrollment")
	}
	return e, nil
}

// Create registers an enrollment, optionally with its first period set as active.
func (s *EnrollmentService) Create(ctx context.Context, userID string, req models.CreateEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid enrollment payload")
	}

	enrollment := &models.Enrollment{
		UserID:       userID,
		CourseName:   strings.TrimSpace(req.CourseName),
		Institution:  strings.TrimSpace(req.Institution),
		Modality:     req.Modality,
		PassingGrade: req.PassingGrade,
	}

	var first *models.Period
	if req.FirstPeriod != nil {
		start, end, err := academic.ParsePeriodDates(req.FirstPeriod.StartDate, req.FirstPeriod.EndDate)
		if err != nil {
			return nil, err
		}
		first = &models.Period{
			Name:        strings.TrimSpace(req.FirstPeriod.Name),
			StartDate:   start,
			EndDate:     end,
			Status:      models.PeriodStatusActive,
			CalendarURL: req.FirstPeriod.CalendarURL,
		}
	}

	if err := s.repo.Create(ctx, enrollment, first); err != nil {
		return nil, repoError(err, "enrollment not found", "failed to create enrollment")
	}
	s.cache.InvalidateDashboard(ctx, userID)
	return enrollment, nil
}

// Update replaces editable attributes.
func (s *EnrollmentService) Update(ctx context.Context, userID, id string, req models.UpdateEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid enrollment payload")
	}
	enrollment, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	enrollment.CourseName = strings.TrimSpace(req.CourseName)
	enrollment.Institution = strings.TrimSpace(req.Institution)
	enrollment.Modality = req.Modality
	enrollment.PassingGrade = req.PassingGrade

	if err := s.repo.Update(ctx, enrollment); err != nil {
		return nil, repoError(err, "enrollment not found", "failed to update enrollment")
	}
	s.cache.InvalidateDashboard(ctx, userID)
	return enrollment, nil
}

// Reorder stores a new display order.
func (s *EnrollmentService) Reorder(ctx context.Context, userID string, req models.ReorderRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid reorder payload")
	}
	if err := s.repo.Reorder(ctx, userID, req.IDs); err != nil {
		return repoError(err, "enrollment not found", "failed to reorder enrollments")
	}
	s.cache.InvalidateDashboard(ctx, userID)
	return nil
}

// Delete removes the enrollment and everything below it.
func (s *EnrollmentService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return repoError(err, "enrollment not found", "failed to delete enrollment")
	}
	s.cache.InvalidateDashboard(ctx, userID)
	for _, hook := range s.onDelete {
		hook(userID, id)
	}
	return nil
}
