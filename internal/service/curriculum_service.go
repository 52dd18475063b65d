package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-planner-api/internal/academic"
	"github.com/noah-isme/academic-planner-api/internal/models"
)

type curriculumRepository interface {
	ListByEnrollment(ctx context.Context, userID, enrollmentID string) ([]models.CurriculumSubject, error)
	Create(ctx context.Context, subject *models.CurriculumSubject) error
	Delete(ctx context.Context, userID, id string) error
}

type enrollmentDisciplines interface {
	ListByEnrollment(ctx context.Context, userID, enrollmentID string) ([]models.Discipline, error)
}

// CurriculumService manages the planned program grid and measures progress against it.
type CurriculumService struct {
	subjects    curriculumRepository
	enrollments enrollmentLookup
	disciplines enrollmentDisciplines
	settings    PlannerSettings
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCurriculumService constructs the service.
func NewCurriculumService(subjects curriculumRepository, enrollments enrollmentLookup, disciplines enrollmentDisciplines, settings PlannerSettings, validate *validator.Validate, logger *zap.Logger) *CurriculumService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CurriculumService{
		subjects:    subjects,
		enrollments: enrollments,
		disciplines: disciplines,
		settings:    settings,
		validator:   validate,
		logger:      logger,
	}
}

// List returns the planned subjects of an enrollment.
func (s *CurriculumService) List(ctx context.Context, userID, enrollmentID string) ([]models.CurriculumSubject, error) {
	if _, err := s.enrollments.FindByID(ctx, userID, enrollmentID); err != nil {
		return nil, repoError(err, "enrollment not found", "failed to load enrollment")
	}
	subjects, err := s.subjects.ListByEnrollment(ctx, userID, enrollmentID)
	if err != nil {
		return nil, repoError(err, "enrollment not found", "failed to list curriculum")
	}
	return subjects, nil
}

// Create adds a planned subject.
func (s *CurriculumService) Create(ctx context.Context, userID, enrollmentID string, req models.CurriculumSubjectRequest) (*models.CurriculumSubject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid curriculum subject payload")
	}
	if _, err := s.enrollments.FindByID(ctx, userID, enrollmentID); err != nil {
		return nil, repoError(err, "enrollment not found", "failed to load enrollment")
	}
	subject := &models.CurriculumSubject{
		UserID:       userID,
		EnrollmentID: enrollmentID,
		TargetPeriod: req.TargetPeriod,
		Name:         strings.TrimSpace(req.Name),
		Code:         strings.TrimSpace(req.Code),
	}
	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, repoError(err, "enrollment not found", "failed to create curriculum subject")
	}
	return subject, nil
}

// Delete removes a planned subject.
func (s *CurriculumService) Delete(ctx context.Context, userID, id string) error {
	if err := s.subjects.Delete(ctx, userID, id); err != nil {
		return repoError(err, "curriculum subject not found", "failed to delete curriculum subject")
	}
	return nil
}

// Progress matches planned subjects to taken disciplines by course code, ignoring case. When a
// code was taken more than once the best outcome wins: approved, then in progress, then failed.
func (s *CurriculumService) Progress(ctx context.Context, userID, enrollmentID string) (*models.CurriculumProgress, error) {
	enrollment, err := s.enrollments.FindByID(ctx, userID, enrollmentID)
	if err != nil {
		return nil, repoError(err, "enrollment not found", "failed to load enrollment")
	}
	subjects, err := s.subjects.ListByEnrollment(ctx, userID, enrollmentID)
	if err != nil {
		return nil, repoError(err, "enrollment not found", "failed to list curriculum")
	}
	disciplines, err := s.disciplines.ListByEnrollment(ctx, userID, enrollmentID)
	if err != nil {
		return nil, repoError(err, "enrollment not found", "failed to list disciplines")
	}

	passing := s.settings.passingGrade(enrollment)
	best := make(map[string]models.CurriculumSubjectProgress)
	for _, d := range disciplines {
		code := normalizeCode(d.Code)
		if code == "" {
			continue
		}
		id := d.ID
		candidate := models.CurriculumSubjectProgress{
			State:        progressState(academic.EffectiveStatus(d, passing)),
			DisciplineID: &id,
			Average:      academic.AveragePtr(d),
		}
		if current, ok := best[code]; !ok || progressRank(candidate.State) > progressRank(current.State) {
			best[code] = candidate
		}
	}

	progress := &models.CurriculumProgress{
		EnrollmentID: enrollmentID,
		Total:        len(subjects),
		Subjects:     make([]models.CurriculumSubjectProgress, 0, len(subjects)),
	}
	for _, subject := range subjects {
		entry, ok := best[normalizeCode(subject.Code)]
		if !ok {
			entry = models.CurriculumSubjectProgress{State: models.CurriculumPending}
		}
		entry.Subject = subject
		switch entry.State {
		case models.CurriculumCompleted:
			progress.Completed++
		case models.CurriculumInProgress:
			progress.InProgress++
		case models.CurriculumFailed:
			progress.Failed++
		default:
			progress.Pending++
		}
		progress.Subjects = append(progress.Subjects, entry)
	}
	if progress.Total > 0 {
		progress.PercentComplete = academic.Round2(float64(progress.Completed) * 100 / float64(progress.Total))
	}
	return progress, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func progressState(status models.DisciplineStatus) models.CurriculumProgressState {
	switch status {
	case models.StatusApproved:
		return models.CurriculumCompleted
	case models.StatusFailed, models.StatusFailedByAbsence:
		return models.CurriculumFailed
	default:
		return models.CurriculumInProgress
	}
}

func progressRank(state models.CurriculumProgressState) int {
	switch state {
	case models.CurriculumCompleted:
		return 3
	case models.CurriculumInProgress:
		return 2
	case models.CurriculumFailed:
		return 1
	default:
		return 0
	}
}
