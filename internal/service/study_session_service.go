package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
)

type studySessionRepository interface {
	Create(ctx context.Context, session *models.StudySession) error
	List(ctx context.Context, userID string, rng models.DateRange) ([]models.StudySession, error)
	TotalsByDiscipline(ctx context.Context, userID string, rng models.DateRange) ([]models.DisciplineStudyTotal, error)
}

// StudySessionService records focus-timer intervals.
type StudySessionService struct {
	sessions    studySessionRepository
	disciplines disciplineLookup
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudySessionService constructs the service.
func NewStudySessionService(sessions studySessionRepository, disciplines disciplineLookup, validate *validator.Validate, logger *zap.Logger) *StudySessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudySessionService{sessions: sessions, disciplines: disciplines, validator: validate, logger: logger}
}

// Create stores a finished interval, optionally linked to a discipline of the user.
func (s *StudySessionService) Create(ctx context.Context, userID string, req models.StudySessionRequest) (*models.StudySession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid study session payload")
	}
	if req.DisciplineID != nil {
		if _, err := s.disciplines.FindByID(ctx, userID, *req.DisciplineID); err != nil {
			return nil, repoError(err, "discipline not found", "failed to load discipline")
		}
	}
	session := &models.StudySession{
		UserID:          userID,
		DurationMinutes: req.DurationMinutes,
		DisciplineID:    req.DisciplineID,
		Sound:           strings.TrimSpace(req.Sound),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, repoError(err, "study session not found", "failed to record study session")
	}
	return session, nil
}

// List returns sessions newest first.
func (s *StudySessionService) List(ctx context.Context, userID string, rng models.DateRange) ([]models.StudySession, error) {
	if err := checkRange(rng); err != nil {
		return nil, err
	}
	sessions, err := s.sessions.List(ctx, userID, rng)
	if err != nil {
		return nil, repoError(err, "study session not found", "failed to list study sessions")
	}
	return sessions, nil
}

// Stats totals minutes overall and per discipline.
func (s *StudySessionService) Stats(ctx context.Context, userID string, rng models.DateRange) (*models.StudyStats, error) {
	if err := checkRange(rng); err != nil {
		return nil, err
	}
	totals, err := s.sessions.TotalsByDiscipline(ctx, userID, rng)
	if err != nil {
		return nil, repoError(err, "study session not found", "failed to aggregate study sessions")
	}
	stats := &models.StudyStats{ByDiscipline: totals}
	if stats.ByDiscipline == nil {
		stats.ByDiscipline = []models.DisciplineStudyTotal{}
	}
	for _, t := range totals {
		stats.TotalMinutes += t.Minutes
		stats.TotalSessions += t.Sessions
	}
	return stats, nil
}

func checkRange(rng models.DateRange) error {
	if rng.From != nil && rng.To != nil && rng.From.After(*rng.To) {
		return appErrors.Clone(appErrors.ErrValidation, "from must not be after to")
	}
	return nil
}
