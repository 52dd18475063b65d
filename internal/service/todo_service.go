package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-planner-api/internal/academic"
	"github.com/noah-isme/academic-planner-api/internal/models"
)

type todoRepository interface {
	ListByDay(ctx context.Context, userID, day string) ([]models.Todo, error)
	FindByID(ctx context.Context, userID, id string) (*models.Todo, error)
	Create(ctx context.Context, todo *models.Todo) error
	SetFlags(ctx context.Context, userID, id string, completed, pinned bool) error
	Delete(ctx context.Context, userID, id string) error
	DeleteCompleted(ctx context.Context, userID, day string) (int64, error)
}

// TodoService manages the day todo list.
type TodoService struct {
	repo      todoRepository
	settings  PlannerSettings
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTodoService constructs the service.
func NewTodoService(repo todoRepository, settings PlannerSettings, validate *validator.Validate, logger *zap.Logger) *TodoService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TodoService{repo: repo, settings: settings, validator: validate, logger: logger, now: time.Now}
}

// List returns the todos of a day, pinned first. An empty day means today.
func (s *TodoService) List(ctx context.Context, userID, day string) ([]models.Todo, error) {
	resolved, err := s.resolveDay(day)
	if err != nil {
		return nil, err
	}
	todos, err := s.repo.ListByDay(ctx, userID, resolved)
	if err != nil {
		return nil, repoError(err, "todo not found", "failed to list todos")
	}
	return todos, nil
}

// Create adds a todo to a day.
func (s *TodoService) Create(ctx context.Context, userID string, req models.CreateTodoRequest) (*models.Todo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid todo payload")
	}
	resolved, err := s.resolveDay(req.Day)
	if err != nil {
		return nil, err
	}
	todo := &models.Todo{UserID: userID, Text: strings.TrimSpace(req.Text), Day: resolved}
	if err := s.repo.Create(ctx, todo); err != nil {
		return nil, repoError(err, "todo not found", "failed to create todo")
	}
	return todo, nil
}

// ToggleCompleted flips the completed flag.
func (s *TodoService) ToggleCompleted(ctx context.Context, userID, id string) (*models.Todo, error) {
	return s.toggle(ctx, userID, id, func(t *models.Todo) { t.Completed = !t.Completed })
}

// TogglePinned flips the pinned flag.
func (s *TodoService) TogglePinned(ctx context.Context, userID, id string) (*models.Todo, error) {
	return s.toggle(ctx, userID, id, func(t *models.Todo) { t.Pinned = !t.Pinned })
}

// Delete removes a todo.
func (s *TodoService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return repoError(err, "todo not found", "failed to delete todo")
	}
	return nil
}

// ClearCompleted removes the completed todos of a day.
func (s *TodoService) ClearCompleted(ctx context.Context, userID, day string) (int64, error) {
	resolved, err := s.resolveDay(day)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.DeleteCompleted(ctx, userID, resolved)
	if err != nil {
		return 0, repoError(err, "todo not found", "failed to clear todos")
	}
	s.logger.Debug("completed todos cleared", zap.String("user_id", userID), zap.String("day", resolved), zap.Int64("count", n))
	return n, nil
}

func (s *TodoService) toggle(ctx context.Context, userID, id string, flip func(*models.Todo)) (*models.Todo, error) {
	todo, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, repoError(err, "todo not found", "failed to load todo")
	}
	flip(todo)
	if err := s.repo.SetFlags(ctx, userID, id, todo.Completed, todo.Pinned); err != nil {
		return nil, repoError(err, "todo not found", "failed to update todo")
	}
	return todo, nil
}

func (s *TodoService) resolveDay(day string) (string, error) {
	if day == "" {
		return s.settings.today(s.now()).Format(models.DateLayout), nil
	}
	if _, err := academic.ParseDay(day); err != nil {
		return "", err
	}
	return day, nil
}
