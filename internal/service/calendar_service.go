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
)

const defaultEventColor = "#3b82f6"

type calendarRepository interface {
	List(ctx context.Context, userID string, filter models.CalendarFilter) ([]models.CalendarEvent, error)
	ListOnDays(ctx context.Context, userID string, days []time.Time) ([]models.CalendarEvent, error)
	FindByID(ctx context.Context, userID, id string) (*models.CalendarEvent, error)
	Create(ctx context.Context, event *models.CalendarEvent) error
	CreateBatch(ctx context.Context, events []*models.CalendarEvent) error
	Update(ctx context.Context, event *models.CalendarEvent) error
	Delete(ctx context.Context, userID, id string) error
}

type disciplineLookup interface {
	FindByID(ctx context.Context, userID, id string) (*models.Discipline, error)
}

type eventExtractor interface {
	Enabled() bool
	Extract(ctx context.Context, text string) ([]models.ExtractedEvent, error)
}

// CalendarService manages dated events of a period and their reminders.
type CalendarService struct {
	events      calendarRepository
	periods     periodLookup
	disciplines disciplineLookup
	extractor   eventExtractor
	settings    PlannerSettings
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// CalendarServiceParams groups the collaborators of CalendarService.
type CalendarServiceParams struct {
	Events      calendarRepository
	Periods     periodLookup
	Disciplines disciplineLookup
	Extractor   eventExtractor
	Settings    PlannerSettings
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// NewCalendarService constructs the service.
func NewCalendarService(p CalendarServiceParams) *CalendarService {
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	return &CalendarService{
		events:      p.Events,
		periods:     p.Periods,
		disciplines: p.Disciplines,
		extractor:   p.Extractor,
		settings:    p.Settings,
		validator:   p.Validator,
		logger:      p.Logger,
		now:         time.Now,
	}
}

// List returns the events of a period ordered by date.
func (s *CalendarService) List(ctx context.Context, userID string, filter models.CalendarFilter) ([]models.CalendarEvent, error) {
	if filter.PeriodID != "" {
		if _, err := s.periods.FindByID(ctx, userID, filter.PeriodID); err != nil {
			return nil, repoError(err, "period not found", "failed to load period")
		}
	}
	if err := checkRange(filter.DateRange); err != nil {
		return nil, err
	}
	events, err := s.events.List(ctx, userID, filter)
	if err != nil {
		return nil, repoError(err, "period not found", "failed to list events")
	}
	return events, nil
}

// Create adds an event to a period.
func (s *CalendarService) Create(ctx context.Context, userID, periodID string, req models.CalendarEventRequest) (*models.CalendarEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid event payload")
	}
	if _, err := s.periods.FindByID(ctx, userID, periodID); err != nil {
		return nil, repoError(err, "period not found", "failed to load period")
	}
	event := &models.CalendarEvent{UserID: userID, PeriodID: periodID}
	if err := s.apply(ctx, event, req); err != nil {
		return nil, err
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, repoError(err, "period not found", "failed to create event")
	}
	return event, nil
}

// Update replaces the attributes of an event. The period stays the same.
func (s *CalendarService) Update(ctx context.Context, userID, id string, req models.CalendarEventRequest) (*models.CalendarEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid event payload")
	}
	event, err := s.events.FindByID(ctx, userID, id)
	if err != nil {
		return nil, repoError(err, "event not found", "failed to load event")
	}
	if err := s.apply(ctx, event, req); err != nil {
		return nil, err
	}
	if err := s.events.Update(ctx, event); err != nil {
		return nil, repoError(err, "event not found", "failed to update event")
	}
	return event, nil
}

// Delete removes an event.
func (s *CalendarService) Delete(ctx context.Context, userID, id string) error {
	if err := s.events.Delete(ctx, userID, id); err != nil {
		return repoError(err, "event not found", "failed to delete event")
	}
	return nil
}

// Reminders lists events whose reminder day (event date minus lead time) is the given day. An
// empty day means today in the planner timezone.
func (s *CalendarService) Reminders(ctx context.Context, userID, dayValue string) ([]models.CalendarEvent, error) {
	today := s.settings.today(s.now())
	if dayValue != "" {
		parsed, err := academic.ParseDay(dayValue)
		if err != nil {
			return nil, err
		}
		today = parsed
	}

	reminders := []models.Reminder{models.ReminderOneDay, models.ReminderTwoDays, models.ReminderOneWeek}
	days := make([]time.Time, 0, len(reminders))
	for _, r := range reminders {
		days = append(days, today.AddDate(0, 0, r.LeadDays()))
	}
	candidates, err := s.events.ListOnDays(ctx, userID, days)
	if err != nil {
		return nil, repoError(err, "event not found", "failed to list reminders")
	}

	due := make([]models.CalendarEvent, 0, len(candidates))
	for _, ev := range candidates {
		lead := ev.Reminder.LeadDays()
		if lead < 0 {
			continue
		}
		if academic.DateOnly(ev.Date).AddDate(0, 0, -lead).Equal(today) {
			due = append(due, ev)
		}
	}
	return due, nil
}

// Extract mines free text for candidate events through the extraction service.
func (s *CalendarService) Extract(ctx context.Context, req models.ExtractEventsRequest) ([]models.ExtractedEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid extraction payload")
	}
	if s.extractor == nil || !s.extractor.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "event extraction is not configured")
	}
	return s.extractor.Extract(ctx, req.Text)
}

// Import creates every candidate in the period, all or nothing.
func (s *CalendarService) Import(ctx context.Context, userID, periodID string, req models.ImportEventsRequest) ([]models.CalendarEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid import payload")
	}
	if _, err := s.periods.FindByID(ctx, userID, periodID); err != nil {
		return nil, repoError(err, "period not found", "failed to load period")
	}

	batch := make([]*models.CalendarEvent, 0, len(req.Events))
	for _, candidate := range req.Events {
		date, err := academic.ParseDay(candidate.Date)
		if err != nil {
			return nil, err
		}
		batch = append(batch, &models.CalendarEvent{
			UserID:   userID,
			PeriodID: periodID,
			Title:    strings.TrimSpace(candidate.Title),
			Date:     date,
			Category: strings.TrimSpace(candidate.Category),
			Color:    defaultEventColor,
			Reminder: models.ReminderNone,
		})
	}
	if err := s.events.CreateBatch(ctx, batch); err != nil {
		return nil, repoError(err, "period not found", "failed to import events")
	}

	out := make([]models.CalendarEvent, len(batch))
	for i, ev := range batch {
		out[i] = *ev
	}
	s.logger.Info("calendar events imported", zap.String("user_id", userID), zap.String("period_id", periodID), zap.Int("count", len(out)))
	return out, nil
}

func (s *CalendarService) apply(ctx context.Context, event *models.CalendarEvent, req models.CalendarEventRequest) error {
	date, err := academic.ParseDay(req.Date)
	if err != nil {
		return err
	}
	if req.DisciplineID != nil {
		d, err := s.disciplines.FindByID(ctx, event.UserID, *req.DisciplineID)
		if err != nil {
			return repoError(err, "discipline not found", "failed to load discipline")
		}
		if d.PeriodID != event.PeriodID {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("discipline %s belongs to another period", d.ID))
		}
	}

	event.Title = strings.TrimSpace(req.Title)
	event.Date = date
	event.Category = strings.TrimSpace(req.Category)
	event.Color = req.Color
	if event.Color == "" {
		event.Color = defaultEventColor
	}
	event.Reminder = req.Reminder
	if event.Reminder == "" {
		event.Reminder = models.ReminderNone
	}
	event.DisciplineID = req.DisciplineID
	return nil
}
