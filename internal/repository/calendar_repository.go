package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-planner-api/internal/models"
	"github.com/noah-isme/academic-planner-api/pkg/database"
)

const calendarColumns = `id, user_id, period_id, title, date, category, color, reminder, discipline_id, created_at, updated_at`

// CalendarRepository persists calendar events.
type CalendarRepository struct {
	db *sqlx.DB
}

// NewCalendarRepository creates a new calendar repository.
func NewCalendarRepository(db *sqlx.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// List returns events ordered by date, optionally bounded by period and day range.
func (r *CalendarRepository) List(ctx context.Context, userID string, filter models.CalendarFilter) ([]models.CalendarEvent, error) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{userID}
	if filter.PeriodID != "" {
		args = append(args, filter.PeriodID)
		conditions = append(conditions, fmt.Sprintf("period_id = $%d", len(args)))
	}
	conditions, args = dateRange("date", filter.From, filter.To, conditions, args)

	query := fmt.Sprintf(`SELECT %s FROM calendar_events WHERE %s ORDER BY date ASC, created_at ASC`, calendarColumns, strings.Join(conditions, " AND "))
	var events []models.CalendarEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	return events, nil
}

// ListOnDays returns events with a reminder falling on any of the given days.
func (r *CalendarRepository) ListOnDays(ctx context.Context, userID string, days []time.Time) ([]models.CalendarEvent, error) {
	if len(days) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+calendarColumns+` FROM calendar_events WHERE user_id = ? AND reminder <> ? AND date IN (?) ORDER BY date ASC, created_at ASC`,
		userID, models.ReminderNone, days)
	if err != nil {
		return nil, fmt.Errorf("build reminder query: %w", err)
	}
	var events []models.CalendarEvent
	if err := r.db.SelectContext(ctx, &events, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list reminder events: %w", err)
	}
	return events, nil
}

// FindByID returns one of the user's events.
func (r *CalendarRepository) FindByID(ctx context.Context, userID, id string) (*models.CalendarEvent, error) {
	query := `SELECT ` + calendarColumns + ` FROM calendar_events WHERE id = $1 AND user_id = $2`
	var event models.CalendarEvent
	if err := r.db.GetContext(ctx, &event, query, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find calendar event: %w", err)
	}
	return &event, nil
}

// Create inserts a new calendar event.
func (r *CalendarRepository) Create(ctx context.Context, event *models.CalendarEvent) error {
	return r.CreateBatch(ctx, []*models.CalendarEvent{event})
}

// CreateBatch inserts all events or none.
func (r *CalendarRepository) CreateBatch(ctx context.Context, events []*models.CalendarEvent) error {
	now := time.Now().UTC()
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = `INSERT INTO calendar_events (` + calendarColumns + `) VALUES (:id, :user_id, :period_id, :title, :date, :category, :color, :reminder, :discipline_id, :created_at, :updated_at)`
		for _, event := range events {
			if event.ID == "" {
				event.ID = uuid.NewString()
			}
			event.CreatedAt = now
			event.UpdatedAt = now
			if _, err := tx.NamedExecContext(ctx, query, event); err != nil {
				return fmt.Errorf("create calendar event: %w", err)
			}
		}
		return nil
	})
}

// Update modifies an existing event.
func (r *CalendarRepository) Update(ctx context.Context, event *models.CalendarEvent) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE calendar_events SET title = :title, date = :date, category = :category, color = :color, reminder = :reminder, discipline_id = :discipline_id, updated_at = :updated_at WHERE id = :id AND user_id = :user_id`
	res, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return fmt.Errorf("update calendar event: %w", err)
	}
	return expectAffected(res, "update calendar event")
}

// Delete removes an event.
func (r *CalendarRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM calendar_events WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	return expectAffected(res, "delete calendar event")
}
