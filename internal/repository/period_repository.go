package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-planner-api/internal/models"
	"github.com/noah-isme/academic-planner-api/pkg/database"
)

const periodColumns = `id, user_id, enrollment_id, name, start_date, end_date, status, calendar_url, created_at, updated_at`

// PeriodRepository persists periods and runs their cascading delete.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository constructs the repository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// ListByEnrollment returns the enrollment's periods ordered by start date.
func (r *PeriodRepository) ListByEnrollment(ctx context.Context, userID, enrollmentID string) ([]models.Period, error) {
	query := `SELECT ` + periodColumns + ` FROM periods WHERE user_id = $1 AND enrollment_id = $2 ORDER BY start_date ASC, created_at ASC`
	var periods []models.Period
	if err := r.db.SelectContext(ctx, &periods, query, userID, enrollmentID); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return periods, nil
}

// FindByID returns one of the user's periods.
func (r *PeriodRepository) FindByID(ctx context.Context, userID, id string) (*models.Period, error) {
	query := `SELECT ` + periodColumns + ` FROM periods WHERE id = $1 AND user_id = $2`
	var period models.Period
	if err := r.db.GetContext(ctx, &period, query, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find period: %w", err)
	}
	return &period, nil
}

// Create inserts an active period and points its enrollment at it in one transaction. A missing
// enrollment yields sql.ErrNoRows.
func (r *PeriodRepository) Create(ctx context.Context, period *models.Period) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var enrollmentID string
		const lock = `SELECT id FROM enrollments WHERE id = $1 AND user_id = $2 FOR UPDATE`
		if err := tx.GetContext(ctx, &enrollmentID, lock, period.EnrollmentID, period.UserID); err != nil {
			if err == sql.ErrNoRows {
				return err
			}
			return fmt.Errorf("lock enrollment: %w", err)
		}
		if err := insertPeriod(ctx, tx, period); err != nil {
			return err
		}
		return setActivePeriod(ctx, tx, period.UserID, period.EnrollmentID, &period.ID)
	})
}

// Update stores the name, dates and calendar reference.
func (r *PeriodRepository) Update(ctx context.Context, period *models.Period) error {
	period.UpdatedAt = time.Now().UTC()
	const query = `UPDATE periods SET name = :name, start_date = :start_date, end_date = :end_date, calendar_url = :calendar_url, updated_at = :updated_at WHERE id = :id AND user_id = :user_id`
	res, err := r.db.NamedExecContext(ctx, query, period)
	if err != nil {
		return fmt.Errorf("update period: %w", err)
	}
	return expectAffected(res, "update period")
}

// UpdateStatus sets the lifecycle status.
func (r *PeriodRepository) UpdateStatus(ctx context.Context, userID, id string, status models.PeriodStatus) error {
	const query = `UPDATE periods SET status = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`
	res, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id, userID)
	if err != nil {
		return fmt.Errorf("update period status: %w", err)
	}
	return expectAffected(res, "update period status")
}

// DeleteCascade removes the absences and disciplines of the period, its calendar events and the
// period itself in one transaction. The enrollment pointer is left to the caller.
func (r *PeriodRepository) DeleteCascade(ctx context.Context, userID, id string) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var locked string
		if err := tx.GetContext(ctx, &locked, `SELECT id FROM periods WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID); err != nil {
			if err == sql.ErrNoRows {
				return err
			}
			return fmt.Errorf("lock period: %w", err)
		}

		steps := []struct {
			name  string
			query string
		}{
			{"delete period absences", `DELETE FROM absences WHERE discipline_id IN (SELECT id FROM disciplines WHERE period_id = $1)`},
			{"detach period study sessions", `UPDATE study_sessions SET discipline_id = NULL WHERE discipline_id IN (SELECT id FROM disciplines WHERE period_id = $1)`},
			{"delete period disciplines", `DELETE FROM disciplines WHERE period_id = $1`},
			{"delete period events", `DELETE FROM calendar_events WHERE period_id = $1`},
			{"delete period", `DELETE FROM periods WHERE id = $1`},
		}
		for _, step := range steps {
			if _, err := tx.ExecContext(ctx, step.query, id); err != nil {
				return fmt.Errorf("%s: %w", step.name, err)
			}
		}
		return nil
	})
}

func insertPeriod(ctx context.Context, tx *sqlx.Tx, period *models.Period) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	period.CreatedAt = now
	period.UpdatedAt = now
	if period.Status == "" {
		period.Status = models.PeriodStatusActive
	}
	const query = `INSERT INTO periods (` + periodColumns + `) VALUES (:id, :user_id, :enrollment_id, :name, :start_date, :end_date, :status, :calendar_url, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("create period: %w", err)
	}
	return nil
}
