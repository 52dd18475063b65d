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

const disciplineColumns = `id, user_id, enrollment_id, period_id, name, teacher, location, code, schedules, workload, hours_per_class, absences, failed_by_absence, grade_config, grades, position, created_at, updated_at`

// DisciplineRepository persists disciplines. Schedules, grade config and grades are JSONB.
type DisciplineRepository struct {
	db *sqlx.DB
}

// NewDisciplineRepository constructs the repository.
func NewDisciplineRepository(db *sqlx.DB) *DisciplineRepository {
	return &DisciplineRepository{db: db}
}

// ListByPeriod returns the period's disciplines in display order.
func (r *DisciplineRepository) ListByPeriod(ctx context.Context, userID, periodID string) ([]models.Discipline, error) {
	query := `SELECT ` + disciplineColumns + ` FROM disciplines WHERE user_id = $1 AND period_id = $2 ORDER BY position ASC, created_at ASC`
	var disciplines []models.Discipline
	if err := r.db.SelectContext(ctx, &disciplines, query, userID, periodID); err != nil {
		return nil, fmt.Errorf("list disciplines: %w", err)
	}
	return disciplines, nil
}

// ListByEnrollment returns every discipline taken in the enrollment.
func (r *DisciplineRepository) ListByEnrollment(ctx context.Context, userID, enrollmentID string) ([]models.Discipline, error) {
	query := `SELECT ` + disciplineColumns + ` FROM disciplines WHERE user_id = $1 AND enrollment_id = $2 ORDER BY period_id, position ASC`
	var disciplines []models.Discipline
	if err := r.db.SelectContext(ctx, &disciplines, query, userID, enrollmentID); err != nil {
		return nil, fmt.Errorf("list enrollment disciplines: %w", err)
	}
	return disciplines, nil
}

// FindByID returns one of the user's disciplines.
func (r *DisciplineRepository) FindByID(ctx context.Context, userID, id string) (*models.Discipline, error) {
	query := `SELECT ` + disciplineColumns + ` FROM disciplines WHERE id = $1 AND user_id = $2`
	var discipline models.Discipline
	if err := r.db.GetContext(ctx, &discipline, query, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find discipline: %w", err)
	}
	return &discipline, nil
}

// Create inserts the discipline at the end of its period.
func (r *DisciplineRepository) Create(ctx context.Context, discipline *models.Discipline) error {
	if discipline.ID == "" {
		discipline.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	discipline.CreatedAt = now
	discipline.UpdatedAt = now

	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const positionQuery = `SELECT COALESCE(MAX(position), -1) + 1 FROM disciplines WHERE user_id = $1 AND period_id = $2`
		if err := tx.GetContext(ctx, &discipline.Position, positionQuery, discipline.UserID, discipline.PeriodID); err != nil {
			return fmt.Errorf("next discipline position: %w", err)
		}
		const query = `INSERT INTO disciplines (` + disciplineColumns + `) VALUES (:id, :user_id, :enrollment_id, :period_id, :name, :teacher, :location, :code, :schedules, :workload, :hours_per_class, :absences, :failed_by_absence, :grade_config, :grades, :position, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, discipline); err != nil {
			return fmt.Errorf("create discipline: %w", err)
		}
		return nil
	})
}

// Mutate locks the discipline row, applies fn and writes the result back atomically.
func (r *DisciplineRepository) Mutate(ctx context.Context, userID, id string, fn models.DisciplineMutation) (*models.Discipline, error) {
	var out *models.Discipline
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		d, err := lockDiscipline(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
		if err := saveDiscipline(ctx, tx, d); err != nil {
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Reorder assigns positions following ids.
func (r *DisciplineRepository) Reorder(ctx context.Context, userID string, ids []string) error {
	return reorder(ctx, r.db, "disciplines", userID, ids)
}

// Delete removes the discipline and its absences, and unlinks events and study sessions.
func (r *DisciplineRepository) Delete(ctx context.Context, userID, id string) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := lockDiscipline(ctx, tx, userID, id); err != nil {
			return err
		}
		steps := []struct {
			name  string
			query string
		}{
			{"delete discipline absences", `DELETE FROM absences WHERE discipline_id = $1`},
			{"detach discipline events", `UPDATE calendar_events SET discipline_id = NULL WHERE discipline_id = $1`},
			{"detach discipline study sessions", `UPDATE study_sessions SET discipline_id = NULL WHERE discipline_id = $1`},
			{"delete discipline", `DELETE FROM disciplines WHERE id = $1`},
		}
		for _, step := range steps {
			if _, err := tx.ExecContext(ctx, step.query, id); err != nil {
				return fmt.Errorf("%s: %w", step.name, err)
			}
		}
		return nil
	})
}

func lockDiscipline(ctx context.Context, tx *sqlx.Tx, userID, id string) (*models.Discipline, error) {
	query := `SELECT ` + disciplineColumns + ` FROM disciplines WHERE id = $1 AND user_id = $2 FOR UPDATE`
	var d models.Discipline
	if err := tx.GetContext(ctx, &d, query, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock discipline: %w", err)
	}
	return &d, nil
}

func saveDiscipline(ctx context.Context, tx *sqlx.Tx, d *models.Discipline) error {
	d.UpdatedAt = time.Now().UTC()
	const query = `UPDATE disciplines SET name = :name, teacher = :teacher, location = :location, code = :code, schedules = :schedules,
workload = :workload, hours_per_class = :hours_per_class, absences = :absences, failed_by_absence = :failed_by_absence,
grade_config = :grade_config, grades = :grades, updated_at = :updated_at WHERE id = :id AND user_id = :user_id`
	if _, err := tx.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("save discipline: %w", err)
	}
	return nil
}
