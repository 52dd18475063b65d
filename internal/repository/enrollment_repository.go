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

const enrollmentColumns = `id, user_id, course_name, institution, modality, passing_grade, active_period_id, position, created_at, updated_at`

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns the user's enrollments in display order.
func (r *EnrollmentRepository) List(ctx context.Context, userID string) ([]models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE user_id = $1 ORDER BY position ASC, created_at ASC`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, userID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// FindByID returns one of the user's enrollments.
func (r *EnrollmentRepository) FindByID(ctx context.Context, userID, id string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1 AND user_id = $2`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enrollment, nil
}

// Create inserts the enrollment at the end of the display order. When firstPeriod is given it
// is inserted in the same transaction and becomes the active period.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment, firstPeriod *models.Period) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now

	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const positionQuery = `SELECT COALESCE(MAX(position), -1) + 1 FROM enrollments WHERE user_id = $1`
		if err := tx.GetContext(ctx, &enrollment.Position, positionQuery, enrollment.UserID); err != nil {
			return fmt.Errorf("next enrollment position: %w", err)
		}

		const insert = `INSERT INTO enrollments (` + enrollmentColumns + `) VALUES (:id, :user_id, :course_name, :institution, :modality, :passing_grade, :active_period_id, :position, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, insert, enrollment); err != nil {
			return fmt.Errorf("create enrollment: %w", err)
		}
		if firstPeriod == nil {
			return nil
		}

		firstPeriod.EnrollmentID = enrollment.ID
		firstPeriod.UserID = enrollment.UserID
		if err := insertPeriod(ctx, tx, firstPeriod); err != nil {
			return err
		}
		if err := setActivePeriod(ctx, tx, enrollment.UserID, enrollment.ID, &firstPeriod.ID); err != nil {
			return err
		}
		enrollment.ActivePeriodID = &firstPeriod.ID
		return nil
	})
}

// Update stores editable attributes.
func (r *EnrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment) error {
	enrollment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE enrollments SET course_name = :course_name, institution = :institution, modality = :modality, passing_grade = :passing_grade, updated_at = :updated_at WHERE id = :id AND user_id = :user_id`
	res, err := r.db.NamedExecContext(ctx, query, enrollment)
	if err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	return expectAffected(res, "update enrollment")
}

// SetActivePeriod moves the active period pointer. A nil periodID clears it.
func (r *EnrollmentRepository) SetActivePeriod(ctx context.Context, userID, enrollmentID string, periodID *string) error {
	return setActivePeriod(ctx, r.db, userID, enrollmentID, periodID)
}

// Reorder assigns positions following ids. Ids not owned by the user are ignored.
func (r *EnrollmentRepository) Reorder(ctx context.Context, userID string, ids []string) error {
	return reorder(ctx, r.db, "enrollments", userID, ids)
}

// Delete removes the enrollment with all periods, disciplines, absences, events and curriculum
// subjects below it in a single transaction.
func (r *EnrollmentRepository) Delete(ctx context.Context, userID, id string) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var locked string
		if err := tx.GetContext(ctx, &locked, `SELECT id FROM enrollments WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID); err != nil {
			if err == sql.ErrNoRows {
				return err
			}
			return fmt.Errorf("lock enrollment: %w", err)
		}

		steps := []struct {
			name  string
			query string
		}{
			{"delete enrollment absences", `DELETE FROM absences WHERE discipline_id IN (SELECT id FROM disciplines WHERE enrollment_id = $1)`},
			{"detach enrollment study sessions", `UPDATE study_sessions SET discipline_id = NULL WHERE discipline_id IN (SELECT id FROM disciplines WHERE enrollment_id = $1)`},
			{"delete enrollment disciplines", `DELETE FROM disciplines WHERE enrollment_id = $1`},
			{"delete enrollment events", `DELETE FROM calendar_events WHERE period_id IN (SELECT id FROM periods WHERE enrollment_id = $1)`},
			{"delete enrollment periods", `DELETE FROM periods WHERE enrollment_id = $1`},
			{"delete enrollment curriculum", `DELETE FROM curriculum_subjects WHERE enrollment_id = $1`},
			{"detach enrollment documents", `UPDATE documents SET enrollment_id = NULL WHERE enrollment_id = $1`},
			{"delete enrollment", `DELETE FROM enrollments WHERE id = $1`},
		}
		for _, step := range steps {
			if _, err := tx.ExecContext(ctx, step.query, id); err != nil {
				return fmt.Errorf("%s: %w", step.name, err)
			}
		}
		return nil
	})
}

func setActivePeriod(ctx context.Context, exec sqlx.ExecerContext, userID, enrollmentID string, periodID *string) error {
	const query = `UPDATE enrollments SET active_period_id = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`
	res, err := exec.ExecContext(ctx, query, periodID, time.Now().UTC(), enrollmentID, userID)
	if err != nil {
		return fmt.Errorf("set active period: %w", err)
	}
	return expectAffected(res, "set active period")
}
