package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-planner-api/internal/models"
)

// CurriculumRepository persists planned curriculum subjects.
type CurriculumRepository struct {
	db *sqlx.DB
}

// NewCurriculumRepository constructs the repository.
func NewCurriculumRepository(db *sqlx.DB) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

// ListByEnrollment returns subjects ordered by target period and name.
func (r *CurriculumRepository) ListByEnrollment(ctx context.Context, userID, enrollmentID string) ([]models.CurriculumSubject, error) {
	const query = `SELECT id, user_id, enrollment_id, target_period, name, code, created_at FROM curriculum_subjects WHERE user_id = $1 AND enrollment_id = $2 ORDER BY target_period ASC, name ASC`
	var subjects []models.CurriculumSubject
	if err := r.db.SelectContext(ctx, &subjects, query, userID, enrollmentID); err != nil {
		return nil, fmt.Errorf("list curriculum subjects: %w", err)
	}
	return subjects, nil
}

// Create inserts a subject.
func (r *CurriculumRepository) Create(ctx context.Context, subject *models.CurriculumSubject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	subject.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO curriculum_subjects (id, user_id, enrollment_id, target_period, name, code, created_at) VALUES (:id, :user_id, :enrollment_id, :target_period, :name, :code, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create curriculum subject: %w", err)
	}
	return nil
}

// Delete removes a subject.
func (r *CurriculumRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM curriculum_subjects WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete curriculum subject: %w", err)
	}
	return expectAffected(res, "delete curriculum subject")
}
