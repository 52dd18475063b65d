package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-planner-api/internal/models"
	"github.com/noah-isme/academic-planner-api/pkg/database"
)

// AbsenceRepository stores absences together with the discipline counters they drive.
type AbsenceRepository struct {
	db *sqlx.DB
}

// NewAbsenceRepository constructs the repository.
func NewAbsenceRepository(db *sqlx.DB) *AbsenceRepository {
	return &AbsenceRepository{db: db}
}

// ListByDiscipline returns absences newest first.
func (r *AbsenceRepository) ListByDiscipline(ctx context.Context, userID, disciplineID string) ([]models.Absence, error) {
	const query = `SELECT id, user_id, discipline_id, date, justification, created_at FROM absences WHERE user_id = $1 AND discipline_id = $2 ORDER BY date DESC, created_at DESC`
	var absences []models.Absence
	if err := r.db.SelectContext(ctx, &absences, query, userID, disciplineID); err != nil {
		return nil, fmt.Errorf("list absences: %w", err)
	}
	return absences, nil
}

// Record inserts the absence and applies fn to the locked discipline in one transaction.
func (r *AbsenceRepository) Record(ctx context.Context, absence *models.Absence, fn models.DisciplineMutation) (*models.Discipline, error) {
	if absence.ID == "" {
		absence.ID = uuid.NewString()
	}
	absence.CreatedAt = time.Now().UTC()

	var out *models.Discipline
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		d, err := lockDiscipline(ctx, tx, absence.UserID, absence.DisciplineID)
		if err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
		if err := saveDiscipline(ctx, tx, d); err != nil {
			return err
		}
		const insert = `INSERT INTO absences (id, user_id, discipline_id, date, justification, created_at) VALUES (:id, :user_id, :discipline_id, :date, :justification, :created_at)`
		if _, err := tx.NamedExecContext(ctx, insert, absence); err != nil {
			return fmt.Errorf("create absence: %w", err)
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Remove deletes the absence and applies fn to the locked discipline in one transaction. An
// absence that does not belong to the discipline yields sql.ErrNoRows.
func (r *AbsenceRepository) Remove(ctx context.Context, userID, disciplineID, absenceID string, fn models.DisciplineMutation) (*models.Discipline, error) {
	var out *models.Discipline
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		d, err := lockDiscipline(ctx, tx, userID, disciplineID)
		if err != nil {
			return err
		}
		const del = `DELETE FROM absences WHERE id = $1 AND discipline_id = $2 AND user_id = $3`
		res, err := tx.ExecContext(ctx, del, absenceID, disciplineID, userID)
		if err != nil {
			return fmt.Errorf("delete absence: %w", err)
		}
		if err := expectAffected(res, "delete absence"); err != nil {
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
