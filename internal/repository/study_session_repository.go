package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-planner-api/internal/models"
)

// StudySessionRepository persists focus-timer sessions.
type StudySessionRepository struct {
	db *sqlx.DB
}

// NewStudySessionRepository constructs the repository.
func NewStudySessionRepository(db *sqlx.DB) *StudySessionRepository {
	return &StudySessionRepository{db: db}
}

// Create inserts a session.
func (r *StudySessionRepository) Create(ctx context.Context, session *models.StudySession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO study_sessions (id, user_id, duration_minutes, discipline_id, sound, created_at) VALUES (:id, :user_id, :duration_minutes, :discipline_id, :sound, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create study session: %w", err)
	}
	return nil
}

// List returns sessions newest first within the optional range.
func (r *StudySessionRepository) List(ctx context.Context, userID string, rng models.DateRange) ([]models.StudySession, error) {
	conditions, args := dateRange("created_at", rng.From, rng.To, []string{"user_id = $1"}, []interface{}{userID})
	query := fmt.Sprintf(`SELECT id, user_id, duration_minutes, discipline_id, sound, created_at FROM study_sessions WHERE %s ORDER BY created_at DESC`, strings.Join(conditions, " AND "))
	var sessions []models.StudySession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list study sessions: %w", err)
	}
	return sessions, nil
}

// TotalsByDiscipline aggregates minutes per discipline within the optional range.
func (r *StudySessionRepository) TotalsByDiscipline(ctx context.Context, userID string, rng models.DateRange) ([]models.DisciplineStudyTotal, error) {
	conditions, args := dateRange("created_at", rng.From, rng.To, []string{"user_id = $1"}, []interface{}{userID})
	query := fmt.Sprintf(`SELECT COALESCE(discipline_id::text, '') AS discipline_id, SUM(duration_minutes) AS minutes, COUNT(*) AS sessions
FROM study_sessions WHERE %s GROUP BY 1 ORDER BY minutes DESC`, strings.Join(conditions, " AND "))
	var totals []models.DisciplineStudyTotal
	if err := r.db.SelectContext(ctx, &totals, query, args...); err != nil {
		return nil, fmt.Errorf("aggregate study sessions: %w", err)
	}
	return totals, nil
}
