package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-planner-api/internal/models"
)

const todoColumns = `id, user_id, text, completed, pinned, day, created_at`

// TodoRepository persists day-scoped todos.
type TodoRepository struct {
	db *sqlx.DB
}

// NewTodoRepository constructs the repository.
func NewTodoRepository(db *sqlx.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

// ListByDay returns pinned todos first, then the rest by creation time.
func (r *TodoRepository) ListByDay(ctx context.Context, userID, day string) ([]models.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE user_id = $1 AND day = $2 ORDER BY pinned DESC, created_at ASC`
	var todos []models.Todo
	if err := r.db.SelectContext(ctx, &todos, query, userID, day); err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// FindByID returns one todo.
func (r *TodoRepository) FindByID(ctx context.Context, userID, id string) (*models.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1 AND user_id = $2`
	var todo models.Todo
	if err := r.db.GetContext(ctx, &todo, query, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find todo: %w", err)
	}
	return &todo, nil
}

// Create inserts a todo.
func (r *TodoRepository) Create(ctx context.Context, todo *models.Todo) error {
	if todo.ID == "" {
		todo.ID = uuid.NewString()
	}
	todo.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO todos (` + todoColumns + `) VALUES (:id, :user_id, :text, :completed, :pinned, :day, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, todo); err != nil {
		return fmt.Errorf("create todo: %w", err)
	}
	return nil
}

// SetFlags stores the completed and pinned flags.
func (r *TodoRepository) SetFlags(ctx context.Context, userID, id string, completed, pinned bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE todos SET completed = $1, pinned = $2 WHERE id = $3 AND user_id = $4`, completed, pinned, id, userID)
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	return expectAffected(res, "update todo")
}

// Delete removes one todo.
func (r *TodoRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return expectAffected(res, "delete todo")
}

// DeleteCompleted removes the completed todos of a day and reports how many went away.
func (r *TodoRepository) DeleteCompleted(ctx context.Context, userID, day string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE user_id = $1 AND day = $2 AND completed = TRUE`, userID, day)
	if err != nil {
		return 0, fmt.Errorf("clear completed todos: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear completed todos rows affected: %w", err)
	}
	return n, nil
}
