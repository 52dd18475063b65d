package service

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
)

type memTodos struct {
	mu    sync.Mutex
	seq   int
	todos map[string]*models.Todo
}

func (m *memTodos) ListByDay(ctx context.Context, userID, day string) ([]models.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Todo{}
	for _, t := range m.todos {
		if t.UserID == userID && t.Day == day {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memTodos) FindByID(ctx context.Context, userID, id string) (*models.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.todos[id]
	if !ok || t.UserID != userID {
		return nil, sql.ErrNoRows
	}
	out := *t
	return &out, nil
}

func (m *memTodos) Create(ctx context.Context, todo *models.Todo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	todo.ID = "todo-" + strconv.Itoa(m.seq)
	todo.CreatedAt = time.Unix(int64(m.seq), 0)
	stored := *todo
	m.todos[todo.ID] = &stored
	return nil
}

func (m *memTodos) SetFlags(ctx context.Context, userID, id string, completed, pinned bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.todos[id]
	if !ok || t.UserID != userID {
		return sql.ErrNoRows
	}
	t.Completed, t.Pinned = completed, pinned
	return nil
}

func (m *memTodos) Delete(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.todos[id]
	if !ok || t.UserID != userID {
		return sql.ErrNoRows
	}
	delete(m.todos, id)
	return nil
}

func (m *memTodos) DeleteCompleted(ctx context.Context, userID, day string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, t := range m.todos {
		if t.UserID == userID && t.Day == day && t.Completed {
			delete(m.todos, id)
			n++
		}
	}
	return n, nil
}

func newTestTodoService(now time.Time) (*TodoService, *memTodos) {
	repo := &memTodos{todos: map[string]*models.Todo{}}
	svc := NewTodoService(repo, PlannerSettings{Location: brt}, nil, zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc, repo
}

func TestTodoServiceDefaultsToToday(t *testing.T) {
	svc, _ := newTestTodoService(time.Date(2024, 4, 11, 2, 0, 0, 0, time.UTC))

	todo, err := svc.Create(context.Background(), "u1", models.CreateTodoRequest{Text: " read chapter 3 "})
	require.NoError(t, err)
	assert.Equal(t, "2024-04-10", todo.Day)
	assert.Equal(t, "read chapter 3", todo.Text)

	todos, err := svc.List(context.Background(), "u1", "")
	require.NoError(t, err)
	require.Len(t, todos, 1)
}

func TestTodoServicePinnedFirstAndToggles(t *testing.T) {
	svc, _ := newTestTodoService(time.Now())
	ctx := context.Background()
	first, err := svc.Create(ctx, "u1", models.CreateTodoRequest{Text: "first", Day: "2024-04-10"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, "u1", models.CreateTodoRequest{Text: "second", Day: "2024-04-10"})
	require.NoError(t, err)

	pinned, err := svc.TogglePinned(ctx, "u1", second.ID)
	require.NoError(t, err)
	assert.True(t, pinned.Pinned)

	todos, err := svc.List(ctx, "u1", "2024-04-10")
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.Equal(t, second.ID, todos[0].ID)
	assert.Equal(t, first.ID, todos[1].ID)

	done, err := svc.ToggleCompleted(ctx, "u1", first.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	assert.False(t, done.Pinned)

	n, err := svc.ClearCompleted(ctx, "u1", "2024-04-10")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	todos, err = svc.List(ctx, "u1", "2024-04-10")
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, second.ID, todos[0].ID)
}

func TestTodoServiceErrors(t *testing.T) {
	svc, _ := newTestTodoService(time.Now())
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", models.CreateTodoRequest{})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.List(ctx, "u1", "tomorrow")
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.ToggleCompleted(ctx, "u1", "missing")
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	require.ErrorIs(t, svc.Delete(ctx, "u1", "missing"), appErrors.ErrNotFound)
}
