package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-planner-api/internal/models"
	"github.com/noah-isme/academic-planner-api/pkg/response"
)

type todoService interface {
	List(ctx context.Context, userID, day string) ([]models.Todo, error)
	Create(ctx context.Context, userID string, req models.CreateTodoRequest) (*models.Todo, error)
	ToggleCompleted(ctx context.Context, userID, id string) (*models.Todo, error)
	TogglePinned(ctx context.Context, userID, id string) (*models.Todo, error)
	Delete(ctx context.Context, userID, id string) error
	ClearCompleted(ctx context.Context, userID, day string) (int64, error)
}

// TodoHandler exposes the daily to-do list.
type TodoHandler struct {
	todos todoService
}

// NewTodoHandler constructs TodoHandler.
func NewTodoHandler(todos todoService) *TodoHandler {
	return &TodoHandler{todos: todos}
}

// List godoc
// @Summary List todos of a day
// @Description Pinned items first
// @Tags Todos
// @Produce json
// @Security BearerAuth
// @Param day query string false "Day (YYYY-MM-DD). Defaults to today"
// @Success 200 {object} response.Envelope
// @Router /todos [get]
func (h *TodoHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	todos, err := h.todos.List(c.Request.Context(), userID, strings.TrimSpace(c.Query("day")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, todos)
}

// Create godoc
// @Summary Create todo
// @Tags Todos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateTodoRequest true "Todo payload"
// @Success 201 {object} response.Envelope
// @Router /todos [post]
func (h *TodoHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.CreateTodoRequest
	if !bindJSON(c, &req, "invalid todo payload") {
		return
	}
	todo, err := h.todos.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, todo)
}

// ToggleCompleted godoc
// @Summary Toggle todo completion
// @Tags Todos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Todo ID"
// @Success 200 {object} response.Envelope
// @Router /todos/{id}/complete [patch]
func (h *TodoHandler) ToggleCompleted(c *gin.Context) {
	h.toggle(c, h.todos.ToggleCompleted)
}

// TogglePinned godoc
// @Summary Toggle todo pin
// @Tags Todos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Todo ID"
// @Success 200 {object} response.Envelope
// @Router /todos/{id}/pin [patch]
func (h *TodoHandler) TogglePinned(c *gin.Context) {
	h.toggle(c, h.todos.TogglePinned)
}

func (h *TodoHandler) toggle(c *gin.Context, fn func(ctx context.Context, userID, id string) (*models.Todo, error)) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	todo, err := fn(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, todo)
}

// Delete godoc
// @Summary Delete todo
// @Tags Todos
// @Security BearerAuth
// @Param id path string true "Todo ID"
// @Success 204
// @Router /todos/{id} [delete]
func (h *TodoHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.todos.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ClearCompleted godoc
// @Summary Remove completed todos of a day
// @Tags Todos
// @Produce json
// @Security BearerAuth
// @Param day query string false "Day (YYYY-MM-DD). Defaults to today"
// @Success 200 {object} response.Envelope
// @Router /todos/completed [delete]
func (h *TodoHandler) ClearCompleted(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	removed, err := h.todos.ClearCompleted(c.Request.Context(), userID, strings.TrimSpace(c.Query("day")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"removed": removed})
}
