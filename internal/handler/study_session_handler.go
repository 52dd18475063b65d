package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-planner-api/internal/models"
	"github.com/noah-isme/academic-planner-api/pkg/response"
)

type studySessionService interface {
	Create(ctx context.Context, userID string, req models.StudySessionRequest) (*models.StudySession, error)
	List(ctx context.Context, userID string, rng models.DateRange) ([]models.StudySession, error)
	Stats(ctx context.Context, userID string, rng models.DateRange) (*models.StudyStats, error)
}

// StudySessionHandler exposes focus timer session endpoints.
type StudySessionHandler struct {
	sessions studySessionService
}

// NewStudySessionHandler constructs StudySessionHandler.
func NewStudySessionHandler(sessions studySessionService) *StudySessionHandler {
	return &StudySessionHandler{sessions: sessions}
}

// Create godoc
// @Summary Log a study session
// @Tags Study
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.StudySessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /study-sessions [post]
func (h *StudySessionHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.StudySessionRequest
	if !bindJSON(c, &req, "invalid session payload") {
		return
	}
	session, err := h.sessions.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// List godoc
// @Summary List study sessions
// @Tags Study
// @Produce json
// @Security BearerAuth
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /study-sessions [get]
func (h *StudySessionHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	rng, ok := dateRange(c)
	if !ok {
		return
	}
	sessions, err := h.sessions.List(c.Request.Context(), userID, rng)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sessions)
}

// Stats godoc
// @Summary Study statistics
// @Tags Study
// @Produce json
// @Security BearerAuth
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /study-sessions/stats [get]
func (h *StudySessionHandler) Stats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	rng, ok := dateRange(c)
	if !ok {
		return
	}
	stats, err := h.sessions.Stats(c.Request.Context(), userID, rng)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}
