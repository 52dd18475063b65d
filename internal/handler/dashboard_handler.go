package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-planner-api/internal/dto"
	"github.com/noah-isme/academic-planner-api/internal/middleware"
	"github.com/noah-isme/academic-planner-api/pkg/response"
)

type dashboardService interface {
	Get(ctx context.Context, userID string) (*dto.DashboardResponse, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Get godoc
// @Summary Planner dashboard
// @Description Per-enrollment overview, upcoming events and due reminders
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	start := time.Now()
	summary, cacheHit, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetGeneratedAt(c, summary.GeneratedAt)
	meta := middleware.ExtractMeta(c)
	if _, ok := meta[middleware.MetaProcessingTime]; !ok {
		meta[middleware.MetaProcessingTime] = time.Since(start).Milliseconds()
	}
	response.JSON(c, http.StatusOK, summary, nil, meta)
}
