package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-planner-api/internal/models"
	"github.com/noah-isme/academic-planner-api/pkg/response"
)

type periodService interface {
	List(ctx context.Context, userID, enrollmentID string) ([]models.Period, error)
	Get(ctx context.Context, userID, id string) (*models.Period, error)
	Create(ctx context.Context, userID, enrollmentID string, req models.CreatePeriodRequest) (*models.Period, error)
	Update(ctx context.Context, userID, id string, req models.UpdatePeriodRequest) (*models.Period, error)
	Close(ctx context.Context, userID, id string) (*models.Period, error)
	Reopen(ctx context.Context, userID, id string) (*models.Period, error)
	Delete(ctx context.Context, userID, id string) error
	AutoCloseOutdated(ctx context.Context, userID, enrollmentID string) (int, error)
}

// PeriodHandler exposes period lifecycle endpoints.
type PeriodHandler struct {
	periods periodService
}

// NewPeriodHandler constructs PeriodHandler.
func NewPeriodHandler(periods periodService) *PeriodHandler {
	return &PeriodHandler{periods: periods}
}

// List godoc
// @Summary List periods of an enrollment
// @Description Ordered by start date
// @Tags Periods
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/periods [get]
func (h *PeriodHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	periods, err := h.periods.List(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, periods)
}

// Get godoc
// @Summary Get period
// @Tags Periods
// @Produce json
// @Security BearerAuth
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /periods/{id} [get]
func (h *PeriodHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	period, err := h.periods.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, period)
}

// Create godoc
// @Summary Create period
// @Tags Periods
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Param payload body models.CreatePeriodRequest true "Period payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /enrollments/{id}/periods [post]
func (h *PeriodHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.CreatePeriodRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	period, err := h.periods.Create(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, period)
}

// Update godoc
// @Summary Update period
// @Tags Periods
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Period ID"
// @Param payload body models.CreatePeriodRequest true "Period payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /periods/{id} [put]
func (h *PeriodHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.UpdatePeriodRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	period, err := h.periods.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, period)
}

// Close godoc
// @Summary Close period
// @Tags Periods
// @Produce json
// @Security BearerAuth
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /periods/{id}/close [post]
func (h *PeriodHandler) Close(c *gin.Context) {
	h.transition(c, h.periods.Close)
}

// Reopen godoc
// @Summary Reopen period
// @Tags Periods
// @Produce json
// @Security BearerAuth
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /periods/{id}/reopen [post]
func (h *PeriodHandler) Reopen(c *gin.Context) {
	h.transition(c, h.periods.Reopen)
}

func (h *PeriodHandler) transition(c *gin.Context, fn func(ctx context.Context, userID, id string) (*models.Period, error)) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	period, err := fn(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, period)
}

// Delete godoc
// @Summary Delete period
// @Description Cascades to disciplines, absences and events
// @Tags Periods
// @Security BearerAuth
// @Param id path string true "Period ID"
// @Success 204
// @Router /periods/{id} [delete]
func (h *PeriodHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.periods.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AutoClose godoc
// @Summary Close outdated periods
// @Description Closes every active period of the enrollment whose end date has passed
// @Tags Periods
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/periods/auto-close [post]
func (h *PeriodHandler) AutoClose(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	closed, err := h.periods.AutoCloseOutdated(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"closed": closed})
}
