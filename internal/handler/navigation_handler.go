package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-planner-api/internal/dto"
	"github.com/noah-isme/academic-planner-api/pkg/response"
)

type navigationService interface {
	Get(userID string) dto.NavigationContext
	SelectEnrollment(ctx context.Context, userID string, req dto.SelectEnrollmentRequest) (dto.NavigationContext, error)
	SelectPeriod(userID string, req dto.SelectPeriodRequest) (dto.NavigationContext, error)
	SetEditing(userID string, req dto.SetEditingRequest) dto.NavigationContext
}

// NavigationHandler exposes the per-user navigation context.
type NavigationHandler struct {
	navigation navigationService
}

// NewNavigationHandler constructs NavigationHandler.
func NewNavigationHandler(navigation navigationService) *NavigationHandler {
	return &NavigationHandler{navigation: navigation}
}

// Get godoc
// @Summary Navigation context
// @Tags Navigation
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /navigation [get]
func (h *NavigationHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	response.OK(c, h.navigation.Get(userID))
}

// SelectEnrollment godoc
// @Summary Switch enrollment
// @Tags Navigation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SelectEnrollmentRequest true "Enrollment"
// @Success 200 {object} response.Envelope
// @Router /navigation/enrollment [put]
func (h *NavigationHandler) SelectEnrollment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.SelectEnrollmentRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	nav, err := h.navigation.SelectEnrollment(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nav)
}

// SelectPeriod godoc
// @Summary Move the period cursor
// @Tags Navigation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SelectPeriodRequest true "Period index"
// @Success 200 {object} response.Envelope
// @Router /navigation/period [put]
func (h *NavigationHandler) SelectPeriod(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.SelectPeriodRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	nav, err := h.navigation.SelectPeriod(userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nav)
}

// SetEditing godoc
// @Summary Set the entities being edited
// @Tags Navigation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SetEditingRequest true "Editing selection"
// @Success 200 {object} response.Envelope
// @Router /navigation/editing [put]
func (h *NavigationHandler) SetEditing(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.SetEditingRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	response.OK(c, h.navigation.SetEditing(userID, req))
}
