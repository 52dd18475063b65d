package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-planner-api/internal/models"
	"github.com/noah-isme/academic-planner-api/pkg/response"
)

type absenceService interface {
	List(ctx context.Context, userID, disciplineID string) ([]models.Absence, error)
	Record(ctx context.Context, userID, disciplineID string, req models.RecordAbsenceRequest) (*models.AbsenceResult, error)
	Remove(ctx context.Context, userID, disciplineID, absenceID string) (*models.AbsenceResult, error)
}

// AbsenceHandler exposes absence tracking endpoints.
type AbsenceHandler struct {
	absences absenceService
}

// NewAbsenceHandler constructs AbsenceHandler.
func NewAbsenceHandler(absences absenceService) *AbsenceHandler {
	return &AbsenceHandler{absences: absences}
}

// List godoc
// @Summary List absences
// @Tags Absences
// @Produce json
// @Security BearerAuth
// @Param id path string true "Discipline ID"
// @Success 200 {object} response.Envelope
// @Router /disciplines/{id}/absences [get]
func (h *AbsenceHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	absences, err := h.absences.List(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, absences)
}

// Record godoc
// @Summary Record absence
// @Description Marks the discipline failed by absence once the limit is exceeded
// @Tags Absences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Discipline ID"
// @Param payload body models.RecordAbsenceRequest true "Absence payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /disciplines/{id}/absences [post]
func (h *AbsenceHandler) Record(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.RecordAbsenceRequest
	if !bindJSON(c, &req, "invalid absence payload") {
		return
	}
	result, err := h.absences.Record(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Remove godoc
// @Summary Remove absence
// @Tags Absences
// @Produce json
// @Security BearerAuth
// @Param id path string true "Discipline ID"
// @Param absenceId path string true "Absence ID"
// @Success 200 {object} response.Envelope
// @Router /disciplines/{id}/absences/{absenceId} [delete]
func (h *AbsenceHandler) Remove(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	result, err := h.absences.Remove(c.Request.Context(), userID, c.Param("id"), c.Param("absenceId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
