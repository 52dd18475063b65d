package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-planner-api/internal/models"
	"github.com/noah-isme/academic-planner-api/pkg/response"
)

type curriculumService interface {
	List(ctx context.Context, userID, enrollmentID string) ([]models.CurriculumSubject, error)
	Create(ctx context.Context, userID, enrollmentID string, req models.CurriculumSubjectRequest) (*models.CurriculumSubject, error)
	Delete(ctx context.Context, userID, id string) error
	Progress(ctx context.Context, userID, enrollmentID string) (*models.CurriculumProgress, error)
}

// CurriculumHandler exposes the planned curriculum of an enrollment.
type CurriculumHandler struct {
	curriculum curriculumService
}

// NewCurriculumHandler constructs CurriculumHandler.
func NewCurriculumHandler(curriculum curriculumService) *CurriculumHandler {
	return &CurriculumHandler{curriculum: curriculum}
}

// List godoc
// @Summary List curriculum subjects
// @Tags Curriculum
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/curriculum [get]
func (h *CurriculumHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	subjects, err := h.curriculum.List(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, subjects)
}

// Create godoc
// @Summary Add curriculum subject
// @Tags Curriculum
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Param payload body models.CurriculumSubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Router /enrollments/{id}/curriculum [post]
func (h *CurriculumHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.CurriculumSubjectRequest
	if !bindJSON(c, &req, "invalid subject payload") {
		return
	}
	subject, err := h.curriculum.Create(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// Delete godoc
// @Summary Remove curriculum subject
// @Tags Curriculum
// @Security BearerAuth
// @Param id path string true "Subject ID"
// @Success 204
// @Router /curriculum/{id} [delete]
func (h *CurriculumHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.curriculum.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Progress godoc
// @Summary Curriculum progress
// @Description Matches planned subjects against taken disciplines by code
// @Tags Curriculum
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/curriculum/progress [get]
func (h *CurriculumHandler) Progress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	progress, err := h.curriculum.Progress(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, progress)
}
