package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-planner-api/internal/models"
	"github.com/noah-isme/academic-planner-api/pkg/response"
)

type disciplineService interface {
	List(ctx context.Context, userID, periodID string) ([]models.Discipline, error)
	Get(ctx context.Context, userID, id string) (*models.Discipline, error)
	Create(ctx context.Context, userID, periodID string, req models.DisciplineRequest) (*models.Discipline, error)
	Update(ctx context.Context, userID, id string, req models.DisciplineRequest) (*models.Discipline, error)
	Reorder(ctx context.Context, userID string, req models.ReorderRequest) error
	Delete(ctx context.Context, userID, id string) error
}

type gradeService interface {
	UpdateConfig(ctx context.Context, userID, disciplineID string, cfg models.GradeConfig) (*models.Discipline, error)
	UpdateGrades(ctx context.Context, userID, disciplineID string, req models.UpdateGradesRequest) (*models.Discipline, error)
	Summary(ctx context.Context, userID, disciplineID string) (*models.DisciplineSummary, error)
}

// DisciplineHandler exposes discipline endpoints together with their grade book.
type DisciplineHandler struct {
	disciplines disciplineService
	grades      gradeService
}

// NewDisciplineHandler constructs DisciplineHandler.
func NewDisciplineHandler(disciplines disciplineService, grades gradeService) *DisciplineHandler {
	return &DisciplineHandler{disciplines: disciplines, grades: grades}
}

// List godoc
// @Summary List disciplines of a period
// @Tags Disciplines
// @Produce json
// @Security BearerAuth
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /periods/{id}/disciplines [get]
func (h *DisciplineHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	disciplines, err := h.disciplines.List(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, disciplines)
}

// Get godoc
// @Summary Get discipline
// @Tags Disciplines
// @Produce json
// @Security BearerAuth
// @Param id path string true "Discipline ID"
// @Success 200 {object} response.Envelope
// @Router /disciplines/{id} [get]
func (h *DisciplineHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	discipline, err := h.disciplines.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, discipline)
}

// Create godoc
// @Summary Create discipline
// @Tags Disciplines
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Period ID"
// @Param payload body models.DisciplineRequest true "Discipline payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /periods/{id}/disciplines [post]
func (h *DisciplineHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.DisciplineRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	discipline, err := h.disciplines.Create(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, discipline)
}

// Update godoc
// @Summary Update discipline
// @Tags Disciplines
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Discipline ID"
// @Param payload body models.DisciplineRequest true "Discipline payload"
// @Success 200 {object} response.Envelope
// @Router /disciplines/{id} [put]
func (h *DisciplineHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.DisciplineRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	discipline, err := h.disciplines.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, discipline)
}

// Reorder godoc
// @Summary Reorder disciplines
// @Tags Disciplines
// @Accept json
// @Security BearerAuth
// @Param payload body models.ReorderRequest true "Ordered ids"
// @Success 204
// @Router /disciplines/reorder [put]
func (h *DisciplineHandler) Reorder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.ReorderRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	if err := h.disciplines.Reorder(c.Request.Context(), userID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete discipline
// @Tags Disciplines
// @Security BearerAuth
// @Param id path string true "Discipline ID"
// @Success 204
// @Router /disciplines/{id} [delete]
func (h *DisciplineHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.disciplines.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdateGradeConfig godoc
// @Summary Replace grade configuration
// @Description Sets the calculation mode and evaluations; weights must sum to 100 in weighted mode
// @Tags Grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Discipline ID"
// @Param payload body models.GradeConfig true "Grade configuration"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /disciplines/{id}/grade-config [put]
func (h *DisciplineHandler) UpdateGradeConfig(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var cfg models.GradeConfig
	if !bindJSON(c, &cfg, "invalid grade configuration") {
		return
	}
	discipline, err := h.grades.UpdateConfig(c.Request.Context(), userID, c.Param("id"), cfg)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, discipline)
}

// UpdateGrades godoc
// @Summary Record grades
// @Tags Grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Discipline ID"
// @Param payload body models.UpdateGradesRequest true "Grade entries"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /disciplines/{id}/grades [put]
func (h *DisciplineHandler) UpdateGrades(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.UpdateGradesRequest
	if !bindJSON(c, &req, "invalid grades payload") {
		return
	}
	discipline, err := h.grades.UpdateGrades(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, discipline)
}

// Summary godoc
// @Summary Discipline summary
// @Description Average, status and absence allowance
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param id path string true "Discipline ID"
// @Success 200 {object} response.Envelope
// @Router /disciplines/{id}/summary [get]
func (h *DisciplineHandler) Summary(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	summary, err := h.grades.Summary(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}
