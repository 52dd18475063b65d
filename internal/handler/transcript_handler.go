package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-planner-api/internal/dto"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
	"github.com/noah-isme/academic-planner-api/pkg/response"
)

type transcriptService interface {
	Build(ctx context.Context, userID, enrollmentID string) (*dto.Transcript, error)
	Export(ctx context.Context, userID, enrollmentID string, format dto.TranscriptFormat) (*dto.TranscriptFile, error)
}

// TranscriptHandler serves academic transcripts.
type TranscriptHandler struct {
	transcripts transcriptService
}

// NewTranscriptHandler constructs TranscriptHandler.
func NewTranscriptHandler(transcripts transcriptService) *TranscriptHandler {
	return &TranscriptHandler{transcripts: transcripts}
}

// Get godoc
// @Summary Transcript
// @Description Disciplines grouped by period with per-period and overall CR
// @Tags Transcript
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/transcript [get]
func (h *TranscriptHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	transcript, err := h.transcripts.Build(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, transcript)
}

// Export godoc
// @Summary Export transcript
// @Tags Transcript
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /enrollments/{id}/transcript/export [get]
func (h *TranscriptHandler) Export(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	format := dto.TranscriptFormat(strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", string(dto.TranscriptPDF)))))
	if format != dto.TranscriptCSV && format != dto.TranscriptPDF {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}
	file, err := h.transcripts.Export(c.Request.Context(), userID, c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
