package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-planner-api/internal/models"
	"github.com/noah-isme/academic-planner-api/internal/service"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
	"github.com/noah-isme/academic-planner-api/pkg/response"
)

type documentService interface {
	Upload(ctx context.Context, userID string, meta models.UploadDocumentRequest, upload service.DocumentUpload) (*models.Document, error)
	List(ctx context.Context, userID string, filter models.DocumentFilter) ([]models.Document, error)
	Get(ctx context.Context, userID, id string) (*models.Document, error)
	Delete(ctx context.Context, userID, id string) error
	SignedURL(ctx context.Context, userID, id string) (*service.SignedDocumentURL, error)
	Open(ctx context.Context, userID, id string, thumbnail bool) (*service.DocumentFile, error)
	OpenByToken(ctx context.Context, token string) (*service.DocumentFile, error)
}

// DocumentHandler exposes document upload and download endpoints.
type DocumentHandler struct {
	documents documentService
}

// NewDocumentHandler constructs DocumentHandler.
func NewDocumentHandler(documents documentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// Upload godoc
// @Summary Upload document
// @Tags Documents
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Document file"
// @Param title formData string true "Title"
// @Param type formData string true "Document type"
// @Param tags formData []string false "Tags"
// @Param enrollment_id formData string false "Enrollment ID"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var meta models.UploadDocumentRequest
	if err := c.ShouldBind(&meta); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid document metadata"))
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read upload"))
		return
	}
	defer file.Close()

	doc, err := h.documents.Upload(c.Request.Context(), userID, meta, service.DocumentUpload{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  file,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// List godoc
// @Summary List documents
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param type query string false "Document type"
// @Param tag query string false "Tag"
// @Param enrollmentId query string false "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	filter := models.DocumentFilter{
		Type:         strings.TrimSpace(c.Query("type")),
		Tag:          strings.TrimSpace(c.Query("tag")),
		EnrollmentID: strings.TrimSpace(c.Query("enrollmentId")),
	}
	docs, err := h.documents.List(c.Request.Context(), userID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, docs)
}

// Get godoc
// @Summary Get document metadata
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	doc, err := h.documents.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, doc)
}

// Delete godoc
// @Summary Delete document
// @Tags Documents
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 204
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.documents.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SignedURL godoc
// @Summary Create a temporary download link
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/signed-url [post]
func (h *DocumentHandler) SignedURL(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	signed, err := h.documents.SignedURL(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, signed)
}

// Download godoc
// @Summary Download document
// @Tags Documents
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200 {file} binary
// @Router /documents/{id}/download [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	h.serveOwned(c, false)
}

// Thumbnail godoc
// @Summary Download image thumbnail
// @Tags Documents
// @Produce jpeg
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200 {file} binary
// @Router /documents/{id}/thumbnail [get]
func (h *DocumentHandler) Thumbnail(c *gin.Context) {
	h.serveOwned(c, true)
}

// Signed godoc
// @Summary Download through a signed link
// @Tags Documents
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /files/{token} [get]
func (h *DocumentHandler) Signed(c *gin.Context) {
	file, err := h.documents.OpenByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	stream(c, file)
}

func (h *DocumentHandler) serveOwned(c *gin.Context, thumbnail bool) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	file, err := h.documents.Open(c.Request.Context(), userID, c.Param("id"), thumbnail)
	if err != nil {
		response.Error(c, err)
		return
	}
	stream(c, file)
}

func stream(c *gin.Context, file *service.DocumentFile) {
	defer file.File.Close()
	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", file.Filename),
		"Cache-Control":       "private, max-age=0",
	}
	c.DataFromReader(http.StatusOK, file.Size, file.ContentType, file.File, headers)
}
