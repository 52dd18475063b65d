package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
	"github.com/noah-isme/academic-planner-api/pkg/jobs"
	"github.com/noah-isme/academic-planner-api/pkg/storage"
)

// JobDocumentThumbnail renders the preview of an uploaded image.
const JobDocumentThumbnail = "document.thumbnail"

const thumbnailSuffix = ".thumb.jpg"

type documentRepository interface {
	List(ctx context.Context, userID string, filter models.DocumentFilter) ([]models.Document, error)
	FindByID(ctx context.Context, userID, id string) (*models.Document, error)
	FindByIDUnscoped(ctx context.Context, id string) (*models.Document, error)
	Create(ctx context.Context, doc *models.Document) error
	SetThumbnail(ctx context.Context, id, url string) error
	Delete(ctx context.Context, userID, id string) error
}

type documentStorage interface {
	Save(filename string, data []byte) (string, error)
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type documentSigner interface {
	Generate(documentID, relPath string) (string, time.Time, error)
	Parse(token string) (documentID, relPath string, err error)
}

// DocumentUpload is the file part of a multipart upload.
type DocumentUpload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// DocumentFile is an opened stored file. Callers close File.
type DocumentFile struct {
	File io.ReadCloser
	models.DocumentDownload
}

// SignedDocumentURL is a shareable download link.
type SignedDocumentURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DocumentServiceConfig holds upload limits and URL shapes.
type DocumentServiceConfig struct {
	MaxFileSize    int64
	AllowedMIMEs   []string
	APIPrefix      string
	PublicBaseURL  string
	ThumbnailWidth int
}

// DocumentServiceParams groups the collaborators of DocumentService.
type DocumentServiceParams struct {
	Documents   documentRepository
	Enrollments enrollmentLookup
	Storage     documentStorage
	Signer      documentSigner
	Queue       jobEnqueuer
	Metrics     *MetricsService
	Validator   *validator.Validate
	Logger      *zap.Logger
	Config      DocumentServiceConfig
}

// DocumentService stores uploaded files and their searchable metadata.
type DocumentService struct {
	docs        documentRepository
	enrollments enrollmentLookup
	storage     documentStorage
	signer      documentSigner
	queue       jobEnqueuer
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         DocumentServiceConfig
}

// NewDocumentService constructs the service with defaults.
func NewDocumentService(p DocumentServiceParams) *DocumentService {
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	cfg := p.Config
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"application/pdf", "image/png", "image/jpeg", "text/plain"}
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	if cfg.ThumbnailWidth <= 0 {
		cfg.ThumbnailWidth = 320
	}
	return &DocumentService{
		docs:        p.Documents,
		enrollments: p.Enrollments,
		storage:     p.Storage,
		signer:      p.Signer,
		queue:       p.Queue,
		metrics:     p.Metrics,
		validator:   p.Validator,
		logger:      p.Logger,
		cfg:         cfg,
	}
}

// Upload validates and stores a file, then records its metadata. A file whose metadata cannot be
// saved is removed again, so no row ever points at a missing file and no stray file outlives a
// failed row.
func (s *DocumentService) Upload(ctx context.Context, userID string, meta models.UploadDocumentRequest, upload DocumentUpload) (*models.Document, error) {
	if err := s.validator.Struct(meta); err != nil {
		return nil, validationError(err, "invalid document metadata")
	}
	if upload.Content == nil || upload.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}
	if meta.EnrollmentID != nil {
		if _, err := s.enrollments.FindByID(ctx, userID, *meta.EnrollmentID); err != nil {
			return nil, repoError(err, "enrollment not found", "failed to load enrollment")
		}
	}

	detected, err := s.detectMime(upload.Content)
	if err != nil {
		return nil, err
	}
	mimeType := baseMime(detected.String())
	if !s.allowed(detected) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file type %s not allowed", mimeType))
	}
	resourceType := storage.ResourceType(mimeType)

	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if ext == "" {
		ext = detected.Extension()
	}
	storedPath, err := s.storage.SaveStream(path.Join(userID, id+ext), upload.Content)
	if err != nil {
		s.metrics.RecordDocumentUpload(resourceType, false)
		return nil, appErrors.Wrap(err, appErrors.ErrUploadFailed.Code, appErrors.ErrUploadFailed.Status, "failed to store document")
	}

	doc := &models.Document{
		ID:           id,
		UserID:       userID,
		Title:        strings.TrimSpace(meta.Title),
		Type:         strings.TrimSpace(meta.Type),
		Tags:         normalizeTags(meta.Tags),
		FileURL:      s.fileURL(id, storedPath, resourceType, false),
		FileType:     storage.FileType(upload.Filename, mimeType),
		ResourceType: resourceType,
		StoragePath:  storedPath,
		SizeBytes:    upload.Size,
		EnrollmentID: meta.EnrollmentID,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		if rmErr := s.storage.Delete(storedPath); rmErr != nil {
			s.logger.Warn("failed to remove orphaned document file", zap.String("path", storedPath), zap.Error(rmErr))
		}
		s.metrics.RecordDocumentUpload(resourceType, false)
		return nil, repoError(err, "document not found", "failed to save document")
	}
	s.metrics.RecordDocumentUpload(resourceType, true)

	if resourceType == storage.ResourceImage {
		s.scheduleThumbnail(doc.ID)
	}
	return doc, nil
}

// List returns the user's documents newest first.
func (s *DocumentService) List(ctx context.Context, userID string, filter models.DocumentFilter) ([]models.Document, error) {
	filter.Tag = strings.ToLower(strings.TrimSpace(filter.Tag))
	docs, err := s.docs.List(ctx, userID, filter)
	if err != nil {
		return nil, repoError(err, "document not found", "failed to list documents")
	}
	return docs, nil
}

// Get returns one document.
func (s *DocumentService) Get(ctx context.Context, userID, id string) (*models.Document, error) {
	doc, err := s.docs.FindByID(ctx, userID, id)
	if err != nil {
		return nil, repoError(err, "document not found", "failed to load document")
	}
	return doc, nil
}

// Delete removes the metadata first, then the stored files. File removal failures are logged.
func (s *DocumentService) Delete(ctx context.Context, userID, id string) error {
	doc, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, userID, id); err != nil {
		return repoError(err, "document not found", "failed to delete document")
	}
	paths := []string{doc.StoragePath}
	if doc.ThumbnailURL != nil {
		paths = append(paths, doc.StoragePath+thumbnailSuffix)
	}
	for _, p := range paths {
		if err := s.storage.Delete(p); err != nil {
			s.logger.Warn("failed to delete document file", zap.String("document_id", id), zap.String("path", p), zap.Error(err))
		}
	}
	return nil
}

// SignedURL issues a time-limited link that downloads the document without credentials.
func (s *DocumentService) SignedURL(ctx context.Context, userID, id string) (*SignedDocumentURL, error) {
	doc, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(doc.ID, doc.StoragePath)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign download url")
	}
	url := fmt.Sprintf("%s/files/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token)
	return &SignedDocumentURL{URL: url, ExpiresAt: expiresAt}, nil
}

// Open streams a document owned by the user. thumbnail selects the generated preview.
func (s *DocumentService) Open(ctx context.Context, userID, id string, thumbnail bool) (*DocumentFile, error) {
	doc, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if thumbnail {
		if doc.ThumbnailURL == nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "thumbnail not available")
		}
		return s.open(doc.StoragePath+thumbnailSuffix, doc.ID+thumbnailSuffix)
	}
	return s.open(doc.StoragePath, downloadName(doc))
}

// OpenByToken streams the document a signed token points at.
func (s *DocumentService) OpenByToken(ctx context.Context, token string) (*DocumentFile, error) {
	id, relPath, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}
	doc, err := s.docs.FindByIDUnscoped(ctx, id)
	if err != nil {
		return nil, repoError(err, "document not found", "failed to load document")
	}
	if doc.StoragePath != relPath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	return s.open(doc.StoragePath, downloadName(doc))
}

// HandleThumbnailJob renders and stores the preview of an image document.
func (s *DocumentService) HandleThumbnailJob(ctx context.Context, job jobs.Job) error {
	id, ok := job.Payload.(string)
	if !ok || id == "" {
		return fmt.Errorf("thumbnail job %s: missing document id", job.ID)
	}
	err := s.renderThumbnail(ctx, id)
	s.metrics.RecordJob(JobDocumentThumbnail, err)
	return err
}

func (s *DocumentService) renderThumbnail(ctx context.Context, id string) error {
	doc, err := s.docs.FindByIDUnscoped(ctx, id)
	if err != nil {
		return fmt.Errorf("load document %s: %w", id, err)
	}
	src, err := s.storage.Open(doc.StoragePath)
	if err != nil {
		return err
	}
	defer src.Close() //nolint:errcheck

	thumb, err := storage.Thumbnail(src, s.cfg.ThumbnailWidth)
	if err != nil {
		return err
	}
	thumbPath, err := s.storage.Save(doc.StoragePath+thumbnailSuffix, thumb)
	if err != nil {
		return err
	}
	if err := s.docs.SetThumbnail(ctx, doc.ID, s.fileURL(doc.ID, thumbPath, storage.ResourceImage, true)); err != nil {
		return fmt.Errorf("record thumbnail of %s: %w", id, err)
	}
	s.logger.Debug("document thumbnail stored", zap.String("document_id", id))
	return nil
}

func (s *DocumentService) scheduleThumbnail(documentID string) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(jobs.Job{ID: documentID, Type: JobDocumentThumbnail, Payload: documentID}); err != nil {
		s.logger.Warn("failed to enqueue thumbnail", zap.String("document_id", documentID), zap.Error(err))
	}
}

func (s *DocumentService) open(relPath, filename string) (*DocumentFile, error) {
	f, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "document file not found")
	}
	info, err := f.Stat()
	if err != nil {
		f.Close() //nolint:errcheck
		return nil, appErrors.Internal(err, "failed to read document file")
	}
	detected, err := s.detectMime(f)
	if err != nil {
		f.Close() //nolint:errcheck
		return nil, err
	}
	return &DocumentFile{
		File: f,
		DocumentDownload: models.DocumentDownload{
			Filename:    filename,
			ContentType: detected.String(),
			Size:        info.Size(),
		},
	}, nil
}

// fileURL points at the public media host when configured, else at the authenticated API route.
func (s *DocumentService) fileURL(id, relPath, resourceType string, thumbnail bool) string {
	if s.cfg.PublicBaseURL != "" {
		raw := strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + relPath
		return storage.NormalizeMediaURL(raw, resourceType)
	}
	route := "download"
	if thumbnail {
		route = "thumbnail"
	}
	return fmt.Sprintf("%s/documents/%s/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), id, route)
}

func (s *DocumentService) detectMime(r io.ReadSeeker) (*mimetype.MIME, error) {
	detected, err := mimetype.DetectReader(r)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to inspect file")
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, appErrors.Internal(err, "failed to reset upload stream")
	}
	return detected, nil
}

func (s *DocumentService) allowed(detected *mimetype.MIME) bool {
	for _, mt := range s.cfg.AllowedMIMEs {
		if detected.Is(mt) {
			return true
		}
	}
	return false
}

func baseMime(value string) string {
	if i := strings.Index(value, ";"); i >= 0 {
		value = value[:i]
	}
	return strings.ToLower(strings.TrimSpace(value))
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func downloadName(doc *models.Document) string {
	name := strings.TrimSpace(doc.Title)
	if name == "" {
		name = doc.ID
	}
	if doc.FileType != "" && !strings.HasSuffix(strings.ToLower(name), "."+doc.FileType) {
		name += "." + doc.FileType
	}
	return name
}
