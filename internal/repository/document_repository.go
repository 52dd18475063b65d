package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-planner-api/internal/models"
)

const documentColumns = `id, user_id, title, type, tags, file_url, file_type, resource_type, storage_path, size_bytes, thumbnail_url, enrollment_id, created_at`

// DocumentRepository persists document metadata. File bytes live in storage.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// List returns documents newest first.
func (r *DocumentRepository) List(ctx context.Context, userID string, filter models.DocumentFilter) ([]models.Document, error) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{userID}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Tag != "" {
		args = append(args, strings.ToLower(filter.Tag))
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}
	if filter.EnrollmentID != "" {
		args = append(args, filter.EnrollmentID)
		conditions = append(conditions, fmt.Sprintf("enrollment_id = $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE %s ORDER BY created_at DESC`, documentColumns, strings.Join(conditions, " AND "))
	var documents []models.Document
	if err := r.db.SelectContext(ctx, &documents, query, args...); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return documents, nil
}

// FindByID returns one document.
func (r *DocumentRepository) FindByID(ctx context.Context, userID, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 AND user_id = $2`
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return &doc, nil
}

// FindByIDUnscoped loads a document for signed download, where the token is the authority.
func (r *DocumentRepository) FindByIDUnscoped(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return &doc, nil
}

// Create inserts document metadata.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	doc.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO documents (` + documentColumns + `) VALUES (:id, :user_id, :title, :type, :tags, :file_url, :file_type, :resource_type, :storage_path, :size_bytes, :thumbnail_url, :enrollment_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// SetThumbnail records the generated thumbnail URL.
func (r *DocumentRepository) SetThumbnail(ctx context.Context, id, url string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE documents SET thumbnail_url = $1 WHERE id = $2`, url, id)
	if err != nil {
		return fmt.Errorf("set document thumbnail: %w", err)
	}
	return expectAffected(res, "set document thumbnail")
}

// Delete removes document metadata.
func (r *DocumentRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return expectAffected(res, "delete document")
}
