package models

import (
	"time"

	"github.com/lib/pq"
)

// Document is an uploaded file with searchable metadata.
type Document struct {
	ID           string         `db:"id" json:"id"`
	UserID       string         `db:"user_id" json:"user_id"`
	Title        string         `db:"title" json:"title"`
	Type         string         `db:"type" json:"type"`
	Tags         pq.StringArray `db:"tags" json:"tags"`
	FileURL      string         `db:"file_url" json:"file_url"`
	FileType     string         `db:"file_type" json:"file_type"`
	ResourceType string         `db:"resource_type" json:"resource_type"`
	StoragePath  string         `db:"storage_path" json:"-"`
	SizeBytes    int64          `db:"size_bytes" json:"size_bytes"`
	ThumbnailURL *string        `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	EnrollmentID *string        `db:"enrollment_id" json:"enrollment_id,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// DocumentFilter narrows document listings.
type DocumentFilter struct {
	Type         string
	Tag          string
	EnrollmentID string
}

// UploadDocumentRequest is the metadata part of a multipart upload.
type UploadDocumentRequest struct {
	Title        string   `form:"title" validate:"required,max=200"`
	Type         string   `form:"type" validate:"required,max=40"`
	Tags         []string `form:"tags" validate:"max=20,dive,max=40"`
	EnrollmentID *string  `form:"enrollment_id" validate:"omitempty,uuid"`
}

// DocumentDownload is an opened stored file ready to stream.
type DocumentDownload struct {
	Filename    string
	ContentType string
	Size        int64
}
