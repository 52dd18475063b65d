package dto

import "github.com/noah-isme/academic-planner-api/internal/models"

// TranscriptFormat selects the export renderer.
type TranscriptFormat string

const (
	TranscriptCSV TranscriptFormat = "csv"
	TranscriptPDF TranscriptFormat = "pdf"
)

// Transcript is the academic record of an enrollment.
type Transcript struct {
	Enrollment models.Enrollment  `json:"enrollment"`
	Periods    []TranscriptPeriod `json:"periods"`
	CR         *float64           `json:"cr"`
}

// TranscriptPeriod lists a period's disciplines with their results.
type TranscriptPeriod struct {
	Period      models.Period              `json:"period"`
	Disciplines []models.DisciplineSummary `json:"disciplines"`
	Workloads   map[string]float64         `json:"workloads"`
	Codes       map[string]string          `json:"codes"`
	CR          *float64                   `json:"cr"`
}

// TranscriptFile is a rendered export.
type TranscriptFile struct {
	Filename    string
	ContentType string
	Content     []byte
}
