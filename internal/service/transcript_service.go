package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-planner-api/internal/academic"
	"github.com/noah-isme/academic-planner-api/internal/dto"
	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
	"github.com/noah-isme/academic-planner-api/pkg/export"
)

type datasetRenderer interface {
	ContentType() string
	Render(data export.Dataset) ([]byte, error)
}

// Transcript column headers.
const (
	colPeriod     = "Period"
	colCode       = "Code"
	colDiscipline = "Discipline"
	colWorkload   = "Workload"
	colAverage    = "Average"
	colStatus     = "Status"
	colAbsences   = "Absences"
)

var transcriptHeaders = []string{colPeriod, colCode, colDiscipline, colWorkload, colAverage, colStatus, colAbsences}

// TranscriptService builds and renders the academic record of an enrollment.
type TranscriptService struct {
	enrollments enrollmentLookup
	periods     periodLister
	disciplines periodDisciplines
	settings    PlannerSettings
	renderers   map[dto.TranscriptFormat]datasetRenderer
	logger      *zap.Logger
}

// NewTranscriptService constructs the service with the CSV and PDF renderers.
func NewTranscriptService(enrollments enrollmentLookup, periods periodLister, disciplines periodDisciplines, settings PlannerSettings, logger *zap.Logger) *TranscriptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptService{
		enrollments: enrollments,
		periods:     periods,
		disciplines: disciplines,
		settings:    settings,
		renderers: map[dto.TranscriptFormat]datasetRenderer{
			dto.TranscriptCSV: export.NewCSVExporter(),
			dto.TranscriptPDF: export.NewPDFExporter(map[string]float64{colPeriod: 30, colCode: 25, colDiscipline: 92, colWorkload: 25, colAbsences: 25}),
		},
		logger: logger,
	}
}

// Build gathers every period of the enrollment, oldest first, with per-period and overall CR.
func (s *TranscriptService) Build(ctx context.Context, userID, enrollmentID string) (*dto.Transcript, error) {
	enrollment, err := s.enrollments.FindByID(ctx, userID, enrollmentID)
	if err != nil {
		return nil, repoError(err, "enrollment not found", "failed to load enrollment")
	}
	periods, err := s.periods.ListByEnrollment(ctx, userID, enrollmentID)
	if err != nil {
		return nil, repoError(err, "enrollment not found", "failed to list periods")
	}
	academic.SortByStart(periods)

	passing := s.settings.passingGrade(enrollment)
	ratio := s.settings.ratio()
	transcript := &dto.Transcript{Enrollment: *enrollment, Periods: make([]dto.TranscriptPeriod, 0, len(periods))}
	var all []academic.CRItem
	for _, p := range periods {
		disciplines, err := s.disciplines.ListByPeriod(ctx, userID, p.ID)
		if err != nil {
			return nil, repoError(err, "period not found", "failed to list disciplines")
		}
		entry := dto.TranscriptPeriod{
			Period:      p,
			Disciplines: make([]models.DisciplineSummary, 0, len(disciplines)),
			Workloads:   make(map[string]float64, len(disciplines)),
			Codes:       make(map[string]string, len(disciplines)),
		}
		items := make([]academic.CRItem, 0, len(disciplines))
		for _, d := range disciplines {
			entry.Disciplines = append(entry.Disciplines, academic.Summarize(d, passing, ratio))
			entry.Workloads[d.ID] = d.Workload
			entry.Codes[d.ID] = d.Code
			items = append(items, academic.CRItem{Average: academic.AveragePtr(d), Workload: d.Workload})
		}
		if cr, ok := academic.ComputeCR(items); ok {
			entry.CR = &cr
		}
		all = append(all, items...)
		transcript.Periods = append(transcript.Periods, entry)
	}
	if cr, ok := academic.ComputeCR(all); ok {
		transcript.CR = &cr
	}
	return transcript, nil
}

// Export renders the transcript in the requested format.
func (s *TranscriptService) Export(ctx context.Context, userID, enrollmentID string, format dto.TranscriptFormat) (*dto.TranscriptFile, error) {
	format = dto.TranscriptFormat(strings.ToLower(string(format)))
	if format == "" {
		format = dto.TranscriptPDF
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported transcript format %q", format))
	}
	transcript, err := s.Build(ctx, userID, enrollmentID)
	if err != nil {
		return nil, err
	}
	content, err := renderer.Render(transcriptDataset(transcript))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render transcript")
	}
	s.logger.Info("transcript exported", zap.String("user_id", userID), zap.String("enrollment_id", enrollmentID), zap.String("format", string(format)))
	return &dto.TranscriptFile{
		Filename:    fmt.Sprintf("transcript-%s.%s", slug(transcript.Enrollment.CourseName, enrollmentID), format),
		ContentType: renderer.ContentType(),
		Content:     content,
	}, nil
}

func transcriptDataset(t *dto.Transcript) export.Dataset {
	data := export.Dataset{
		Title:   strings.TrimSpace(t.Enrollment.CourseName + " - " + t.Enrollment.Institution),
		Headers: transcriptHeaders,
	}
	for _, p := range t.Periods {
		for _, d := range p.Disciplines {
			data.Rows = append(data.Rows, map[string]string{
				colPeriod:     p.Period.Name,
				colCode:       p.Codes[d.DisciplineID],
				colDiscipline: d.Name,
				colWorkload:   formatNumber(p.Workloads[d.DisciplineID]),
				colAverage:    formatGrade(d.Average),
				colStatus:     string(d.EffectiveStatus),
				colAbsences:   fmt.Sprintf("%d/%d", d.Absences, d.AbsenceLimit),
			})
		}
		data.Footer = append(data.Footer, fmt.Sprintf("%s CR: %s", p.Period.Name, formatGrade(p.CR)))
	}
	data.Footer = append(data.Footer, "CR: "+formatGrade(t.CR))
	return data
}

func formatGrade(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}

func slug(name, fallback string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "-"):
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return fallback
	}
	return out
}
