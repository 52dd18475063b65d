package dto

import (
	"time"

	"github.com/noah-isme/academic-planner-api/internal/models"
)

// DashboardResponse is the per-user landing payload.
type DashboardResponse struct {
	UserID         string               `json:"userId"`
	GeneratedAt    time.Time            `json:"generatedAt"`
	Enrollments    []EnrollmentOverview `json:"enrollments"`
	UpcomingEvents []UpcomingEvent      `json:"upcomingEvents"`
	Reminders      []UpcomingEvent      `json:"reminders"`
}

// EnrollmentOverview shows one enrollment and its active period.
type EnrollmentOverview struct {
	Enrollment   models.Enrollment          `json:"enrollment"`
	Periods      []models.Period            `json:"periods"`
	ActivePeriod *models.Period             `json:"activePeriod,omitempty"`
	Disciplines  []models.DisciplineSummary `json:"disciplines"`
	AtRisk       []string                   `json:"atRisk"`
	CR           *float64                   `json:"cr"`
}

// UpcomingEvent is a simplified calendar event for the dashboard.
type UpcomingEvent struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Date         string  `json:"date"`
	Category     string  `json:"category"`
	DisciplineID *string `json:"disciplineId,omitempty"`
}
