package models

import "time"

// PeriodStatus is the lifecycle state of a period.
type PeriodStatus string

const (
	PeriodStatusActive PeriodStatus = "active"
	PeriodStatusClosed PeriodStatus = "closed"
)

// DateLayout is the wire format of calendar days.
const DateLayout = "2006-01-02"

// Period is an academic term inside an enrollment.
type Period struct {
	ID           string       `db:"id" json:"id"`
	UserID       string       `db:"user_id" json:"user_id"`
	EnrollmentID string       `db:"enrollment_id" json:"enrollment_id"`
	Name         string       `db:"name" json:"name"`
	StartDate    time.Time    `db:"start_date" json:"start_date"`
	EndDate      time.Time    `db:"end_date" json:"end_date"`
	Status       PeriodStatus `db:"status" json:"status"`
	CalendarURL  *string      `db:"calendar_url" json:"calendar_url,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// Closed reports whether edits under the period are blocked.
func (p *Period) Closed() bool {
	return p != nil && p.Status == PeriodStatusClosed
}

// CreatePeriodRequest describes a new period. Dates use DateLayout.
type CreatePeriodRequest struct {
	Name        string  `json:"name" validate:"required,max=80"`
	StartDate   string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	CalendarURL *string `json:"calendar_url" validate:"omitempty,url"`
}

// UpdatePeriodRequest replaces editable period attributes.
type UpdatePeriodRequest = CreatePeriodRequest
