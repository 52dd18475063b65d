package models

import "time"

// Absence is one missed class of a discipline.
type Absence struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	DisciplineID  string    `db:"discipline_id" json:"discipline_id"`
	Date          time.Time `db:"date" json:"date"`
	Justification *string   `db:"justification" json:"justification,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// RecordAbsenceRequest registers a missed class.
type RecordAbsenceRequest struct {
	Date          string  `json:"date" validate:"required,datetime=2006-01-02"`
	Justification *string `json:"justification" validate:"omitempty,max=500"`
}

// AbsenceResult reports the discipline state after an absence mutation.
type AbsenceResult struct {
	Absence    *Absence           `json:"absence,omitempty"`
	Discipline *Discipline        `json:"discipline"`
	Summary    *DisciplineSummary `json:"summary"`
}
