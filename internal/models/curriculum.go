package models

import "time"

// CurriculumSubject is a planned subject of the program grid.
type CurriculumSubject struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	TargetPeriod int       `db:"target_period" json:"target_period"`
	Name         string    `db:"name" json:"name"`
	Code         string    `db:"code" json:"code"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// CurriculumSubjectRequest adds a planned subject.
type CurriculumSubjectRequest struct {
	TargetPeriod int    `json:"target_period" validate:"gte=1,lte=20"`
	Name         string `json:"name" validate:"required,max=160"`
	Code         string `json:"code" validate:"required,max=40"`
}

// CurriculumProgressState is where a planned subject stands.
type CurriculumProgressState string

const (
	CurriculumCompleted  CurriculumProgressState = "completed"
	CurriculumInProgress CurriculumProgressState = "in_progress"
	CurriculumFailed     CurriculumProgressState = "failed"
	CurriculumPending    CurriculumProgressState = "pending"
)

// CurriculumSubjectProgress pairs a planned subject with its best matching discipline.
type CurriculumSubjectProgress struct {
	Subject      CurriculumSubject       `json:"subject"`
	State        CurriculumProgressState `json:"state"`
	DisciplineID *string                 `json:"discipline_id,omitempty"`
	Average      *float64                `json:"average,omitempty"`
}

// CurriculumProgress summarises degree completion for an enrollment.
type CurriculumProgress struct {
	EnrollmentID    string                      `json:"enrollment_id"`
	Total           int                         `json:"total"`
	Completed       int                         `json:"completed"`
	InProgress      int                         `json:"in_progress"`
	Failed          int                         `json:"failed"`
	Pending         int                         `json:"pending"`
	PercentComplete float64                     `json:"percent_complete"`
	Subjects        []CurriculumSubjectProgress `json:"subjects"`
}
