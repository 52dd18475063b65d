package models

import "time"

// Modality is how the program is attended.
type Modality string

const (
	ModalityInPerson Modality = "in_person"
	ModalityRemote   Modality = "remote"
)

// DefaultPassingGrade applies when an enrollment carries no threshold.
const DefaultPassingGrade = 7.0

// Enrollment is one program a user is registered in.
type Enrollment struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	CourseName     string    `db:"course_name" json:"course_name"`
	Institution    string    `db:"institution" json:"institution"`
	Modality       Modality  `db:"modality" json:"modality"`
	PassingGrade   *float64  `db:"passing_grade" json:"passing_grade,omitempty"`
	ActivePeriodID *string   `db:"active_period_id" json:"active_period_id,omitempty"`
	Position       int       `db:"position" json:"position"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// CreateEnrollmentRequest registers a program. FirstPeriod, when present, is created in the
// same transaction and becomes the active period.
type CreateEnrollmentRequest struct {
	CourseName   string               `json:"course_name" validate:"required,max=160"`
	Institution  string               `json:"institution" validate:"required,max=160"`
	Modality     Modality             `json:"modality" validate:"required,oneof=in_person remote"`
	PassingGrade *float64             `json:"passing_grade" validate:"omitempty,gte=0,lte=10"`
	FirstPeriod  *CreatePeriodRequest `json:"first_period" validate:"omitempty"`
}

// UpdateEnrollmentRequest replaces editable enrollment attributes.
type UpdateEnrollmentRequest struct {
	CourseName   string   `json:"course_name" validate:"required,max=160"`
	Institution  string   `json:"institution" validate:"required,max=160"`
	Modality     Modality `json:"modality" validate:"required,oneof=in_person remote"`
	PassingGrade *float64 `json:"passing_grade" validate:"omitempty,gte=0,lte=10"`
}

// ReorderRequest lists ids in their new display order.
type ReorderRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}
