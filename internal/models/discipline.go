package models

import (
	"database/sql/driver"
	"time"
)

// GradeRule selects how a discipline average is computed.
type GradeRule string

const (
	GradeRuleArithmetic GradeRule = "arithmetic"
	GradeRuleWeighted   GradeRule = "weighted"
	GradeRuleSum        GradeRule = "soma"
)

// DisciplineStatus is the derived academic situation of a discipline.
type DisciplineStatus string

const (
	StatusApproved        DisciplineStatus = "Aprovado"
	StatusFailed          DisciplineStatus = "Reprovado"
	StatusInProgress      DisciplineStatus = "Em Andamento"
	StatusNotAvailable    DisciplineStatus = "N/A"
	StatusFailedByAbsence DisciplineStatus = "Reprovado por Falta"
)

// Schedule is one weekly class slot. Day follows time.Weekday (0 = Sunday).
type Schedule struct {
	Day   int    `json:"day" validate:"gte=0,lte=6"`
	Start string `json:"start" validate:"required,datetime=15:04"`
	End   string `json:"end" validate:"required,datetime=15:04"`
}

// Schedules is stored as a JSONB array.
type Schedules []Schedule

// Value implements driver.Valuer.
func (s Schedules) Value() (driver.Value, error) {
	if s == nil {
		s = Schedules{}
	}
	return jsonValue(s, "schedules")
}

// Scan implements sql.Scanner.
func (s *Schedules) Scan(value interface{}) error {
	var out Schedules
	if _, err := jsonScan(value, &out, "schedules"); err != nil {
		return err
	}
	*s = out
	return nil
}

// EvaluationDefinition is a named grade component. Weight is used by the weighted rule; the
// bounds are informational.
type EvaluationDefinition struct {
	Name   string   `json:"name" validate:"required,max=40"`
	Weight *float64 `json:"weight,omitempty" validate:"omitempty,gte=0"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
}

// GradeConfig is stored as a JSONB object.
type GradeConfig struct {
	Rule        GradeRule              `json:"rule" validate:"required,oneof=arithmetic weighted soma"`
	Evaluations []EvaluationDefinition `json:"evaluations" validate:"dive"`
}

// Value implements driver.Valuer.
func (g GradeConfig) Value() (driver.Value, error) {
	if g.Evaluations == nil {
		g.Evaluations = []EvaluationDefinition{}
	}
	return jsonValue(g, "grade config")
}

// Scan implements sql.Scanner.
func (g *GradeConfig) Scan(value interface{}) error {
	var out GradeConfig
	if _, err := jsonScan(value, &out, "grade config"); err != nil {
		return err
	}
	*g = out
	return nil
}

// GradeEntry is the recorded result of one evaluation. A nil Grade is not filled yet.
type GradeEntry struct {
	Name  string   `json:"name" validate:"required"`
	Grade *float64 `json:"grade"`
}

// GradeEntries is stored as a JSONB array.
type GradeEntries []GradeEntry

// Value implements driver.Valuer.
func (g GradeEntries) Value() (driver.Value, error) {
	if g == nil {
		g = GradeEntries{}
	}
	return jsonValue(g, "grades")
}

// Scan implements sql.Scanner.
func (g *GradeEntries) Scan(value interface{}) error {
	var out GradeEntries
	if _, err := jsonScan(value, &out, "grades"); err != nil {
		return err
	}
	*g = out
	return nil
}

// Discipline is a course taken within a period.
type Discipline struct {
	ID              string       `db:"id" json:"id"`
	UserID          string       `db:"user_id" json:"user_id"`
	EnrollmentID    string       `db:"enrollment_id" json:"enrollment_id"`
	PeriodID        string       `db:"period_id" json:"period_id"`
	Name            string       `db:"name" json:"name"`
	Teacher         string       `db:"teacher" json:"teacher"`
	Location        string       `db:"location" json:"location"`
	Code            string       `db:"code" json:"code"`
	Schedules       Schedules    `db:"schedules" json:"schedules"`
	Workload        float64      `db:"workload" json:"workload"`
	HoursPerClass   float64      `db:"hours_per_class" json:"hours_per_class"`
	Absences        int          `db:"absences" json:"absences"`
	FailedByAbsence bool         `db:"failed_by_absence" json:"failed_by_absence"`
	GradeConfig     GradeConfig  `db:"grade_config" json:"grade_config"`
	Grades          GradeEntries `db:"grades" json:"grades"`
	Position        int          `db:"position" json:"position"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

// DisciplineMutation changes a locked discipline. Returning an error aborts the surrounding
// transaction.
type DisciplineMutation func(d *Discipline) error

// DisciplineRequest creates or updates a discipline.
type DisciplineRequest struct {
	Name          string       `json:"name" validate:"required,max=160"`
	Teacher       string       `json:"teacher" validate:"max=160"`
	Location      string       `json:"location" validate:"max=160"`
	Code          string       `json:"code" validate:"max=40"`
	Schedules     []Schedule   `json:"schedules" validate:"dive"`
	Workload      float64      `json:"workload" validate:"gte=0"`
	HoursPerClass float64      `json:"hours_per_class" validate:"gte=0"`
	GradeConfig   *GradeConfig `json:"grade_config" validate:"omitempty"`
}

// UpdateGradesRequest replaces the recorded grade entries.
type UpdateGradesRequest struct {
	Grades []GradeEntry `json:"grades" validate:"dive"`
}

// DisciplineSummary is the derived academic situation of a discipline.
type DisciplineSummary struct {
	DisciplineID      string           `json:"discipline_id"`
	Name              string           `json:"name"`
	Average           *float64         `json:"average"`
	Status            DisciplineStatus `json:"status"`
	EffectiveStatus   DisciplineStatus `json:"effective_status"`
	Absences          int              `json:"absences"`
	TotalClasses      int              `json:"total_classes"`
	AbsenceLimit      int              `json:"absence_limit"`
	RemainingAbsences int              `json:"remaining_absences"`
	FailedByAbsence   bool             `json:"failed_by_absence"`
}
