package academic

import (
	"math"

	"github.com/noah-isme/academic-planner-api/internal/models"
)

// DefaultAbsenceRatio is the share of classes a student may miss.
const DefaultAbsenceRatio = 0.25

// Transition describes what an absence mutation did to the failed-by-absence flag.
type Transition string

const (
	TransitionNone      Transition = "none"
	TransitionFailed    Transition = "failed_by_absence"
	TransitionRecovered Transition = "recovered"
)

// TotalClasses is floor(workload / hoursPerClass), or 0 when either is not positive.
func TotalClasses(workload, hoursPerClass float64) int {
	if workload <= 0 || hoursPerClass <= 0 {
		return 0
	}
	return int(math.Floor(workload / hoursPerClass))
}

// AbsenceLimit is floor(totalClasses * ratio), or 0 when there are no classes.
func AbsenceLimit(totalClasses int, ratio float64) int {
	if totalClasses <= 0 || ratio <= 0 {
		return 0
	}
	return int(math.Floor(float64(totalClasses) * ratio))
}

// LimitFor computes the absence limit of a discipline.
func LimitFor(d models.Discipline, ratio float64) int {
	return AbsenceLimit(TotalClasses(d.Workload, d.HoursPerClass), ratio)
}

// ApplyAbsenceRecorded counts one more absence. Going past a positive limit marks the discipline
// failed by absence and zeroes every grade entry.
func ApplyAbsenceRecorded(d *models.Discipline, ratio float64) Transition {
	d.Absences++
	limit := LimitFor(*d, ratio)
	if limit <= 0 || d.Absences <= limit {
		return TransitionNone
	}

	wasFailed := d.FailedByAbsence
	d.FailedByAbsence = true
	for i := range d.Grades {
		zero := 0.0
		d.Grades[i].Grade = &zero
	}
	if wasFailed {
		return TransitionNone
	}
	return TransitionFailed
}

// ApplyAbsenceRemoved discounts one absence and clears the failure flag once the count is back
// within a positive limit. Zeroed grades stay zeroed.
func ApplyAbsenceRemoved(d *models.Discipline, ratio float64) Transition {
	if d.Absences > 0 {
		d.Absences--
	}
	limit := LimitFor(*d, ratio)
	if !d.FailedByAbsence || limit <= 0 || d.Absences > limit {
		return TransitionNone
	}
	d.FailedByAbsence = false
	return TransitionRecovered
}

// RemainingAbsences is how many more absences fit within the limit, never negative.
func RemainingAbsences(d models.Discipline, ratio float64) int {
	left := LimitFor(d, ratio) - d.Absences
	if left < 0 {
		return 0
	}
	return left
}

// Summarize builds the derived academic situation of a discipline.
func Summarize(d models.Discipline, passingGrade *float64, ratio float64) models.DisciplineSummary {
	total := TotalClasses(d.Workload, d.HoursPerClass)
	return models.DisciplineSummary{
		DisciplineID:      d.ID,
		Name:              d.Name,
		Average:           AveragePtr(d),
		Status:            ComputeStatus(d, passingGrade),
		EffectiveStatus:   EffectiveStatus(d, passingGrade),
		Absences:          d.Absences,
		TotalClasses:      total,
		AbsenceLimit:      AbsenceLimit(total, ratio),
		RemainingAbsences: RemainingAbsences(d, ratio),
		FailedByAbsence:   d.FailedByAbsence,
	}
}
