// Package academic holds the planner's pure domain rules: grade averages and status, absence
// limits and the failure-by-absence transitions, and period lifecycle predicates.
package academic

import (
	"fmt"
	"math"
	"strings"

	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
)

const (
	MinGrade = 0.0
	MaxGrade = 10.0

	weightTotal     = 100.0
	weightTolerance = 1e-6
)

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeAverage returns the discipline average under its configured rule. ok is false when the
// average is not available: no filled grade, unknown rule, or no usable weight.
func ComputeAverage(d models.Discipline) (avg float64, ok bool) {
	filled := filledGrades(d.Grades)
	if len(filled) == 0 {
		return 0, false
	}

	switch d.GradeConfig.Rule {
	case models.GradeRuleArithmetic:
		sum := 0.0
		for _, g := range filled {
			sum += *g.Grade
		}
		return Round2(sum / float64(len(filled))), true
	case models.GradeRuleWeighted:
		weights := make(map[string]float64, len(d.GradeConfig.Evaluations))
		for _, ev := range d.GradeConfig.Evaluations {
			if ev.Weight != nil {
				weights[ev.Name] = *ev.Weight
			}
		}
		var weighted, total float64
		for _, g := range filled {
			w, found := weights[g.Name]
			if !found || w <= 0 {
				continue
			}
			weighted += *g.Grade * w
			total += w
		}
		if total == 0 {
			return 0, false
		}
		return Round2(weighted / total), true
	case models.GradeRuleSum:
		sum := 0.0
		for _, g := range filled {
			sum += *g.Grade
		}
		return Round2(sum), true
	default:
		return 0, false
	}
}

// AveragePtr is ComputeAverage with the N/A case mapped to nil.
func AveragePtr(d models.Discipline) *float64 {
	avg, ok := ComputeAverage(d)
	if !ok {
		return nil
	}
	return &avg
}

// ComputeStatus derives pass/fail/in-progress from grades alone. A nil passingGrade uses
// models.DefaultPassingGrade.
func ComputeStatus(d models.Discipline, passingGrade *float64) models.DisciplineStatus {
	threshold := models.DefaultPassingGrade
	if passingGrade != nil {
		threshold = *passingGrade
	}
	if len(d.GradeConfig.Evaluations) == 0 {
		return models.StatusNotAvailable
	}

	byName := make(map[string]*float64, len(d.Grades))
	for _, g := range d.Grades {
		if g.Grade != nil {
			byName[g.Name] = g.Grade
		}
	}
	for _, ev := range d.GradeConfig.Evaluations {
		if _, ok := byName[ev.Name]; !ok {
			return models.StatusInProgress
		}
	}

	avg, ok := ComputeAverage(d)
	if !ok {
		return models.StatusNotAvailable
	}
	if avg >= threshold {
		return models.StatusApproved
	}
	return models.StatusFailed
}

// EffectiveStatus is ComputeStatus with the failed-by-absence flag taking precedence.
func EffectiveStatus(d models.Discipline, passingGrade *float64) models.DisciplineStatus {
	if d.FailedByAbsence {
		return models.StatusFailedByAbsence
	}
	return ComputeStatus(d, passingGrade)
}

// NormalizeGradeConfig returns a copy of cfg with surrounding whitespace removed from the
// evaluation names.
func NormalizeGradeConfig(cfg models.GradeConfig) models.GradeConfig {
	if cfg.Evaluations == nil {
		return cfg
	}
	evals := make([]models.EvaluationDefinition, len(cfg.Evaluations))
	for i, ev := range cfg.Evaluations {
		ev.Name = strings.TrimSpace(ev.Name)
		evals[i] = ev
	}
	cfg.Evaluations = evals
	return cfg
}

// ValidateGradeConfig checks a configuration before it is saved. Callers store the
// NormalizeGradeConfig form.
func ValidateGradeConfig(cfg models.GradeConfig) error {
	switch cfg.Rule {
	case models.GradeRuleArithmetic, models.GradeRuleWeighted, models.GradeRuleSum:
	default:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown grade rule %q", cfg.Rule))
	}

	seen := make(map[string]struct{}, len(cfg.Evaluations))
	for _, ev := range cfg.Evaluations {
		name := strings.TrimSpace(ev.Name)
		if name == "" {
			return appErrors.Clone(appErrors.ErrValidation, "evaluation name is required")
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate evaluation %q", name))
		}
		seen[key] = struct{}{}
		if ev.Min != nil && ev.Max != nil && *ev.Min > *ev.Max {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("evaluation %q has min above max", name))
		}
	}

	if cfg.Rule != models.GradeRuleWeighted {
		return nil
	}
	if len(cfg.Evaluations) == 0 {
		return appErrors.Clone(appErrors.ErrInvalidWeights, "weighted rule requires at least one evaluation")
	}
	total := 0.0
	for _, ev := range cfg.Evaluations {
		if ev.Weight == nil || *ev.Weight <= 0 {
			return appErrors.Clone(appErrors.ErrInvalidWeights, fmt.Sprintf("evaluation %q needs a positive weight", ev.Name))
		}
		total += *ev.Weight
	}
	if math.Abs(total-weightTotal) > weightTolerance {
		return appErrors.Clone(appErrors.ErrInvalidWeights, fmt.Sprintf("weights must sum to 100, got %.2f", total))
	}
	return nil
}

// ValidateGradeValue rejects grades outside [0, 10]. nil means not filled and is valid.
func ValidateGradeValue(v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || *v < MinGrade || *v > MaxGrade {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("grade %v outside [0, 10]", *v))
	}
	return nil
}

// AlignGrades rebuilds entries to follow the evaluations of cfg, keeping values of names that
// survive and dropping the rest.
func AlignGrades(cfg models.GradeConfig, current models.GradeEntries) models.GradeEntries {
	existing := make(map[string]*float64, len(current))
	for _, g := range current {
		existing[g.Name] = g.Grade
	}
	out := make(models.GradeEntries, 0, len(cfg.Evaluations))
	for _, ev := range cfg.Evaluations {
		out = append(out, models.GradeEntry{Name: ev.Name, Grade: existing[ev.Name]})
	}
	return out
}

func filledGrades(grades models.GradeEntries) []models.GradeEntry {
	out := make([]models.GradeEntry, 0, len(grades))
	for _, g := range grades {
		if g.Grade != nil {
			out = append(out, g)
		}
	}
	return out
}
