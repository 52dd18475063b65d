package service

import (
	"database/sql"
	"errors"
	"time"

	"github.com/noah-isme/academic-planner-api/internal/academic"
	"github.com/noah-isme/academic-planner-api/internal/models"
	"github.com/noah-isme/academic-planner-api/pkg/config"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
)

// PlannerSettings carries the academic rules shared by the planner services.
type PlannerSettings struct {
	DefaultPassingGrade float64
	AbsenceRatio        float64
	Location            *time.Location
}

// NewPlannerSettings derives settings from configuration.
func NewPlannerSettings(cfg config.PlannerConfig) PlannerSettings {
	return PlannerSettings{
		DefaultPassingGrade: cfg.DefaultPassingGrade,
		AbsenceRatio:        cfg.AbsenceRatio,
		Location:            cfg.Location(),
	}
}

func (p PlannerSettings) ratio() float64 {
	if p.AbsenceRatio <= 0 || p.AbsenceRatio >= 1 {
		return academic.DefaultAbsenceRatio
	}
	return p.AbsenceRatio
}

// passingGrade resolves the enrollment threshold, falling back to the configured default.
func (p PlannerSettings) passingGrade(e *models.Enrollment) *float64 {
	if e != nil && e.PassingGrade != nil {
		return e.PassingGrade
	}
	grade := p.DefaultPassingGrade
	if grade <= 0 {
		grade = models.DefaultPassingGrade
	}
	return &grade
}

func (p PlannerSettings) today(now time.Time) time.Time {
	return academic.Today(now, p.Location)
}

// repoError maps a repository failure onto the error taxonomy. Typed errors raised inside
// repository callbacks pass through untouched.
func repoError(err error, notFound, failure string) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, failure)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
