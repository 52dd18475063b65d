package academic

import (
	"sort"
	"time"

	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
)

// DateOnly keeps the calendar day of t (in its own location) at UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today is the current calendar day in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOnly(now.In(loc))
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(value string) (time.Time, error) {
	day, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must use YYYY-MM-DD")
	}
	return day, nil
}

// ParsePeriodDates parses and orders the start and end of a period.
func ParsePeriodDates(start, end string) (time.Time, time.Time, error) {
	s, err := ParseDay(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := ParseDay(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !s.Before(e) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "start date must be before end date")
	}
	return s, e, nil
}

// IsOutdated reports an active period whose end date is strictly before today.
func IsOutdated(p models.Period, today time.Time) bool {
	return p.Status == models.PeriodStatusActive && DateOnly(p.EndDate).Before(DateOnly(today))
}

// OutdatedPeriods filters the periods the auto-close sweep must close.
func OutdatedPeriods(periods []models.Period, today time.Time) []models.Period {
	var out []models.Period
	for _, p := range periods {
		if IsOutdated(p, today) {
			out = append(out, p)
		}
	}
	return out
}

// SortByStart orders periods by start date ascending. Ties keep creation order.
func SortByStart(periods []models.Period) {
	sort.SliceStable(periods, func(i, j int) bool {
		a, b := periods[i], periods[j]
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// RepointAfterDelete returns the active period pointer an enrollment should carry once deletedID
// is gone. changed is false when the pointer did not reference the deleted period.
func RepointAfterDelete(current *string, deletedID string, remaining []models.Period) (next *string, changed bool) {
	if current == nil || *current != deletedID {
		return current, false
	}
	candidates := make([]models.Period, 0, len(remaining))
	for _, p := range remaining {
		if p.ID != deletedID {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil, true
	}
	SortByStart(candidates)
	id := candidates[0].ID
	return &id, true
}

// EnsureOpen refuses mutations below a closed period.
func EnsureOpen(p *models.Period) error {
	if p.Closed() {
		return appErrors.Clone(appErrors.ErrPeriodClosed, "period "+p.Name+" is closed")
	}
	return nil
}
