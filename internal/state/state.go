// Package state keeps each user's navigation context: the selected enrollment, its periods in
// start-date order, the period cursor and the entities being edited.
package state

// PeriodRef identifies one period in navigation order.
type PeriodRef struct {
	ID     string
	Name   string
	Status string
}

// State is a plain value; copies never share slices with the store.
type State struct {
	UserID              string
	ActiveEnrollmentID  string
	Periods             []PeriodRef
	ActivePeriodIndex   int
	EditingDisciplineID string
	EditingEventID      string
}

// ActivePeriodID derives the selected period id from the period list and index.
func ActivePeriodID(s State) string {
	if s.ActivePeriodIndex < 0 || s.ActivePeriodIndex >= len(s.Periods) {
		return ""
	}
	return s.Periods[s.ActivePeriodIndex].ID
}

// IndexOf returns the position of periodID, or -1.
func IndexOf(s State, periodID string) int {
	for i, p := range s.Periods {
		if p.ID == periodID {
			return i
		}
	}
	return -1
}

func (s State) clone() State {
	out := s
	if s.Periods != nil {
		out.Periods = append([]PeriodRef(nil), s.Periods...)
	}
	return out
}
