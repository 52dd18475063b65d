package dto

// NavigationContext is the serialisable view of a user's current selection.
type NavigationContext struct {
	ActiveEnrollmentID  string         `json:"activeEnrollmentId"`
	Periods             []NavPeriodRef `json:"periods"`
	ActivePeriodIndex   int            `json:"activePeriodIndex"`
	ActivePeriodID      string         `json:"activePeriodId"`
	EditingDisciplineID string         `json:"editingDisciplineId,omitempty"`
	EditingEventID      string         `json:"editingEventId,omitempty"`
}

// NavPeriodRef identifies a period in navigation order.
type NavPeriodRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// SelectEnrollmentRequest switches the active enrollment.
type SelectEnrollmentRequest struct {
	EnrollmentID string `json:"enrollmentId" validate:"required"`
}

// SelectPeriodRequest moves the period cursor.
type SelectPeriodRequest struct {
	Index int `json:"index" validate:"gte=0"`
}

// SetEditingRequest marks entities being edited. Empty strings clear the selection.
type SetEditingRequest struct {
	DisciplineID string `json:"disciplineId"`
	EventID      string `json:"eventId"`
}
