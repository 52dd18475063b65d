package models

import "time"

// Reminder is how long before an event the user wants to be reminded.
type Reminder string

const (
	ReminderNone    Reminder = "none"
	ReminderOneDay  Reminder = "1d"
	ReminderTwoDays Reminder = "2d"
	ReminderOneWeek Reminder = "1w"
)

// LeadDays returns the reminder lead time in days, or -1 when no reminder is set.
func (r Reminder) LeadDays() int {
	switch r {
	case ReminderOneDay:
		return 1
	case ReminderTwoDays:
		return 2
	case ReminderOneWeek:
		return 7
	default:
		return -1
	}
}

// CalendarEvent is a dated entry within a period.
type CalendarEvent struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	PeriodID     string    `db:"period_id" json:"period_id"`
	Title        string    `db:"title" json:"title"`
	Date         time.Time `db:"date" json:"date"`
	Category     string    `db:"category" json:"category"`
	Color        string    `db:"color" json:"color"`
	Reminder     Reminder  `db:"reminder" json:"reminder"`
	DisciplineID *string   `db:"discipline_id" json:"discipline_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CalendarFilter narrows down events.
type CalendarFilter struct {
	PeriodID string
	DateRange
}

// CalendarEventRequest creates or updates an event.
type CalendarEventRequest struct {
	Title        string   `json:"title" validate:"required,max=200"`
	Date         string   `json:"date" validate:"required,datetime=2006-01-02"`
	Category     string   `json:"category" validate:"required,max=40"`
	Color        string   `json:"color" validate:"omitempty,hexcolor"`
	Reminder     Reminder `json:"reminder" validate:"omitempty,oneof=none 1d 2d 1w"`
	DisciplineID *string  `json:"discipline_id" validate:"omitempty,uuid"`
}

// ExtractedEvent is a candidate event produced by the text extraction service.
type ExtractedEvent struct {
	Title    string `json:"title" validate:"required,max=200"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Category string `json:"category" validate:"required,max=40"`
}

// ExtractEventsRequest carries free text to mine for dated events.
type ExtractEventsRequest struct {
	Text string `json:"text" validate:"required,max=50000"`
}

// ImportEventsRequest bulk-creates extracted candidates in a period.
type ImportEventsRequest struct {
	Events []ExtractedEvent `json:"events" validate:"required,min=1,max=200,dive"`
}
