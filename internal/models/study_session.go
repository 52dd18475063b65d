package models

import "time"

// StudySession is a completed focus-timer interval.
type StudySession struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	DisciplineID    *string   `db:"discipline_id" json:"discipline_id,omitempty"`
	Sound           string    `db:"sound" json:"sound"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// StudySessionRequest records a finished interval.
type StudySessionRequest struct {
	DurationMinutes int     `json:"duration_minutes" validate:"required,gte=1,lte=600"`
	DisciplineID    *string `json:"discipline_id" validate:"omitempty,uuid"`
	Sound           string  `json:"sound" validate:"omitempty,max=40"`
}

// DisciplineStudyTotal aggregates minutes for one discipline. Empty DisciplineID groups
// sessions with no discipline.
type DisciplineStudyTotal struct {
	DisciplineID string `db:"discipline_id" json:"discipline_id"`
	Minutes      int    `db:"minutes" json:"minutes"`
	Sessions     int    `db:"sessions" json:"sessions"`
}

// StudyStats summarises sessions in a range.
type StudyStats struct {
	TotalMinutes  int                    `json:"total_minutes"`
	TotalSessions int                    `json:"total_sessions"`
	ByDiscipline  []DisciplineStudyTotal `json:"by_discipline"`
}
