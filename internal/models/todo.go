package models

import "time"

// Todo is a short task attached to a calendar day.
type Todo struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Text      string    `db:"text" json:"text"`
	Completed bool      `db:"completed" json:"completed"`
	Pinned    bool      `db:"pinned" json:"pinned"`
	Day       string    `db:"day" json:"day"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CreateTodoRequest adds a todo. An empty Day means today.
type CreateTodoRequest struct {
	Text string `json:"text" validate:"required,max=500"`
	Day  string `json:"day" validate:"omitempty,datetime=2006-01-02"`
}
