package models

import "time"

// Weekdays lists the days a lecture can be scheduled on.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// TimetableSlot is one weekly recurring lecture.
type TimetableSlot struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Day       string    `db:"day" json:"day"`
	Subject   string    `db:"subject" json:"subject"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
