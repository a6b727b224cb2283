package models

import "time"

// Semester bounds every attendance calculation for a user.
type Semester struct {
	UserID        string    `db:"user_id" json:"user_id"`
	SemesterStart string    `db:"semester_start" json:"semester_start"`
	SemesterEnd   string    `db:"semester_end" json:"semester_end"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
