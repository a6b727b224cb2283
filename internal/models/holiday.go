package models

import "time"

// HolidayCategory distinguishes why a user is away.
type HolidayCategory string

const (
	HolidayCategoryPersonal      HolidayCategory = "personal"
	HolidayCategoryInstitutional HolidayCategory = "institutional"
)

// Valid returns true when the category is supported.
func (c HolidayCategory) Valid() bool {
	return c == HolidayCategoryPersonal || c == HolidayCategoryInstitutional
}

// NationalHoliday is shared across all users.
type NationalHoliday struct {
	ID    string `db:"id" json:"id"`
	Date  string `db:"date" json:"date"`
	Title string `db:"title" json:"title"`
}

// UserHoliday is an inclusive personal date range with no lectures.
type UserHoliday struct {
	ID        string          `db:"id" json:"id"`
	UserID    string          `db:"user_id" json:"user_id"`
	StartDate string          `db:"start_date" json:"start_date"`
	EndDate   string          `db:"end_date" json:"end_date"`
	Title     string          `db:"title" json:"title"`
	Category  HolidayCategory `db:"category" json:"category"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
