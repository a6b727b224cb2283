package dto

// TomorrowTimetable lists the lectures scheduled for tomorrow.
type TomorrowTimetable struct {
	Date     string         `json:"date"`
	Day      string         `json:"day"`
	Holiday  *HolidayNotice `json:"holiday,omitempty"`
	Lectures []TodayLecture `json:"lectures"`
}
