package dto

// TodayLecture is one of today's lectures with the mark recorded for it, if any.
type TodayLecture struct {
	SlotID    string  `json:"slot_id"`
	Subject   string  `json:"subject"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Status    *string `json:"status,omitempty"`
}

// Public occurrence statuses and holiday kinds.
const (
	OccurrencePresent  = "present"
	OccurrenceAbsent   = "absent"
	OccurrenceUnmarked = "unmarked"
	OccurrenceOff      = "off"
	OccurrenceHoliday  = "holiday"

	HolidayKindNational = "national"
	HolidayKindPersonal = "personal"
)

// HolidayNotice describes the holiday that cancels a day's lectures.
type HolidayNotice struct {
	Kind  string `json:"kind"`
	Title string `json:"title"`
}

// TodayAttendance is the payload of GET /attendance/today.
type TodayAttendance struct {
	Date     string         `json:"date"`
	Day      string         `json:"day"`
	Holiday  *HolidayNotice `json:"holiday,omitempty"`
	Lectures []TodayLecture `json:"lectures"`
}

// OccurrenceItem is a dated lecture occurrence as returned by the API.
type OccurrenceItem struct {
	Date         string `json:"date"`
	Day          string `json:"day"`
	Subject      string `json:"subject"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Status       string `json:"status"`
	HolidayKind  string `json:"holiday_kind,omitempty"`
	HolidayTitle string `json:"holiday_title,omitempty"`
}

// OccurrenceQuery bounds an occurrence listing. Empty values default to the semester
// bounds and values outside the semester are clamped to it.
type OccurrenceQuery struct {
	From string `form:"from" validate:"omitempty,ymd"`
	To   string `form:"to" validate:"omitempty,ymd"`
}
