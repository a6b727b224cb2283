package models

import "time"

// AttendanceStatus represents the status recorded for a lecture.
type AttendanceStatus string

const (
	AttendanceStatusYes AttendanceStatus = "Yes"
	AttendanceStatusNo  AttendanceStatus = "No"
	AttendanceStatusOff AttendanceStatus = "Off"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusYes, AttendanceStatusNo, AttendanceStatusOff:
		return true
	default:
		return false
	}
}

// AttendanceMark is a single recorded attendance row.
type AttendanceMark struct {
	ID         string           `db:"id" json:"id"`
	UserID     string           `db:"user_id" json:"user_id"`
	Date       string           `db:"date" json:"date"`
	Day        string           `db:"day" json:"day"`
	Subject    string           `db:"subject" json:"subject"`
	StartTime  string           `db:"start_time" json:"start_time"`
	EndTime    string           `db:"end_time" json:"end_time"`
	Status     AttendanceStatus `db:"status" json:"status"`
	RecordedAt time.Time        `db:"recorded_at" json:"recorded_at"`
}

// LectureClassification describes how a lecture occurrence was resolved.
type LectureClassification string

const (
	ClassificationNationalHoliday LectureClassification = "NationalHoliday"
	ClassificationUserHoliday     LectureClassification = "UserHoliday"
	ClassificationOff             LectureClassification = "Off"
	ClassificationPresent         LectureClassification = "Present"
	ClassificationAbsent          LectureClassification = "Absent"
	ClassificationUnmarked        LectureClassification = "Unmarked"
)

// Countable reports whether the occurrence contributes to the attendance total.
func (c LectureClassification) Countable() bool {
	switch c {
	case ClassificationUnmarked, ClassificationPresent, ClassificationAbsent:
		return true
	default:
		return false
	}
}

// Holiday reports whether the occurrence was excluded by a holiday rule.
func (c LectureClassification) Holiday() bool {
	return c == ClassificationNationalHoliday || c == ClassificationUserHoliday
}

// LectureOccurrence is one concrete dated instance of a weekly slot. It is derived, never stored.
type LectureOccurrence struct {
	UserID         string                `json:"user_id"`
	Date           time.Time             `json:"date"`
	Subject        string                `json:"subject"`
	StartTime      string                `json:"start_time"`
	EndTime        string                `json:"end_time"`
	Classification LectureClassification `json:"classification"`
	HolidayTitle   string                `json:"holiday_title,omitempty"`
}

// AttendanceStats is the historical attendance over the elapsed semester.
type AttendanceStats struct {
	AttendancePct float64 `json:"attendance_pct"`
	Present       int     `json:"present"`
	Total         int     `json:"total"`
}

// RiskTier classifies how likely a user is to miss the minimum attendance.
type RiskTier string

const (
	RiskUnknown    RiskTier = "UNKNOWN"
	RiskCritical   RiskTier = "CRITICAL"
	RiskHigh       RiskTier = "HIGH"
	RiskBorderline RiskTier = "BORDERLINE"
	RiskSafe       RiskTier = "SAFE"
)

// RiskPrediction is the optimistic projection of attendance to the semester end.
type RiskPrediction struct {
	CurrentPct     float64  `json:"current_pct"`
	ProjectedPct   float64  `json:"projected_pct"`
	FutureLectures int      `json:"future_lectures"`
	Risk           RiskTier `json:"risk"`
	Message        string   `json:"message"`
}

// SubjectAttendance breaks the attendance total down per subject.
type SubjectAttendance struct {
	Subject       string  `json:"subject"`
	Present       int     `json:"present"`
	Absent        int     `json:"absent"`
	Unmarked      int     `json:"unmarked"`
	Off           int     `json:"off"`
	Total         int     `json:"total"`
	AttendancePct float64 `json:"attendance_pct"`
}

// AttendanceReport combines the summary, risk and per-subject breakdown.
type AttendanceReport struct {
	User        User                `json:"user"`
	Semester    Semester            `json:"semester"`
	GeneratedAt time.Time           `json:"generated_at"`
	Stats       AttendanceStats     `json:"stats"`
	Risk        RiskPrediction      `json:"risk"`
	Subjects    []SubjectAttendance `json:"subjects"`
}
