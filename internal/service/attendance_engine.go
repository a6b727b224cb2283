package service

import (
	"fmt"
	"math"
	"time"

	"github.com/noah-isme/attendsmart-api/internal/models"
	appErrors "github.com/noah-isme/attendsmart-api/pkg/errors"
)

const (
	// DefaultMinimumAttendance is the threshold used when callers do not supply one.
	DefaultMinimumAttendance = 75.0
	// DefaultBorderlineMargin widens the threshold for the BORDERLINE tier.
	DefaultBorderlineMargin = 5.0
)

var riskMessages = map[models.RiskTier]string{
	models.RiskUnknown:    "Not enough attendance data yet.",
	models.RiskCritical:   "Your attendance is already below the minimum requirement.",
	models.RiskHigh:       "You may fall below the minimum attendance if lectures are missed.",
	models.RiskBorderline: "You are close to the minimum attendance threshold.",
	models.RiskSafe:       "Your attendance is safe.",
}

// AttendanceSnapshot holds every record one calculation reads. Nothing in it is mutated.
type AttendanceSnapshot struct {
	UserID           string
	Semester         *models.Semester
	Slots            []models.TimetableSlot
	Marks            []models.AttendanceMark
	NationalHolidays []models.NationalHoliday
	UserHolidays     []models.UserHoliday
}

// attendanceEngine computes attendance and risk for one user over a snapshot.
type attendanceEngine struct {
	userID        string
	semesterStart time.Time
	semesterEnd   time.Time
	walker        *CalendarWalker
}

func newAttendanceEngine(snapshot AttendanceSnapshot) (*attendanceEngine, error) {
	if snapshot.Semester == nil {
		return nil, appErrors.Clone(appErrors.ErrMissingSemester, fmt.Sprintf("semester dates not set for user %s", snapshot.UserID))
	}
	start, err := parseStoredDate(snapshot.Semester.SemesterStart)
	if err != nil {
		return nil, err
	}
	end, err := parseStoredDate(snapshot.Semester.SemesterEnd)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrDataIntegrity, "semester ends before it starts")
	}

	oracle, err := NewHolidayOracle(snapshot.NationalHolidays, snapshot.UserHolidays)
	if err != nil {
		return nil, err
	}
	timetable, err := NewTimetableIndex(snapshot.Slots)
	if err != nil {
		return nil, err
	}

	return &attendanceEngine{
		userID:        snapshot.UserID,
		semesterStart: start,
		semesterEnd:   end,
		walker:        NewCalendarWalker(oracle, NewAttendanceLedger(snapshot.Marks), timetable),
	}, nil
}

// elapsed enumerates occurrences from the semester start up to min(today, semester end).
func (e *attendanceEngine) elapsed(today time.Time) ([]models.LectureOccurrence, error) {
	end := civilDate(today)
	if end.After(e.semesterEnd) {
		end = e.semesterEnd
	}
	return e.walker.Enumerate(e.userID, e.semesterStart, end)
}

// Calculate returns present/total/percentage for the elapsed part of the semester.
func (e *attendanceEngine) Calculate(today time.Time) (models.AttendanceStats, error) {
	occurrences, err := e.elapsed(today)
	if err != nil {
		return models.AttendanceStats{}, err
	}
	return statsFromTally(tallyOccurrences(occurrences)), nil
}

// futureLectures counts non-holiday occurrences from tomorrow to the semester end.
func (e *attendanceEngine) futureLectures(today time.Time) (int, error) {
	from := civilDate(today).AddDate(0, 0, 1)
	if from.After(e.semesterEnd) {
		return 0, nil
	}
	occurrences, err := e.walker.Enumerate(e.userID, from, e.semesterEnd)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, occ := range occurrences {
		if !occ.Classification.Holiday() {
			count++
		}
	}
	return count, nil
}

// PredictRisk projects the best-case percentage assuming no further absences and classifies the risk.
func (e *attendanceEngine) PredictRisk(today time.Time, minimumRequired, borderlineMargin float64) (models.RiskPrediction, error) {
	stats, err := e.Calculate(today)
	if err != nil {
		return models.RiskPrediction{}, err
	}
	if stats.Total == 0 {
		return models.RiskPrediction{Risk: models.RiskUnknown, Message: riskMessages[models.RiskUnknown]}, nil
	}

	future, err := e.futureLectures(today)
	if err != nil {
		return models.RiskPrediction{}, err
	}

	projected := 100.0
	if denominator := stats.Total + future; denominator > 0 {
		projected = roundPct(float64(stats.Present) / float64(denominator) * 100)
	}

	tier := classifyRisk(stats.AttendancePct, projected, minimumRequired, borderlineMargin)
	return models.RiskPrediction{
		CurrentPct:     stats.AttendancePct,
		ProjectedPct:   projected,
		FutureLectures: future,
		Risk:           tier,
		Message:        riskMessages[tier],
	}, nil
}

func statsFromTally(t occurrenceTally) models.AttendanceStats {
	total := t.total()
	if total == 0 {
		return models.AttendanceStats{}
	}
	return models.AttendanceStats{
		AttendancePct: roundPct(float64(t.present) / float64(total) * 100),
		Present:       t.present,
		Total:         total,
	}
}

// classifyRisk applies the tiers in priority order: CRITICAL, HIGH, BORDERLINE, SAFE.
func classifyRisk(current, projected, minimumRequired, borderlineMargin float64) models.RiskTier {
	switch {
	case current < minimumRequired:
		return models.RiskCritical
	case projected < minimumRequired:
		return models.RiskHigh
	case current < minimumRequired+borderlineMargin:
		return models.RiskBorderline
	default:
		return models.RiskSafe
	}
}

func roundPct(v float64) float64 {
	return math.Round(v*100) / 100
}

// BySubject breaks the elapsed occurrences down per subject, ordered by first appearance.
func (e *attendanceEngine) BySubject(today time.Time) ([]models.SubjectAttendance, error) {
	occurrences, err := e.elapsed(today)
	if err != nil {
		return nil, err
	}
	order := make([]string, 0)
	grouped := make(map[string][]models.LectureOccurrence)
	for _, occ := range occurrences {
		if _, seen := grouped[occ.Subject]; !seen {
			order = append(order, occ.Subject)
		}
		grouped[occ.Subject] = append(grouped[occ.Subject], occ)
	}

	out := make([]models.SubjectAttendance, 0, len(order))
	for _, subject := range order {
		t := tallyOccurrences(grouped[subject])
		stats := statsFromTally(t)
		out = append(out, models.SubjectAttendance{
			Subject:       subject,
			Present:       t.present,
			Absent:        t.absent,
			Unmarked:      t.unmarked,
			Off:           t.off,
			Total:         stats.Total,
			AttendancePct: stats.AttendancePct,
		})
	}
	return out, nil
}
