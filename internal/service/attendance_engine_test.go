package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendsmart-api/internal/models"
	appErrors "github.com/noah-isme/attendsmart-api/pkg/errors"
)

func mondayMathSnapshot() AttendanceSnapshot {
	return AttendanceSnapshot{
		UserID:   "user-1",
		Semester: &models.Semester{UserID: "user-1", SemesterStart: "2024-01-01", SemesterEnd: "2024-03-31"},
		Slots: []models.TimetableSlot{
			{ID: "slot-1", UserID: "user-1", Day: "Monday", Subject: "Math", StartTime: "09:00", EndTime: "10:00"},
		},
	}
}

func mathMark(date string, status models.AttendanceStatus) models.AttendanceMark {
	return models.AttendanceMark{UserID: "user-1", Date: date, Day: "Monday", Subject: "Math", StartTime: "09:00", EndTime: "10:00", Status: status}
}

func onDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 11, 30, 0, 0, time.UTC)
}

func TestAttendanceEngineCalculateNoMarks(t *testing.T) {
	engine, err := newAttendanceEngine(mondayMathSnapshot())
	require.NoError(t, err)

	stats, err := engine.Calculate(onDay(2024, time.January, 8))
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStats{AttendancePct: 0, Present: 0, Total: 2}, stats)
}

func TestAttendanceEngineCalculateWithMarks(t *testing.T) {
	snapshot := mondayMathSnapshot()
	snapshot.Marks = []models.AttendanceMark{mathMark("2024-01-01", models.AttendanceStatusYes), mathMark("2024-01-08", models.AttendanceStatusNo)}
	engine, err := newAttendanceEngine(snapshot)
	require.NoError(t, err)

	stats, err := engine.Calculate(onDay(2024, time.January, 8))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Present)
	assert.Equal(t, 50.0, stats.AttendancePct)
}

func TestAttendanceEngineNationalHolidayExcluded(t *testing.T) {
	snapshot := mondayMathSnapshot()
	snapshot.NationalHolidays = []models.NationalHoliday{{ID: "h1", Date: "2024-01-01", Title: "New Year"}}
	snapshot.Marks = []models.AttendanceMark{mathMark("2024-01-01", models.AttendanceStatusYes), mathMark("2024-01-08", models.AttendanceStatusNo)}
	engine, err := newAttendanceEngine(snapshot)
	require.NoError(t, err)

	stats, err := engine.Calculate(onDay(2024, time.January, 8))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 0, stats.Present)
}

func TestAttendanceEngineOffIsNotCounted(t *testing.T) {
	snapshot := mondayMathSnapshot()
	snapshot.Marks = []models.AttendanceMark{mathMark("2024-01-01", models.AttendanceStatusOff), mathMark("2024-01-08", models.AttendanceStatusYes)}
	engine, err := newAttendanceEngine(snapshot)
	require.NoError(t, err)

	stats, err := engine.Calculate(onDay(2024, time.January, 8))
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStats{AttendancePct: 100, Present: 1, Total: 1}, stats)
}

func TestAttendanceEngineUserHolidayExcluded(t *testing.T) {
	snapshot := mondayMathSnapshot()
	snapshot.UserHolidays = []models.UserHoliday{{ID: "u1", UserID: "user-1", StartDate: "2024-01-07", EndDate: "2024-01-09", Title: "Trip"}}
	engine, err := newAttendanceEngine(snapshot)
	require.NoError(t, err)

	stats, err := engine.Calculate(onDay(2024, time.January, 8))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
}

func TestAttendanceEngineClampsToSemesterEnd(t *testing.T) {
	engine, err := newAttendanceEngine(mondayMathSnapshot())
	require.NoError(t, err)

	stats, err := engine.Calculate(onDay(2024, time.June, 1))
	require.NoError(t, err)
	assert.Equal(t, 13, stats.Total)
}

func TestAttendanceEngineCalculateIsIdempotent(t *testing.T) {
	snapshot := mondayMathSnapshot()
	snapshot.Marks = []models.AttendanceMark{mathMark("2024-01-01", models.AttendanceStatusYes)}
	engine, err := newAttendanceEngine(snapshot)
	require.NoError(t, err)

	first, err := engine.Calculate(onDay(2024, time.February, 1))
	require.NoError(t, err)
	second, err := engine.Calculate(onDay(2024, time.February, 1))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAttendanceEngineMissingSemester(t *testing.T) {
	snapshot := mondayMathSnapshot()
	snapshot.Semester = nil
	_, err := newAttendanceEngine(snapshot)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrMissingSemester))
}

func TestAttendanceEngineMalformedStatus(t *testing.T) {
	snapshot := mondayMathSnapshot()
	snapshot.Marks = []models.AttendanceMark{mathMark("2024-01-01", "Maybe")}
	engine, err := newAttendanceEngine(snapshot)
	require.NoError(t, err)

	_, err = engine.Calculate(onDay(2024, time.January, 8))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrDataIntegrity))
}

func TestAttendanceEngineMalformedSemesterDate(t *testing.T) {
	snapshot := mondayMathSnapshot()
	snapshot.Semester.SemesterEnd = "31/03/2024"
	_, err := newAttendanceEngine(snapshot)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDataIntegrity.Code, appErrors.FromError(err).Code)
}

func TestAttendanceEnginePredictRiskUnknown(t *testing.T) {
	engine, err := newAttendanceEngine(mondayMathSnapshot())
	require.NoError(t, err)

	prediction, err := engine.PredictRisk(onDay(2023, time.December, 31), 75, 5)
	require.NoError(t, err)
	assert.Equal(t, models.RiskPrediction{Risk: models.RiskUnknown, Message: "Not enough attendance data yet."}, prediction)
}

func TestAttendanceEnginePredictRiskProjectsFutureLectures(t *testing.T) {
	snapshot := mondayMathSnapshot()
	snapshot.Marks = []models.AttendanceMark{mathMark("2024-01-01", models.AttendanceStatusYes), mathMark("2024-01-08", models.AttendanceStatusYes)}
	engine, err := newAttendanceEngine(snapshot)
	require.NoError(t, err)

	prediction, err := engine.PredictRisk(onDay(2024, time.January, 8), 75, 5)
	require.NoError(t, err)
	assert.Equal(t, 100.0, prediction.CurrentPct)
	assert.Equal(t, 11, prediction.FutureLectures)
	assert.Equal(t, 15.38, prediction.ProjectedPct)
	assert.Equal(t, models.RiskHigh, prediction.Risk)
	assert.Equal(t, "You may fall below the minimum attendance if lectures are missed.", prediction.Message)
}

func TestAttendanceEnginePredictRiskSkipsFutureHolidays(t *testing.T) {
	snapshot := mondayMathSnapshot()
	snapshot.NationalHolidays = []models.NationalHoliday{{Date: "2024-01-15", Title: "Founders Day"}}
	snapshot.UserHolidays = []models.UserHoliday{{UserID: "user-1", StartDate: "2024-03-01", EndDate: "2024-03-31", Title: "Exams"}}
	engine, err := newAttendanceEngine(snapshot)
	require.NoError(t, err)

	prediction, err := engine.PredictRisk(onDay(2024, time.January, 8), 75, 5)
	require.NoError(t, err)
	// Jan 22, 29 and Feb 5, 12, 19, 26 remain.
	assert.Equal(t, 6, prediction.FutureLectures)
	assert.Equal(t, models.RiskCritical, prediction.Risk)
}

func TestAttendanceEnginePredictRiskAfterSemesterEnd(t *testing.T) {
	engine, err := newAttendanceEngine(mondayMathSnapshot())
	require.NoError(t, err)

	prediction, err := engine.PredictRisk(onDay(2024, time.May, 1), 75, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, prediction.FutureLectures)
	assert.Equal(t, 0.0, prediction.ProjectedPct)
}

func TestClassifyRisk(t *testing.T) {
	cases := []struct {
		name      string
		current   float64
		projected float64
		expected  models.RiskTier
	}{
		{name: "below minimum", current: 60, projected: 90, expected: models.RiskCritical},
		{name: "projection below minimum", current: 80, projected: 70, expected: models.RiskHigh},
		{name: "within margin", current: 78, projected: 90, expected: models.RiskBorderline},
		{name: "exactly minimum", current: 75, projected: 75, expected: models.RiskBorderline},
		{name: "comfortable", current: 90, projected: 85, expected: models.RiskSafe},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, classifyRisk(tc.current, tc.projected, 75, 5))
		})
	}
}

func TestAttendanceEngineBySubject(t *testing.T) {
	snapshot := mondayMathSnapshot()
	snapshot.Slots = append(snapshot.Slots, models.TimetableSlot{ID: "slot-2", UserID: "user-1", Day: "Monday", Subject: "Physics", StartTime: "11:00", EndTime: "12:00"})
	snapshot.Marks = []models.AttendanceMark{
		mathMark("2024-01-01", models.AttendanceStatusYes),
		{UserID: "user-1", Date: "2024-01-01", Subject: "Physics", StartTime: "11:00", Status: models.AttendanceStatusOff},
		{UserID: "user-1", Date: "2024-01-08", Subject: "Physics", StartTime: "11:00", Status: models.AttendanceStatusNo},
	}
	engine, err := newAttendanceEngine(snapshot)
	require.NoError(t, err)

	subjects, err := engine.BySubject(onDay(2024, time.January, 8))
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, models.SubjectAttendance{Subject: "Math", Present: 1, Unmarked: 1, Total: 2, AttendancePct: 50}, subjects[0])
	assert.Equal(t, models.SubjectAttendance{Subject: "Physics", Absent: 1, Off: 1, Total: 1, AttendancePct: 0}, subjects[1])
}
