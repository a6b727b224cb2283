package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendsmart-api/internal/models"
	appErrors "github.com/noah-isme/attendsmart-api/pkg/errors"
)

func TestHolidayOracleNationalFirstTitleWins(t *testing.T) {
	oracle, err := NewHolidayOracle([]models.NationalHoliday{
		{Date: "2024-08-15", Title: "Independence Day"},
		{Date: "2024-08-15", Title: "Duplicate"},
	}, nil)
	require.NoError(t, err)

	title, ok := oracle.IsNationalHoliday(time.Date(2024, 8, 15, 18, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, "Independence Day", title)

	_, ok = oracle.IsNationalHoliday(time.Date(2024, 8, 16, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}

func TestHolidayOracleUserRangeIsInclusive(t *testing.T) {
	oracle, err := NewHolidayOracle(nil, []models.UserHoliday{
		{UserID: "user-1", StartDate: "2024-05-10", EndDate: "2024-05-12", Title: "Wedding"},
	})
	require.NoError(t, err)

	for _, d := range []int{10, 11, 12} {
		title, ok := oracle.IsUserHoliday("user-1", time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC))
		assert.True(t, ok)
		assert.Equal(t, "Wedding", title)
	}
	_, ok := oracle.IsUserHoliday("user-1", time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
	_, ok = oracle.IsUserHoliday("user-2", time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}

func TestHolidayOracleRejectsInvertedRange(t *testing.T) {
	_, err := NewHolidayOracle(nil, []models.UserHoliday{{ID: "h1", UserID: "user-1", StartDate: "2024-05-12", EndDate: "2024-05-10"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDataIntegrity.Code, appErrors.FromError(err).Code)
}

func TestHolidayOracleNationalTakesPriority(t *testing.T) {
	oracle, err := NewHolidayOracle(
		[]models.NationalHoliday{{Date: "2024-01-01", Title: "New Year"}},
		[]models.UserHoliday{{UserID: "user-1", StartDate: "2024-01-01", EndDate: "2024-01-02", Title: "Family visit"}},
	)
	require.NoError(t, err)

	kind, title, ok := oracle.HolidayOn("user-1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, models.ClassificationNationalHoliday, kind)
	assert.Equal(t, "New Year", title)

	kind, title, ok = oracle.HolidayOn("user-1", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, models.ClassificationUserHoliday, kind)
	assert.Equal(t, "Family visit", title)
}

func TestAttendanceLedgerFirstMarkWins(t *testing.T) {
	ledger := NewAttendanceLedger([]models.AttendanceMark{
		{UserID: "user-1", Date: "2024-01-01", Subject: "Math", StartTime: "09:00", Status: models.AttendanceStatusYes},
		{UserID: "user-1", Date: "2024-01-01", Subject: "Math", StartTime: "09:00", Status: models.AttendanceStatusNo},
	})

	found, ok := ledger.Lookup("user-1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "Math", " 09:00 ")
	require.True(t, ok)
	assert.Equal(t, models.AttendanceStatusYes, found.Status)

	_, ok = ledger.Lookup("user-1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "Math", "10:00")
	assert.False(t, ok)
}

func TestAttendanceLedgerNormalisesEveryKeyField(t *testing.T) {
	ledger := NewAttendanceLedger([]models.AttendanceMark{
		{UserID: "user-1", Date: " 2024-01-01", Subject: " Math ", StartTime: "09:00 ", Status: models.AttendanceStatusNo},
	})

	found, ok := ledger.Lookup("user-1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "Math", "09:00")
	require.True(t, ok)
	assert.Equal(t, models.AttendanceStatusNo, found.Status)

	_, ok = ledger.Lookup("user-1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "Math  ", " 09:00")
	assert.True(t, ok)
}

func TestTimetableIndexValidatesStoredValues(t *testing.T) {
	_, err := NewTimetableIndex([]models.TimetableSlot{{ID: "s1", UserID: "user-1", Day: "Funday", StartTime: "09:00", EndTime: "10:00"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDataIntegrity.Code, appErrors.FromError(err).Code)

	_, err = NewTimetableIndex([]models.TimetableSlot{{ID: "s1", UserID: "user-1", Day: "Monday", StartTime: "9am", EndTime: "10:00"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDataIntegrity.Code, appErrors.FromError(err).Code)
}

func TestTimetableIndexForDay(t *testing.T) {
	index, err := NewTimetableIndex([]models.TimetableSlot{
		{ID: "s1", UserID: "user-1", Day: "monday", Subject: "Math", StartTime: "09:00", EndTime: "10:00"},
		{ID: "s2", UserID: "user-1", Day: "Tuesday", Subject: "Art", StartTime: "09:00", EndTime: "10:00"},
		{ID: "s3", UserID: "user-1", Day: "Monday", Subject: "Physics", StartTime: "08:00", EndTime: "09:00"},
		{ID: "s4", UserID: "user-2", Day: "Monday", Subject: "Biology", StartTime: "08:00", EndTime: "09:00"},
	})
	require.NoError(t, err)

	slots := index.ForDay("user-1", time.Monday)
	require.Len(t, slots, 2)
	assert.Equal(t, "Math", slots[0].Subject)
	assert.Equal(t, "Physics", slots[1].Subject)
	assert.Empty(t, index.ForDay("user-1", time.Sunday))
	assert.ElementsMatch(t, []string{"user-1", "user-2"}, index.Users())
}

func TestCalendarWalkerClassifiesOccurrences(t *testing.T) {
	oracle, err := NewHolidayOracle(
		[]models.NationalHoliday{{Date: "2024-01-01", Title: "New Year"}},
		[]models.UserHoliday{{UserID: "user-1", StartDate: "2024-01-15", EndDate: "2024-01-15", Title: "Sick leave"}},
	)
	require.NoError(t, err)
	index, err := NewTimetableIndex([]models.TimetableSlot{
		{ID: "s1", UserID: "user-1", Day: "Monday", Subject: "Math", StartTime: "09:00", EndTime: "10:00"},
		{ID: "s2", UserID: "user-1", Day: "Monday", Subject: "Chemistry", StartTime: "09:00", EndTime: "10:00"},
	})
	require.NoError(t, err)
	ledger := NewAttendanceLedger([]models.AttendanceMark{
		{UserID: "user-1", Date: "2024-01-01", Subject: "Math", StartTime: "09:00", Status: models.AttendanceStatusYes},
		{UserID: "user-1", Date: "2024-01-08", Subject: "Math", StartTime: "09:00", Status: models.AttendanceStatusOff},
		{UserID: "user-1", Date: "2024-01-22", Subject: "Math", StartTime: "09:00", Status: models.AttendanceStatusNo},
	})
	walker := NewCalendarWalker(oracle, ledger, index)

	occurrences, err := walker.Enumerate("user-1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, occurrences, 8)

	got := make([]models.LectureClassification, 0, len(occurrences))
	for _, occ := range occurrences {
		got = append(got, occ.Classification)
	}
	assert.Equal(t, []models.LectureClassification{
		models.ClassificationNationalHoliday, models.ClassificationNationalHoliday,
		models.ClassificationOff, models.ClassificationUnmarked,
		models.ClassificationUserHoliday, models.ClassificationUserHoliday,
		models.ClassificationAbsent, models.ClassificationUnmarked,
	}, got)
	assert.Equal(t, "New Year", occurrences[0].HolidayTitle)
	assert.Equal(t, "Sick leave", occurrences[4].HolidayTitle)

	tally := tallyOccurrences(occurrences)
	assert.Equal(t, 3, tally.total())
	assert.Equal(t, 4, tally.holidays)
	assert.Equal(t, 1, tally.off)
}

func TestCalendarWalkerEmptyRange(t *testing.T) {
	index, err := NewTimetableIndex([]models.TimetableSlot{{ID: "s1", UserID: "user-1", Day: "Monday", Subject: "Math", StartTime: "09:00", EndTime: "10:00"}})
	require.NoError(t, err)
	walker := NewCalendarWalker(nil, nil, index)

	occurrences, err := walker.Enumerate("user-1", time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, occurrences)
}
