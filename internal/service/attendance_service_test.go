package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/attendsmart-api/internal/dto"
	"github.com/noah-isme/attendsmart-api/internal/models"
	appErrors "github.com/noah-isme/attendsmart-api/pkg/errors"
)

type stubSemesterRepo struct {
	semesters map[string]*models.Semester
	err       error
}

func (s *stubSemesterRepo) FindByUser(ctx context.Context, userID string) (*models.Semester, error) {
	if s.err != nil {
		return nil, s.err
	}
	if sem, ok := s.semesters[userID]; ok {
		copy := *sem
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

type stubTimetableRepo struct {
	slots []models.TimetableSlot
	err   error
}

func (s *stubTimetableRepo) ListByUser(ctx context.Context, userID string) ([]models.TimetableSlot, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.TimetableSlot
	for _, slot := range s.slots {
		if slot.UserID == userID {
			out = append(out, slot)
		}
	}
	return out, nil
}

type stubMarkRepo struct {
	marks   []models.AttendanceMark
	created []models.AttendanceMark
	err     error
}

func (s *stubMarkRepo) ListByUser(ctx context.Context, userID string) ([]models.AttendanceMark, error) {
	var out []models.AttendanceMark
	for _, m := range s.marks {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stubMarkRepo) FindOne(ctx context.Context, userID, date, subject, startTime string) (*models.AttendanceMark, error) {
	for _, m := range s.marks {
		if m.UserID == userID && m.Date == date && m.Subject == subject && m.StartTime == startTime {
			copy := m
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubMarkRepo) Create(ctx context.Context, mark *models.AttendanceMark) error {
	s.marks = append(s.marks, *mark)
	s.created = append(s.created, *mark)
	return nil
}

type stubHolidaySource struct {
	national []models.NationalHoliday
	personal []models.UserHoliday
}

func (s *stubHolidaySource) NationalHolidays(ctx context.Context) ([]models.NationalHoliday, error) {
	return s.national, nil
}

func (s *stubHolidaySource) UserHolidays(ctx context.Context, userID string) ([]models.UserHoliday, error) {
	var out []models.UserHoliday
	for _, h := range s.personal {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	return out, nil
}

type stubUserFinder struct {
	users map[string]*models.User
}

func (s *stubUserFinder) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

type attendanceFixture struct {
	semesters *stubSemesterRepo
	timetable *stubTimetableRepo
	marks     *stubMarkRepo
	holidays  *stubHolidaySource
	users     *stubUserFinder
	svc       *AttendanceService
}

func newAttendanceFixture(now time.Time) *attendanceFixture {
	f := &attendanceFixture{
		semesters: &stubSemesterRepo{semesters: map[string]*models.Semester{
			"user-1": {UserID: "user-1", SemesterStart: "2024-01-01", SemesterEnd: "2024-03-31"},
		}},
		timetable: &stubTimetableRepo{slots: []models.TimetableSlot{
			{ID: "slot-1", UserID: "user-1", Day: "Monday", Subject: "Math", StartTime: "09:00", EndTime: "10:00"},
		}},
		marks:    &stubMarkRepo{},
		holidays: &stubHolidaySource{},
		users:    &stubUserFinder{users: map[string]*models.User{"user-1": {ID: "user-1", Name: "Asha", Email: "asha@example.com"}}},
	}
	f.svc = NewAttendanceService(f.semesters, f.timetable, f.marks, f.holidays, f.users, AttendanceConfig{}, NewMetricsService(), nil, zap.NewNop())
	f.svc.now = func() time.Time { return now }
	return f
}

func TestAttendanceServiceCalculateAttendance(t *testing.T) {
	f := newAttendanceFixture(time.Date(2024, 1, 8, 12, 0, 0, 0, time.Local))
	f.marks.marks = []models.AttendanceMark{
		{UserID: "user-1", Date: "2024-01-01", Subject: "Math", StartTime: "09:00", Status: models.AttendanceStatusYes},
		{UserID: "user-1", Date: "2024-01-08", Subject: "Math", StartTime: "09:00", Status: models.AttendanceStatusNo},
	}

	stats, err := f.svc.CalculateAttendance(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, &models.AttendanceStats{AttendancePct: 50, Present: 1, Total: 2}, stats)
}

func TestAttendanceServiceMissingSemester(t *testing.T) {
	f := newAttendanceFixture(time.Date(2024, 1, 8, 12, 0, 0, 0, time.Local))

	_, err := f.svc.CalculateAttendance(context.Background(), "user-2")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "SEMESTER_NOT_SET", appErr.Code)
	assert.Equal(t, 412, appErr.Status)
	assert.Equal(t, "set up your semester dates first", appErr.Message)
}

func TestAttendanceServiceSemesterLookupFailure(t *testing.T) {
	f := newAttendanceFixture(time.Date(2024, 1, 8, 12, 0, 0, 0, time.Local))
	f.semesters.err = errors.New("connection reset")

	_, err := f.svc.PredictRisk(context.Background(), "user-1", 75)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceDataIntegrityPropagates(t *testing.T) {
	f := newAttendanceFixture(time.Date(2024, 1, 8, 12, 0, 0, 0, time.Local))
	f.marks.marks = []models.AttendanceMark{{UserID: "user-1", Date: "2024-01-01", Subject: "Math", StartTime: "09:00", Status: "maybe"}}

	_, err := f.svc.CalculateAttendance(context.Background(), "user-1")
	require.Error(t, err)
	assert.Equal(t, "DATA_INTEGRITY", appErrors.FromError(err).Code)
}

func TestAttendanceServicePredictRiskUsesDefaultMinimum(t *testing.T) {
	f := newAttendanceFixture(time.Date(2024, 1, 8, 12, 0, 0, 0, time.Local))

	prediction, err := f.svc.PredictRisk(context.Background(), "user-1", 0)
	require.NoError(t, err)
	assert.Equal(t, models.RiskCritical, prediction.Risk)
	assert.Equal(t, "Your attendance is already below the minimum requirement.", prediction.Message)
}

func TestAttendanceServicePredictRiskRejectsMinimumAbove100(t *testing.T) {
	f := newAttendanceFixture(time.Date(2024, 1, 8, 12, 0, 0, 0, time.Local))

	_, err := f.svc.PredictRisk(context.Background(), "user-1", 120)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceOccurrencesDefaultsToSemester(t *testing.T) {
	f := newAttendanceFixture(time.Date(2024, 1, 8, 12, 0, 0, 0, time.Local))
	f.holidays.national = []models.NationalHoliday{{Date: "2024-01-01", Title: "New Year"}}

	items, err := f.svc.Occurrences(context.Background(), "user-1", dto.OccurrenceQuery{})
	require.NoError(t, err)
	require.Len(t, items, 13)
	assert.Equal(t, dto.OccurrenceItem{Date: "2024-01-01", Day: "Monday", Subject: "Math", StartTime: "09:00", EndTime: "10:00", Status: "holiday", HolidayKind: "national", HolidayTitle: "New Year"}, items[0])
	assert.Equal(t, "unmarked", items[1].Status)
	assert.Empty(t, items[1].HolidayKind)

	items, err = f.svc.Occurrences(context.Background(), "user-1", dto.OccurrenceQuery{From: "2024-01-02", To: "2024-01-20"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "2024-01-08", items[0].Date)

	_, err = f.svc.Occurrences(context.Background(), "user-1", dto.OccurrenceQuery{From: "2024-02-01", To: "2024-01-01"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceOccurrencesClampedToSemester(t *testing.T) {
	f := newAttendanceFixture(time.Date(2024, 1, 8, 12, 0, 0, 0, time.Local))
	f.marks.marks = []models.AttendanceMark{
		{UserID: "user-1", Date: "2024-01-08", Subject: "Math", StartTime: "09:00", Status: models.AttendanceStatusYes},
		{UserID: "user-1", Date: "2024-01-15", Subject: "Math", StartTime: "09:00", Status: models.AttendanceStatusOff},
	}

	items, err := f.svc.Occurrences(context.Background(), "user-1", dto.OccurrenceQuery{From: "0001-01-01", To: "9999-12-31"})
	require.NoError(t, err)
	require.Len(t, items, 13)
	assert.Equal(t, "2024-01-01", items[0].Date)
	assert.Equal(t, "2024-03-25", items[12].Date)
	assert.Equal(t, "present", items[1].Status)
	assert.Equal(t, "off", items[2].Status)

	items, err = f.svc.Occurrences(context.Background(), "user-1", dto.OccurrenceQuery{From: "2025-01-01", To: "2025-12-31"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAttendanceServicePredictRiskRejectsNegativeMinimum(t *testing.T) {
	f := newAttendanceFixture(time.Date(2024, 1, 8, 12, 0, 0, 0, time.Local))

	_, err := f.svc.PredictRisk(context.Background(), "user-1", -5)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceToday(t *testing.T) {
	f := newAttendanceFixture(time.Date(2024, 1, 8, 12, 0, 0, 0, time.Local))
	f.marks.marks = []models.AttendanceMark{{UserID: "user-1", Date: "2024-01-08", Subject: "Math", StartTime: "09:00", Status: models.AttendanceStatusYes}}

	today, err := f.svc.Today(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", today.Date)
	assert.Equal(t, "Monday", today.Day)
	assert.Nil(t, today.Holiday)
	require.Len(t, today.Lectures, 1)
	require.NotNil(t, today.Lectures[0].Status)
	assert.Equal(t, "Yes", *today.Lectures[0].Status)
}

func TestAttendanceServiceTodayOnHoliday(t *testing.T) {
	f := newAttendanceFixture(time.Date(2024, 1, 8, 12, 0, 0, 0, time.Local))
	f.holidays.personal = []models.UserHoliday{{UserID: "user-1", StartDate: "2024-01-08", EndDate: "2024-01-08", Title: "Dentist"}}

	today, err := f.svc.Today(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, today.Holiday)
	assert.Equal(t, "personal", today.Holiday.Kind)
	assert.Equal(t, "Dentist", today.Holiday.Title)
	assert.Empty(t, today.Lectures)
}

func TestAttendanceServiceMark(t *testing.T) {
	f := newAttendanceFixture(time.Date(2024, 1, 8, 12, 0, 0, 0, time.Local))

	created, err := f.svc.Mark(context.Background(), "user-1", MarkAttendanceRequest{Subject: "Math", StartTime: "09:00", Status: "yes"})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", created.Date)
	assert.Equal(t, "Monday", created.Day)
	assert.Equal(t, "10:00", created.EndTime)
	assert.Equal(t, models.AttendanceStatusYes, created.Status)
	assert.NotEmpty(t, created.ID)
	require.Len(t, f.marks.created, 1)

	_, err = f.svc.Mark(context.Background(), "user-1", MarkAttendanceRequest{Subject: "Math", StartTime: "09:00", Status: "No"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Len(t, f.marks.created, 1)
}

func TestAttendanceServiceMarkRejectsUnknownLecture(t *testing.T) {
	f := newAttendanceFixture(time.Date(2024, 1, 9, 12, 0, 0, 0, time.Local))

	_, err := f.svc.Mark(context.Background(), "user-1", MarkAttendanceRequest{Subject: "Math", StartTime: "09:00", Status: "Yes"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceMarkValidation(t *testing.T) {
	f := newAttendanceFixture(time.Date(2024, 1, 8, 12, 0, 0, 0, time.Local))

	cases := []MarkAttendanceRequest{
		{Subject: "Math", StartTime: "9am", Status: "Yes"},
		{Subject: "Math", StartTime: "09:00", Status: "Late"},
		{Subject: "", StartTime: "09:00", Status: "Yes"},
		{Subject: "Math", StartTime: "09:00", Status: "Yes", Date: "2024-01-15"},
	}
	for _, req := range cases {
		_, err := f.svc.Mark(context.Background(), "user-1", req)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestAttendanceServiceMarkRejectsHoliday(t *testing.T) {
	f := newAttendanceFixture(time.Date(2024, 1, 8, 12, 0, 0, 0, time.Local))
	f.holidays.national = []models.NationalHoliday{{Date: "2024-01-01", Title: "New Year"}}

	_, err := f.svc.Mark(context.Background(), "user-1", MarkAttendanceRequest{Subject: "Math", StartTime: "09:00", Status: "Yes", Date: "2024-01-01"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceReport(t *testing.T) {
	f := newAttendanceFixture(time.Date(2024, 1, 8, 12, 0, 0, 0, time.Local))
	f.marks.marks = []models.AttendanceMark{{UserID: "user-1", Date: "2024-01-01", Subject: "Math", StartTime: "09:00", Status: models.AttendanceStatusYes}}

	report, err := f.svc.Report(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", report.User.Name)
	assert.Equal(t, "2024-01-01", report.Semester.SemesterStart)
	assert.Equal(t, 2, report.Stats.Total)
	assert.Equal(t, 50.0, report.Stats.AttendancePct)
	require.Len(t, report.Subjects, 1)
	assert.Equal(t, 1, report.Subjects[0].Unmarked)
	assert.Equal(t, models.RiskCritical, report.Risk.Risk)

	snapshot := f.svc.metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.AttendanceCalculations)
}
