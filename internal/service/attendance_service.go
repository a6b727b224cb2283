package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/attendsmart-api/internal/dto"
	"github.com/noah-isme/attendsmart-api/internal/models"
	appErrors "github.com/noah-isme/attendsmart-api/pkg/errors"
)

type semesterFinder interface {
	FindByUser(ctx context.Context, userID string) (*models.Semester, error)
}

type timetableLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.TimetableSlot, error)
}

type attendanceMarkRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.AttendanceMark, error)
	FindOne(ctx context.Context, userID, date, subject, startTime string) (*models.AttendanceMark, error)
	Create(ctx context.Context, mark *models.AttendanceMark) error
}

type holidaySource interface {
	NationalHolidays(ctx context.Context) ([]models.NationalHoliday, error)
	UserHolidays(ctx context.Context, userID string) ([]models.UserHoliday, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AttendanceConfig holds the thresholds used by the risk projector.
type AttendanceConfig struct {
	MinimumRequired  float64
	BorderlineMargin float64
}

// AttendanceService loads per-user snapshots and runs the calculator and projector over them.
type AttendanceService struct {
	semesters semesterFinder
	timetable timetableLister
	marks     attendanceMarkRepository
	holidays  holidaySource
	users     userFinder
	cfg       AttendanceConfig
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(semesters semesterFinder, timetable timetableLister, marks attendanceMarkRepository, holidays holidaySource, users userFinder, cfg AttendanceConfig, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MinimumRequired <= 0 {
		cfg.MinimumRequired = DefaultMinimumAttendance
	}
	if cfg.BorderlineMargin <= 0 {
		cfg.BorderlineMargin = DefaultBorderlineMargin
	}
	registerValidations(validate)
	return &AttendanceService{
		semesters: semesters,
		timetable: timetable,
		marks:     marks,
		holidays:  holidays,
		users:     users,
		cfg:       cfg,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// MarkAttendanceRequest records the outcome of one lecture occurrence.
type MarkAttendanceRequest struct {
	Subject   string `json:"subject" validate:"required"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	Status    string `json:"status" validate:"required,attendance_status"`
	Date      string `json:"date" validate:"omitempty,ymd"`
}

// CalculateAttendance returns the historical attendance of the user over the elapsed semester.
func (s *AttendanceService) CalculateAttendance(ctx context.Context, userID string) (stats *models.AttendanceStats, err error) {
	defer s.observe("calculate", time.Now(), &err)

	engine, err := s.engineFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	result, err := engine.Calculate(s.now())
	if err != nil {
		return nil, s.internal(err, "failed to calculate attendance", userID)
	}
	return &result, nil
}

// PredictRisk projects the attendance to the semester end. A zero minimum uses the configured default.
func (s *AttendanceService) PredictRisk(ctx context.Context, userID string, minimumRequired float64) (prediction *models.RiskPrediction, err error) {
	defer s.observe("predict_risk", time.Now(), &err)

	if minimumRequired == 0 {
		minimumRequired = s.cfg.MinimumRequired
	}
	if minimumRequired <= 0 || minimumRequired > 100 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "minimum_required must be between 0 and 100")
	}
	engine, err := s.engineFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	result, err := engine.PredictRisk(s.now(), minimumRequired, s.cfg.BorderlineMargin)
	if err != nil {
		return nil, s.internal(err, "failed to predict attendance risk", userID)
	}
	return &result, nil
}

// Occurrences lists lecture occurrences between two dates within the semester.
func (s *AttendanceService) Occurrences(ctx context.Context, userID string, query dto.OccurrenceQuery) ([]dto.OccurrenceItem, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date range")
	}
	engine, err := s.engineFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	from, to := engine.semesterStart, engine.semesterEnd
	if query.From != "" {
		from, _ = time.Parse(dateLayout, strings.TrimSpace(query.From))
	}
	if query.To != "" {
		to, _ = time.Parse(dateLayout, strings.TrimSpace(query.To))
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must be on or after from")
	}
	if from.Before(engine.semesterStart) {
		from = engine.semesterStart
	}
	if to.After(engine.semesterEnd) {
		to = engine.semesterEnd
	}
	if to.Before(from) {
		return []dto.OccurrenceItem{}, nil
	}

	occurrences, err := engine.walker.Enumerate(userID, from, to)
	if err != nil {
		return nil, s.internal(err, "failed to enumerate lectures", userID)
	}
	items := make([]dto.OccurrenceItem, 0, len(occurrences))
	for _, occ := range occurrences {
		items = append(items, dto.OccurrenceItem{
			Date:         formatDate(occ.Date),
			Day:          occ.Date.Weekday().String(),
			Subject:      occ.Subject,
			StartTime:    occ.StartTime,
			EndTime:      occ.EndTime,
			Status:       occurrenceStatus(occ.Classification),
			HolidayKind:  holidayKind(occ.Classification),
			HolidayTitle: occ.HolidayTitle,
		})
	}
	return items, nil
}

// Today lists today's lectures with their marks, or the holiday cancelling them.
func (s *AttendanceService) Today(ctx context.Context, userID string) (*dto.TodayAttendance, error) {
	today := civilDate(s.now())
	slots, err := s.timetable.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	oracle, err := s.oracleFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	marks, err := s.marks.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance marks")
	}
	index, err := NewTimetableIndex(slots)
	if err != nil {
		return nil, s.internal(err, "failed to index timetable", userID)
	}

	result := &dto.TodayAttendance{
		Date:     formatDate(today),
		Day:      today.Weekday().String(),
		Lectures: []dto.TodayLecture{},
	}
	if kind, title, ok := oracle.HolidayOn(userID, today); ok {
		result.Holiday = &dto.HolidayNotice{Kind: holidayKind(kind), Title: title}
		return result, nil
	}

	ledger := NewAttendanceLedger(marks)
	for _, slot := range index.ForDay(userID, today.Weekday()) {
		lecture := dto.TodayLecture{SlotID: slot.ID, Subject: slot.Subject, StartTime: slot.StartTime, EndTime: slot.EndTime}
		if mark, ok := ledger.Lookup(userID, today, slot.Subject, slot.StartTime); ok {
			status := string(mark.Status)
			lecture.Status = &status
		}
		result.Lectures = append(result.Lectures, lecture)
	}
	return result, nil
}

// Mark records attendance for a scheduled lecture. A lecture can only be marked once.
func (s *AttendanceService) Mark(ctx context.Context, userID string, req MarkAttendanceRequest) (*models.AttendanceMark, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	status, _ := normalizeStatus(req.Status)
	today := civilDate(s.now())
	date := today
	if req.Date != "" {
		date, _ = time.Parse(dateLayout, strings.TrimSpace(req.Date))
		if date.After(today) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "cannot mark attendance for a future date")
		}
	}
	startTime := strings.TrimSpace(req.StartTime)
	subject := strings.TrimSpace(req.Subject)

	slots, err := s.timetable.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	index, err := NewTimetableIndex(slots)
	if err != nil {
		return nil, s.internal(err, "failed to index timetable", userID)
	}
	var slot *models.TimetableSlot
	for _, candidate := range index.ForDay(userID, date.Weekday()) {
		if strings.TrimSpace(candidate.Subject) == subject && strings.TrimSpace(candidate.StartTime) == startTime {
			c := candidate
			slot = &c
			break
		}
	}
	if slot == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no %s lecture at %s on %s", subject, startTime, formatDate(date)))
	}

	oracle, err := s.oracleFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, title, ok := oracle.HolidayOn(userID, date); ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is a holiday (%s)", formatDate(date), title))
	}

	if _, err := s.marks.FindOne(ctx, userID, formatDate(date), subject, startTime); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "attendance already marked for this lecture")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check attendance")
	}

	mark := &models.AttendanceMark{
		ID:         uuid.NewString(),
		UserID:     userID,
		Date:       formatDate(date),
		Day:        date.Weekday().String(),
		Subject:    slot.Subject,
		StartTime:  slot.StartTime,
		EndTime:    slot.EndTime,
		Status:     status,
		RecordedAt: s.now().UTC(),
	}
	if err := s.marks.Create(ctx, mark); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	s.logger.Info("attendance marked",
		zap.String("user_id", userID),
		zap.String("subject", mark.Subject),
		zap.String("date", mark.Date),
		zap.String("status", string(mark.Status)))
	return mark, nil
}

// Report assembles the summary, projection and per-subject breakdown used by exports.
func (s *AttendanceService) Report(ctx context.Context, userID string) (report *models.AttendanceReport, err error) {
	defer s.observe("report", time.Now(), &err)

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	snapshot, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	engine, err := newAttendanceEngine(snapshot)
	if err != nil {
		return nil, s.internal(err, "failed to prepare attendance data", userID)
	}

	now := s.now()
	stats, err := engine.Calculate(now)
	if err != nil {
		return nil, s.internal(err, "failed to calculate attendance", userID)
	}
	risk, err := engine.PredictRisk(now, s.cfg.MinimumRequired, s.cfg.BorderlineMargin)
	if err != nil {
		return nil, s.internal(err, "failed to predict attendance risk", userID)
	}
	subjects, err := engine.BySubject(now)
	if err != nil {
		return nil, s.internal(err, "failed to break down attendance", userID)
	}
	return &models.AttendanceReport{
		User:        *user,
		Semester:    *snapshot.Semester,
		GeneratedAt: now.UTC(),
		Stats:       stats,
		Risk:        risk,
		Subjects:    subjects,
	}, nil
}

func (s *AttendanceService) engineFor(ctx context.Context, userID string) (*attendanceEngine, error) {
	snapshot, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	engine, err := newAttendanceEngine(snapshot)
	if err != nil {
		return nil, s.internal(err, "failed to prepare attendance data", userID)
	}
	return engine, nil
}

// loadSnapshot reads every record a calculation needs, one repository at a time.
func (s *AttendanceService) loadSnapshot(ctx context.Context, userID string) (AttendanceSnapshot, error) {
	snapshot := AttendanceSnapshot{UserID: userID}

	semester, err := s.semesters.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return snapshot, appErrors.Clone(appErrors.ErrMissingSemester, appErrors.ErrMissingSemester.Message)
		}
		return snapshot, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	snapshot.Semester = semester

	if snapshot.Slots, err = s.timetable.ListByUser(ctx, userID); err != nil {
		return snapshot, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	if snapshot.Marks, err = s.marks.ListByUser(ctx, userID); err != nil {
		return snapshot, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance marks")
	}
	if snapshot.NationalHolidays, err = s.holidays.NationalHolidays(ctx); err != nil {
		return snapshot, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load national holidays")
	}
	if snapshot.UserHolidays, err = s.holidays.UserHolidays(ctx, userID); err != nil {
		return snapshot, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holidays")
	}
	return snapshot, nil
}

func (s *AttendanceService) oracleFor(ctx context.Context, userID string) (*HolidayOracle, error) {
	national, err := s.holidays.NationalHolidays(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load national holidays")
	}
	personal, err := s.holidays.UserHolidays(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holidays")
	}
	oracle, err := NewHolidayOracle(national, personal)
	if err != nil {
		return nil, s.internal(err, "failed to index holidays", userID)
	}
	return oracle, nil
}

// internal passes typed errors through and logs data-integrity failures.
func (s *AttendanceService) internal(err error, message, userID string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		if appErr.Code == appErrors.ErrDataIntegrity.Code {
			s.logger.Error("attendance data integrity failure", zap.String("user_id", userID), zap.Error(err))
		}
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *AttendanceService) observe(operation string, started time.Time, err *error) {
	s.metrics.ObserveAttendance(operation, *err, time.Since(started))
}

// occurrenceStatus maps a classification onto the status vocabulary exposed by the API.
func occurrenceStatus(c models.LectureClassification) string {
	switch c {
	case models.ClassificationPresent:
		return dto.OccurrencePresent
	case models.ClassificationAbsent:
		return dto.OccurrenceAbsent
	case models.ClassificationOff:
		return dto.OccurrenceOff
	case models.ClassificationNationalHoliday, models.ClassificationUserHoliday:
		return dto.OccurrenceHoliday
	default:
		return dto.OccurrenceUnmarked
	}
}

func holidayKind(c models.LectureClassification) string {
	switch c {
	case models.ClassificationNationalHoliday:
		return dto.HolidayKindNational
	case models.ClassificationUserHoliday:
		return dto.HolidayKindPersonal
	default:
		return ""
	}
}
