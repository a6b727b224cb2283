package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/attendsmart-api/internal/dto"
	"github.com/noah-isme/attendsmart-api/internal/models"
	appErrors "github.com/noah-isme/attendsmart-api/pkg/errors"
)

type timetableRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.TimetableSlot, error)
	FindByID(ctx context.Context, id string) (*models.TimetableSlot, error)
	Create(ctx context.Context, slot *models.TimetableSlot) error
	Update(ctx context.Context, slot *models.TimetableSlot) error
	Delete(ctx context.Context, id string) error
}

// TimetableService manages the weekly lecture slots of a user.
type TimetableService struct {
	repo      timetableRepository
	holidays  holidaySource
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTimetableService constructs the service.
func NewTimetableService(repo timetableRepository, holidays holidaySource, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerValidations(validate)
	return &TimetableService{repo: repo, holidays: holidays, validator: validate, logger: logger, now: time.Now}
}

// TimetableSlotRequest describes create and update payloads.
type TimetableSlotRequest struct {
	Day       string `json:"day" validate:"required,weekday"`
	Subject   string `json:"subject" validate:"required,max=120"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
}

// List returns every slot of the user in insertion order.
func (s *TimetableService) List(ctx context.Context, userID string) ([]models.TimetableSlot, error) {
	slots, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable")
	}
	if slots == nil {
		slots = []models.TimetableSlot{}
	}
	return slots, nil
}

// Create adds a weekly slot. Overlapping slots are allowed.
func (s *TimetableService) Create(ctx context.Context, userID string, req TimetableSlotRequest) (*models.TimetableSlot, error) {
	slot, err := s.buildSlot(req)
	if err != nil {
		return nil, err
	}
	slot.ID = uuid.NewString()
	slot.UserID = userID
	slot.CreatedAt = time.Now().UTC()
	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable slot")
	}
	return slot, nil
}

// Update replaces a slot owned by the user.
func (s *TimetableService) Update(ctx context.Context, userID, id string, req TimetableSlotRequest) (*models.TimetableSlot, error) {
	existing, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	slot, err := s.buildSlot(req)
	if err != nil {
		return nil, err
	}
	slot.ID = existing.ID
	slot.UserID = existing.UserID
	slot.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timetable slot")
	}
	return slot, nil
}

// Delete removes a slot owned by the user. Recorded marks are kept.
func (s *TimetableService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable slot")
	}
	return nil
}

// Tomorrow lists tomorrow's lectures, or the holiday that cancels them.
func (s *TimetableService) Tomorrow(ctx context.Context, userID string) (*dto.TomorrowTimetable, error) {
	tomorrow := civilDate(s.now()).AddDate(0, 0, 1)
	slots, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable")
	}
	index, err := NewTimetableIndex(slots)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
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
		return nil, appErrors.FromError(err)
	}

	result := &dto.TomorrowTimetable{
		Date:     formatDate(tomorrow),
		Day:      tomorrow.Weekday().String(),
		Lectures: []dto.TodayLecture{},
	}
	if kind, title, ok := oracle.HolidayOn(userID, tomorrow); ok {
		result.Holiday = &dto.HolidayNotice{Kind: holidayKind(kind), Title: title}
		return result, nil
	}
	for _, slot := range index.ForDay(userID, tomorrow.Weekday()) {
		result.Lectures = append(result.Lectures, dto.TodayLecture{SlotID: slot.ID, Subject: slot.Subject, StartTime: slot.StartTime, EndTime: slot.EndTime})
	}
	return result, nil
}

func (s *TimetableService) owned(ctx context.Context, userID, id string) (*models.TimetableSlot, error) {
	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable slot")
	}
	if slot.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable slot not found")
	}
	return slot, nil
}

func (s *TimetableService) buildSlot(req TimetableSlotRequest) (*models.TimetableSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	day, _ := normalizeWeekday(req.Day)
	start, _ := time.Parse(timeLayout, strings.TrimSpace(req.StartTime))
	end, _ := time.Parse(timeLayout, strings.TrimSpace(req.EndTime))
	if !end.After(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject is required")
	}
	return &models.TimetableSlot{
		Day:       day,
		Subject:   subject,
		StartTime: start.Format(timeLayout),
		EndTime:   end.Format(timeLayout),
	}, nil
}
