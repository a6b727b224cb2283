package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/attendsmart-api/internal/dto"
	"github.com/noah-isme/attendsmart-api/internal/models"
	appErrors "github.com/noah-isme/attendsmart-api/pkg/errors"
)

const nationalHolidayCacheKey = "holidays:national"

type userHolidayRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.UserHoliday, error)
	FindByID(ctx context.Context, id string) (*models.UserHoliday, error)
	Create(ctx context.Context, holiday *models.UserHoliday) error
	Update(ctx context.Context, holiday *models.UserHoliday) error
	Delete(ctx context.Context, id string) error
}

type nationalHolidayRepository interface {
	List(ctx context.Context) ([]models.NationalHoliday, error)
	Create(ctx context.Context, holiday *models.NationalHoliday) error
	ExistingDates(ctx context.Context) (map[string]bool, error)
}

type holidayCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// HolidayService manages national and personal holidays and serves cached lookups to the engine.
type HolidayService struct {
	personal  userHolidayRepository
	national  nationalHolidayRepository
	cache     holidayCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHolidayService constructs the service. cache may be nil.
func NewHolidayService(personal userHolidayRepository, national nationalHolidayRepository, cache holidayCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *HolidayService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	registerValidations(validate)
	return &HolidayService{personal: personal, national: national, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// UserHolidayRequest describes create and update payloads for a personal holiday.
type UserHolidayRequest struct {
	StartDate string `json:"start_date" validate:"required,ymd"`
	EndDate   string `json:"end_date" validate:"required,ymd"`
	Title     string `json:"title" validate:"required,max=200"`
	Category  string `json:"category" validate:"omitempty,holiday_category"`
}

// NationalHolidayRequest adds one national holiday.
type NationalHolidayRequest struct {
	Date  string `json:"date" validate:"required,ymd"`
	Title string `json:"title" validate:"required,max=200"`
}

// NationalHolidays returns the shared holiday calendar, served from cache when possible.
func (s *HolidayService) NationalHolidays(ctx context.Context) ([]models.NationalHoliday, error) {
	if s.cache != nil {
		var cached []models.NationalHoliday
		if hit, err := s.cache.Get(ctx, nationalHolidayCacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}
	holidays, err := s.national.List(ctx)
	if err != nil {
		return nil, err
	}
	if holidays == nil {
		holidays = []models.NationalHoliday{}
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, nationalHolidayCacheKey, holidays, s.cacheTTL)
	}
	return holidays, nil
}

// UserHolidays returns the personal holidays of a user.
func (s *HolidayService) UserHolidays(ctx context.Context, userID string) ([]models.UserHoliday, error) {
	return s.personal.ListByUser(ctx, userID)
}

// ListNational returns every national holiday.
func (s *HolidayService) ListNational(ctx context.Context) ([]models.NationalHoliday, error) {
	holidays, err := s.NationalHolidays(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list national holidays")
	}
	return holidays, nil
}

// ListPersonal returns the personal holidays of a user.
func (s *HolidayService) ListPersonal(ctx context.Context, userID string) ([]models.UserHoliday, error) {
	holidays, err := s.personal.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list holidays")
	}
	if holidays == nil {
		holidays = []models.UserHoliday{}
	}
	return holidays, nil
}

// CreatePersonal records a personal holiday range.
func (s *HolidayService) CreatePersonal(ctx context.Context, userID string, req UserHolidayRequest) (*models.UserHoliday, error) {
	holiday, err := s.buildUserHoliday(req)
	if err != nil {
		return nil, err
	}
	holiday.ID = uuid.NewString()
	holiday.UserID = userID
	holiday.CreatedAt = time.Now().UTC()
	if err := s.personal.Create(ctx, holiday); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create holiday")
	}
	return holiday, nil
}

// UpdatePersonal replaces a personal holiday owned by the user.
func (s *HolidayService) UpdatePersonal(ctx context.Context, userID, id string, req UserHolidayRequest) (*models.UserHoliday, error) {
	existing, err := s.ownedHoliday(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	holiday, err := s.buildUserHoliday(req)
	if err != nil {
		return nil, err
	}
	holiday.ID = existing.ID
	holiday.UserID = existing.UserID
	holiday.CreatedAt = existing.CreatedAt
	if err := s.personal.Update(ctx, holiday); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update holiday")
	}
	return holiday, nil
}

// DeletePersonal removes a personal holiday owned by the user.
func (s *HolidayService) DeletePersonal(ctx context.Context, userID, id string) error {
	if _, err := s.ownedHoliday(ctx, userID, id); err != nil {
		return err
	}
	if err := s.personal.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete holiday")
	}
	return nil
}

// CreateNational adds a national holiday and drops the cached calendar.
func (s *HolidayService) CreateNational(ctx context.Context, req NationalHolidayRequest) (*models.NationalHoliday, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	date, _ := time.Parse(dateLayout, strings.TrimSpace(req.Date))
	holiday := &models.NationalHoliday{ID: uuid.NewString(), Date: formatDate(date), Title: strings.TrimSpace(req.Title)}
	if err := s.national.Create(ctx, holiday); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create national holiday")
	}
	s.invalidate(ctx)
	return holiday, nil
}

// ImportNational reads an iCalendar feed and adds every all-day event date not already stored.
func (s *HolidayService) ImportNational(ctx context.Context, feed io.Reader) (*dto.HolidayImportResult, error) {
	parsed, err := ParseHolidayCalendar(feed)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid iCalendar feed")
	}
	existing, err := s.national.ExistingDates(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load national holidays")
	}

	result := &dto.HolidayImportResult{Dates: []string{}}
	for _, holiday := range parsed {
		if existing[holiday.Date] {
			result.Skipped++
			continue
		}
		holiday.ID = uuid.NewString()
		if err := s.national.Create(ctx, &holiday); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store national holiday")
		}
		existing[holiday.Date] = true
		result.Imported++
		result.Dates = append(result.Dates, holiday.Date)
	}
	if result.Imported > 0 {
		s.invalidate(ctx)
	}
	s.logger.Info("national holidays imported", zap.Int("imported", result.Imported), zap.Int("skipped", result.Skipped))
	return result, nil
}

// ImportNationalFromURL downloads a feed and imports it.
func (s *HolidayService) ImportNationalFromURL(ctx context.Context, rawURL string) (*dto.HolidayImportResult, error) {
	body, err := FetchHolidayCalendar(ctx, rawURL)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to fetch iCalendar feed")
	}
	defer body.Close()
	return s.ImportNational(ctx, body)
}

func (s *HolidayService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, nationalHolidayCacheKey); err != nil {
		s.logger.Warn("failed to invalidate national holiday cache", zap.Error(err))
	}
}

func (s *HolidayService) ownedHoliday(ctx context.Context, userID, id string) (*models.UserHoliday, error) {
	holiday, err := s.personal.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "holiday not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holiday")
	}
	if holiday.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "holiday not found")
	}
	return holiday, nil
}

func (s *HolidayService) buildUserHoliday(req UserHolidayRequest) (*models.UserHoliday, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	start, _ := time.Parse(dateLayout, strings.TrimSpace(req.StartDate))
	end, _ := time.Parse(dateLayout, strings.TrimSpace(req.EndDate))
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be on or after start_date")
	}
	category := models.HolidayCategory(strings.ToLower(req.Category))
	if category == "" {
		category = models.HolidayCategoryPersonal
	}
	return &models.UserHoliday{
		StartDate: formatDate(start),
		EndDate:   formatDate(end),
		Title:     strings.TrimSpace(req.Title),
		Category:  category,
	}, nil
}
