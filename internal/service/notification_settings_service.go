package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/attendsmart-api/internal/models"
	appErrors "github.com/noah-isme/attendsmart-api/pkg/errors"
)

type notificationSettingRepository interface {
	FindByUser(ctx context.Context, userID string) (*models.NotificationSetting, error)
	Upsert(ctx context.Context, setting *models.NotificationSetting) error
}

// NotificationSettingsService stores which channels a user wants reminders on.
type NotificationSettingsService struct {
	repo      notificationSettingRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNotificationSettingsService constructs the service.
func NewNotificationSettingsService(repo notificationSettingRepository, validate *validator.Validate, logger *zap.Logger) *NotificationSettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationSettingsService{repo: repo, validator: validate, logger: logger}
}

// UpdateNotificationSettingsRequest replaces all notification preferences.
type UpdateNotificationSettingsRequest struct {
	Telegram       bool   `json:"telegram"`
	Email          bool   `json:"email"`
	InApp          bool   `json:"in_app"`
	TelegramChatID string `json:"telegram_chat_id" validate:"omitempty,numeric"`
	EmailID        string `json:"email_id" validate:"omitempty,email"`
}

// Get returns the user's preferences. Users who never saved any get in-app only.
func (s *NotificationSettingsService) Get(ctx context.Context, userID string) (*models.NotificationSetting, error) {
	setting, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.NotificationSetting{UserID: userID, InApp: true}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification settings")
	}
	return setting, nil
}

// Update saves the user's preferences.
func (s *NotificationSettingsService) Update(ctx context.Context, userID string, req UpdateNotificationSettingsRequest) (*models.NotificationSetting, error) {
	req.TelegramChatID = strings.TrimSpace(req.TelegramChatID)
	req.EmailID = strings.TrimSpace(req.EmailID)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if req.Telegram && req.TelegramChatID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "telegram_chat_id is required when telegram is enabled")
	}
	if req.Email && req.EmailID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email_id is required when email is enabled")
	}
	setting := &models.NotificationSetting{
		UserID:         userID,
		Telegram:       req.Telegram,
		Email:          req.Email,
		InApp:          req.InApp,
		TelegramChatID: req.TelegramChatID,
		EmailID:        req.EmailID,
		UpdatedAt:      time.Now().UTC(),
	}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save notification settings")
	}
	s.logger.Info("notification settings updated", zap.String("user_id", userID), zap.Bool("telegram", setting.Telegram), zap.Bool("email", setting.Email))
	return setting, nil
}
