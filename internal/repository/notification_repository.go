package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendsmart-api/internal/models"
)

const settingColumns = `user_id, telegram, email, in_app, telegram_chat_id, email_id, updated_at`

// NotificationSettingRepository stores per-user reminder channels.
type NotificationSettingRepository struct {
	db *sqlx.DB
}

// NewNotificationSettingRepository constructs the repository.
func NewNotificationSettingRepository(db *sqlx.DB) *NotificationSettingRepository {
	return &NotificationSettingRepository{db: db}
}

// FindByUser returns sql.ErrNoRows when the user kept the defaults.
func (r *NotificationSettingRepository) FindByUser(ctx context.Context, userID string) (*models.NotificationSetting, error) {
	const query = `SELECT ` + settingColumns + ` FROM notification_settings WHERE user_id = $1`
	var setting models.NotificationSetting
	if err := r.db.GetContext(ctx, &setting, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find notification settings: %w", err)
	}
	return &setting, nil
}

// Upsert replaces the user's settings.
func (r *NotificationSettingRepository) Upsert(ctx context.Context, setting *models.NotificationSetting) error {
	if setting.UpdatedAt.IsZero() {
		setting.UpdatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notification_settings (user_id, telegram, email, in_app, telegram_chat_id, email_id, updated_at)
VALUES (:user_id, :telegram, :email, :in_app, :telegram_chat_id, :email_id, :updated_at)
ON CONFLICT (user_id) DO UPDATE SET telegram = EXCLUDED.telegram, email = EXCLUDED.email, in_app = EXCLUDED.in_app,
telegram_chat_id = EXCLUDED.telegram_chat_id, email_id = EXCLUDED.email_id, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, setting); err != nil {
		return fmt.Errorf("upsert notification settings: %w", err)
	}
	return nil
}

// ListEnabled returns users with at least one outbound channel switched on.
func (r *NotificationSettingRepository) ListEnabled(ctx context.Context) ([]models.NotificationSetting, error) {
	const query = `SELECT ` + settingColumns + ` FROM notification_settings
WHERE (telegram AND telegram_chat_id <> '') OR (email AND email_id <> '') ORDER BY user_id`
	var settings []models.NotificationSetting
	if err := r.db.SelectContext(ctx, &settings, query); err != nil {
		return nil, fmt.Errorf("list enabled notification settings: %w", err)
	}
	return settings, nil
}
