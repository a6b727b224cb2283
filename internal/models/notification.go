package models

import "time"

// NotificationSetting stores the channels a user wants reminders on.
type NotificationSetting struct {
	UserID         string    `db:"user_id" json:"user_id"`
	Telegram       bool      `db:"telegram" json:"telegram"`
	Email          bool      `db:"email" json:"email"`
	InApp          bool      `db:"in_app" json:"in_app"`
	TelegramChatID string    `db:"telegram_chat_id" json:"telegram_chat_id"`
	EmailID        string    `db:"email_id" json:"email_id"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// NotificationChannel identifies an outbound delivery channel.
type NotificationChannel string

const (
	ChannelTelegram NotificationChannel = "telegram"
	ChannelEmail    NotificationChannel = "email"
)

// NotificationKind identifies the reminder type.
type NotificationKind string

const (
	NotificationAttendanceReminder NotificationKind = "attendance_reminder"
	NotificationTimetableReminder  NotificationKind = "timetable_reminder"
)

// Notification is a single message queued for delivery.
type Notification struct {
	UserID    string              `json:"user_id"`
	Kind      NotificationKind    `json:"kind"`
	Channel   NotificationChannel `json:"channel"`
	Recipient string              `json:"recipient"`
	Subject   string              `json:"subject"`
	Text      string              `json:"text"`
}
