package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaultsWithoutEnvFile(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 75.0, cfg.Attendance.MinimumRequired)
	assert.Equal(t, 5.0, cfg.Attendance.BorderlineMargin)
	assert.Equal(t, 5*time.Minute, cfg.Holidays.CacheTTL)
	assert.Equal(t, time.Minute, cfg.Notifier.Interval)
	assert.Equal(t, "21:00", cfg.Notifier.TimetableReminderTime)
	assert.Equal(t, 48*time.Hour, cfg.Notifier.DedupTTL)
	assert.Equal(t, 30*time.Second, cfg.Telegram.PollTimeout)
	assert.True(t, cfg.Telegram.CommandsEnabled)
}

func TestLoadReadsEnvironmentOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("MIN_ATTENDANCE_REQUIRED", "80")
	t.Setenv("NOTIFIER_INTERVAL", "30s")
	t.Setenv("ATTENDANCE_REMINDER_WINDOW", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 80.0, cfg.Attendance.MinimumRequired)
	assert.Equal(t, 30*time.Second, cfg.Notifier.Interval)
	assert.Equal(t, 5*time.Minute, cfg.Notifier.AttendanceReminderWindow)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}
