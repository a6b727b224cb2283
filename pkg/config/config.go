package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Attendance AttendanceConfig
	Holidays   HolidayConfig
	Notifier   NotifierConfig
	Telegram   TelegramConfig
	Email      EmailConfig
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MaxOpenConns  int
	MaxIdleConns  int
	RunMigrations bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AttendanceConfig tunes the risk projection thresholds.
type AttendanceConfig struct {
	MinimumRequired  float64
	BorderlineMargin float64
}

// HolidayConfig controls caching of the shared national holiday calendar.
type HolidayConfig struct {
	CacheTTL time.Duration
}

// NotifierConfig drives the background reminder loop.
type NotifierConfig struct {
	Enabled                  bool
	Interval                 time.Duration
	AttendanceReminderWindow time.Duration
	TimetableReminderTime    string
	DedupTTL                 time.Duration
	Workers                  int
	Retries                  int
	TickTimeout              time.Duration
}

// TelegramConfig configures the Telegram Bot API channel.
type TelegramConfig struct {
	BotToken        string
	APIURL          string
	Timeout         time.Duration
	PollTimeout     time.Duration
	CommandsEnabled bool
}

// EmailConfig configures the SendGrid email channel.
type EmailConfig struct {
	SendgridAPIKey string
	FromName       string
	FromAddress    string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:          v.GetString("DB_HOST"),
		Port:          v.GetInt("DB_PORT"),
		User:          v.GetString("DB_USER"),
		Password:      v.GetString("DB_PASSWORD"),
		Name:          v.GetString("DB_NAME"),
		SSLMode:       v.GetString("DB_SSL_MODE"),
		MaxOpenConns:  v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:  v.GetInt("DB_MAX_IDLE_CONNS"),
		RunMigrations: v.GetBool("RUN_MIGRATIONS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Attendance = AttendanceConfig{
		MinimumRequired:  v.GetFloat64("MIN_ATTENDANCE_REQUIRED"),
		BorderlineMargin: v.GetFloat64("BORDERLINE_MARGIN"),
	}

	cfg.Holidays = HolidayConfig{
		CacheTTL: parseDuration(v.GetString("HOLIDAY_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Notifier = NotifierConfig{
		Enabled:                  v.GetBool("ENABLE_NOTIFIER"),
		Interval:                 parseDuration(v.GetString("NOTIFIER_INTERVAL"), time.Minute),
		AttendanceReminderWindow: parseDuration(v.GetString("ATTENDANCE_REMINDER_WINDOW"), 5*time.Minute),
		TimetableReminderTime:    v.GetString("TIMETABLE_REMINDER_TIME"),
		DedupTTL:                 parseDuration(v.GetString("NOTIFIER_DEDUP_TTL"), 48*time.Hour),
		Workers:                  v.GetInt("NOTIFIER_WORKERS"),
		Retries:                  v.GetInt("NOTIFIER_RETRIES"),
		TickTimeout:              parseDuration(v.GetString("NOTIFIER_TICK_TIMEOUT"), 30*time.Second),
	}

	cfg.Telegram = TelegramConfig{
		BotToken:        v.GetString("TELEGRAM_BOT_TOKEN"),
		APIURL:          v.GetString("TELEGRAM_API_URL"),
		Timeout:         parseDuration(v.GetString("TELEGRAM_TIMEOUT"), 5*time.Second),
		PollTimeout:     parseDuration(v.GetString("TELEGRAM_POLL_TIMEOUT"), 30*time.Second),
		CommandsEnabled: v.GetBool("TELEGRAM_COMMANDS_ENABLED"),
	}

	cfg.Email = EmailConfig{
		SendgridAPIKey: v.GetString("SENDGRID_API_KEY"),
		FromName:       v.GetString("EMAIL_FROM_NAME"),
		FromAddress:    v.GetString("EMAIL_FROM_ADDRESS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "attendsmart")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("RUN_MIGRATIONS", true)

	v.SetDefault("ENABLE_REDIS", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "attendsmart")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MIN_ATTENDANCE_REQUIRED", 75)
	v.SetDefault("BORDERLINE_MARGIN", 5)
	v.SetDefault("HOLIDAY_CACHE_TTL", "5m")

	v.SetDefault("ENABLE_NOTIFIER", false)
	v.SetDefault("NOTIFIER_INTERVAL", "60s")
	v.SetDefault("ATTENDANCE_REMINDER_WINDOW", "5m")
	v.SetDefault("TIMETABLE_REMINDER_TIME", "21:00")
	v.SetDefault("NOTIFIER_DEDUP_TTL", "48h")
	v.SetDefault("NOTIFIER_WORKERS", 2)
	v.SetDefault("NOTIFIER_RETRIES", 3)
	v.SetDefault("NOTIFIER_TICK_TIMEOUT", "30s")

	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("TELEGRAM_API_URL", "https://api.telegram.org")
	v.SetDefault("TELEGRAM_TIMEOUT", "5s")
	v.SetDefault("TELEGRAM_POLL_TIMEOUT", "30s")
	v.SetDefault("TELEGRAM_COMMANDS_ENABLED", true)

	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("EMAIL_FROM_NAME", "AttendSmart")
	v.SetDefault("EMAIL_FROM_ADDRESS", "no-reply@attendsmart.local")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
