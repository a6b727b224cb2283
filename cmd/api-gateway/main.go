package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/attendsmart-api/api/swagger"
	"github.com/noah-isme/attendsmart-api/internal/handler"
	internalmiddleware "github.com/noah-isme/attendsmart-api/internal/middleware"
	"github.com/noah-isme/attendsmart-api/internal/repository"
	"github.com/noah-isme/attendsmart-api/internal/service"
	"github.com/noah-isme/attendsmart-api/pkg/cache"
	"github.com/noah-isme/attendsmart-api/pkg/config"
	"github.com/noah-isme/attendsmart-api/pkg/database"
	"github.com/noah-isme/attendsmart-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/attendsmart-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/attendsmart-api/pkg/middleware/requestid"
	"github.com/noah-isme/attendsmart-api/pkg/notify"
)

// @title AttendSmart API
// @version 1.0.0
// @description Lecture attendance tracking, risk projection and reminders.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, falling back to in-process state", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	userHolidayRepo := repository.NewUserHolidayRepository(db)
	nationalHolidayRepo := repository.NewNationalHolidayRepository(db)
	notificationRepo := repository.NewNotificationSettingRepository(db)

	cacheService := service.NewCacheService(repository.NewCacheRepository(redisClient), metrics, cfg.Holidays.CacheTTL, logr, redisClient != nil)
	holidayService := service.NewHolidayService(userHolidayRepo, nationalHolidayRepo, cacheService, cfg.Holidays.CacheTTL, validate, logr)
	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	semesterService := service.NewSemesterService(semesterRepo, validate, logr)
	timetableService := service.NewTimetableService(timetableRepo, holidayService, validate, logr)
	attendanceService := service.NewAttendanceService(semesterRepo, timetableRepo, attendanceRepo, holidayService, userRepo, service.AttendanceConfig{
		MinimumRequired:  cfg.Attendance.MinimumRequired,
		BorderlineMargin: cfg.Attendance.BorderlineMargin,
	}, metrics, validate, logr)
	exportService := service.NewExportService(attendanceService, logr)
	notificationService := service.NewNotificationSettingsService(notificationRepo, validate, logr)

	telegram, err := notify.NewTelegramClient(notify.TelegramConfig{
		BotToken:    cfg.Telegram.BotToken,
		APIURL:      cfg.Telegram.APIURL,
		Timeout:     cfg.Telegram.Timeout,
		PollTimeout: cfg.Telegram.PollTimeout,
	})
	if err != nil {
		logr.Warn("telegram disabled", zap.Error(err))
	}
	if telegram.Enabled() && cfg.Telegram.CommandsEnabled {
		go func() {
			if err := telegram.ListenCommands(ctx, logr.Named("telegram")); err != nil {
				logr.Error("telegram command listener failed", zap.Error(err))
			}
		}()
	}

	if cfg.Notifier.Enabled {
		reminders := service.NewReminderService(
			timetableRepo,
			attendanceRepo,
			holidayService,
			notificationRepo,
			repository.NewDedupRepository(redisClient),
			telegram,
			notify.NewSendgridMailer(notify.SendgridConfig{
				APIKey:      cfg.Email.SendgridAPIKey,
				FromName:    cfg.Email.FromName,
				FromAddress: cfg.Email.FromAddress,
			}),
			service.ReminderConfig{
				Interval:                 cfg.Notifier.Interval,
				AttendanceReminderWindow: cfg.Notifier.AttendanceReminderWindow,
				TimetableReminderTime:    cfg.Notifier.TimetableReminderTime,
				DedupTTL:                 cfg.Notifier.DedupTTL,
				TickTimeout:              cfg.Notifier.TickTimeout,
				Workers:                  cfg.Notifier.Workers,
				Retries:                  cfg.Notifier.Retries,
			},
			metrics,
			logr,
		)
		go reminders.Run(ctx)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics, "/metrics", "/health", "/ready"))

	metricsHandler := handler.NewMetricsHandler(metrics, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	api.GET("/metrics/summary", metricsHandler.Summary)
	handler.RegisterRoutes(api, authService, handler.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Semester:      handler.NewSemesterHandler(semesterService),
		Timetable:     handler.NewTimetableHandler(timetableService),
		Holiday:       handler.NewHolidayHandler(holidayService),
		Attendance:    handler.NewAttendanceHandler(attendanceService, exportService),
		Notifications: handler.NewNotificationHandler(notificationService),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
