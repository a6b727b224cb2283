package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/attendsmart-api/internal/models"
	"github.com/noah-isme/attendsmart-api/pkg/jobs"
	"github.com/noah-isme/attendsmart-api/pkg/notify"
)

const reminderJobType = "reminder.deliver"

type reminderSlotSource interface {
	ListAll(ctx context.Context) ([]models.TimetableSlot, error)
}

type reminderMarkSource interface {
	ListByDate(ctx context.Context, date string) ([]models.AttendanceMark, error)
}

type reminderRecipients interface {
	ListEnabled(ctx context.Context) ([]models.NotificationSetting, error)
}

// DedupStore remembers reminders already sent within a time window.
type DedupStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type telegramSender interface {
	Enabled() bool
	Send(ctx context.Context, chatID, text string) error
}

type emailSender interface {
	Enabled() bool
	Send(ctx context.Context, to, subject, text string) error
}

type reminderDispatcher interface {
	TryEnqueue(job jobs.Job) error
}

// ReminderConfig tunes the scan loop.
type ReminderConfig struct {
	Interval                 time.Duration
	AttendanceReminderWindow time.Duration
	TimetableReminderTime    string
	DedupTTL                 time.Duration
	TickTimeout              time.Duration
	Workers                  int
	Retries                  int
}

// ReminderScan summarises one scan.
type ReminderScan struct {
	AttendanceQueued int
	TimetableQueued  int
	Skipped          int
	InvalidUsers     int
}

// ReminderService scans for attendance reminders on a ticker and for timetable
// reminders on a daily cron entry.
type ReminderService struct {
	slots      reminderSlotSource
	marks      reminderMarkSource
	holidays   holidaySource
	recipients reminderRecipients
	dedup      DedupStore
	telegram   telegramSender
	email      emailSender
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        ReminderConfig

	queue      *jobs.Queue
	dispatcher reminderDispatcher
	reminderAt time.Time
	now        func() time.Time
}

// NewReminderService wires the scanner to its delivery queue.
func NewReminderService(slots reminderSlotSource, marks reminderMarkSource, holidays holidaySource, recipients reminderRecipients, dedup DedupStore, telegram telegramSender, email emailSender, cfg ReminderConfig, metrics *MetricsService, logger *zap.Logger) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.AttendanceReminderWindow <= 0 {
		cfg.AttendanceReminderWindow = 5 * time.Minute
	}
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = 48 * time.Hour
	}
	if cfg.TickTimeout <= 0 {
		cfg.TickTimeout = 30 * time.Second
	}
	reminderAt, err := time.Parse(timeLayout, strings.TrimSpace(cfg.TimetableReminderTime))
	if err != nil {
		reminderAt, _ = time.Parse(timeLayout, "21:00")
	}

	s := &ReminderService{
		slots:      slots,
		marks:      marks,
		holidays:   holidays,
		recipients: recipients,
		dedup:      dedup,
		telegram:   telegram,
		email:      email,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
		reminderAt: reminderAt,
		now:        time.Now,
	}
	s.queue = jobs.NewQueue("reminders", s.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: 2 * time.Second,
		Logger:     logger,
		OnGiveUp:   s.giveUp,
	})
	s.dispatcher = s.queue
	return s
}

// Run starts the delivery workers, schedules the nightly timetable scan and
// scans for attendance reminders every interval until ctx is cancelled.
func (s *ReminderService) Run(ctx context.Context) {
	s.queue.Start(ctx)
	defer s.queue.Stop()

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := s.schedule(ctx, c); err != nil {
		s.logger.Error("timetable reminder not scheduled", zap.Error(err))
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	s.logger.Info("reminder notifier started",
		zap.Duration("interval", s.cfg.Interval),
		zap.String("timetable_at", s.reminderAt.Format(timeLayout)))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reminder notifier stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// schedule registers the daily timetable scan at the configured wall-clock time.
func (s *ReminderService) schedule(ctx context.Context, c *cron.Cron) (cron.EntryID, error) {
	spec := fmt.Sprintf("%d %d * * *", s.reminderAt.Minute(), s.reminderAt.Hour())
	return c.AddFunc(spec, func() { s.timetableTick(ctx) })
}

func (s *ReminderService) tick(ctx context.Context) {
	started := time.Now()
	tickCtx, cancel := context.WithTimeout(ctx, s.cfg.TickTimeout)
	defer cancel()

	result, err := s.ScanAttendance(tickCtx, s.now())
	s.metrics.ObserveNotifierTick(time.Since(started))
	s.logScan("attendance", result, err)
}

func (s *ReminderService) timetableTick(ctx context.Context) {
	started := time.Now()
	tickCtx, cancel := context.WithTimeout(ctx, s.cfg.TickTimeout)
	defer cancel()

	result, err := s.ScanTimetable(tickCtx, s.now())
	s.metrics.ObserveNotifierTick(time.Since(started))
	s.logScan("timetable", result, err)
}

func (s *ReminderService) logScan(scan string, result ReminderScan, err error) {
	if err != nil {
		s.logger.Error("reminder scan failed", zap.String("scan", scan), zap.Error(err))
		return
	}
	if result.AttendanceQueued+result.TimetableQueued+result.InvalidUsers > 0 {
		s.logger.Info("reminders queued",
			zap.String("scan", scan),
			zap.Int("attendance", result.AttendanceQueued),
			zap.Int("timetable", result.TimetableQueued),
			zap.Int("skipped", result.Skipped),
			zap.Int("invalid_users", result.InvalidUsers))
	}
}

// reminderRecipient is one user with notifications enabled and a valid timetable.
type reminderRecipient struct {
	setting   models.NotificationSetting
	timetable *TimetableIndex
}

// recipientsWithSlots loads enabled users and indexes each timetable separately.
// A user whose stored timetable is malformed is logged and left out.
func (s *ReminderService) recipientsWithSlots(ctx context.Context, result *ReminderScan) ([]reminderRecipient, []models.NationalHoliday, error) {
	settings, err := s.recipients.ListEnabled(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list notification settings: %w", err)
	}
	if len(settings) == 0 {
		return nil, nil, nil
	}
	slots, err := s.slots.ListAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list timetable: %w", err)
	}
	byUser := make(map[string][]models.TimetableSlot)
	for _, slot := range slots {
		byUser[slot.UserID] = append(byUser[slot.UserID], slot)
	}
	national, err := s.holidays.NationalHolidays(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list national holidays: %w", err)
	}

	out := make([]reminderRecipient, 0, len(settings))
	for _, setting := range settings {
		userSlots := byUser[setting.UserID]
		if len(userSlots) == 0 {
			continue
		}
		index, err := NewTimetableIndex(userSlots)
		if err != nil {
			s.skipUser(setting.UserID, "invalid timetable", err, result)
			continue
		}
		out = append(out, reminderRecipient{setting: setting, timetable: index})
	}
	return out, national, nil
}

func (s *ReminderService) skipUser(userID, reason string, err error, result *ReminderScan) {
	result.InvalidUsers++
	s.logger.Warn("reminder skipped for user", zap.String("user_id", userID), zap.String("reason", reason), zap.Error(err))
}

// ScanAttendance queues a reminder for every lecture that ended within the
// reminder window and has no recorded mark.
func (s *ReminderService) ScanAttendance(ctx context.Context, now time.Time) (ReminderScan, error) {
	var result ReminderScan

	recipients, national, err := s.recipientsWithSlots(ctx, &result)
	if err != nil || len(recipients) == 0 {
		return result, err
	}
	today := civilDate(now)
	marks, err := s.marks.ListByDate(ctx, formatDate(today))
	if err != nil {
		return result, fmt.Errorf("list attendance marks: %w", err)
	}
	ledger := NewAttendanceLedger(marks)

	for _, r := range recipients {
		userID := r.setting.UserID
		slots := r.timetable.ForDay(userID, now.Weekday())
		if len(slots) == 0 {
			continue
		}
		oracle, err := s.oracleFor(ctx, userID, national)
		if err != nil {
			s.skipUser(userID, "invalid holidays", err, &result)
			continue
		}
		if _, _, holiday := oracle.HolidayOn(userID, today); holiday {
			continue
		}
		for _, slot := range slots {
			end, err := parseStoredClock(slot.EndTime)
			if err != nil {
				s.skipUser(userID, "invalid end time", err, &result)
				break
			}
			since := now.Sub(atClock(today, end, now.Location()))
			if since < 0 || since > s.cfg.AttendanceReminderWindow {
				continue
			}
			if _, marked := ledger.Lookup(userID, today, slot.Subject, slot.StartTime); marked {
				continue
			}
			key := strings.Join([]string{"attendance", userID, slot.Subject, slot.StartTime, formatDate(today)}, "|")
			text := attendanceReminderText(slot)
			if s.dispatch(ctx, key, r.setting, models.NotificationAttendanceReminder, "Attendance reminder: "+slot.Subject, text) {
				result.AttendanceQueued++
			} else {
				result.Skipped++
			}
		}
	}
	return result, nil
}

// ScanTimetable queues tomorrow's timetable for every user with lectures
// tomorrow and no holiday covering it.
func (s *ReminderService) ScanTimetable(ctx context.Context, now time.Time) (ReminderScan, error) {
	var result ReminderScan

	recipients, national, err := s.recipientsWithSlots(ctx, &result)
	if err != nil || len(recipients) == 0 {
		return result, err
	}
	tomorrow := civilDate(now).AddDate(0, 0, 1)
	for _, r := range recipients {
		userID := r.setting.UserID
		slots := r.timetable.ForDay(userID, tomorrow.Weekday())
		if len(slots) == 0 {
			continue
		}
		oracle, err := s.oracleFor(ctx, userID, national)
		if err != nil {
			s.skipUser(userID, "invalid holidays", err, &result)
			continue
		}
		if _, _, holiday := oracle.HolidayOn(userID, tomorrow); holiday {
			continue
		}
		key := strings.Join([]string{"timetable", userID, formatDate(tomorrow)}, "|")
		text := timetableReminderText(tomorrow.Weekday(), slots)
		if s.dispatch(ctx, key, r.setting, models.NotificationTimetableReminder, "Tomorrow's timetable ("+tomorrow.Weekday().String()+")", text) {
			result.TimetableQueued++
		} else {
			result.Skipped++
		}
	}
	return result, nil
}

func (s *ReminderService) oracleFor(ctx context.Context, userID string, national []models.NationalHoliday) (*HolidayOracle, error) {
	personal, err := s.holidays.UserHolidays(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list holidays for %s: %w", userID, err)
	}
	return NewHolidayOracle(national, personal)
}

// dispatch claims the dedup key and queues one job per enabled channel.
// The key is released when nothing could be queued so the next tick retries.
func (s *ReminderService) dispatch(ctx context.Context, key string, setting models.NotificationSetting, kind models.NotificationKind, subject, text string) bool {
	notifications := s.fanOut(setting, kind, subject, text)
	if len(notifications) == 0 {
		return false
	}
	claimed, err := s.dedup.Claim(ctx, key, s.cfg.DedupTTL)
	if err != nil {
		s.logger.Warn("reminder dedup claim failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !claimed {
		return false
	}

	queued := 0
	for _, n := range notifications {
		job := jobs.Job{ID: key + "|" + string(n.Channel), Type: reminderJobType, Payload: n}
		if err := s.dispatcher.TryEnqueue(job); err != nil {
			s.logger.Warn("reminder not queued", zap.String("key", key), zap.String("channel", string(n.Channel)), zap.Error(err))
			continue
		}
		queued++
	}
	if queued == 0 {
		if err := s.dedup.Release(ctx, key); err != nil {
			s.logger.Warn("reminder dedup release failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return true
}

func (s *ReminderService) fanOut(setting models.NotificationSetting, kind models.NotificationKind, subject, text string) []models.Notification {
	out := make([]models.Notification, 0, 2)
	if setting.Telegram && setting.TelegramChatID != "" && s.telegram != nil && s.telegram.Enabled() {
		out = append(out, models.Notification{
			UserID:    setting.UserID,
			Kind:      kind,
			Channel:   models.ChannelTelegram,
			Recipient: setting.TelegramChatID,
			Subject:   subject,
			Text:      text,
		})
	}
	if setting.Email && setting.EmailID != "" && s.email != nil && s.email.Enabled() {
		out = append(out, models.Notification{
			UserID:    setting.UserID,
			Kind:      kind,
			Channel:   models.ChannelEmail,
			Recipient: setting.EmailID,
			Subject:   subject,
			Text:      strings.ReplaceAll(text, "*", ""),
		})
	}
	return out
}

func (s *ReminderService) deliver(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(models.Notification)
	if !ok {
		s.logger.Error("unexpected reminder payload", zap.String("job_id", job.ID))
		return nil
	}

	var err error
	switch n.Channel {
	case models.ChannelTelegram:
		err = s.telegram.Send(ctx, n.Recipient, n.Text)
	case models.ChannelEmail:
		err = s.email.Send(ctx, n.Recipient, n.Subject, n.Text)
	default:
		err = fmt.Errorf("unknown channel %q", n.Channel)
	}
	if err != nil {
		if errors.Is(err, notify.ErrChannelDisabled) {
			s.metrics.RecordNotification(n.Channel, n.Kind, err)
			return nil
		}
		return err
	}
	s.metrics.RecordNotification(n.Channel, n.Kind, nil)
	s.logger.Debug("reminder delivered", zap.String("user_id", n.UserID), zap.String("channel", string(n.Channel)), zap.String("kind", string(n.Kind)))
	return nil
}

func (s *ReminderService) giveUp(job jobs.Job, err error) {
	n, ok := job.Payload.(models.Notification)
	if !ok {
		return
	}
	s.metrics.RecordNotification(n.Channel, n.Kind, err)
	s.logger.Warn("reminder delivery failed", zap.String("user_id", n.UserID), zap.String("channel", string(n.Channel)), zap.Error(err))
}

func attendanceReminderText(slot models.TimetableSlot) string {
	return fmt.Sprintf("⚠️ *Attendance Reminder*\n\n📘 *%s*\n🕒 %s – %s\n\nPlease mark your attendance.", slot.Subject, slot.StartTime, slot.EndTime)
}

func timetableReminderText(day time.Weekday, slots []models.TimetableSlot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 *Tomorrow's Timetable (%s)*\n\n", day)
	for _, slot := range slots {
		fmt.Fprintf(&b, "📘 %s\n🕒 %s – %s\n\n", slot.Subject, slot.StartTime, slot.EndTime)
	}
	return b.String()
}
