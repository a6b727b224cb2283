package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const defaultPollTimeout = 30 * time.Second

// TelegramConfig configures the Bot API client.
type TelegramConfig struct {
	BotToken    string
	APIURL      string
	Timeout     time.Duration
	PollTimeout time.Duration
}

// TelegramClient sends Markdown messages and answers bot commands.
type TelegramClient struct {
	bot      *tgbotapi.BotAPI
	token    string
	endpoint string
	cfg      TelegramConfig
}

// NewTelegramClient authenticates the bot with getMe. An empty token returns a
// disabled client.
func NewTelegramClient(cfg TelegramConfig) (*TelegramClient, error) {
	if cfg.APIURL == "" {
		cfg.APIURL = "https://api.telegram.org"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = defaultPollTimeout
	}
	c := &TelegramClient{
		token:    cfg.BotToken,
		endpoint: strings.TrimRight(cfg.APIURL, "/") + "/bot%s/%s",
		cfg:      cfg,
	}
	if c.token == "" {
		return c, nil
	}
	bot, err := tgbotapi.NewBotAPIWithClient(c.token, c.endpoint, &http.Client{Timeout: cfg.Timeout})
	if err != nil {
		return &TelegramClient{cfg: cfg}, fmt.Errorf("telegram getMe: %w", err)
	}
	c.bot = bot
	return c, nil
}

// Enabled reports whether the bot authenticated.
func (c *TelegramClient) Enabled() bool {
	return c != nil && c.bot != nil
}

// Username is the bot's handle, empty when disabled.
func (c *TelegramClient) Username() string {
	if !c.Enabled() {
		return ""
	}
	return c.bot.Self.UserName
}

// Send posts Markdown text to chatID.
func (c *TelegramClient) Send(ctx context.Context, chatID, text string) error {
	if !c.Enabled() {
		return ErrChannelDisabled
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := strconv.ParseInt(strings.TrimSpace(chatID), 10, 64)
	if err != nil {
		return fmt.Errorf("telegram chat id %q: %w", chatID, err)
	}
	return c.reply(c.bot, id, text)
}

func (c *TelegramClient) reply(bot *tgbotapi.BotAPI, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	return nil
}

// ListenCommands long-polls for updates and answers /start and /link until ctx
// is cancelled. Polling uses its own HTTP client so the long poll does not
// share the send timeout.
func (c *TelegramClient) ListenCommands(ctx context.Context, logger *zap.Logger) error {
	if !c.Enabled() {
		return ErrChannelDisabled
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	pollTimeout := c.cfg.PollTimeout
	poller, err := tgbotapi.NewBotAPIWithClient(c.token, c.endpoint, &http.Client{Timeout: pollTimeout + c.cfg.Timeout})
	if err != nil {
		return fmt.Errorf("telegram getMe: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(pollTimeout / time.Second)
	updates := poller.GetUpdatesChan(u)
	defer poller.StopReceivingUpdates()

	logger.Info("telegram command listener started", zap.String("bot", poller.Self.UserName))
	for {
		select {
		case <-ctx.Done():
			logger.Info("telegram command listener stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := c.handleUpdate(poller, update); err != nil {
				logger.Warn("telegram command reply failed", zap.Int("update_id", update.UpdateID), zap.Error(err))
			}
		}
	}
}

func (c *TelegramClient) handleUpdate(bot *tgbotapi.BotAPI, update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return nil
	}
	text := commandReply(msg.Command(), msg.Chat.ID)
	if text == "" {
		return nil
	}
	return c.reply(bot, msg.Chat.ID, text)
}

func commandReply(command string, chatID int64) string {
	switch command {
	case "start":
		return fmt.Sprintf("👋 *Welcome to AttendSmart Bot!*\n\nYour chat ID is `%d`.\nAdd it to your notification settings in the app to receive lecture reminders.", chatID)
	case "link":
		return fmt.Sprintf("ℹ️ Linking is handled from the app.\n\nOpen notification settings, enable Telegram and enter chat ID `%d`.", chatID)
	default:
		return ""
	}
}
