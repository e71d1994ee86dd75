package push

import (
	"context"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"stockwatch/internal/adapters/config"
	"stockwatch/internal/metrics"
	"stockwatch/pkg/errors"
	"stockwatch/pkg/logger"
)

// botAPI is the subset of *tgbotapi.BotAPI used for delivery
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender delivers notifications as bot messages.
// The device token is the numeric chat id.
type TelegramSender struct {
	api         botAPI
	rateLimiter *rate.Limiter
	timeout     time.Duration
	log         *logger.Logger
}

// NewTelegramSender authorises the bot and configures the send throttle
func NewTelegramSender(cfg config.TelegramConfig, timeout time.Duration) (*TelegramSender, error) {
	if cfg.BotToken == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "telegram bot token is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	api, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create telegram bot")
	}

	s := newTelegramSender(api, cfg.RateLimitRate, timeout)
	s.log.Infow("Telegram sender authorised", "bot", api.Self.UserName)
	return s, nil
}

func newTelegramSender(api botAPI, perSecond int, timeout time.Duration) *TelegramSender {
	if perSecond <= 0 {
		perSecond = 20
	}
	return &TelegramSender{
		api:         api,
		rateLimiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
		timeout:     timeout,
		log:         logger.Get().With("component", "telegram_sender"),
	}
}

func (s *TelegramSender) Send(ctx context.Context, deviceToken, title, body string) error {
	chatID, err := strconv.ParseInt(deviceToken, 10, 64)
	if err != nil {
		return errors.Newf("%w: chat id %q", errors.ErrInvalidDeviceToken, deviceToken)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.rateLimiter.Wait(ctx); err != nil {
		return errors.Newf("%w: rate limiter wait: %v", errors.ErrTimeout, err)
	}

	msg := tgbotapi.NewMessage(chatID, title+"\n"+body)

	// Bot API calls take no context. The http client timeout bounds them, and
	// the result is awaited so a delivered message is never reported as failed.
	_, err = s.api.Send(msg)

	metrics.RecordNotification(ProviderTelegram, err)
	if err != nil {
		return errors.Wrap(err, "failed to send telegram message")
	}

	s.log.Debugw("Notification sent", "chat_id", chatID)
	return nil
}
