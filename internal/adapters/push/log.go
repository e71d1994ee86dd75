package push

import (
	"context"

	"stockwatch/internal/metrics"
	"stockwatch/pkg/logger"
)

// LogSender writes notifications to the log instead of delivering them
type LogSender struct {
	log *logger.Logger
}

func NewLogSender() *LogSender {
	return &LogSender{log: logger.Get().With("component", "log_sender")}
}

func (s *LogSender) Send(ctx context.Context, deviceToken, title, body string) error {
	s.log.Infow("Notification",
		"device_token", deviceToken,
		"title", title,
		"body", body,
	)
	metrics.RecordNotification(ProviderLog, nil)
	return nil
}
