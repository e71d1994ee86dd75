// Package push delivers watch notifications to devices.
package push

import (
	"context"
	"strings"

	"stockwatch/internal/adapters/config"
	"stockwatch/internal/domain/notification"
	"stockwatch/pkg/errors"
)

// Supported NOTIFIER_PROVIDER values
const (
	ProviderFCM      = "fcm"
	ProviderTelegram = "telegram"
	ProviderLog      = "log"
)

// New builds the sender selected by cfg.Provider
func New(ctx context.Context, cfg config.NotifierConfig, tg config.TelegramConfig) (notification.Sender, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderFCM:
		s, err := NewFCMSender(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case ProviderTelegram:
		s, err := NewTelegramSender(tg, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return s, nil
	case ProviderLog:
		return NewLogSender(), nil
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown notifier provider %q", cfg.Provider)
	}
}
