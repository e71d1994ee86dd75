package push

import (
	"context"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"stockwatch/internal/adapters/config"
	"stockwatch/internal/metrics"
	"stockwatch/pkg/errors"
	"stockwatch/pkg/logger"
)

// messagingClient is the subset of *messaging.Client used for delivery
type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMSender sends notifications through Firebase Cloud Messaging
type FCMSender struct {
	client  messagingClient
	timeout time.Duration
	log     *logger.Logger
}

// NewFCMSender loads the service account credential file and initialises
// the messaging client once.
func NewFCMSender(ctx context.Context, cfg config.NotifierConfig) (*FCMSender, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, errors.Wrapf(err, "init firebase app from %s", cfg.CredentialsFile)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "init firebase messaging client")
	}

	return newFCMSender(client, cfg.Timeout), nil
}

func newFCMSender(client messagingClient, timeout time.Duration) *FCMSender {
	return &FCMSender{
		client:  client,
		timeout: timeout,
		log:     logger.Get().With("component", "fcm_sender"),
	}
}

func (s *FCMSender) Send(ctx context.Context, deviceToken, title, body string) error {
	if deviceToken == "" {
		return errors.ErrInvalidDeviceToken
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	msg := &messaging.Message{
		Token: deviceToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	}

	id, err := s.client.Send(ctx, msg)
	metrics.RecordNotification(ProviderFCM, err)
	if err != nil {
		if messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err) {
			return errors.Newf("%w: %v", errors.ErrInvalidDeviceToken, err)
		}
		if errorutils.IsUnavailable(err) || errorutils.IsInternal(err) {
			return errors.Newf("%w: %v", errors.ErrNotifierUnavailable, err)
		}
		return errors.Wrap(err, "fcm send")
	}

	s.log.Debugw("Notification sent", "message_id", id)
	return nil
}
