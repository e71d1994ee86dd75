package watch

import (
	"context"
	"math"

	"stockwatch/pkg/errors"
	"stockwatch/pkg/logger"
)

// Service coordinates watch registration, listing and removal
type Service struct {
	repo      Repository
	publisher EventPublisher
	log       *logger.Logger
}

// NewService constructs a watch service. publisher may be nil.
func NewService(repo Repository, publisher EventPublisher) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		log:       logger.Get().With("component", "watch_service"),
	}
}

// Register stores a new watch. Duplicate registrations are allowed and
// produce independent rows. Token and code are opaque and stored as given.
func (s *Service) Register(ctx context.Context, deviceToken, stockCode string, targetPrice float64) (*Watch, error) {
	if math.IsNaN(targetPrice) || math.IsInf(targetPrice, 0) {
		return nil, errors.NewValidationError("target_price", "must be a finite number", targetPrice)
	}

	w := &Watch{
		DeviceToken: deviceToken,
		StockCode:   stockCode,
		TargetPrice: targetPrice,
	}
	if err := s.repo.Create(ctx, w); err != nil {
		return nil, errors.Wrap(err, "create watch")
	}

	s.log.Infow("Watch registered",
		"id", w.ID,
		"stock_code", w.StockCode,
		"target_price", w.TargetPrice,
	)

	if s.publisher != nil {
		if err := s.publisher.PublishWatchRegistered(ctx, w); err != nil {
			s.log.Warnw("Failed to publish watch registered event", "id", w.ID, "error", err)
		}
	}

	return w, nil
}

// Unregister deletes every watch for the pair and returns how many were removed.
// Zero matches is not an error.
func (s *Service) Unregister(ctx context.Context, deviceToken, stockCode string) (int64, error) {
	deleted, err := s.repo.DeleteByKey(ctx, deviceToken, stockCode)
	if err != nil {
		return 0, errors.Wrap(err, "delete watches by key")
	}

	s.log.Infow("Watches unregistered",
		"stock_code", stockCode,
		"deleted", deleted,
	)

	if s.publisher != nil {
		if err := s.publisher.PublishWatchUnregistered(ctx, deviceToken, stockCode, deleted); err != nil {
			s.log.Warnw("Failed to publish watch unregistered event", "stock_code", stockCode, "error", err)
		}
	}

	return deleted, nil
}

// List returns every registered watch in insertion order
func (s *Service) List(ctx context.Context) ([]*Watch, error) {
	watches, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list watches")
	}
	return watches, nil
}

// ListByDevice returns the watches registered by one device
func (s *Service) ListByDevice(ctx context.Context, deviceToken string) ([]*Watch, error) {
	watches, err := s.repo.ListByDevice(ctx, deviceToken)
	if err != nil {
		return nil, errors.Wrap(err, "list watches by device")
	}
	return watches, nil
}

// Remove deletes exactly one watch by id. It is a no-op if the row is gone.
func (s *Service) Remove(ctx context.Context, id int64) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return errors.Wrapf(err, "delete watch %d", id)
	}
	s.log.Debugw("Watch removed", "id", id)
	return nil
}

// Count returns the number of registered watches
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "count watches")
	}
	return n, nil
}
