package watch

import "context"

// Repository defines the interface for watch data access.
// Every method is a single statement; no cross-call atomicity is implied.
type Repository interface {
	Create(ctx context.Context, w *Watch) error
	DeleteByKey(ctx context.Context, deviceToken, stockCode string) (int64, error)
	DeleteByID(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*Watch, error)
	ListByDevice(ctx context.Context, deviceToken string) ([]*Watch, error)
	Count(ctx context.Context) (int, error)
}
