package postgres

import (
	"context"

	"stockwatch/internal/domain/watch"
)

// Compile-time check
var _ watch.Repository = (*WatchRepository)(nil)

// WatchRepository implements watch.Repository using sqlx
type WatchRepository struct {
	db DBTX
}

// NewWatchRepository creates a new watch repository
func NewWatchRepository(db DBTX) *WatchRepository {
	return &WatchRepository{db: db}
}

// Create inserts a watch and fills in its generated id and creation time
func (r *WatchRepository) Create(ctx context.Context, w *watch.Watch) error {
	query := `
		INSERT INTO registered_stocks (device_token, stock_code, target_price)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query, w.DeviceToken, w.StockCode, w.TargetPrice).
		Scan(&w.ID, &w.CreatedAt)
}

// DeleteByKey deletes all watches with exactly this device token and stock code
func (r *WatchRepository) DeleteByKey(ctx context.Context, deviceToken, stockCode string) (int64, error) {
	query := `DELETE FROM registered_stocks WHERE device_token = $1 AND stock_code = $2`

	result, err := r.db.ExecContext(ctx, query, deviceToken, stockCode)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// DeleteByID deletes one watch; a missing row is not an error
func (r *WatchRepository) DeleteByID(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM registered_stocks WHERE id = $1`, id)
	return err
}

// List returns every watch in insertion order
func (r *WatchRepository) List(ctx context.Context) ([]*watch.Watch, error) {
	watches := make([]*watch.Watch, 0)

	query := `
		SELECT id, device_token, stock_code, target_price, created_at
		FROM registered_stocks
		ORDER BY id ASC`

	if err := r.db.SelectContext(ctx, &watches, query); err != nil {
		return nil, err
	}

	return watches, nil
}

// ListByDevice returns the watches registered by one device in insertion order
func (r *WatchRepository) ListByDevice(ctx context.Context, deviceToken string) ([]*watch.Watch, error) {
	watches := make([]*watch.Watch, 0)

	query := `
		SELECT id, device_token, stock_code, target_price, created_at
		FROM registered_stocks
		WHERE device_token = $1
		ORDER BY id ASC`

	if err := r.db.SelectContext(ctx, &watches, query, deviceToken); err != nil {
		return nil, err
	}

	return watches, nil
}

// Count returns the number of registered watches
func (r *WatchRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM registered_stocks`); err != nil {
		return 0, err
	}
	return count, nil
}
