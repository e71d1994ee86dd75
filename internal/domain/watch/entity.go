package watch

import (
	"time"

	"github.com/shopspring/decimal"
)

// Watch is a registered target-price alert for one device and one stock code.
// Several watches may share the same (DeviceToken, StockCode) pair; each is
// tracked independently by ID.
type Watch struct {
	ID          int64     `db:"id"`
	DeviceToken string    `db:"device_token"`
	StockCode   string    `db:"stock_code"`
	TargetPrice float64   `db:"target_price"`
	CreatedAt   time.Time `db:"created_at"`
}

// Reached reports whether the fetched price meets or exceeds the target
func (w *Watch) Reached(price int64) bool {
	return decimal.NewFromInt(price).GreaterThanOrEqual(decimal.NewFromFloat(w.TargetPrice))
}

// Tuple returns the positional list representation used by the list endpoint:
// [id, device_token, stock_code, target_price]
func (w *Watch) Tuple() []interface{} {
	return []interface{}{w.ID, w.DeviceToken, w.StockCode, w.TargetPrice}
}
