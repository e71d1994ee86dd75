package postgres

import (
	"context"

	"stockwatch/pkg/errors"
)

// schemaStatements create the watch table idempotently. There is no
// versioned migration history; the table shape is fixed.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS registered_stocks (
		id           BIGSERIAL PRIMARY KEY,
		device_token TEXT NOT NULL,
		stock_code   TEXT NOT NULL,
		target_price DOUBLE PRECISION NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_registered_stocks_device_code
		ON registered_stocks (device_token, stock_code)`,
}

// EnsureSchema creates the tables used by the repositories if they are missing
func EnsureSchema(ctx context.Context, db DBTX) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "ensure schema")
		}
	}
	return nil
}
