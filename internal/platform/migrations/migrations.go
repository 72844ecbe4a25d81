package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// statements are applied in order at startup. Each statement is idempotent so
// Apply can run on every boot.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS observations (
		id BIGSERIAL PRIMARY KEY,
		ticker TEXT NOT NULL,
		price DOUBLE PRECISION NOT NULL,
		timestamp BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_observations_ticker ON observations (ticker)`,
	`CREATE INDEX IF NOT EXISTS idx_observations_timestamp ON observations (timestamp)`,
}

// Apply runs the schema bootstrap against the provided database handle.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", i, err)
		}
	}
	return nil
}
