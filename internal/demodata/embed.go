// Package demodata provides sample customers for demo deployments.
package demodata

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed sample.sql
var sampleSQL string

// Load inserts the demo customers and returns how many rows the customer
// table holds afterwards. A table that already has rows is left untouched,
// so calling Load against an existing database never mixes demo data into
// real data.
func Load(ctx context.Context, db *sql.DB) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM customer`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	if n > 0 {
		return n, nil
	}

	if _, err := tx.ExecContext(ctx, sampleSQL); err != nil {
		return 0, fmt.Errorf("insert demo customers: %w", err)
	}
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM customer`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return n, tx.Commit()
}
