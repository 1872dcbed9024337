package sqlite

import (
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"go.nhat.io/otelsql"
	"go.opentelemetry.io/otel/attribute"
)

var (
	tracedOnce   sync.Once
	tracedDriver string
	tracedErr    error
)

// DriverName returns the database/sql driver to open, wrapping go-sqlite3
// with otelsql instrumentation when traced is set.
func DriverName(traced bool) (string, error) {
	if !traced {
		return "sqlite3", nil
	}
	tracedOnce.Do(func() {
		tracedDriver, tracedErr = otelsql.Register("sqlite3",
			otelsql.TraceQueryWithoutArgs(),
			otelsql.TraceRowsClose(),
			otelsql.TraceRowsAffected(),
			otelsql.WithSystem(attribute.String("db.system", "sqlite")),
		)
	})
	return tracedDriver, tracedErr
}

// Open connects to the database at path, enables WAL and applies migrations.
func Open(path string, traced bool) (*sqlx.DB, error) {
	driver, err := DriverName(traced)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Connect(driver, path)
	if err != nil {
		return nil, err
	}

	// WAL mode is only required once after creating the database, but
	// doesn't hurt to set it each time
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, err
	}

	if err := RunMigrations(db.DB); err != nil {
		db.Close()
		return nil, err
	}

	if traced {
		if err := otelsql.RecordStats(db.DB, otelsql.WithSystem(attribute.String("db.system", "sqlite"))); err != nil {
			db.Close()
			return nil, fmt.Errorf("record sqlite stats: %w", err)
		}
	}

	return db, nil
}
