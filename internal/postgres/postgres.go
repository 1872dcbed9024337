// Package postgres opens and migrates the Postgres customer database.
package postgres

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/GuiaBolso/darwin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.nhat.io/otelsql"
	"go.opentelemetry.io/otel/attribute"

	"winsbygroup.com/custserver/internal/dbmigrate"
)

var migrations = dbmigrate.Set{
	Name:        "postgres",
	Dialect:     darwin.PostgresDialect{},
	TableExists: `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = 'darwin_migrations'`,
	Migrations: []darwin.Migration{
		{Version: 1.01, Description: "Create Table 'customer'", Script: `
		CREATE TABLE IF NOT EXISTS customer (
			customer_id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
			firstname VARCHAR(255) NOT NULL,
			lastname VARCHAR(255) NOT NULL,
			socialsecuritynumber BIGINT NOT NULL
		);`},

		{Version: 1.02, Description: "Create Index 'idx_customer_lastname'", Script: `
		CREATE INDEX IF NOT EXISTS idx_customer_lastname ON customer (lower(lastname), lower(firstname));`},
	},
}

// Schema returns the postgres definitions as a string for display.
func Schema() string {
	return migrations.Schema()
}

// RunMigrations applies all migrations to an already-open *sql.DB.
func RunMigrations(db *sql.DB) error {
	return migrations.Run(db)
}

var (
	tracedOnce   sync.Once
	tracedDriver string
	tracedErr    error
)

func driverName(traced bool) (string, error) {
	if !traced {
		return "pgx", nil
	}
	tracedOnce.Do(func() {
		tracedDriver, tracedErr = otelsql.Register("pgx",
			otelsql.TraceQueryWithoutArgs(),
			otelsql.TraceRowsClose(),
			otelsql.TraceRowsAffected(),
			otelsql.WithSystem(attribute.String("db.system", "postgresql")),
		)
	})
	return tracedDriver, tracedErr
}

// Open connects with the pgx driver and applies migrations.
func Open(dsn string, traced bool) (*sqlx.DB, error) {
	driver, err := driverName(traced)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := RunMigrations(db.DB); err != nil {
		db.Close()
		return nil, err
	}

	if traced {
		if err := otelsql.RecordStats(db.DB, otelsql.WithSystem(attribute.String("db.system", "postgresql"))); err != nil {
			db.Close()
			return nil, fmt.Errorf("record postgres stats: %w", err)
		}
	}

	return db, nil
}
