package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/GuiaBolso/darwin"
	_ "github.com/mattn/go-sqlite3"

	"winsbygroup.com/custserver/internal/dbmigrate"
)

// ApplicationID is the SQLite application_id for custserver databases.
// "CUST" in ASCII: C=0x43, U=0x55, S=0x53, T=0x54
const ApplicationID = 0x43555354

// ErrInvalidDatabase is returned when the database is not a valid custserver database.
var ErrInvalidDatabase = errors.New("not a valid 'custserver' database")

// migrations is versioned by major db release (1.xx, 2.xx); minor numbers are
// the steps within a release and must be ascending.
var migrations = dbmigrate.Set{
	Name:        "sqlite",
	Dialect:     darwin.SqliteDialect{},
	TableExists: `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'darwin_migrations'`,
	Migrations: []darwin.Migration{
		// Set application_id first to identify this as a custserver database
		{Version: 1.00, Description: "Set application_id", Script: `
		PRAGMA application_id = 0x43555354;`},

		{Version: 1.01, Description: "Create Table 'customer'", Script: `
		CREATE TABLE IF NOT EXISTS customer (
			customer_id INTEGER PRIMARY KEY AUTOINCREMENT, -- AUTOINCREMENT keeps ids of deleted rows retired
			firstname VARCHAR(255) NOT NULL,
			lastname VARCHAR(255) NOT NULL,
			socialsecuritynumber INTEGER NOT NULL
		);`},

		{Version: 1.02, Description: "Create Index 'idx_customer_lastname'", Script: `
		CREATE INDEX IF NOT EXISTS idx_customer_lastname ON customer (lastname COLLATE NOCASE, firstname COLLATE NOCASE);`},
	},
}

// Schema returns the sqlite definitions as a string for display.
func Schema() string {
	return migrations.Schema()
}

// VerifyApplicationID checks that the database has the correct application_id.
// Empty databases (application_id = 0, no tables) are accepted.
func VerifyApplicationID(db *sql.DB) error {
	var appID int
	if err := db.QueryRow("PRAGMA application_id;").Scan(&appID); err != nil {
		return fmt.Errorf("read application_id: %w", err)
	}

	if appID == ApplicationID {
		return nil
	}
	if appID != 0 {
		return fmt.Errorf("%w (application_id 0x%X)", ErrInvalidDatabase, appID)
	}

	var tableCount int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'`).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check tables: %w", err)
	}
	if tableCount > 0 {
		return fmt.Errorf("%w (has tables but no application_id)", ErrInvalidDatabase)
	}
	return nil
}

// RunMigrations applies all migrations to an already-open *sql.DB.
func RunMigrations(db *sql.DB) error {
	if err := VerifyApplicationID(db); err != nil {
		return err
	}
	return migrations.Run(db)
}
