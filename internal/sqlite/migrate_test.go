package sqlite_test

import (
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"winsbygroup.com/custserver/internal/sqlite"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// each new connection to :memory: is a different database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationsApplyCleanly(t *testing.T) {
	db := openMemory(t)

	if err := sqlite.RunMigrations(db); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}

	rows, err := db.Query(`SELECT name FROM pragma_table_info('customer') ORDER BY cid`)
	if err != nil {
		t.Fatalf("table info: %v", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan: %v", err)
		}
		cols = append(cols, name)
	}

	want := "customer_id,firstname,lastname,socialsecuritynumber"
	if got := strings.Join(cols, ","); got != want {
		t.Errorf("expected columns %q, got %q", want, got)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := openMemory(t)

	for i := 0; i < 2; i++ {
		if err := sqlite.RunMigrations(db); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}

	var steps int
	if err := db.QueryRow(`SELECT COUNT(*) FROM darwin_migrations`).Scan(&steps); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if steps != 3 {
		t.Errorf("expected 3 applied steps, got %d", steps)
	}
}

func TestMigrationsSetsApplicationID(t *testing.T) {
	db := openMemory(t)

	if err := sqlite.RunMigrations(db); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}

	var appID int
	if err := db.QueryRow("PRAGMA application_id;").Scan(&appID); err != nil {
		t.Fatalf("read application_id: %v", err)
	}
	if appID != sqlite.ApplicationID {
		t.Errorf("expected application_id 0x%X, got 0x%X", sqlite.ApplicationID, appID)
	}
}

func TestVerifyApplicationID(t *testing.T) {
	t.Run("accepts new database with appID 0", func(t *testing.T) {
		db := openMemory(t)
		if err := sqlite.VerifyApplicationID(db); err != nil {
			t.Errorf("expected no error for new database, got %v", err)
		}
	})

	t.Run("rejects database with wrong appID", func(t *testing.T) {
		db := openMemory(t)
		if err := sqlite.RunMigrations(db); err != nil {
			t.Fatalf("migrations failed: %v", err)
		}
		if _, err := db.Exec("PRAGMA application_id = 305419896;"); err != nil { // 0x12345678
			t.Fatalf("set application_id: %v", err)
		}

		err := sqlite.VerifyApplicationID(db)
		if !errors.Is(err, sqlite.ErrInvalidDatabase) {
			t.Errorf("expected ErrInvalidDatabase, got %v", err)
		}
	})

	t.Run("rejects database with tables but no appID", func(t *testing.T) {
		db := openMemory(t)
		if _, err := db.Exec("CREATE TABLE other_app (id INTEGER);"); err != nil {
			t.Fatalf("create table: %v", err)
		}

		err := sqlite.VerifyApplicationID(db)
		if !errors.Is(err, sqlite.ErrInvalidDatabase) {
			t.Errorf("expected ErrInvalidDatabase, got %v", err)
		}
		if err := sqlite.RunMigrations(db); err == nil {
			t.Error("expected migrations to refuse a foreign database")
		}
	})
}

func TestOpen(t *testing.T) {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "customers.db"), false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var mode string
	if err := db.Get(&mode, `PRAGMA journal_mode;`); err != nil {
		t.Fatalf("journal mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("expected journal_mode wal, got %q", mode)
	}
}

func TestSchemaListsCustomerTable(t *testing.T) {
	if s := sqlite.Schema(); !strings.Contains(s, "CREATE TABLE IF NOT EXISTS customer") {
		t.Errorf("schema missing customer table:\n%s", s)
	}
}
