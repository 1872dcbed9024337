// Package backup writes gzip-compressed SQL dumps of the SQLite database.
// A dump replays into an empty file with the sqlite3 shell:
//
//	gunzip -c 2025-01-02_15.04.05_custdump.sql.gz | sqlite3 restored.db
package backup

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

type Service struct {
	db     *sqlx.DB
	dbPath string
	now    func() time.Time
}

func NewService(db *sqlx.DB, dbPath string) *Service {
	return &Service{
		db:     db,
		dbPath: dbPath,
		now:    time.Now,
	}
}

// Result describes a completed backup
type Result struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
}

// CreateBackup snapshots the database and writes the dump to a timestamped
// file in a "backups" directory next to the database file.
func (s *Service) CreateBackup(ctx context.Context) (*Result, error) {
	backupDir := filepath.Join(filepath.Dir(s.dbPath), "backups")
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}

	// VACUUM INTO gives a consistent copy without holding a read
	// transaction on the live database while the dump is written
	snapshot := filepath.Join(backupDir, ".snapshot.db")
	os.Remove(snapshot)
	defer os.Remove(snapshot)
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, snapshot); err != nil {
		return nil, fmt.Errorf("snapshot database: %w", err)
	}

	snapDB, err := sqlx.Open("sqlite3", "file:"+snapshot+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer snapDB.Close()

	filename := s.now().Format("2006-01-02_15.04.05") + "_custdump.sql.gz"
	path := filepath.Join(backupDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create backup file: %w", err)
	}
	if err := Write(ctx, snapDB, f); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close backup file: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat backup file: %w", err)
	}

	log.WithFields(log.Fields{"path": path, "size": info.Size()}).Info("Backup written")
	return &Result{Filename: filename, Path: path, Size: info.Size()}, nil
}

// Write streams a gzip-compressed SQL dump of db to w.
func Write(ctx context.Context, db *sqlx.DB, w io.Writer) error {
	gz := gzip.NewWriter(w)
	bw := bufio.NewWriter(gz)

	if err := dump(ctx, db, bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write dump: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("close gzip writer: %w", err)
	}
	return nil
}

func dump(ctx context.Context, db *sqlx.DB, w *bufio.Writer) error {
	var appID int64
	if err := db.GetContext(ctx, &appID, `PRAGMA application_id`); err != nil {
		return fmt.Errorf("read application_id: %w", err)
	}

	fmt.Fprintf(w, "-- Custserver Database Backup\n")
	fmt.Fprintf(w, "-- Generated: %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "PRAGMA application_id=%d;\n", appID)
	fmt.Fprintf(w, "BEGIN TRANSACTION;\n\n")

	var schemas []schemaObject
	if err := db.SelectContext(ctx, &schemas, schemaSQL); err != nil {
		return fmt.Errorf("query schemas: %w", err)
	}
	for _, obj := range schemas {
		fmt.Fprintf(w, "%s;\n", obj.SQL)
	}
	w.WriteString("\n")

	for _, obj := range schemas {
		if obj.Type != "table" {
			continue
		}
		if err := writeInserts(ctx, db, w, obj.Name); err != nil {
			return fmt.Errorf("dump %s: %w", obj.Name, err)
		}
	}

	// AUTOINCREMENT counters, so ids of deleted customers are not reused
	// after a restore
	if err := writeSequences(ctx, db, w); err != nil {
		return err
	}

	fmt.Fprintf(w, "COMMIT;\n")
	fmt.Fprintf(w, "PRAGMA journal_mode=WAL;\n")
	return nil
}

const schemaSQL = `
	SELECT type, name, sql
	FROM sqlite_master
	WHERE sql IS NOT NULL
	  AND name NOT LIKE 'sqlite_%'
	ORDER BY
		CASE type
			WHEN 'table' THEN 1
			WHEN 'index' THEN 2
			WHEN 'trigger' THEN 3
			WHEN 'view' THEN 4
		END,
		name
`

type schemaObject struct {
	Type string `db:"type"`
	Name string `db:"name"`
	SQL  string `db:"sql"`
}

func writeInserts(ctx context.Context, db *sqlx.DB, w *bufio.Writer, table string) error {
	rows, err := db.QueryxContext(ctx, fmt.Sprintf("SELECT * FROM %q", table))
	if err != nil {
		return fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = fmt.Sprintf("%q", col)
	}
	prefix := fmt.Sprintf("INSERT INTO %q (%s) VALUES (", table, strings.Join(quoted, ", "))

	for rows.Next() {
		row, err := rows.SliceScan()
		if err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		values := make([]string, len(row))
		for i, v := range row {
			values[i] = formatValue(v)
		}
		fmt.Fprintf(w, "%s%s);\n", prefix, strings.Join(values, ", "))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate rows: %w", err)
	}
	w.WriteString("\n")
	return nil
}

func writeSequences(ctx context.Context, db *sqlx.DB, w *bufio.Writer) error {
	var exists int
	if err := db.GetContext(ctx, &exists, `SELECT COUNT(*) FROM sqlite_master WHERE name = 'sqlite_sequence'`); err != nil {
		return fmt.Errorf("query sqlite_sequence: %w", err)
	}
	if exists == 0 {
		return nil
	}

	var seqs []struct {
		Name string `db:"name"`
		Seq  int64  `db:"seq"`
	}
	if err := db.SelectContext(ctx, &seqs, `SELECT name, seq FROM sqlite_sequence ORDER BY name`); err != nil {
		return fmt.Errorf("query sqlite_sequence: %w", err)
	}

	w.WriteString("DELETE FROM sqlite_sequence;\n")
	for _, s := range seqs {
		fmt.Fprintf(w, "INSERT INTO sqlite_sequence (name, seq) VALUES (%s, %d);\n", quoteString(s.Name), s.Seq)
	}
	w.WriteString("\n")
	return nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case int64:
		return fmt.Sprintf("%d", val)
	case float64:
		return fmt.Sprintf("%v", val)
	case bool:
		if val {
			return "1"
		}
		return "0"
	case string:
		return quoteString(val)
	case []byte:
		if utf8.Valid(val) {
			return quoteString(string(val))
		}
		return "X'" + hex.EncodeToString(val) + "'"
	case time.Time:
		return quoteString(val.Format(time.RFC3339Nano))
	default:
		return quoteString(fmt.Sprint(val))
	}
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
