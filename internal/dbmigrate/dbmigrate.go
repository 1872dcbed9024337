// Package dbmigrate runs darwin migration sets against any supported database.
package dbmigrate

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/GuiaBolso/darwin"
	log "github.com/sirupsen/logrus"
)

// Set is an ordered list of migrations for one database dialect.
//
// Released steps must never be changed or removed: darwin stores a checksum of
// every applied script. Scripts are minified before checksumming, so comments
// (only after SQL on a line, never spanning lines), case and whitespace may
// be edited freely.
type Set struct {
	Name    string
	Dialect darwin.Dialect
	// TableExists counts darwin's bookkeeping table; it must return 0 or 1.
	TableExists string
	Migrations  []darwin.Migration
}

// Run applies every pending migration of the set.
func (s Set) Run(db *sql.DB) error {
	logger := log.WithFields(log.Fields{"component": "migrate", "db": s.Name})

	count, v1, err := s.currentVersion(db)
	if err != nil {
		return err
	}

	migrations := s.minified()
	if len(migrations) == 0 {
		return nil
	}
	if count == len(migrations) && v1 == migrations[count-1].Version {
		logger.Infof("Database version %.2f is current, no migrations needed", v1)
		return nil
	}

	driver := darwin.NewGenericDriver(db, s.Dialect)
	infoChan := make(chan darwin.MigrationInfo, len(migrations))
	d := darwin.New(driver, migrations, infoChan)

	if err := d.Migrate(); err != nil {
		close(infoChan)
		_, v2, _ := s.currentVersion(db)
		prog := progress(infoChan)
		logger.Errorf("migration (was v%.2f now v%.2f): %v (%s)", v1, v2, err, prog)
		return fmt.Errorf("migration error: %w\n%s", err, prog)
	}
	close(infoChan)

	_, v2, err := s.currentVersion(db)
	if err != nil {
		return err
	}

	logger.Info(changes(v1, v2))
	return nil
}

// Schema returns the migration scripts for display.
func (s Set) Schema() string {
	var b strings.Builder
	for _, m := range s.Migrations {
		_, _ = fmt.Fprintf(&b, "-- %s (%.2f)\n%s\n\n", m.Description, m.Version, strings.TrimSpace(m.Script))
	}
	return b.String()
}

func (s Set) minified() []darwin.Migration {
	out := make([]darwin.Migration, len(s.Migrations))
	copy(out, s.Migrations)
	for i := range out {
		out[i].Script = Minify(out[i].Script)
	}
	return out
}

// currentVersion returns the number of applied steps and the latest version.
func (s Set) currentVersion(db *sql.DB) (int, float64, error) {
	var tables int
	if err := db.QueryRow(s.TableExists).Scan(&tables); err != nil || tables == 0 {
		return 0, 0, err
	}

	var (
		count int
		ver   sql.NullFloat64
	)
	err := db.QueryRow(`SELECT COUNT(*), MAX(version) FROM darwin_migrations`).Scan(&count, &ver)
	return count, ver.Float64, err
}

// Minify lowercases a script and strips comments and redundant whitespace so
// cosmetic edits do not change its checksum.
func Minify(script string) string {
	var b strings.Builder
	s := strings.ToLower(strings.ReplaceAll(script, "/*", "--"))
	for _, line := range strings.Split(s, "\n") {
		if i := strings.Index(line, "--"); i != -1 {
			line = line[:i]
		}
		b.WriteString(strings.TrimSpace(line) + "\n")
	}

	result := strings.TrimSpace(strings.ReplaceAll(b.String(), "\t", " "))
	for strings.Contains(result, "  ") {
		result = strings.ReplaceAll(result, "  ", " ")
	}
	return strings.TrimSpace(result)
}

func changes(v1, v2 float64) string {
	if v1 != v2 {
		return fmt.Sprintf("DB Version: %.2f (migrated from %.2f to %.2f)", v2, v1, v2)
	}
	return fmt.Sprintf("DB Version: %.2f", v1)
}

func progress(ch <-chan darwin.MigrationInfo) string {
	var b strings.Builder
	for info := range ch {
		_, _ = fmt.Fprintf(&b, "v%.2f: %q (%s) Error: %v\n",
			info.Migration.Version, info.Migration.Description, info.Status.String(), info.Error)
	}
	return b.String()
}
