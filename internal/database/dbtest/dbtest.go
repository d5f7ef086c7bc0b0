// Package dbtest opens throwaway SQLite databases with the application
// schema applied, for tests that exercise real SQL.
package dbtest

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/mayuuuu918/nagoyameshi/internal/database"
)

// Open returns a migrated SQLite database stored in the test's temp dir.
// The handle is closed when the test finishes.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(db, "sqlite"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
