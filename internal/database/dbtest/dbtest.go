// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"kecarajocomer/internal/database"

	"go.uber.org/zap"
)

// New returns a migrated SQLite database in a temp dir, closed on cleanup.
func New(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
