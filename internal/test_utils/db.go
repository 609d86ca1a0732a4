package test_utils

import (
	"database/sql"
	"testing"

	"github.com/monargent/monargent/internal/database"
)

// SetupTestDB creates an isolated in-memory SQLite database with all
// migrations applied. It is closed when the test finishes.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}
	return db
}
