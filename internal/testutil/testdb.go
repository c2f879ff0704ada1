// Package testutil provides shared test fixtures: in-memory databases,
// throwaway vaults, and fake collaborators.
package testutil

import (
	"database/sql"
	"testing"

	"github.com/jagoff/obsidian-para/internal/db"
)

// NewTestDB creates an in-memory SQLite database with all migrations
// applied. Closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}
