// Package testing provides testing utilities and helpers for the allocation service.
package testing

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"testing"

	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/database"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/pkg/embedded"
	_ "github.com/mattn/go-sqlite3"
)

// NewTestDB creates a file-backed SQLite database for testing with automatic schema migration.
// Returns the database instance and a cleanup function that closes the connection.
// The cleanup function is idempotent and can be called multiple times safely.
//
// Supported schema names:
//   - "allocation" - applies allocation_schema.sql
//   - Unknown names - creates empty database (no schema applied)
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	// Temporary files keep every test isolated
	tmpFile, err := os.CreateTemp("", fmt.Sprintf("test_%s_*.db", name))
	if err != nil {
		t.Fatalf("Failed to create temporary database file: %v", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	db, err := database.New(database.Config{
		Path:    tmpPath,
		Profile: database.ProfileScratch,
		Name:    name,
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	closed := false
	return db, func() {
		if closed {
			return
		}
		closed = true
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
		for _, suffix := range []string{"", "-wal", "-shm"} {
			_ = os.Remove(tmpPath + suffix)
		}
	}
}

// NewMemoryDB opens an in-memory go-sqlite3 connection with the allocation
// schema applied. The pool is pinned to one connection because every new
// ":memory:" connection would otherwise see its own empty database.
func NewMemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)

	schema, err := LoadTestSchema("allocation_schema.sql")
	if err != nil {
		_ = db.Close()
		t.Fatalf("Failed to load schema: %v", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to apply schema: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

// LoadTestSchema returns the contents of an embedded schema file.
func LoadTestSchema(schemaName string) (string, error) {
	content, err := fs.ReadFile(embedded.Schemas, "schemas/"+schemaName)
	if err != nil {
		return "", fmt.Errorf("failed to read schema file %s: %w", schemaName, err)
	}
	return string(content), nil
}

// GetRawConnection returns the raw *sql.DB connection from a database.DB instance.
func GetRawConnection(db *database.DB) *sql.DB {
	return db.Conn()
}
