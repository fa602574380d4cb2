// Package dbtest provides throwaway sqlite-backed databases for tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/benvon/sneaker-inventory/internal/database"
	"gorm.io/driver/sqlite"
)

// New returns an in-memory database with the full schema and foreign keys
// enforced. Each test gets its own database, closed on cleanup.
func New(t testing.TB) *database.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", sanitizeName(t.Name()))
	db, err := database.Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// a single connection keeps the in-memory database alive and serializes writers
	db.SQL().SetMaxOpenConns(1)

	if err := db.AutoMigrate(); err != nil {
		_ = db.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
