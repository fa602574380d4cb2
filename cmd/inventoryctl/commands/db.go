package commands

import (
	"fmt"
	"io"

	"github.com/benvon/sneaker-inventory/internal/config"
	"github.com/benvon/sneaker-inventory/internal/database"
)

// withDatabase opens a short-lived connection for a single command
func withDatabase(errOut io.Writer, fn func(db *database.DB) error) error {
	url, err := config.DatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(url, database.PoolOptions{MaxOpenConns: 2, MaxIdleConns: 1})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(errOut, "Warning: failed to close database: %v\n", err)
		}
	}()

	return fn(db)
}
