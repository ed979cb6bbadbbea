package commands

import (
	"fmt"

	"github.com/branchline/todotree/internal/config"
	"github.com/branchline/todotree/internal/database"
)

// openDB loads the process configuration and connects to the database.
// The caller owns the returned handle.
func openDB() (*database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}
