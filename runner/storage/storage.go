package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Storage handles database operations for publish runs and step records
type Storage struct {
	db *sql.DB
}

// NewStorage creates a new storage instance
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	storage := &Storage{db: db}
	if err := storage.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// initSchema creates the database tables
func (s *Storage) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS publish_runs (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			finished_at DATETIME,
			duration TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS step_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			slug TEXT NOT NULL,
			step TEXT NOT NULL,
			outcome TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			FOREIGN KEY(run_id) REFERENCES publish_runs(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_publish_runs_slug ON publish_runs(slug)`,
		`CREATE INDEX IF NOT EXISTS idx_publish_runs_started_at ON publish_runs(started_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_step_records_run_id ON step_records(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_step_records_slug_step ON step_records(slug, step, id)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}
