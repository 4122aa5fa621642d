package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// CreateRun creates a new run record for an episode publish invocation
func (s *Storage) CreateRun(id, slug string) (*Run, error) {
	now := time.Now()
	_, err := s.db.Exec(
		"INSERT INTO publish_runs (id, slug, status, started_at) VALUES (?, ?, ?, ?)",
		id, slug, "running", now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return &Run{
		ID:        id,
		Slug:      slug,
		Status:    "running",
		StartedAt: now,
	}, nil
}

// UpdateRunStatus updates the status and finish time of a run
func (s *Storage) UpdateRunStatus(runID, status string, duration time.Duration) error {
	now := time.Now()
	durationStr := duration.String()
	_, err := s.db.Exec(
		"UPDATE publish_runs SET status = ?, finished_at = ?, duration = ? WHERE id = ?",
		status, now, durationStr, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}
	return nil
}

// RecentRuns retrieves the most recent runs across all episodes
func (s *Storage) RecentRuns(limit int) ([]*Run, error) {
	rows, err := s.db.Query(
		"SELECT id, slug, status, started_at, finished_at, duration FROM publish_runs ORDER BY started_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// GetRun retrieves a single run by ID
func (s *Storage) GetRun(runID string) (*Run, error) {
	var r Run
	var finishedAt sql.NullTime
	var duration sql.NullString

	err := s.db.QueryRow(
		"SELECT id, slug, status, started_at, finished_at, duration FROM publish_runs WHERE id = ?",
		runID,
	).Scan(&r.ID, &r.Slug, &r.Status, &r.StartedAt, &finishedAt, &duration)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if finishedAt.Valid {
		r.FinishedAt = &finishedAt.Time
	}
	if duration.Valid {
		durationStr := duration.String
		r.Duration = &durationStr
	}

	return &r, nil
}

func scanRun(rows *sql.Rows) (*Run, error) {
	var r Run
	var finishedAt sql.NullTime
	var duration sql.NullString

	err := rows.Scan(&r.ID, &r.Slug, &r.Status, &r.StartedAt, &finishedAt, &duration)
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if finishedAt.Valid {
		r.FinishedAt = &finishedAt.Time
	}
	if duration.Valid {
		durationStr := duration.String
		r.Duration = &durationStr
	}

	return &r, nil
}
