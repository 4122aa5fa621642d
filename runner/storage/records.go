package storage

import (
	"fmt"
	"time"
)

// AppendRecord appends a step record. Records are never updated or deleted.
func (s *Storage) AppendRecord(runID, slug, step, outcome, detail string) (*StepRecord, error) {
	now := time.Now()
	result, err := s.db.Exec(
		"INSERT INTO step_records (run_id, slug, step, outcome, detail, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		runID, slug, step, outcome, detail, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append step record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get step record ID: %w", err)
	}

	return &StepRecord{
		ID:        int(id),
		RunID:     runID,
		Slug:      slug,
		Step:      step,
		Outcome:   outcome,
		Detail:    detail,
		CreatedAt: now,
	}, nil
}

// RecordsForRun retrieves all step records for a run, oldest first
func (s *Storage) RecordsForRun(runID string) ([]*StepRecord, error) {
	rows, err := s.db.Query(
		"SELECT id, run_id, slug, step, outcome, detail, created_at FROM step_records WHERE run_id = ? ORDER BY id ASC",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query step records: %w", err)
	}
	defer rows.Close()

	var records []*StepRecord
	for rows.Next() {
		var rec StepRecord
		err := rows.Scan(&rec.ID, &rec.RunID, &rec.Slug, &rec.Step, &rec.Outcome, &rec.Detail, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step record: %w", err)
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// LatestOutcomes returns the most recent record per step for an episode.
// Insertion order breaks timestamp ties, so the highest record ID wins.
func (s *Storage) LatestOutcomes(slug string) (map[string]*StepRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, slug, step, outcome, detail, created_at
		 FROM step_records
		 WHERE slug = ?
		 ORDER BY id ASC`,
		slug,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query step records: %w", err)
	}
	defer rows.Close()

	latest := make(map[string]*StepRecord)
	for rows.Next() {
		var rec StepRecord
		err := rows.Scan(&rec.ID, &rec.RunID, &rec.Slug, &rec.Step, &rec.Outcome, &rec.Detail, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step record: %w", err)
		}
		latest[rec.Step] = &rec
	}

	return latest, rows.Err()
}

// CountRecords returns the number of step records for an episode,
// optionally filtered to one outcome ("" counts all)
func (s *Storage) CountRecords(slug, outcome string) (int, error) {
	var count int
	var err error
	if outcome == "" {
		err = s.db.QueryRow("SELECT COUNT(*) FROM step_records WHERE slug = ?", slug).Scan(&count)
	} else {
		err = s.db.QueryRow("SELECT COUNT(*) FROM step_records WHERE slug = ? AND outcome = ?", slug, outcome).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count step records: %w", err)
	}
	return count, nil
}
