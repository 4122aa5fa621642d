package storage

import "time"

// Outcome values for a step record. Records are append-only: a step appends
// "started" before invoking its collaborator, then "succeeded" or "failed";
// a cached step appends a single "skipped" record. The latest record per
// (slug, step) pair is the step's displayed status.
const (
	OutcomeStarted   = "started"
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// Run represents one publish invocation for an episode
type Run struct {
	ID         string     `json:"id"`
	Slug       string     `json:"slug"`
	Status     string     `json:"status"` // "running", "success", "failed"
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Duration   *string    `json:"duration,omitempty"`
}

// StepRecord represents one appended outcome for a (episode, step) pair
type StepRecord struct {
	ID        int       `json:"id"`
	RunID     string    `json:"run_id"`
	Slug      string    `json:"slug"`
	Step      string    `json:"step"`
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
