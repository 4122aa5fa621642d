package runner

import (
	"encoding/json"
	"time"
)

// Outcome of one attempted step within a publish run
const (
	OutcomeSkipped   = "skipped"
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// PipelineResult represents the result of one publish invocation
type PipelineResult struct {
	RunID    string        `json:"run_id"`
	Slug     string        `json:"slug"`
	Status   string        `json:"status"` // "success" or "failed"
	Steps    []StepResult  `json:"steps"`
	Duration time.Duration `json:"duration"`
	Error    error         `json:"-"`
}

// StepResult represents the outcome of a single attempted step
type StepResult struct {
	Name     string        `json:"name"`
	Outcome  string        `json:"outcome"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"duration"`
	Error    error         `json:"-"`
}

// MarshalJSON emits the duration in its human-readable string form, the
// same representation runs persist
func (r PipelineResult) MarshalJSON() ([]byte, error) {
	type alias PipelineResult
	return json.Marshal(struct {
		alias
		Duration string `json:"duration"`
	}{alias(r), r.Duration.String()})
}

// MarshalJSON emits the duration in its human-readable string form
func (s StepResult) MarshalJSON() ([]byte, error) {
	type alias StepResult
	return json.Marshal(struct {
		alias
		Duration string `json:"duration"`
	}{alias(s), s.Duration.String()})
}

// Options configures a publish invocation
type Options struct {
	// Steps is an optional subset of step names; empty means all five.
	// Execution always follows canonical pipeline order regardless of the
	// order given here.
	Steps []string
	// Force re-executes steps whose artifacts already exist
	Force bool
	// StreamToTerminal prints step progress for CLI use
	StreamToTerminal bool
}

// FullySuccessful reports whether every attempted step ended succeeded
// or skipped
func (r *PipelineResult) FullySuccessful() bool {
	for _, s := range r.Steps {
		if s.Outcome == OutcomeFailed {
			return false
		}
	}
	return r.Status == "success"
}
