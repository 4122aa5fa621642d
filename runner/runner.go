// Package runner sequences the publish pipeline for one episode: audio
// extraction, transcription, show notes, video upload, and feed
// regeneration, in that order, halting on the first failure. Every attempt
// appends step records to the status store; steps whose artifacts already
// exist are skipped unless forced, which makes re-running publish safe.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"podpub/config"
	"podpub/episode"
	"podpub/events"
	"podpub/runner/steps"
	"podpub/runner/storage"
)

// Runner executes publish pipelines against a workspace
type Runner struct {
	root   string
	store  *storage.Storage
	events *events.Broker
	steps  []steps.Step
	locks  *slugLocks
}

// New creates a runner with the standard five-step pipeline
func New(root string, store *storage.Storage, broker *events.Broker, tools *config.Tools) *Runner {
	return NewWithSteps(root, store, broker, steps.Pipeline(root, tools))
}

// NewWithSteps creates a runner with an explicit step list (used by tests)
func NewWithSteps(root string, store *storage.Storage, broker *events.Broker, stepList []steps.Step) *Runner {
	return &Runner{
		root:   root,
		store:  store,
		events: broker,
		steps:  stepList,
		locks:  newSlugLocks(),
	}
}

// Publish runs the requested steps for an episode in canonical order.
// Concurrent publishes for the same slug are serialized; different slugs
// run independently.
func (r *Runner) Publish(ctx context.Context, ep *episode.Episode, opts Options) (*PipelineResult, error) {
	startTime := time.Now()

	selected, err := r.selectSteps(opts.Steps)
	if err != nil {
		return nil, err
	}

	unlock, err := r.locks.lockEpisode(ep.Slug, ep.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to lock episode %s: %w", ep.Slug, err)
	}
	defer unlock()

	// Fail fast on missing credentials or podcast config before any
	// record is written or external call made
	for _, step := range selected {
		rd := step.Readiness(ep)
		if rd.State == steps.Gated {
			continue
		}
		if rd.State == steps.AlreadyDone && !opts.Force {
			continue
		}
		if err := step.Validate(ep); err != nil {
			return nil, &ConfigError{Reason: err.Error()}
		}
	}

	runID := uuid.NewString()
	if _, err := r.store.CreateRun(runID, ep.Slug); err != nil {
		return nil, err
	}

	result := &PipelineResult{
		RunID:  runID,
		Slug:   ep.Slug,
		Status: "running",
		Steps:  make([]StepResult, 0, len(selected)),
	}

	r.events.Broadcast("run_started", map[string]interface{}{
		"run_id": runID,
		"slug":   ep.Slug,
	})

	for _, step := range selected {
		stepResult, err := r.executeStep(ctx, step, ep, runID, opts)
		result.Steps = append(result.Steps, stepResult)

		if err != nil {
			result.Status = "failed"
			result.Duration = time.Since(startTime)
			result.Error = err

			_ = r.store.UpdateRunStatus(runID, "failed", result.Duration)
			r.events.Broadcast("run_finished", map[string]interface{}{
				"run_id": runID,
				"slug":   ep.Slug,
				"status": "failed",
			})

			return result, err
		}
	}

	result.Status = "success"
	result.Duration = time.Since(startTime)

	if err := r.store.UpdateRunStatus(runID, "success", result.Duration); err != nil {
		return nil, fmt.Errorf("failed to update run status: %w", err)
	}

	r.events.Broadcast("run_finished", map[string]interface{}{
		"run_id": runID,
		"slug":   ep.Slug,
		"status": "success",
	})

	if opts.StreamToTerminal {
		fmt.Println("\n🏁 All steps finished successfully.")
	}

	return result, nil
}

// selectSteps resolves a requested subset into steps in canonical order.
// Unrecognized names are rejected before anything executes.
func (r *Runner) selectSteps(requested []string) ([]steps.Step, error) {
	if len(requested) == 0 {
		return r.steps, nil
	}

	known := make(map[string]bool, len(r.steps))
	for _, step := range r.steps {
		known[step.Name()] = true
	}

	want := make(map[string]bool, len(requested))
	for _, name := range requested {
		if !known[name] {
			return nil, &ConfigError{Reason: fmt.Sprintf("unknown step '%s' (valid steps: %v)", name, steps.CanonicalOrder)}
		}
		want[name] = true
	}

	// Pipeline order wins over the order the caller listed the steps
	selected := make([]steps.Step, 0, len(want))
	for _, step := range r.steps {
		if want[step.Name()] {
			selected = append(selected, step)
		}
	}
	return selected, nil
}
