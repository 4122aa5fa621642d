package runner

import (
	"context"
	"fmt"
	"time"

	"podpub/episode"
	"podpub/runner/steps"
	"podpub/runner/storage"
)

// executeStep runs one step for an episode and appends its records.
// A skipped step appends a single lightweight record; an executed step
// appends "started" and then "succeeded" or "failed".
func (r *Runner) executeStep(ctx context.Context, step steps.Step, ep *episode.Episode, runID string, opts Options) (StepResult, error) {
	stepStart := time.Now()
	name := step.Name()

	rd := step.Readiness(ep)

	if rd.State == steps.Gated || (rd.State == steps.AlreadyDone && !opts.Force) {
		if opts.StreamToTerminal {
			fmt.Printf("↷ %s (%s)\n", name, rd.Reason)
		}
		if _, err := r.store.AppendRecord(runID, ep.Slug, name, storage.OutcomeSkipped, rd.Reason); err != nil {
			return StepResult{}, err
		}
		r.broadcastStep(runID, ep.Slug, name, OutcomeSkipped, rd.Reason)
		return StepResult{Name: name, Outcome: OutcomeSkipped, Detail: rd.Reason}, nil
	}

	if rd.State == steps.MissingInput {
		stateErr := &StateError{Step: name, Missing: rd.Missing}
		if opts.StreamToTerminal {
			fmt.Println("❌ Step failed:", stateErr)
		}
		if _, err := r.store.AppendRecord(runID, ep.Slug, name, storage.OutcomeFailed, stateErr.Error()); err != nil {
			return StepResult{}, err
		}
		r.broadcastStep(runID, ep.Slug, name, OutcomeFailed, stateErr.Error())
		return StepResult{Name: name, Outcome: OutcomeFailed, Detail: stateErr.Error(), Error: stateErr}, stateErr
	}

	if opts.StreamToTerminal {
		fmt.Println("→", name)
	}

	if _, err := r.store.AppendRecord(runID, ep.Slug, name, storage.OutcomeStarted, ""); err != nil {
		return StepResult{}, err
	}
	r.broadcastStep(runID, ep.Slug, name, "started", "")

	detail, err := step.Run(ctx, ep)
	stepDuration := time.Since(stepStart)

	if err != nil {
		collabErr := &CollaboratorError{Step: name, Err: err}

		if opts.StreamToTerminal {
			fmt.Println("❌ Step failed:", err)
		}

		if _, recErr := r.store.AppendRecord(runID, ep.Slug, name, storage.OutcomeFailed, err.Error()); recErr != nil {
			return StepResult{}, recErr
		}
		r.broadcastStep(runID, ep.Slug, name, OutcomeFailed, err.Error())

		return StepResult{
			Name:     name,
			Outcome:  OutcomeFailed,
			Detail:   err.Error(),
			Duration: stepDuration,
			Error:    collabErr,
		}, collabErr
	}

	if opts.StreamToTerminal {
		fmt.Println("✅ Done:", name)
	}

	if _, err := r.store.AppendRecord(runID, ep.Slug, name, storage.OutcomeSucceeded, detail); err != nil {
		return StepResult{}, err
	}
	r.broadcastStep(runID, ep.Slug, name, OutcomeSucceeded, detail)

	return StepResult{
		Name:     name,
		Outcome:  OutcomeSucceeded,
		Detail:   detail,
		Duration: stepDuration,
	}, nil
}

func (r *Runner) broadcastStep(runID, slug, step, outcome, detail string) {
	r.events.Broadcast("step_update", map[string]interface{}{
		"run_id":  runID,
		"slug":    slug,
		"step":    step,
		"outcome": outcome,
		"detail":  detail,
	})
}
