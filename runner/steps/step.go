// Package steps implements the five publish pipeline steps. Each step wraps
// one external collaborator (ffmpeg, the Whisper API, the Anthropic API, the
// YouTube upload API, the feed generator) behind a common interface so the
// runner can sequence, skip, and record them uniformly.
package steps

import (
	"context"

	"podpub/config"
	"podpub/episode"
)

// Canonical step names, in pipeline order
const (
	StepAudio      = "audio"
	StepTranscript = "transcript"
	StepShowNotes  = "show_notes"
	StepYouTube    = "youtube"
	StepRSS        = "rss"
)

// CanonicalOrder is the fixed execution order; later steps assume the
// artifacts of earlier ones
var CanonicalOrder = []string{StepAudio, StepTranscript, StepShowNotes, StepYouTube, StepRSS}

// State is the readiness of a step for one episode
type State int

const (
	// Ready means required inputs exist and the output does not
	Ready State = iota
	// AlreadyDone means the step's artifact exists; the step is skipped unless forced
	AlreadyDone
	// MissingInput means a required input artifact is absent
	MissingInput
	// Gated means the episode's publish targets exclude this step
	Gated
)

// Readiness describes whether a step can run for an episode right now
type Readiness struct {
	State   State
	Missing string // artifact missing, when State is MissingInput
	Reason  string // human-readable skip reason, when State is AlreadyDone or Gated
}

func ready() Readiness { return Readiness{State: Ready} }

func alreadyDone(reason string) Readiness {
	return Readiness{State: AlreadyDone, Reason: reason}
}

func missingInput(artifact string) Readiness {
	return Readiness{State: MissingInput, Missing: artifact}
}

func gated(reason string) Readiness {
	return Readiness{State: Gated, Reason: reason}
}

// Step is one pipeline step bound to its tool configuration
type Step interface {
	// Name returns the canonical step name
	Name() string
	// Readiness checks inputs and outputs on disk without side effects
	Readiness(ep *episode.Episode) Readiness
	// Validate fails fast on configuration problems (missing credentials,
	// missing podcast config) before any external call is made
	Validate(ep *episode.Episode) error
	// Run invokes the external collaborator and returns a detail string
	// (artifact path or remote URL) for the step record
	Run(ctx context.Context, ep *episode.Episode) (string, error)
}

// Pipeline returns the five steps in canonical order for a workspace
func Pipeline(root string, tools *config.Tools) []Step {
	return []Step{
		NewAudioStep(tools.Audio),
		NewTranscriptStep(tools.Transcript),
		NewShowNotesStep(tools.Notes),
		NewYouTubeStep(tools.Upload),
		NewRSSStep(root),
	}
}

// truncateRunes shortens s to at most n runes. Slicing by byte index can
// split a multi-byte rune and produce invalid UTF-8, and the APIs that
// consume truncated text count characters, not bytes.
func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
