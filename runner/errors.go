package runner

import "fmt"

// ConfigError reports a problem detected before any step executes:
// an unrecognized step name, missing metadata, or a missing credential
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Reason
}

// CollaboratorError reports a failed external tool or API call, carrying
// the step name and the underlying cause
type CollaboratorError struct {
	Step string
	Err  error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("step '%s' failed: %v", e.Step, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// StateError reports a step whose required input artifact is absent,
// typically because the caller skipped the step that produces it
type StateError struct {
	Step    string
	Missing string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("step '%s' is missing required input %s (run the earlier steps first)", e.Step, e.Missing)
}
