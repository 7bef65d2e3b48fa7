// Package fault defines the error taxonomy shared by the pipelines and the
// refinement controller. Every fatal error surfaced to the caller is one of
// the three types here; anything else is a programming error.
package fault

import (
	"errors"
	"fmt"

	"github.com/dshills/codehealth/internal/schema"
)

// InputError reports malformed or missing input. It fails fast before any
// pipeline work begins and is never retried.
type InputError struct {
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("input: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("input: %s", e.Reason)
}

func (e *InputError) Unwrap() error { return e.Err }

// UpstreamUnavailable reports a stage call that could not be completed
// (network failure, timeout, rate limit). The pipeline does not retry;
// retry policy, if any, lives inside the stage client.
type UpstreamUnavailable struct {
	Stage string
	Err   error
}

func (e *UpstreamUnavailable) Error() string {
	return fmt.Sprintf("upstream unavailable: %s: %v", e.Stage, e.Err)
}

func (e *UpstreamUnavailable) Unwrap() error { return e.Err }

// SchemaViolation reports stage output that never validated against the
// required structure after the bounded local repair attempts.
type SchemaViolation struct {
	Stage  string
	Raw    string // last raw model output, for diagnostics
	Errors []schema.ValidationError
}

func (e *SchemaViolation) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("schema violation: %s: output did not parse", e.Stage)
	}
	return fmt.Sprintf("schema violation: %s: %d validation errors (first: %s)",
		e.Stage, len(e.Errors), e.Errors[0].Error())
}

// ConsistencyWarning is a non-fatal correction applied by post-processing:
// a recomputed score overrode the model-reported one, or a duplicate
// recommendation was collapsed. Warnings are recorded and surfaced, never
// returned as errors.
type ConsistencyWarning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (w ConsistencyWarning) String() string {
	return fmt.Sprintf("consistency: %s: %s", w.Field, w.Message)
}

// IsFatal reports whether err belongs to the fatal part of the taxonomy.
func IsFatal(err error) bool {
	var in *InputError
	var up *UpstreamUnavailable
	var sv *SchemaViolation
	return errors.As(err, &in) || errors.As(err, &up) || errors.As(err, &sv)
}
