// Package refine drives the iterative evaluation-and-validation control
// loop. An analysis pass is submitted to independent verification; when the
// verification score is insufficient, the analysis is re-run with the
// verifier's reasoning injected as corrective feedback, bounded by a maximum
// attempt count. The loop is an explicit state machine so that termination
// and history are inspectable rather than implicit in recursion depth.
package refine

import (
	"context"
	"fmt"

	"github.com/dshills/codehealth/internal/analyze"
	"github.com/dshills/codehealth/internal/fault"
	"github.com/dshills/codehealth/internal/schema"
)

// Defaults for the refinement loop.
const (
	DefaultMaxIterations       = 3
	DefaultAcceptanceThreshold = 7
)

// state is the controller's position in the refinement state machine.
type state int

const (
	stateRunning state = iota
	stateAccepted
	stateExhausted
	stateFailed
)

// AnalysisRunner is the analysis pipeline contract the controller depends on.
type AnalysisRunner interface {
	Run(ctx context.Context, req analyze.Request) (*schema.AnalysisResult, []fault.ConsistencyWarning, error)
}

// VerificationRunner is the verification pipeline contract.
type VerificationRunner interface {
	Run(ctx context.Context, code string, analysis *schema.AnalysisResult) (*schema.VerificationResult, error)
}

// Config bounds the refinement loop.
type Config struct {
	// MaxIterations caps the number of analysis+verification cycles.
	MaxIterations int
	// AcceptanceThreshold is the verification score the analysis must exceed
	// (strictly) to be accepted.
	AcceptanceThreshold int
}

// withDefaults fills unset config fields.
func (c Config) withDefaults() Config {
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.AcceptanceThreshold <= 0 {
		c.AcceptanceThreshold = DefaultAcceptanceThreshold
	}
	return c
}

// Request is one inbound evaluation.
type Request struct {
	Code         string
	SourceURI    string
	LanguageHint string
}

// Result is the outcome of a refinement session: the surfaced analysis, the
// full attempt history, and how the session terminated. On FAILED the
// history holds whatever attempts completed before the failure and
// FinalAnalysis may be nil.
type Result struct {
	FinalAnalysis *schema.AnalysisResult     `json:"final_analysis"`
	History       []schema.RefinementAttempt `json:"history"`
	Termination   schema.TerminationReason   `json:"termination_reason"`
	Warnings      []fault.ConsistencyWarning `json:"warnings,omitempty"`
}

// VerificationHistory projects the attempt history to verification results
// only, in iteration order.
func (r *Result) VerificationHistory() []schema.VerificationResult {
	out := make([]schema.VerificationResult, len(r.History))
	for i, a := range r.History {
		out[i] = a.Verification
	}
	return out
}

// session is the ephemeral per-request loop state. Created at request start,
// mutated only by the controller appending attempts, discarded with the
// response.
type session struct {
	attempts  []schema.RefinementAttempt
	warnings  []fault.ConsistencyWarning
	maxIter   int
	threshold int
}

// append records a completed attempt. Attempts are read-only once appended.
func (s *session) append(analysis *schema.AnalysisResult, verification *schema.VerificationResult, iteration int) {
	s.attempts = append(s.attempts, schema.RefinementAttempt{
		Analysis:     *analysis,
		Verification: *verification,
		Iteration:    iteration,
	})
}

// best returns the attempt with the highest verification score. Ties go to
// the earliest iteration: the earlier attempt was cheaper and is preferred.
func (s *session) best() *schema.RefinementAttempt {
	if len(s.attempts) == 0 {
		return nil
	}
	bestIdx := 0
	for i := 1; i < len(s.attempts); i++ {
		if s.attempts[i].Verification.Score > s.attempts[bestIdx].Verification.Score {
			bestIdx = i
		}
	}
	return &s.attempts[bestIdx]
}

// Controller runs refinement sessions. Safe for concurrent use: all mutable
// state lives in the per-request session.
type Controller struct {
	analysis     AnalysisRunner
	verification VerificationRunner
	cfg          Config
}

// New constructs a Controller.
func New(analysis AnalysisRunner, verification VerificationRunner, cfg Config) *Controller {
	return &Controller{
		analysis:     analysis,
		verification: verification,
		cfg:          cfg.withDefaults(),
	}
}

// ValidateOnly runs a single standalone verification pass over an existing
// analysis without entering the refinement loop.
func (c *Controller) ValidateOnly(ctx context.Context, code string, analysis *schema.AnalysisResult) (*schema.VerificationResult, error) {
	if code == "" {
		return nil, &fault.InputError{Reason: "code is empty"}
	}
	if analysis == nil {
		return nil, &fault.InputError{Reason: "analysis is required"}
	}
	return c.verification.Run(ctx, code, analysis)
}

// Evaluate runs the full refinement loop for one request.
//
// On ACCEPTED or EXHAUSTED the returned error is nil and Result carries the
// surfaced analysis plus the full history. On a fatal pipeline error the
// returned Result is still non-nil with Termination FAILED and the partial
// history, so the caller can distinguish "never started" from "failed
// partway through refinement"; the error carries the cause.
func (c *Controller) Evaluate(ctx context.Context, req Request) (*Result, error) {
	if req.Code == "" {
		return nil, &fault.InputError{Reason: "code is empty"}
	}

	sess := &session{maxIter: c.cfg.MaxIterations, threshold: c.cfg.AcceptanceThreshold}

	st := stateRunning
	var finalAttempt *schema.RefinementAttempt
	var failure error

	for iteration := 0; st == stateRunning; iteration++ {
		feedback := ""
		if n := len(sess.attempts); n > 0 {
			feedback = sess.attempts[n-1].Verification.Reasoning
		}

		analysis, warnings, err := c.analysis.Run(ctx, analyze.Request{
			Code:          req.Code,
			SourceURI:     req.SourceURI,
			LanguageHint:  req.LanguageHint,
			PriorFeedback: feedback,
		})
		if err != nil {
			st = stateFailed
			failure = fmt.Errorf("refine: iteration %d: analysis: %w", iteration, err)
			break
		}
		sess.warnings = append(sess.warnings, warnings...)

		verification, err := c.verification.Run(ctx, req.Code, analysis)
		if err != nil {
			st = stateFailed
			failure = fmt.Errorf("refine: iteration %d: verification: %w", iteration, err)
			break
		}

		sess.append(analysis, verification, iteration)

		switch {
		case verification.Score > sess.threshold:
			st = stateAccepted
			finalAttempt = &sess.attempts[len(sess.attempts)-1]
		case iteration+1 >= sess.maxIter:
			st = stateExhausted
			finalAttempt = sess.best()
		}
	}

	result := &Result{
		History:  sess.attempts,
		Warnings: sess.warnings,
	}

	switch st {
	case stateAccepted:
		result.Termination = schema.TerminationAccepted
		result.FinalAnalysis = &finalAttempt.Analysis
		return result, nil
	case stateExhausted:
		result.Termination = schema.TerminationExhausted
		result.FinalAnalysis = &finalAttempt.Analysis
		return result, nil
	default:
		result.Termination = schema.TerminationFailed
		return result, failure
	}
}
