// Package stage implements the remote stage clients of the evaluation
// pipelines: free-form analysis, analysis structuring, adversarial
// verification, and verification structuring. Every generative call is
// treated as returning an opaque string; structured results only exist on
// the far side of schema validation.
package stage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dshills/codehealth/internal/fault"
	"github.com/dshills/codehealth/internal/llm"
	"github.com/dshills/codehealth/internal/schema"
	"github.com/dshills/codehealth/internal/score"
)

// Stage names used in error reporting.
const (
	StageAnalyze           = "analyze_free_form"
	StageStructureAnalysis = "structure_analysis"
	StageVerify            = "verify_analysis"
	StageStructureVerify   = "structure_verification"
)

// structureAttempts bounds local structuring retries: one initial call plus
// one repair call carrying the validation errors.
const structureAttempts = 2

// Options configures the stage clients.
type Options struct {
	Provider string
	// AnalysisModel is used for the free-form analysis and verification
	// stages; StructureModel is a lighter model used for structuring.
	AnalysisModel  string
	StructureModel string
	MaxTokens      int
	Temperature    float64
	// CallTimeout bounds every individual stage call. Zero disables the bound.
	CallTimeout time.Duration
	Debug       bool
}

// Clients is the concrete stage-client set backed by an llm.Provider pair.
type Clients struct {
	analysis  llm.Provider
	structure llm.Provider
	opts      Options
}

// NewClients constructs the stage clients via the llm.NewProvider factory.
func NewClients(opts Options) (*Clients, error) {
	analysis, err := llm.NewProvider(opts.Provider, opts.AnalysisModel)
	if err != nil {
		return nil, fmt.Errorf("stage: create analysis provider: %w", err)
	}
	structure, err := llm.NewProvider(opts.Provider, opts.StructureModel)
	if err != nil {
		return nil, fmt.Errorf("stage: create structure provider: %w", err)
	}
	return &Clients{analysis: analysis, structure: structure, opts: opts}, nil
}

// complete performs one bounded provider call and classifies failures as
// UpstreamUnavailable. Context cancellation from the caller is passed
// through unwrapped so the controller can distinguish an abort from a
// stage failure.
func (c *Clients) complete(ctx context.Context, provider llm.Provider, stage, sysPrompt, userPrompt string) (string, error) {
	if c.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.CallTimeout)
		defer cancel()
	}

	if c.opts.Debug {
		fmt.Fprintf(os.Stderr, "=== DEBUG %s: system prompt ===\n%s\n", stage, sysPrompt)
		fmt.Fprintf(os.Stderr, "=== DEBUG %s: user prompt ===\n%s\n", stage, userPrompt)
	}

	raw, err := provider.Complete(ctx, sysPrompt, userPrompt, c.opts.MaxTokens, c.opts.Temperature)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", &fault.UpstreamUnavailable{Stage: stage, Err: err}
	}
	return raw, nil
}

// AnalysisInput carries everything the free-form analyzer needs.
type AnalysisInput struct {
	CleanedCode  string
	OriginalCode string
	Language     string
	ProductName  string
	RegionTags   []string
	// PriorFeedback, when non-empty, is a previous verifier's reasoning. It is
	// embedded with an explicit instruction to reconcile and correct the prior
	// mistakes; this is the injection point that makes refinement possible.
	PriorFeedback string
}

// AnalyzeFreeForm runs the free-form analysis stage and returns the raw
// review text.
func (c *Clients) AnalyzeFreeForm(ctx context.Context, in AnalysisInput) (string, error) {
	sys := buildAnalysisSystemPrompt(in.Language)
	user := buildAnalysisUserPrompt(in)
	return c.complete(ctx, c.analysis, StageAnalyze, sys, user)
}

// StructureAnalysis converts raw review text into a validated AnalysisResult.
// Structuring is attempted up to structureAttempts times; repair calls carry
// the previous invalid output and its validation errors. A result that never
// validates fails with SchemaViolation.
func (c *Clients) StructureAnalysis(ctx context.Context, freeText string) (*schema.AnalysisResult, error) {
	sys := structureAnalysisSystemPrompt
	user := buildStructureUserPrompt(freeText)

	var lastRaw string
	var lastErrs []schema.ValidationError
	for attempt := 0; attempt < structureAttempts; attempt++ {
		if attempt > 0 {
			user = buildRepairPrompt(buildStructureUserPrompt(freeText), lastRaw, lastErrs)
		}
		raw, err := c.complete(ctx, c.structure, StageStructureAnalysis, sys, user)
		if err != nil {
			return nil, err
		}
		lastRaw = raw

		var result schema.AnalysisResult
		if err := llm.DecodeJSON(raw, &result); err != nil {
			lastErrs = []schema.ValidationError{{Field: "json_parse", Message: err.Error()}}
			continue
		}
		if errs := schema.ValidateAnalysis(&result); len(errs) > 0 {
			lastErrs = errs
			continue
		}
		return &result, nil
	}

	return nil, &fault.SchemaViolation{
		Stage:  StageStructureAnalysis,
		Raw:    lastRaw,
		Errors: lastErrs,
	}
}

// VerifyAnalysis runs the adversarial verification stage. The verifier is
// given both the original code and the full structured analysis, and is
// instructed to independently re-derive and fact-check every API-usage
// claim. Returns the raw review text; the contract requires the score to
// appear first in the output.
func (c *Clients) VerifyAnalysis(ctx context.Context, code string, analysis *schema.AnalysisResult) (string, error) {
	user, err := buildVerifyUserPrompt(code, analysis)
	if err != nil {
		return "", err
	}
	return c.complete(ctx, c.analysis, StageVerify, verifySystemPrompt, user)
}

// StructureVerification converts raw verifier text into a validated
// VerificationResult. A present but out-of-range score is clamped into
// [1,10]; a missing score or unparseable output fails with SchemaViolation
// after the bounded repair.
func (c *Clients) StructureVerification(ctx context.Context, freeText string) (*schema.VerificationResult, error) {
	sys := structureVerificationSystemPrompt
	user := buildStructureVerificationUserPrompt(freeText)

	var lastRaw string
	var lastErrs []schema.ValidationError
	for attempt := 0; attempt < structureAttempts; attempt++ {
		if attempt > 0 {
			user = buildRepairPrompt(buildStructureVerificationUserPrompt(freeText), lastRaw, lastErrs)
		}
		raw, err := c.complete(ctx, c.structure, StageStructureVerify, sys, user)
		if err != nil {
			return nil, err
		}
		lastRaw = raw

		var result verificationPayload
		if err := llm.DecodeJSON(raw, &result); err != nil {
			lastErrs = []schema.ValidationError{{Field: "json_parse", Message: err.Error()}}
			continue
		}
		if result.Score == nil {
			lastErrs = []schema.ValidationError{{
				Field:   "validation_score",
				Message: "validation_score is missing",
			}}
			continue
		}
		v := schema.VerificationResult{Score: *result.Score, Reasoning: result.Reasoning}
		if v.Reasoning == "" {
			lastErrs = []schema.ValidationError{{
				Field:   "reasoning",
				Message: "reasoning is required",
			}}
			continue
		}
		v.Score = score.ClampVerification(v.Score)
		return &v, nil
	}

	return nil, &fault.SchemaViolation{
		Stage:  StageStructureVerify,
		Raw:    lastRaw,
		Errors: lastErrs,
	}
}

// verificationPayload distinguishes a missing score from a zero score; the
// canonical VerificationResult cannot, since 0 is outside its range.
type verificationPayload struct {
	Score     *int   `json:"validation_score"`
	Reasoning string `json:"reasoning"`
}
