// Package verify composes the verification pipeline: an adversarial
// re-review of a completed analysis followed by schema-enforced structuring
// of the verdict.
package verify

import (
	"context"

	"github.com/dshills/codehealth/internal/schema"
)

// StageClient is the subset of stage calls the verification pipeline
// depends on.
type StageClient interface {
	VerifyAnalysis(ctx context.Context, code string, analysis *schema.AnalysisResult) (string, error)
	StructureVerification(ctx context.Context, freeText string) (*schema.VerificationResult, error)
}

// Pipeline runs independent verification passes. Stateless between calls.
type Pipeline struct {
	stages StageClient
}

// New constructs a verification pipeline.
func New(stages StageClient) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run fact-checks an analysis against the original code and returns the
// structured verdict. The verifier receives both the code and the full
// analysis; its raw output carries the score first, per the stage contract.
func (p *Pipeline) Run(ctx context.Context, code string, analysis *schema.AnalysisResult) (*schema.VerificationResult, error) {
	freeText, err := p.stages.VerifyAnalysis(ctx, code, analysis)
	if err != nil {
		return nil, err
	}
	return p.stages.StructureVerification(ctx, freeText)
}
