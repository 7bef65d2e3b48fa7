// Package analyze composes the analysis pipeline: concurrent metadata
// detection and product categorization, deterministic comment stripping,
// free-form LLM analysis with optional corrective feedback, schema-enforced
// structuring, and post-processing consolidation.
package analyze

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/codehealth/internal/clean"
	"github.com/dshills/codehealth/internal/detect"
	"github.com/dshills/codehealth/internal/fault"
	"github.com/dshills/codehealth/internal/postprocess"
	"github.com/dshills/codehealth/internal/product"
	"github.com/dshills/codehealth/internal/schema"
	"github.com/dshills/codehealth/internal/stage"
)

// StageClient is the subset of stage calls the analysis pipeline depends on.
type StageClient interface {
	AnalyzeFreeForm(ctx context.Context, in stage.AnalysisInput) (string, error)
	StructureAnalysis(ctx context.Context, freeText string) (*schema.AnalysisResult, error)
}

// Categorizer resolves the product for a sample. Categorization never fails;
// misses resolve to product.Other.
type Categorizer interface {
	Categorize(ctx context.Context, code, sourceURI string, regionTags []string) product.Category
}

// Request is one analysis invocation.
type Request struct {
	Code      string
	SourceURI string
	// LanguageHint, when non-empty, overrides language detection entirely.
	LanguageHint string
	// PriorFeedback is the previous verifier's reasoning; empty on the first
	// refinement iteration.
	PriorFeedback string
}

// Pipeline runs a single analysis pass. It holds no per-request state; the
// value being evaluated is threaded through Run.
type Pipeline struct {
	stages      StageClient
	categorizer Categorizer
}

// New constructs an analysis pipeline.
func New(stages StageClient, categorizer Categorizer) *Pipeline {
	return &Pipeline{stages: stages, categorizer: categorizer}
}

// Run executes the full pipeline for one request. Warnings from
// post-processing are returned alongside the result; they never fail the
// run. Errors are UpstreamUnavailable or SchemaViolation from the stage
// clients, or context errors on cancellation.
func (p *Pipeline) Run(ctx context.Context, req Request) (*schema.AnalysisResult, []fault.ConsistencyWarning, error) {
	if req.Code == "" {
		return nil, nil, &fault.InputError{Reason: "code is empty"}
	}

	// Metadata detection and product categorization are independent; run
	// them concurrently and join before cleaning.
	var meta detect.Metadata
	var cat product.Category

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		meta = detect.Detect(req.Code, req.SourceURI)
		if req.LanguageHint != "" {
			meta.Language = req.LanguageHint
		}
		return nil
	})
	g.Go(func() error {
		cat = p.categorizer.Categorize(gctx, req.Code, req.SourceURI, detect.RegionTags(req.Code))
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("analyze: initial detection: %w", err)
	}

	cleaned := clean.StripComments(req.Code, meta.Language)

	freeText, err := p.stages.AnalyzeFreeForm(ctx, stage.AnalysisInput{
		CleanedCode:   cleaned,
		OriginalCode:  req.Code,
		Language:      meta.Language,
		ProductName:   cat.Name,
		RegionTags:    meta.RegionTags,
		PriorFeedback: req.PriorFeedback,
	})
	if err != nil {
		return nil, nil, err
	}

	result, err := p.stages.StructureAnalysis(ctx, freeText)
	if err != nil {
		return nil, nil, err
	}

	// Deterministic metadata is authoritative; the model's echo of it is not.
	result.Language = meta.Language
	result.ProductName = cat.Name
	result.ProductCategory = cat.Category
	result.RegionTags = meta.RegionTags

	warnings := postprocess.Apply(result)
	return result, warnings, nil
}
