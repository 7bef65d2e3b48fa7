package analyze

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dshills/codehealth/internal/fault"
	"github.com/dshills/codehealth/internal/product"
	"github.com/dshills/codehealth/internal/schema"
	"github.com/dshills/codehealth/internal/stage"
)

// fakeStages records inputs and returns canned results.
type fakeStages struct {
	lastInput    stage.AnalysisInput
	freeText     string
	analyzeErr   error
	structured   *schema.AnalysisResult
	structureErr error
}

func (f *fakeStages) AnalyzeFreeForm(_ context.Context, in stage.AnalysisInput) (string, error) {
	f.lastInput = in
	if f.analyzeErr != nil {
		return "", f.analyzeErr
	}
	return f.freeText, nil
}

func (f *fakeStages) StructureAnalysis(_ context.Context, _ string) (*schema.AnalysisResult, error) {
	if f.structureErr != nil {
		return nil, f.structureErr
	}
	return f.structured, nil
}

type fakeCategorizer struct {
	cat       product.Category
	gotURI    string
	gotTags   []string
	callCount int
}

func (f *fakeCategorizer) Categorize(_ context.Context, _, sourceURI string, regionTags []string) product.Category {
	f.gotURI = sourceURI
	f.gotTags = regionTags
	f.callCount++
	return f.cat
}

func minimalResult() *schema.AnalysisResult {
	criteria := make([]schema.CriterionResult, 0, len(schema.PenaltyOrder))
	for _, name := range schema.PenaltyOrder {
		criteria = append(criteria, schema.CriterionResult{
			Name:       name,
			Score:      80,
			Weight:     schema.CanonicalWeights[name],
			Assessment: "fine",
		})
	}
	return &schema.AnalysisResult{
		Language:     "Rust", // deliberately wrong; the pipeline must overwrite it
		ProductName:  "hallucinated",
		OverallScore: 80,
		Criteria:     criteria,
	}
}

func TestRun_EmptyCode(t *testing.T) {
	p := New(&fakeStages{}, &fakeCategorizer{})
	_, _, err := p.Run(context.Background(), Request{})
	var in *fault.InputError
	if !errors.As(err, &in) {
		t.Fatalf("expected InputError for empty code, got %v", err)
	}
}

func TestRun_MetadataOverridesModelEcho(t *testing.T) {
	stages := &fakeStages{freeText: "review", structured: minimalResult()}
	cat := &fakeCategorizer{cat: product.Category{Name: "Cloud Storage", Category: "Storage"}}
	p := New(stages, cat)

	code := "# [START storage_upload_file]\nimport os\n# [END storage_upload_file]\n"
	result, _, err := p.Run(context.Background(), Request{Code: code, SourceURI: "sample.py"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Language != "Python" {
		t.Errorf("language = %q, want detected Python over the model's echo", result.Language)
	}
	if result.ProductName != "Cloud Storage" || result.ProductCategory != "Storage" {
		t.Errorf("product = %q/%q, want categorizer's result", result.ProductName, result.ProductCategory)
	}
	if len(result.RegionTags) != 1 || result.RegionTags[0] != "storage_upload_file" {
		t.Errorf("region tags = %v, want [storage_upload_file]", result.RegionTags)
	}
}

func TestRun_LanguageHintWins(t *testing.T) {
	stages := &fakeStages{freeText: "review", structured: minimalResult()}
	p := New(stages, &fakeCategorizer{cat: product.Other})

	result, _, err := p.Run(context.Background(), Request{
		Code:         "import os",
		SourceURI:    "sample.py",
		LanguageHint: "Terraform",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Language != "Terraform" {
		t.Errorf("language = %q, want hint Terraform", result.Language)
	}
	if stages.lastInput.Language != "Terraform" {
		t.Errorf("analyzer saw language %q, want hint Terraform", stages.lastInput.Language)
	}
}

func TestRun_AnalyzerReceivesCleanedAndOriginal(t *testing.T) {
	stages := &fakeStages{freeText: "review", structured: minimalResult()}
	p := New(stages, &fakeCategorizer{cat: product.Other})

	code := "# explains everything\nimport os"
	_, _, err := p.Run(context.Background(), Request{Code: code, SourceURI: "sample.py"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stages.lastInput.OriginalCode != code {
		t.Errorf("original code altered: %q", stages.lastInput.OriginalCode)
	}
	if strings.Contains(stages.lastInput.CleanedCode, "explains everything") {
		t.Errorf("cleaned code still has comment text: %q", stages.lastInput.CleanedCode)
	}
	if !strings.Contains(stages.lastInput.CleanedCode, "import os") {
		t.Errorf("cleaned code lost real code: %q", stages.lastInput.CleanedCode)
	}
}

func TestRun_FeedbackPassedThrough(t *testing.T) {
	stages := &fakeStages{freeText: "review", structured: minimalResult()}
	p := New(stages, &fakeCategorizer{cat: product.Other})

	_, _, err := p.Run(context.Background(), Request{
		Code:          "import os",
		PriorFeedback: "claim 2 was wrong",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stages.lastInput.PriorFeedback != "claim 2 was wrong" {
		t.Errorf("feedback = %q, want passthrough", stages.lastInput.PriorFeedback)
	}
}

func TestRun_CategorizerReceivesRegionTags(t *testing.T) {
	stages := &fakeStages{freeText: "review", structured: minimalResult()}
	cat := &fakeCategorizer{cat: product.Other}
	p := New(stages, cat)

	code := "// [START vision_quickstart]\nclient.annotate()\n// [END vision_quickstart]\n"
	_, _, err := p.Run(context.Background(), Request{Code: code, SourceURI: "https://example.com/x.go"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if cat.callCount != 1 {
		t.Fatalf("categorizer called %d times, want 1", cat.callCount)
	}
	if len(cat.gotTags) != 1 || cat.gotTags[0] != "vision_quickstart" {
		t.Errorf("categorizer tags = %v, want [vision_quickstart]", cat.gotTags)
	}
}

func TestRun_StageErrorsPropagate(t *testing.T) {
	upstream := &fault.UpstreamUnavailable{Stage: "analyze_free_form", Err: errors.New("boom")}
	stages := &fakeStages{analyzeErr: upstream}
	p := New(stages, &fakeCategorizer{cat: product.Other})

	_, _, err := p.Run(context.Background(), Request{Code: "x"})
	var up *fault.UpstreamUnavailable
	if !errors.As(err, &up) {
		t.Fatalf("expected UpstreamUnavailable, got %v", err)
	}

	violation := &fault.SchemaViolation{Stage: "structure_analysis"}
	stages = &fakeStages{freeText: "review", structureErr: violation}
	p = New(stages, &fakeCategorizer{cat: product.Other})

	_, _, err = p.Run(context.Background(), Request{Code: "x"})
	var sv *fault.SchemaViolation
	if !errors.As(err, &sv) {
		t.Fatalf("expected SchemaViolation, got %v", err)
	}
}

func TestRun_PostprocessReconcilesScore(t *testing.T) {
	// Reported overall disagrees with the weighted recomputation by more
	// than the tolerance; the pipeline must correct it and warn.
	structured := minimalResult()
	structured.OverallScore = 10
	stages := &fakeStages{freeText: "review", structured: structured}
	p := New(stages, &fakeCategorizer{cat: product.Other})

	result, warnings, err := p.Run(context.Background(), Request{Code: "x"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.OverallScore != 80 {
		t.Errorf("overall score = %d, want recomputed 80", result.OverallScore)
	}
	if len(warnings) == 0 {
		t.Error("expected a consistency warning for the corrected score")
	}
}
