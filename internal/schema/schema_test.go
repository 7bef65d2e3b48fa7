package schema

import (
	"strings"
	"testing"
)

// validAnalysis returns a minimal AnalysisResult that passes validation.
func validAnalysis() AnalysisResult {
	criteria := make([]CriterionResult, 0, len(PenaltyOrder))
	for _, name := range PenaltyOrder {
		criteria = append(criteria, CriterionResult{
			Name:       name,
			Score:      80,
			Weight:     CanonicalWeights[name],
			Assessment: "fine",
		})
	}
	return AnalysisResult{
		Language:     "Go",
		OverallScore: 80,
		Criteria:     criteria,
	}
}

func TestValidateAnalysis_Valid(t *testing.T) {
	a := validAnalysis()
	if errs := ValidateAnalysis(&a); len(errs) != 0 {
		t.Errorf("expected no validation errors, got %v", errs)
	}
}

func TestValidateAnalysis_Nil(t *testing.T) {
	if errs := ValidateAnalysis(nil); len(errs) == 0 {
		t.Error("expected validation error for nil result")
	}
}

func TestValidateAnalysis_NoCriteria(t *testing.T) {
	a := AnalysisResult{OverallScore: 50}
	errs := ValidateAnalysis(&a)
	if len(errs) == 0 {
		t.Fatal("expected validation errors for empty criteria")
	}
	if errs[0].Field != "criteria_breakdown" {
		t.Errorf("expected criteria_breakdown error, got %q", errs[0].Field)
	}
}

func TestValidateAnalysis_UnknownCriterion(t *testing.T) {
	a := validAnalysis()
	a.Criteria[0].Name = "made_up_criterion"
	errs := ValidateAnalysis(&a)
	found := false
	for _, e := range errs {
		if strings.Contains(e.Message, "unknown criterion") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected unknown-criterion error, got %v", errs)
	}
}

func TestValidateAnalysis_DuplicateCriterion(t *testing.T) {
	a := validAnalysis()
	a.Criteria[1].Name = a.Criteria[0].Name
	// Keep the weight sum at 1.0 so only the duplicate is reported.
	errs := ValidateAnalysis(&a)
	found := false
	for _, e := range errs {
		if strings.Contains(e.Message, "more than once") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected duplicate-criterion error, got %v", errs)
	}
}

func TestValidateAnalysis_WeightSum(t *testing.T) {
	a := validAnalysis()
	a.Criteria[0].Weight = 0.5 // pushes the sum to 1.25
	errs := ValidateAnalysis(&a)
	found := false
	for _, e := range errs {
		if strings.Contains(e.Message, "weights sum") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected weight-sum error, got %v", errs)
	}
}

func TestValidateAnalysis_ScoreRanges(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*AnalysisResult)
		wantSub string
	}{
		{
			name:    "criterion score too high",
			mutate:  func(a *AnalysisResult) { a.Criteria[0].Score = 101 },
			wantSub: "outside [0,100]",
		},
		{
			name:    "criterion score negative",
			mutate:  func(a *AnalysisResult) { a.Criteria[0].Score = -1 },
			wantSub: "outside [0,100]",
		},
		{
			name:    "overall score too high",
			mutate:  func(a *AnalysisResult) { a.OverallScore = 150 },
			wantSub: "outside [0,100]",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a := validAnalysis()
			c.mutate(&a)
			errs := ValidateAnalysis(&a)
			found := false
			for _, e := range errs {
				if strings.Contains(e.Message, c.wantSub) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error containing %q, got %v", c.wantSub, errs)
			}
		})
	}
}

func TestValidateAnalysis_Citations(t *testing.T) {
	cases := []struct {
		name      string
		citations []Citation
		wantErrs  int
	}{
		{
			name:      "contiguous",
			citations: []Citation{{Number: 1, URL: "https://a"}, {Number: 2, URL: "https://b"}},
			wantErrs:  0,
		},
		{
			name:      "duplicate number",
			citations: []Citation{{Number: 1, URL: "https://a"}, {Number: 1, URL: "https://b"}},
			wantErrs:  1,
		},
		{
			name:      "zero based",
			citations: []Citation{{Number: 0, URL: "https://a"}},
			wantErrs:  1,
		},
		{
			name:      "gap",
			citations: []Citation{{Number: 1, URL: "https://a"}, {Number: 3, URL: "https://b"}},
			wantErrs:  1,
		},
		{
			name:      "missing url",
			citations: []Citation{{Number: 1}},
			wantErrs:  1,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a := validAnalysis()
			a.Citations = c.citations
			errs := ValidateAnalysis(&a)
			if len(errs) != c.wantErrs {
				t.Errorf("got %d errors (%v), want %d", len(errs), errs, c.wantErrs)
			}
		})
	}
}

func TestValidateVerification(t *testing.T) {
	cases := []struct {
		name     string
		v        *VerificationResult
		wantErrs int
	}{
		{"valid", &VerificationResult{Score: 7, Reasoning: "checked"}, 0},
		{"nil", nil, 1},
		{"score low", &VerificationResult{Score: 0, Reasoning: "x"}, 1},
		{"score high", &VerificationResult{Score: 11, Reasoning: "x"}, 1},
		{"no reasoning", &VerificationResult{Score: 5}, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if errs := ValidateVerification(c.v); len(errs) != c.wantErrs {
				t.Errorf("got %d errors (%v), want %d", len(errs), errs, c.wantErrs)
			}
		})
	}
}

func TestCanonicalWeightsSumToOne(t *testing.T) {
	var sum float64
	for _, w := range CanonicalWeights {
		sum += w
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("canonical weights sum to %g, want 1.0", sum)
	}
}

func TestPenaltyOrderCoversAllCriteria(t *testing.T) {
	if len(PenaltyOrder) != len(CanonicalWeights) {
		t.Fatalf("penalty order has %d entries, weights have %d", len(PenaltyOrder), len(CanonicalWeights))
	}
	for _, name := range PenaltyOrder {
		if !ValidName(name) {
			t.Errorf("penalty order contains invalid name %q", name)
		}
		if _, ok := CanonicalWeights[name]; !ok {
			t.Errorf("no canonical weight for %q", name)
		}
	}
}
