// Package schema defines all canonical data types for the codehealth output
// format and the field-level validation applied to LLM-structured output
// before it crosses into the rest of the system.
package schema

import "fmt"

// CriterionName identifies one fixed dimension of code-quality evaluation.
type CriterionName string

const (
	CriterionRunnability      CriterionName = "runnability_and_configuration"
	CriterionAPIEffectiveness CriterionName = "api_effectiveness_and_correctness"
	CriterionComments         CriterionName = "comments_and_code_clarity"
	CriterionFormatting       CriterionName = "formatting_and_consistency"
	CriterionBestPractices    CriterionName = "language_best_practices"
	CriterionLLMFitness       CriterionName = "llm_training_fitness_and_explicitness"
)

// PenaltyOrder lists all criteria in single-penalty precedence order. When the
// same recommendation appears under two criteria, the occurrence under the
// earlier criterion in this list is the one that survives post-processing.
var PenaltyOrder = []CriterionName{
	CriterionRunnability,
	CriterionAPIEffectiveness,
	CriterionBestPractices,
	CriterionFormatting,
	CriterionComments,
	CriterionLLMFitness,
}

// CanonicalWeights is the weight assigned to each criterion in the overall
// compliance score. Weights sum to 1.0. The analyzer is shown these weights;
// post-processing recomputes the overall score from the per-criterion weights
// when the model's own arithmetic disagrees.
var CanonicalWeights = map[CriterionName]float64{
	CriterionRunnability:      0.25,
	CriterionAPIEffectiveness: 0.25,
	CriterionBestPractices:    0.15,
	CriterionComments:         0.15,
	CriterionFormatting:       0.10,
	CriterionLLMFitness:       0.10,
}

// TerminationReason records how a refinement session ended.
type TerminationReason string

const (
	TerminationAccepted  TerminationReason = "ACCEPTED"
	TerminationExhausted TerminationReason = "EXHAUSTED"
	TerminationFailed    TerminationReason = "FAILED"
)

// CriterionResult is the evaluation of a single criterion.
type CriterionResult struct {
	Name              CriterionName `json:"criterion_name"`
	Score             int           `json:"score"`
	Weight            float64       `json:"weight"`
	Assessment        string        `json:"assessment"`
	Recommendations   []string      `json:"recommendations_for_llm_fix"`
	ProblemCategories []string      `json:"generic_problem_categories"`
}

// Citation is a numbered reference to source material used by the analyzer.
type Citation struct {
	Number int    `json:"citation_number"`
	URL    string `json:"url"`
}

// AnalysisResult is one completed evaluation attempt.
type AnalysisResult struct {
	Language          string            `json:"language"`
	ProductName       string            `json:"product_name"`
	ProductCategory   string            `json:"product_category"`
	RegionTags        []string          `json:"region_tags"`
	OverallScore      int               `json:"overall_compliance_score"`
	Criteria          []CriterionResult `json:"criteria_breakdown"`
	FixSummary        []string          `json:"llm_fix_summary_for_code_generation"`
	ProblemCategories []string          `json:"identified_generic_problem_categories"`
	Citations         []Citation        `json:"citations"`
}

// VerificationResult is the outcome of one adversarial re-check of an
// analysis. Immutable once created; sessions only append, never mutate.
type VerificationResult struct {
	Score     int    `json:"validation_score"`
	Reasoning string `json:"reasoning"`
}

// RefinementAttempt pairs an analysis with its verification for one loop
// iteration. Owned by the session that produced it; read-only once appended.
type RefinementAttempt struct {
	Analysis     AnalysisResult     `json:"analysis"`
	Verification VerificationResult `json:"verification"`
	Iteration    int                `json:"iteration"`
}

// ValidationError records a single validation failure on a structured result.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// validNames is the closed criterion-name set.
var validNames = map[CriterionName]bool{
	CriterionRunnability:      true,
	CriterionAPIEffectiveness: true,
	CriterionComments:         true,
	CriterionFormatting:       true,
	CriterionBestPractices:    true,
	CriterionLLMFitness:       true,
}

// ValidName reports whether name belongs to the closed criterion set.
func ValidName(name CriterionName) bool {
	return validNames[name]
}

// weightSumTolerance is the allowed deviation of the weight sum from 1.0.
const weightSumTolerance = 0.01

// ValidateAnalysis checks a candidate AnalysisResult against the schema.
// It returns the full list of violations; an empty slice means the result is
// acceptable. Fields derived by post-processing (fix summary, problem
// categories, overall score reconciliation) are not checked here.
func ValidateAnalysis(r *AnalysisResult) []ValidationError {
	var errs []ValidationError
	if r == nil {
		return []ValidationError{{Field: "analysis", Message: "result is nil"}}
	}

	if len(r.Criteria) == 0 {
		errs = append(errs, ValidationError{
			Field:   "criteria_breakdown",
			Message: "at least one criterion is required",
		})
	}

	seen := make(map[CriterionName]bool, len(r.Criteria))
	var weightSum float64
	for i, c := range r.Criteria {
		field := fmt.Sprintf("criteria_breakdown[%d]", i)
		if !ValidName(c.Name) {
			errs = append(errs, ValidationError{
				Field:   field + ".criterion_name",
				Message: fmt.Sprintf("unknown criterion %q", c.Name),
			})
		} else if seen[c.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".criterion_name",
				Message: fmt.Sprintf("criterion %q appears more than once", c.Name),
			})
		}
		seen[c.Name] = true

		if c.Score < 0 || c.Score > 100 {
			errs = append(errs, ValidationError{
				Field:   field + ".score",
				Message: fmt.Sprintf("score %d outside [0,100]", c.Score),
			})
		}
		if c.Weight <= 0 || c.Weight > 1 {
			errs = append(errs, ValidationError{
				Field:   field + ".weight",
				Message: fmt.Sprintf("weight %g outside (0,1]", c.Weight),
			})
		}
		weightSum += c.Weight
	}

	if len(r.Criteria) > 0 {
		if diff := weightSum - 1.0; diff > weightSumTolerance || diff < -weightSumTolerance {
			errs = append(errs, ValidationError{
				Field:   "criteria_breakdown",
				Message: fmt.Sprintf("weights sum to %g, want 1.0", weightSum),
			})
		}
	}

	if r.OverallScore < 0 || r.OverallScore > 100 {
		errs = append(errs, ValidationError{
			Field:   "overall_compliance_score",
			Message: fmt.Sprintf("score %d outside [0,100]", r.OverallScore),
		})
	}

	errs = append(errs, validateCitations(r.Citations)...)
	return errs
}

// validateCitations checks that citation numbers are unique, 1-based, and
// contiguous.
func validateCitations(citations []Citation) []ValidationError {
	var errs []ValidationError
	seen := make(map[int]bool, len(citations))
	for i, c := range citations {
		field := fmt.Sprintf("citations[%d]", i)
		if c.Number < 1 || c.Number > len(citations) {
			errs = append(errs, ValidationError{
				Field:   field + ".citation_number",
				Message: fmt.Sprintf("number %d outside 1..%d", c.Number, len(citations)),
			})
			continue
		}
		if seen[c.Number] {
			errs = append(errs, ValidationError{
				Field:   field + ".citation_number",
				Message: fmt.Sprintf("number %d is duplicated", c.Number),
			})
		}
		seen[c.Number] = true
		if c.URL == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".url",
				Message: "url is required",
			})
		}
	}
	return errs
}

// ValidateVerification checks a candidate VerificationResult. A score outside
// [1,10] is a violation; the caller decides whether to clamp or fail.
func ValidateVerification(v *VerificationResult) []ValidationError {
	var errs []ValidationError
	if v == nil {
		return []ValidationError{{Field: "verification", Message: "result is nil"}}
	}
	if v.Score < 1 || v.Score > 10 {
		errs = append(errs, ValidationError{
			Field:   "validation_score",
			Message: fmt.Sprintf("score %d outside [1,10]", v.Score),
		})
	}
	if v.Reasoning == "" {
		errs = append(errs, ValidationError{
			Field:   "reasoning",
			Message: "reasoning is required",
		})
	}
	return errs
}
