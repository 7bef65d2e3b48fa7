package stage

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/codehealth/internal/profile"
	"github.com/dshills/codehealth/internal/schema"
)

// buildAnalysisSystemPrompt assembles the free-form analyzer's system prompt.
func buildAnalysisSystemPrompt(language string) string {
	var sb strings.Builder

	sb.WriteString("You are a senior code-sample reviewer evaluating documentation-quality " +
		"code samples for publication.\n\n")

	sb.WriteString("Evaluate the sample against exactly these six criteria, with these weights:\n")
	for _, name := range schema.PenaltyOrder {
		fmt.Fprintf(&sb, "  - %s (weight %.2f)\n", name, schema.CanonicalWeights[name])
	}
	sb.WriteString("\n")

	sb.WriteString("For every criterion give a score from 0 to 100, a detailed assessment, " +
		"concrete recommendations an LLM could apply to fix each issue, and a generic " +
		"problem category per issue.\n\n")

	sb.WriteString("The CLEANED CODE (comments removed) is the only input for functional and " +
		"API-correctness judgments. The ORIGINAL CODE is provided solely for the " +
		"comments_and_code_clarity criterion.\n\n")

	sb.WriteString("Penalize each underlying defect once, under the single most relevant " +
		"criterion. Cite sources for every API-usage claim where possible.\n\n")

	prof := profile.Load(language)
	sb.WriteString(prof.SystemPromptAddendum)
	sb.WriteString("\n")

	return sb.String()
}

// buildAnalysisUserPrompt assembles the free-form analyzer's user prompt.
func buildAnalysisUserPrompt(in AnalysisInput) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Language: %s\n", in.Language)
	if in.ProductName != "" {
		fmt.Fprintf(&sb, "Product: %s\n", in.ProductName)
	}
	if len(in.RegionTags) > 0 {
		fmt.Fprintf(&sb, "Region tags: %s\n", strings.Join(in.RegionTags, ", "))
	}

	if in.PriorFeedback != "" {
		sb.WriteString("\nA previous version of your analysis was reviewed and scored " +
			"insufficient. The reviewer's reasoning follows. Reconcile your analysis " +
			"with this feedback and correct the mistakes it identifies:\n")
		sb.WriteString(in.PriorFeedback)
		sb.WriteString("\n")
	}

	sb.WriteString("\nCLEANED CODE:\n")
	sb.WriteString(in.CleanedCode)
	sb.WriteString("\n\nORIGINAL CODE (for the comments_and_code_clarity criterion only):\n")
	sb.WriteString(in.OriginalCode)
	sb.WriteString("\n\nProduce the detailed review now.")

	return sb.String()
}

// structureAnalysisSystemPrompt instructs the lighter structuring model.
const structureAnalysisSystemPrompt = `You convert a free-text code review into JSON.

Output ONLY valid JSON conforming to the schema below. No prose, no markdown, no explanation outside the JSON.

Every criterion mentioned in the review must appear exactly once in criteria_breakdown, using only these criterion_name values:
  runnability_and_configuration, api_effectiveness_and_correctness, comments_and_code_clarity, formatting_and_consistency, language_best_practices, llm_training_fitness_and_explicitness

Criterion weights must sum to 1.0. Citation numbers must be unique, start at 1, and be contiguous.

Output schema (JSON only):
{
  "language": "Go",
  "product_name": "...",
  "product_category": "...",
  "region_tags": ["..."],
  "overall_compliance_score": 0,
  "criteria_breakdown": [
    {
      "criterion_name": "runnability_and_configuration",
      "score": 0,
      "weight": 0.25,
      "assessment": "...",
      "recommendations_for_llm_fix": ["..."],
      "generic_problem_categories": ["..."]
    }
  ],
  "llm_fix_summary_for_code_generation": ["..."],
  "identified_generic_problem_categories": ["..."],
  "citations": [{"citation_number": 1, "url": "..."}]
}
`

// buildStructureUserPrompt wraps the free text for the structuring model.
func buildStructureUserPrompt(freeText string) string {
	var sb strings.Builder
	sb.WriteString("Review text:\n")
	sb.WriteString(freeText)
	sb.WriteString("\n\nProduce the JSON now.")
	return sb.String()
}

// verifySystemPrompt instructs the adversarial verifier.
const verifySystemPrompt = `You are an adversarial reviewer fact-checking a completed code analysis. You are not a rubber stamp.

Independently re-derive every API-usage claim in the analysis from the code: method names, parameters, response handling, and error handling. Confirm or refute each claim. Check that criterion scores are justified by the evidence cited.

Start your response with the line "SCORE: <n>" where <n> is an integer from 1 to 10 rating the quality and correctness of the analysis (10 = fully correct and well supported). Follow with detailed reasoning for the score, highlighting every discrepancy or confirmation found.`

// buildVerifyUserPrompt assembles the verifier's user prompt. The verifier
// always receives both the original code and the full structured analysis.
func buildVerifyUserPrompt(code string, analysis *schema.AnalysisResult) (string, error) {
	encoded, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return "", fmt.Errorf("stage: marshal analysis for verification: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("CODE:\n")
	sb.WriteString(code)
	sb.WriteString("\n\nANALYSIS UNDER REVIEW:\n")
	sb.Write(encoded)
	sb.WriteString("\n\nFact-check the analysis now. Remember: score first.")
	return sb.String(), nil
}

// structureVerificationSystemPrompt instructs the verification structuring
// model.
const structureVerificationSystemPrompt = `You convert a free-text verification review into JSON.

Output ONLY valid JSON conforming to the schema below. No prose, no markdown, no explanation outside the JSON. The review starts with a "SCORE: <n>" line; that integer is the validation_score.

Output schema (JSON only):
{
  "validation_score": 7,
  "reasoning": "..."
}
`

// buildStructureVerificationUserPrompt wraps verifier text for structuring.
func buildStructureVerificationUserPrompt(freeText string) string {
	var sb strings.Builder
	sb.WriteString("Verification text:\n")
	sb.WriteString(freeText)
	sb.WriteString("\n\nProduce the JSON now.")
	return sb.String()
}

// buildRepairPrompt constructs the repair message. It includes the original
// user prompt and the previous invalid response so the model has full
// context.
func buildRepairPrompt(originalUserPrompt, previousResponse string, errs []schema.ValidationError) string {
	var sb strings.Builder
	sb.WriteString(originalUserPrompt)
	sb.WriteString("\n\nYour previous response was:\n")
	sb.WriteString(previousResponse)
	sb.WriteString("\n\nThat response was invalid. Errors:\n")
	for _, e := range errs {
		fmt.Fprintf(&sb, "  - %s\n", e.Error())
	}
	sb.WriteString("\nPlease output only the corrected JSON conforming to the schema. Do not repeat the error.")
	return sb.String()
}
