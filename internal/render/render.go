// Package render produces output from a completed refinement result.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/codehealth/internal/criteria"
	"github.com/dshills/codehealth/internal/refine"
	"github.com/dshills/codehealth/internal/schema"
	"github.com/dshills/codehealth/internal/score"
)

// RenderJSON produces a pretty-printed JSON representation of the result.
// The output round-trips through json.Unmarshal back to an equal Result.
func RenderJSON(result *refine.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("render: nil result")
	}
	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: json marshal: %w", err)
	}
	return b, nil
}

// RenderMarkdown produces a GitHub-flavoured Markdown summary of the result,
// suitable for PR comments or terminal output. Every refinement attempt in
// the history appears in the output.
func RenderMarkdown(result *refine.Result) string {
	if result == nil {
		return ""
	}
	var sb strings.Builder

	sb.WriteString("## Code Health Report\n\n")
	fmt.Fprintf(&sb, "**Termination:** %s  \n", result.Termination)

	a := result.FinalAnalysis
	if a != nil {
		fmt.Fprintf(&sb, "**Overall score:** %d/100 (%s)  \n", a.OverallScore, score.Band(a.OverallScore))
		fmt.Fprintf(&sb, "**Language:** %s | **Product:** %s (%s)\n\n",
			a.Language, a.ProductName, a.ProductCategory)
		if len(a.RegionTags) > 0 {
			fmt.Fprintf(&sb, "**Region tags:** %s\n\n", strings.Join(a.RegionTags, ", "))
		}
		writeCriteria(&sb, a.Criteria)
		writeFixSummary(&sb, a.FixSummary)
		writeCitations(&sb, a.Citations)
	}

	writeHistory(&sb, result.History)

	if len(result.Warnings) > 0 {
		sb.WriteString("## Consistency Corrections\n\n")
		for _, w := range result.Warnings {
			fmt.Fprintf(&sb, "- `%s`: %s\n", w.Field, mdEscape(w.Message))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// writeCriteria renders the per-criterion breakdown table.
func writeCriteria(sb *strings.Builder, results []schema.CriterionResult) {
	if len(results) == 0 {
		return
	}
	sb.WriteString("## Criteria\n\n")
	passing, marginal, failing := criteria.Summarize(results)
	fmt.Fprintf(sb, "%d passing, %d marginal, %d failing\n\n", passing, marginal, failing)
	if missing := criteria.MissingNames(results); len(missing) > 0 {
		fmt.Fprintf(sb, "Not evaluated: %s\n\n", joinNames(missing))
	}
	sb.WriteString("| Criterion | Score | Weight | Assessment |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, c := range results {
		fmt.Fprintf(sb, "| %s | %d | %.2f | %s |\n",
			c.Name, c.Score, c.Weight, mdEscape(c.Assessment))
	}
	sb.WriteString("\n")

	for _, c := range results {
		if len(c.Recommendations) == 0 {
			continue
		}
		fmt.Fprintf(sb, "<details>\n<summary><strong>%s</strong> recommended fixes</summary>\n\n", c.Name)
		for _, rec := range c.Recommendations {
			fmt.Fprintf(sb, "- %s\n", mdEscape(rec))
		}
		sb.WriteString("\n</details>\n\n")
	}
}

// writeFixSummary renders the consolidated fix list.
func writeFixSummary(sb *strings.Builder, fixes []string) {
	if len(fixes) == 0 {
		return
	}
	sb.WriteString("## Fix Summary\n\n")
	for _, f := range fixes {
		fmt.Fprintf(sb, "- %s\n", mdEscape(f))
	}
	sb.WriteString("\n")
}

// writeCitations renders the citation list.
func writeCitations(sb *strings.Builder, citations []schema.Citation) {
	if len(citations) == 0 {
		return
	}
	sb.WriteString("## Citations\n\n")
	for _, c := range citations {
		fmt.Fprintf(sb, "%d. %s\n", c.Number, c.URL)
	}
	sb.WriteString("\n")
}

// writeHistory renders the verification history table.
func writeHistory(sb *strings.Builder, history []schema.RefinementAttempt) {
	if len(history) == 0 {
		return
	}
	sb.WriteString("## Verification History\n\n")
	sb.WriteString("| Iteration | Score | Reasoning |\n")
	sb.WriteString("|---|---|---|\n")
	for _, att := range history {
		fmt.Fprintf(sb, "| %d | %d/10 | %s |\n",
			att.Iteration, att.Verification.Score, mdEscape(att.Verification.Reasoning))
	}
	sb.WriteString("\n")
}

// joinNames renders criterion names as a comma-separated list.
func joinNames(names []schema.CriterionName) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}

// mdEscape replaces characters that would break Markdown table cells.
func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}
