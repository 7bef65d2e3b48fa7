// Package criteria provides pure logic helpers for criterion results.
package criteria

import (
	"fmt"

	"github.com/dshills/codehealth/internal/schema"
)

// Parse converts a string to a CriterionName constant.
// Returns an error for values outside the closed set.
func Parse(s string) (schema.CriterionName, error) {
	name := schema.CriterionName(s)
	if schema.ValidName(name) {
		return name, nil
	}
	return "", fmt.Errorf("criteria: unknown criterion %q", s)
}

// Rank returns the single-penalty precedence rank of a criterion.
// Lower rank wins a duplicate-recommendation conflict. Unknown criteria rank
// after all known ones.
func Rank(name schema.CriterionName) int {
	for i, n := range schema.PenaltyOrder {
		if n == name {
			return i
		}
	}
	return len(schema.PenaltyOrder)
}

// Validate returns field-level error messages for a single criterion result.
func Validate(c schema.CriterionResult) []string {
	var errs []string
	if c.Name == "" {
		errs = append(errs, "criterion_name is required")
	} else if !schema.ValidName(c.Name) {
		errs = append(errs, fmt.Sprintf("criterion_name %q is not valid", c.Name))
	}
	if c.Score < 0 || c.Score > 100 {
		errs = append(errs, fmt.Sprintf("score %d outside [0,100]", c.Score))
	}
	if c.Weight <= 0 || c.Weight > 1 {
		errs = append(errs, fmt.Sprintf("weight %g outside (0,1]", c.Weight))
	}
	if c.Assessment == "" {
		errs = append(errs, "assessment is required")
	}
	return errs
}

// Summarize counts criteria falling into passing (>=75), marginal (50-74),
// and failing (<50) score ranges.
func Summarize(criteria []schema.CriterionResult) (passing, marginal, failing int) {
	for _, c := range criteria {
		switch {
		case c.Score >= 75:
			passing++
		case c.Score >= 50:
			marginal++
		default:
			failing++
		}
	}
	return
}

// MissingNames returns the criterion names from the closed set that are not
// present in criteria, in penalty-precedence order.
func MissingNames(criteria []schema.CriterionResult) []schema.CriterionName {
	present := make(map[schema.CriterionName]bool, len(criteria))
	for _, c := range criteria {
		present[c.Name] = true
	}
	var missing []schema.CriterionName
	for _, n := range schema.PenaltyOrder {
		if !present[n] {
			missing = append(missing, n)
		}
	}
	return missing
}
