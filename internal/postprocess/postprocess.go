// Package postprocess consolidates a freshly structured analysis result:
// duplicate criteria are dropped, the single-penalty rule is enforced, the
// fix summary is rebuilt, and the overall score is reconciled against local
// arithmetic. All corrections are non-fatal and reported as warnings.
package postprocess

import (
	"fmt"
	"sort"

	"github.com/dshills/codehealth/internal/criteria"
	"github.com/dshills/codehealth/internal/fault"
	"github.com/dshills/codehealth/internal/schema"
	"github.com/dshills/codehealth/internal/score"
)

// Apply runs the full consolidation over r in place and returns the warnings
// generated. Apply is idempotent: a second application of the same result
// produces no further changes and no warnings about the score.
func Apply(r *schema.AnalysisResult) []fault.ConsistencyWarning {
	var warnings []fault.ConsistencyWarning

	warnings = append(warnings, dedupCriteria(r)...)
	warnings = append(warnings, enforceSinglePenalty(r)...)
	rebuildSummaries(r)
	warnings = append(warnings, reconcileScore(r)...)

	return warnings
}

// dedupCriteria drops all but the first occurrence of each criterion name.
func dedupCriteria(r *schema.AnalysisResult) []fault.ConsistencyWarning {
	var warnings []fault.ConsistencyWarning
	seen := make(map[schema.CriterionName]bool, len(r.Criteria))
	kept := r.Criteria[:0]
	for _, c := range r.Criteria {
		if seen[c.Name] {
			warnings = append(warnings, fault.ConsistencyWarning{
				Field:   "criteria_breakdown",
				Message: fmt.Sprintf("duplicate criterion %q dropped", c.Name),
			})
			continue
		}
		seen[c.Name] = true
		kept = append(kept, c)
	}
	r.Criteria = kept
	return warnings
}

// enforceSinglePenalty walks the criteria in penalty-precedence order and
// removes any recommendation or problem category already claimed by a
// higher-priority criterion. The original breakdown order is preserved; only
// the traversal is ordered by precedence.
func enforceSinglePenalty(r *schema.AnalysisResult) []fault.ConsistencyWarning {
	var warnings []fault.ConsistencyWarning

	order := make([]int, len(r.Criteria))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return criteria.Rank(r.Criteria[order[a]].Name) < criteria.Rank(r.Criteria[order[b]].Name)
	})

	penalized := make(map[string]schema.CriterionName)
	claimedCategories := make(map[string]schema.CriterionName)

	for _, idx := range order {
		c := &r.Criteria[idx]

		var recs []string
		for _, rec := range c.Recommendations {
			if owner, ok := penalized[rec]; ok {
				warnings = append(warnings, fault.ConsistencyWarning{
					Field: fmt.Sprintf("criteria_breakdown[%d].recommendations_for_llm_fix", idx),
					Message: fmt.Sprintf("recommendation already penalized under %q: %q",
						owner, rec),
				})
				continue
			}
			penalized[rec] = c.Name
			recs = append(recs, rec)
		}
		c.Recommendations = recs

		var cats []string
		for _, cat := range c.ProblemCategories {
			if owner, ok := claimedCategories[cat]; ok {
				warnings = append(warnings, fault.ConsistencyWarning{
					Field: fmt.Sprintf("criteria_breakdown[%d].generic_problem_categories", idx),
					Message: fmt.Sprintf("problem category already claimed under %q: %q",
						owner, cat),
				})
				continue
			}
			claimedCategories[cat] = c.Name
			cats = append(cats, cat)
		}
		c.ProblemCategories = cats
	}

	return warnings
}

// rebuildSummaries derives the fix summary and the identified problem
// categories as ordered deduplicated unions over the surviving criteria.
func rebuildSummaries(r *schema.AnalysisResult) {
	var fixes []string
	seenFix := make(map[string]bool)
	var cats []string
	seenCat := make(map[string]bool)

	for _, c := range r.Criteria {
		for _, rec := range c.Recommendations {
			if !seenFix[rec] {
				seenFix[rec] = true
				fixes = append(fixes, rec)
			}
		}
		for _, cat := range c.ProblemCategories {
			if !seenCat[cat] {
				seenCat[cat] = true
				cats = append(cats, cat)
			}
		}
	}

	r.FixSummary = fixes
	r.ProblemCategories = cats
}

// reconcileScore recomputes the overall compliance score from the weighted
// per-criterion scores and overwrites the model-reported value when the two
// disagree by more than the tolerance.
func reconcileScore(r *schema.AnalysisResult) []fault.ConsistencyWarning {
	if len(r.Criteria) == 0 {
		return nil
	}
	recomputed := score.WeightedOverall(r.Criteria)
	if score.Agrees(r.OverallScore, recomputed) {
		return nil
	}
	w := fault.ConsistencyWarning{
		Field: "overall_compliance_score",
		Message: fmt.Sprintf("reported score %d disagrees with weighted sum %d; overwritten",
			r.OverallScore, recomputed),
	}
	r.OverallScore = recomputed
	return []fault.ConsistencyWarning{w}
}
