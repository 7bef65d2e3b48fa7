// Package score provides deterministic local arithmetic for compliance
// scoring. No LLM calls are made here.
package score

import (
	"math"

	"github.com/dshills/codehealth/internal/schema"
)

// Tolerance is the maximum allowed distance between a model-reported overall
// score and the locally recomputed one before post-processing overwrites it.
const Tolerance = 1

// WeightedOverall computes the overall compliance score as the weighted sum
// of per-criterion scores, rounded to the nearest integer and clamped to
// [0, 100]. The model's own arithmetic is never trusted; this is the value
// of record.
func WeightedOverall(criteria []schema.CriterionResult) int {
	var sum float64
	for _, c := range criteria {
		sum += float64(c.Score) * c.Weight
	}
	return Clamp(int(math.Round(sum)))
}

// Clamp bounds a score to [0, 100].
func Clamp(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// ClampVerification bounds a verification score to [1, 10].
func ClampVerification(s int) int {
	if s < 1 {
		return 1
	}
	if s > 10 {
		return 10
	}
	return s
}

// Agrees reports whether a model-reported overall score is within Tolerance
// of the recomputed value.
func Agrees(reported, recomputed int) bool {
	diff := reported - recomputed
	if diff < 0 {
		diff = -diff
	}
	return diff <= Tolerance
}

// Band returns a coarse quality label for an overall compliance score,
// used only for human-readable rendering.
func Band(overall int) string {
	switch {
	case overall >= 90:
		return "excellent"
	case overall >= 75:
		return "good"
	case overall >= 50:
		return "needs work"
	default:
		return "poor"
	}
}
