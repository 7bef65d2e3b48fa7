package score

import (
	"testing"

	"github.com/dshills/codehealth/internal/schema"
)

func TestWeightedOverall(t *testing.T) {
	cases := []struct {
		name     string
		criteria []schema.CriterionResult
		want     int
	}{
		{
			name: "uniform scores",
			criteria: []schema.CriterionResult{
				{Score: 80, Weight: 0.5},
				{Score: 80, Weight: 0.5},
			},
			want: 80,
		},
		{
			name: "weighted mix",
			criteria: []schema.CriterionResult{
				{Score: 100, Weight: 0.25},
				{Score: 60, Weight: 0.75},
			},
			want: 70, // 25 + 45
		},
		{
			name: "rounding up",
			criteria: []schema.CriterionResult{
				{Score: 85, Weight: 0.5},
				{Score: 86, Weight: 0.5},
			},
			want: 86, // 85.5 rounds to 86
		},
		{
			name:     "no criteria",
			criteria: nil,
			want:     0,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := WeightedOverall(c.criteria); got != c.want {
				t.Errorf("WeightedOverall = %d, want %d", got, c.want)
			}
		})
	}
}

func TestWeightedOverall_Idempotent(t *testing.T) {
	criteria := []schema.CriterionResult{
		{Score: 73, Weight: 0.25},
		{Score: 91, Weight: 0.25},
		{Score: 40, Weight: 0.5},
	}
	first := WeightedOverall(criteria)
	second := WeightedOverall(criteria)
	if first != second {
		t.Errorf("recomputation not idempotent: %d then %d", first, second)
	}
}

func TestClamp(t *testing.T) {
	cases := []struct{ in, want int }{
		{-5, 0},
		{0, 0},
		{50, 50},
		{100, 100},
		{140, 100},
	}
	for _, c := range cases {
		if got := Clamp(c.in); got != c.want {
			t.Errorf("Clamp(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestClampVerification(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 1},
		{1, 1},
		{7, 7},
		{10, 10},
		{15, 10},
	}
	for _, c := range cases {
		if got := ClampVerification(c.in); got != c.want {
			t.Errorf("ClampVerification(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestAgrees(t *testing.T) {
	cases := []struct {
		reported, recomputed int
		want                 bool
	}{
		{80, 80, true},
		{80, 81, true},
		{81, 80, true},
		{80, 82, false},
		{82, 80, false},
	}
	for _, c := range cases {
		if got := Agrees(c.reported, c.recomputed); got != c.want {
			t.Errorf("Agrees(%d, %d) = %v, want %v", c.reported, c.recomputed, got, c.want)
		}
	}
}

func TestBand(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{95, "excellent"},
		{90, "excellent"},
		{80, "good"},
		{60, "needs work"},
		{20, "poor"},
	}
	for _, c := range cases {
		if got := Band(c.in); got != c.want {
			t.Errorf("Band(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}
