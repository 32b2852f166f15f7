package priority

import (
	"math"
	"testing"

	"github.com/blackwell-systems/perfadvisor/internal/metric"
)

func rec(kind metric.IssueKind, sev metric.Severity, risk metric.RiskLevel, low, high int) metric.Recommendation {
	return metric.Recommendation{
		Kind: kind, Severity: sev, Risk: risk,
		ImprovementLow: low, ImprovementHigh: high,
		Description: string(kind),
	}
}

// --- Score ---

func TestScoreFormula(t *testing.T) {
	// critical (4) + midpoint 25/100, low risk: 4.25.
	r := rec(metric.KindSlowQuery, metric.SeverityCritical, metric.RiskLow, 20, 30)
	if got := Score(r); math.Abs(got-4.25) > 1e-9 {
		t.Errorf("Score = %v, want 4.25", got)
	}

	// high (3) + 0.5, high risk: 3.5 * 0.7 = 2.45.
	r = rec(metric.KindHighCPU, metric.SeverityHigh, metric.RiskHigh, 40, 60)
	if got := Score(r); math.Abs(got-2.45) > 1e-9 {
		t.Errorf("Score = %v, want 2.45", got)
	}
}

func TestScoreRiskPenaltyCanOutweighSeverity(t *testing.T) {
	// A critical high-risk fix can rank below a high-severity low-risk one;
	// that trade-off is the point of the adjustment.
	risky := rec(metric.KindInefficientAlgorithm, metric.SeverityCritical, metric.RiskHigh, 0, 0)
	safe := rec(metric.KindMissingIndex, metric.SeverityHigh, metric.RiskLow, 50, 70)
	if Score(risky) >= Score(safe) {
		t.Errorf("expected safe high fix (%.2f) above risky critical fix (%.2f)",
			Score(safe), Score(risky))
	}
}

// --- Rank ---

func TestRankIsAPermutationWithNonIncreasingScores(t *testing.T) {
	in := []metric.Recommendation{
		rec(metric.KindUnusedIndex, metric.SeverityLow, metric.RiskLow, 0, 5),
		rec(metric.KindSlowQuery, metric.SeverityCritical, metric.RiskMedium, 40, 60),
		rec(metric.KindHighCPU, metric.SeverityHigh, metric.RiskHigh, 30, 50),
		rec(metric.KindMissingIndex, metric.SeverityHigh, metric.RiskLow, 50, 70),
	}
	out := Rank(in)

	if len(out) != len(in) {
		t.Fatalf("output length %d != input length %d", len(out), len(in))
	}

	seen := make(map[metric.IssueKind]int)
	for _, r := range out {
		seen[r.Kind]++
	}
	for _, r := range in {
		if seen[r.Kind] != 1 {
			t.Errorf("input element %s appears %d times in output", r.Kind, seen[r.Kind])
		}
	}

	for i := 1; i < len(out); i++ {
		if out[i].Score > out[i-1].Score {
			t.Errorf("scores increase at %d: %.3f > %.3f", i, out[i].Score, out[i-1].Score)
		}
	}
}

func TestRankTiesKeepInputOrder(t *testing.T) {
	// Identical scores: the first contributor wins the tie.
	a := rec(metric.KindSlowQuery, metric.SeverityHigh, metric.RiskLow, 20, 30)
	a.Description = "first"
	b := a
	b.Description = "second"

	out := Rank([]metric.Recommendation{a, b})
	if out[0].Description != "first" || out[1].Description != "second" {
		t.Errorf("tie broke input order: %q, %q", out[0].Description, out[1].Description)
	}
}

func TestRankIdempotent(t *testing.T) {
	in := []metric.Recommendation{
		rec(metric.KindSlowQuery, metric.SeverityCritical, metric.RiskMedium, 40, 60),
		rec(metric.KindHotFunction, metric.SeverityHigh, metric.RiskLow, 20, 30),
		rec(metric.KindMemoryLeak, metric.SeverityHigh, metric.RiskMedium, 20, 40),
	}
	first := Rank(in)
	second := Rank(in)
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("rank differs between runs at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	in := []metric.Recommendation{
		rec(metric.KindUnusedIndex, metric.SeverityLow, metric.RiskLow, 0, 5),
		rec(metric.KindSlowQuery, metric.SeverityCritical, metric.RiskLow, 40, 60),
	}
	before := make([]metric.Recommendation, len(in))
	copy(before, in)

	Rank(in)
	for i := range in {
		if in[i] != before[i] {
			t.Errorf("input mutated at %d", i)
		}
	}
}

func TestRankEmptyInput(t *testing.T) {
	if out := Rank(nil); len(out) != 0 {
		t.Errorf("Rank(nil) = %v, want empty", out)
	}
}
