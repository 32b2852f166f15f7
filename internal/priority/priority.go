// Package priority ranks recommendations by a severity/impact/risk score.
package priority

import (
	"sort"

	"github.com/blackwell-systems/perfadvisor/internal/metric"
)

// Ranked is a recommendation with its computed priority score.
type Ranked struct {
	metric.Recommendation
	Score float64 `json:"score"`
}

// Score computes the priority score for one recommendation:
// severity weight plus the improvement-range midpoint as a fraction,
// then multiplied by the risk adjustment. The adjustment deliberately
// penalizes high-risk fixes so that safe, impactful work ranks first.
func Score(r metric.Recommendation) float64 {
	score := r.Severity.Weight() + r.ImprovementMidpoint()/100
	return score * r.Risk.Adjustment()
}

// Rank returns the recommendations ordered by descending score. Ties keep
// input order, so repeated runs over identical input produce identical
// output. The input slice is never mutated.
func Rank(recs []metric.Recommendation) []Ranked {
	ranked := make([]Ranked, len(recs))
	for i, r := range recs {
		ranked[i] = Ranked{Recommendation: r, Score: Score(r)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
