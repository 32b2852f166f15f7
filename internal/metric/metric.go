// Package metric defines the normalized measurement and recommendation
// value types shared by all analyzers. Values are immutable once produced:
// analyzers construct them, downstream stages only read them.
package metric

import "time"

// Severity is the qualitative impact ranking of a recommendation.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Weight returns the scoring weight for a severity. Unknown severities
// weigh zero so they sink to the bottom of any ranking.
func (s Severity) Weight() float64 {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// RiskLevel estimates how likely applying a fix is to introduce regressions.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Adjustment returns the multiplicative score adjustment for a risk level.
// Higher risk is penalized so that safe, impactful fixes rank first.
func (r RiskLevel) Adjustment() float64 {
	switch r {
	case RiskLow:
		return 1.0
	case RiskMedium:
		return 0.85
	case RiskHigh:
		return 0.7
	default:
		return 1.0
	}
}

// IssueKind identifies a known performance issue pattern.
type IssueKind string

const (
	KindInefficientAlgorithm IssueKind = "INEFFICIENT_ALGORITHM"
	KindHotFunction          IssueKind = "HOT_FUNCTION"
	KindSlowQuery            IssueKind = "SLOW_QUERY"
	KindMissingIndex         IssueKind = "MISSING_INDEX"
	KindUnusedIndex          IssueKind = "UNUSED_INDEX"
	KindHighCPU              IssueKind = "HIGH_CPU"
	KindMemoryLeak           IssueKind = "MEMORY_LEAK"
)

// Metric is a single named, timestamped numeric observation. Context carries
// source-specific identifying data (function name, query excerpt, host id)
// consumed only by the same analyzer family's heuristics.
type Metric struct {
	Name       string         `json:"name"`
	Value      float64        `json:"value"`
	Unit       string         `json:"unit"`
	ObservedAt time.Time      `json:"observed_at"`
	Context    map[string]any `json:"context,omitempty"`
}

// New builds a Metric observed now.
func New(name string, value float64, unit string, ctx map[string]any) Metric {
	return Metric{
		Name:       name,
		Value:      value,
		Unit:       unit,
		ObservedAt: time.Now().UTC(),
		Context:    ctx,
	}
}

// ExcerptLen is the maximum length of free-text context values such as
// query text. Capping keeps a high-cardinality metric stream bounded.
const ExcerptLen = 120

// Excerpt truncates s to at most ExcerptLen runes, ellipsis included when
// cut.
func Excerpt(s string) string {
	runes := []rune(s)
	if len(runes) <= ExcerptLen {
		return s
	}
	return string(runes[:ExcerptLen-1]) + "…"
}

// Recommendation is an actionable finding derived from a metric set.
// Severity and risk are fixed at creation; only ordering changes downstream.
type Recommendation struct {
	Kind        IssueKind `json:"kind"`
	Severity    Severity  `json:"severity"`
	Description string    `json:"description"`
	Solution    string    `json:"solution"`

	// ImprovementLow and ImprovementHigh bound the estimated improvement
	// in percent if the recommendation is applied.
	ImprovementLow  int `json:"improvement_low"`
	ImprovementHigh int `json:"improvement_high"`

	// Hint is an optional advisory snippet (SQL, pseudo-code, config).
	// It is output for a human and is never parsed or executed.
	Hint string `json:"hint,omitempty"`

	Risk RiskLevel `json:"risk"`
}

// ImprovementMidpoint returns the midpoint of the estimated improvement
// range, e.g. 20-30% yields 25.
func (r Recommendation) ImprovementMidpoint() float64 {
	return float64(r.ImprovementLow+r.ImprovementHigh) / 2
}
