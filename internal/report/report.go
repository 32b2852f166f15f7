// Package report builds the read-only snapshot of one pipeline run:
// summary counts, per-metric statistics, top recommendations, and the
// remediation plan. A Report is derived once per run and never mutated.
package report

import (
	"time"

	"github.com/blackwell-systems/perfadvisor/internal/metric"
	"github.com/blackwell-systems/perfadvisor/internal/plan"
	"github.com/blackwell-systems/perfadvisor/internal/priority"
)

// StageStatus records whether one pipeline stage ran, and why not if it
// did not.
type StageStatus struct {
	Stage   string `json:"stage"`
	Ran     bool   `json:"ran"`
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`
}

// Stat aggregates all observations of one metric name.
type Stat struct {
	Count int     `json:"count"`
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Summary holds the headline counts for a run.
type Summary struct {
	Metrics         int                     `json:"metrics"`
	Recommendations int                     `json:"recommendations"`
	BySeverity      map[metric.Severity]int `json:"by_severity"`

	// NotScheduled counts ranked recommendations the plan left out.
	NotScheduled int `json:"not_scheduled"`
}

// Report is the aggregation view over one pipeline run.
type Report struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Stages      []StageStatus `json:"stages"`
	Summary     Summary       `json:"summary"`

	// MetricStats maps metric name to statistics over its observations.
	MetricStats map[string]Stat `json:"metric_stats"`

	// IssueCounts maps issue kind to per-severity counts.
	IssueCounts map[metric.IssueKind]map[metric.Severity]int `json:"issue_counts"`

	// Top holds the highest-ranked recommendations, at most TopN.
	Top []priority.Ranked `json:"top"`

	Plan plan.Plan `json:"plan"`

	// AutoApplied lists descriptions of quick-fix tasks marked applied.
	AutoApplied []string `json:"auto_applied,omitempty"`
}

// Build assembles a Report from the run's accumulated data. A run with no
// metrics or recommendations still yields a valid, empty-summary report.
func Build(metrics []metric.Metric, ranked []priority.Ranked, p plan.Plan, stages []StageStatus, autoApplied []string, topN int) *Report {
	r := &Report{
		GeneratedAt: time.Now().UTC(),
		Stages:      stages,
		Summary: Summary{
			Metrics:         len(metrics),
			Recommendations: len(ranked),
			BySeverity:      make(map[metric.Severity]int),
			NotScheduled:    p.Dropped,
		},
		MetricStats: make(map[string]Stat),
		IssueCounts: make(map[metric.IssueKind]map[metric.Severity]int),
		Plan:        p,
		AutoApplied: autoApplied,
	}

	for _, m := range metrics {
		s, ok := r.MetricStats[m.Name]
		if !ok {
			s = Stat{Min: m.Value, Max: m.Value}
		}
		if m.Value < s.Min {
			s.Min = m.Value
		}
		if m.Value > s.Max {
			s.Max = m.Value
		}
		// Avg carries the running sum until the final pass below.
		s.Avg += m.Value
		s.Count++
		r.MetricStats[m.Name] = s
	}
	for name, s := range r.MetricStats {
		s.Avg /= float64(s.Count)
		r.MetricStats[name] = s
	}

	for _, rec := range ranked {
		r.Summary.BySeverity[rec.Severity]++
		if r.IssueCounts[rec.Kind] == nil {
			r.IssueCounts[rec.Kind] = make(map[metric.Severity]int)
		}
		r.IssueCounts[rec.Kind][rec.Severity]++
	}

	if topN > len(ranked) {
		topN = len(ranked)
	}
	if topN > 0 {
		r.Top = make([]priority.Ranked, topN)
		copy(r.Top, ranked[:topN])
	}

	return r
}
