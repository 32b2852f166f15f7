// Package analyzer turns raw probe signals into normalized metrics and
// metrics into recommendations. Each variant (Code, Database,
// Infrastructure) wraps one external data source behind the probe
// interfaces and owns its own heuristic thresholds.
//
// Analyze degrades on partial failure: a single unreachable sub-probe is
// logged and skipped, never escalated. Recommend is a pure function of its
// input metrics; probe errors never reach it.
package analyzer

import (
	"context"

	"github.com/blackwell-systems/perfadvisor/internal/metric"
)

// Analyzer is the two-operation capability every variant implements.
type Analyzer interface {
	// Name identifies the analyzer in logs and stage reports.
	Name() string

	// Analyze performs external I/O and returns the metrics for the
	// reachable subset of targets, preserving input target order. The
	// returned error reflects cancellation or total stage failure, not
	// individual probe failures.
	Analyze(ctx context.Context) ([]metric.Metric, error)

	// Recommend derives recommendations from a metric sequence. It is
	// deterministic and side-effect free.
	Recommend(metrics []metric.Metric) []metric.Recommendation
}

// Metric names emitted by the built-in analyzers.
const (
	MetricHotFunction = "function.cum_seconds"
	MetricComplexity  = "function.cyclomatic_complexity"
	MetricQueryTime   = "query.execution_ms"
	MetricQueryCost   = "query.total_cost"
	MetricSeqScan     = "query.seq_scan"
	MetricUnusedIndex = "index.unused"
	MetricCPU         = "host.cpu_percent"
	MetricMem         = "host.mem_percent"
	MetricDisk        = "host.disk_percent"
	MetricHealth      = "host.health_latency_ms"
)

// contextString reads a string value out of a metric context, tolerating
// missing keys and foreign value types.
func contextString(m metric.Metric, key string) string {
	if m.Context == nil {
		return ""
	}
	s, _ := m.Context[key].(string)
	return s
}

func flatten(slots [][]metric.Metric) []metric.Metric {
	var out []metric.Metric
	for _, s := range slots {
		out = append(out, s...)
	}
	return out
}
