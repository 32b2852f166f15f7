// Package probe defines the narrow adapter interfaces the analyzers consume
// to reach external data sources (a profiler output, source trees, a live
// database, infrastructure hosts), plus thin concrete implementations.
// Adapters report failures through the shared error taxonomy in errors.go;
// they never decide policy, that is the analyzers' job.
package probe

import (
	"context"
	"time"
)

// FunctionProfile is one profiled function with time attributed to it.
type FunctionProfile struct {
	Function          string  `json:"function"`
	CumulativeSeconds float64 `json:"cumulative_seconds"`
	CallCount         int64   `json:"call_count"`
}

// Profiler exposes execution-time attribution per function.
type Profiler interface {
	Profile(ctx context.Context, path string) ([]FunctionProfile, error)
}

// FunctionComplexity is the cyclomatic complexity of one function.
type FunctionComplexity struct {
	Function string `json:"function"`
	Score    int    `json:"score"`
	Kind     string `json:"kind"` // "function" or "method"
}

// Complexity exposes per-function cyclomatic complexity for a source path.
type Complexity interface {
	Complexity(ctx context.Context, path string) ([]FunctionComplexity, error)
}

// PlanSummary is the distilled result of an execution-plan probe.
type PlanSummary struct {
	TotalCost         float64 `json:"total_cost"`
	ExecutionTimeMs   float64 `json:"execution_time_ms"`
	HasSequentialScan bool    `json:"has_sequential_scan"`
}

// IndexStat is the lifetime scan count for one index.
type IndexStat struct {
	Schema    string `json:"schema"`
	Table     string `json:"table"`
	Index     string `json:"index"`
	ScanCount int64  `json:"scan_count"`
}

// QueryPlan exposes execution-plan and index-usage probes against a
// live database.
type QueryPlan interface {
	Explain(ctx context.Context, query string) (PlanSummary, error)
	IndexUsage(ctx context.Context) ([]IndexStat, error)
}

// Resources is a point-in-time resource usage snapshot for one host.
type Resources struct {
	CPUPercent  float64 `json:"cpu_percent"`
	MemPercent  float64 `json:"mem_percent"`
	DiskPercent float64 `json:"disk_percent"`
}

// HostMetrics exposes resource usage and health-check latency per host.
type HostMetrics interface {
	ResourceUsage(ctx context.Context, hostID string) (Resources, error)
	HealthLatency(ctx context.Context, hostID string) (time.Duration, error)
}
