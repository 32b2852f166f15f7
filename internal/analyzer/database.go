package analyzer

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/perfadvisor/internal/metric"
	"github.com/blackwell-systems/perfadvisor/internal/probe"
)

// DatabaseThresholds holds the tunable heuristic limits for the database
// analyzer.
type DatabaseThresholds struct {
	// SlowQueryMs triggers a high-severity recommendation; above
	// CriticalQueryMs the severity escalates to critical.
	SlowQueryMs     float64
	CriticalQueryMs float64
}

// Database analyzes execution plans for a configured set of queries and
// index usage statistics of a live database.
type Database struct {
	plans      probe.QueryPlan
	queries    []string
	thresholds DatabaseThresholds
	log        *slog.Logger
}

// NewDatabase creates a database analyzer over the given plan probe.
func NewDatabase(plans probe.QueryPlan, queries []string, th DatabaseThresholds, log *slog.Logger) *Database {
	if log == nil {
		log = slog.Default()
	}
	return &Database{plans: plans, queries: queries, thresholds: th, log: log}
}

func (d *Database) Name() string { return "database" }

// Analyze explains every configured query concurrently and probes index
// usage once. Query metrics keep the configured query order; index metrics
// follow them.
func (d *Database) Analyze(ctx context.Context) ([]metric.Metric, error) {
	slots := make([][]metric.Metric, len(d.queries)+1)

	var g errgroup.Group
	for i, query := range d.queries {
		slot, query := i, query
		g.Go(func() error {
			sum, err := d.plans.Explain(ctx, query)
			if err != nil {
				d.log.Warn("explain probe degraded", "query", metric.Excerpt(query), "err", err)
				return nil
			}
			qctx := map[string]any{"query": metric.Excerpt(query)}
			seqScan := 0.0
			if sum.HasSequentialScan {
				seqScan = 1.0
			}
			slots[slot] = []metric.Metric{
				metric.New(MetricQueryTime, sum.ExecutionTimeMs, "ms", qctx),
				metric.New(MetricQueryCost, sum.TotalCost, "cost", qctx),
				metric.New(MetricSeqScan, seqScan, "bool", qctx),
			}
			return nil
		})
	}

	g.Go(func() error {
		stats, err := d.plans.IndexUsage(ctx)
		if err != nil {
			d.log.Warn("index usage probe degraded", "err", err)
			return nil
		}
		last := len(slots) - 1
		for _, s := range stats {
			if s.ScanCount != 0 {
				continue
			}
			slots[last] = append(slots[last], metric.New(MetricUnusedIndex, 0, "count", map[string]any{
				"schema": s.Schema,
				"table":  s.Table,
				"index":  s.Index,
			}))
		}
		return nil
	})

	_ = g.Wait()
	return flatten(slots), ctx.Err()
}

// Recommend applies the slow-query, sequential-scan, and unused-index
// heuristics.
func (d *Database) Recommend(metrics []metric.Metric) []metric.Recommendation {
	var recs []metric.Recommendation
	for _, m := range metrics {
		switch m.Name {
		case MetricQueryTime:
			if m.Value <= d.thresholds.SlowQueryMs {
				continue
			}
			severity := metric.SeverityHigh
			if m.Value > d.thresholds.CriticalQueryMs {
				severity = metric.SeverityCritical
			}
			recs = append(recs, metric.Recommendation{
				Kind:            metric.KindSlowQuery,
				Severity:        severity,
				Description:     fmt.Sprintf("query takes %.0fms: %s", m.Value, contextString(m, "query")),
				Solution:        "rewrite the query, reduce the result set, or add a covering index",
				ImprovementLow:  40,
				ImprovementHigh: 60,
				Hint:            "re-run EXPLAIN ANALYZE after each change and compare actual row counts against estimates",
				Risk:            metric.RiskMedium,
			})

		case MetricSeqScan:
			if m.Value < 1 {
				continue
			}
			recs = append(recs, metric.Recommendation{
				Kind:            metric.KindMissingIndex,
				Severity:        metric.SeverityHigh,
				Description:     fmt.Sprintf("sequential scan in plan for: %s", contextString(m, "query")),
				Solution:        "add an index on the filtered or joined columns",
				ImprovementLow:  50,
				ImprovementHigh: 70,
				Hint:            "CREATE INDEX CONCURRENTLY ON <table> (<filtered columns>);",
				Risk:            metric.RiskLow,
			})

		case MetricUnusedIndex:
			index := contextString(m, "index")
			schema := contextString(m, "schema")
			recs = append(recs, metric.Recommendation{
				Kind:            metric.KindUnusedIndex,
				Severity:        metric.SeverityLow,
				Description:     fmt.Sprintf("index %s.%s on table %s has never been scanned", schema, index, contextString(m, "table")),
				Solution:        "drop the index to reclaim write throughput and storage",
				ImprovementLow:  0,
				ImprovementHigh: 5,
				Hint:            fmt.Sprintf("DROP INDEX CONCURRENTLY %s.%s;", schema, index),
				Risk:            metric.RiskLow,
			})
		}
	}
	return recs
}
