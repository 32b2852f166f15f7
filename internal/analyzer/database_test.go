package analyzer

import (
	"context"
	"errors"
	"testing"

	"github.com/blackwell-systems/perfadvisor/internal/metric"
	"github.com/blackwell-systems/perfadvisor/internal/probe"
)

var testDBThresholds = DatabaseThresholds{SlowQueryMs: 100, CriticalQueryMs: 1000}

type fakeQueryPlan struct {
	plans    map[string]probe.PlanSummary
	planErr  map[string]error
	indexes  []probe.IndexStat
	indexErr error
}

func (f fakeQueryPlan) Explain(ctx context.Context, query string) (probe.PlanSummary, error) {
	if err := f.planErr[query]; err != nil {
		return probe.PlanSummary{}, err
	}
	return f.plans[query], nil
}

func (f fakeQueryPlan) IndexUsage(ctx context.Context) ([]probe.IndexStat, error) {
	return f.indexes, f.indexErr
}

func queryTimeMetric(ms float64) metric.Metric {
	return metric.New(MetricQueryTime, ms, "ms", map[string]any{"query": "SELECT * FROM orders"})
}

// --- Recommend ---

func TestDatabaseRecommendSlowQuerySeverity(t *testing.T) {
	d := NewDatabase(nil, nil, testDBThresholds, nil)

	recs := d.Recommend([]metric.Metric{queryTimeMetric(1500)})
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}
	if recs[0].Kind != metric.KindSlowQuery || recs[0].Severity != metric.SeverityCritical {
		t.Errorf("1500ms: got %s/%s, want SLOW_QUERY/critical", recs[0].Kind, recs[0].Severity)
	}

	recs = d.Recommend([]metric.Metric{queryTimeMetric(250)})
	if len(recs) != 1 || recs[0].Severity != metric.SeverityHigh {
		t.Errorf("250ms should yield one high SLOW_QUERY, got %+v", recs)
	}

	recs = d.Recommend([]metric.Metric{queryTimeMetric(50)})
	if len(recs) != 0 {
		t.Errorf("50ms should yield nothing, got %d", len(recs))
	}
}

func TestDatabaseRecommendSeqScanYieldsOneMissingIndex(t *testing.T) {
	d := NewDatabase(nil, nil, testDBThresholds, nil)
	recs := d.Recommend([]metric.Metric{
		metric.New(MetricSeqScan, 1, "bool", map[string]any{"query": "SELECT 1"}),
	})
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want exactly 1", len(recs))
	}
	if recs[0].Kind != metric.KindMissingIndex || recs[0].Severity != metric.SeverityHigh {
		t.Errorf("got %s/%s, want MISSING_INDEX/high", recs[0].Kind, recs[0].Severity)
	}
}

func TestDatabaseRecommendNoSeqScanNoRecommendation(t *testing.T) {
	d := NewDatabase(nil, nil, testDBThresholds, nil)
	recs := d.Recommend([]metric.Metric{
		metric.New(MetricSeqScan, 0, "bool", map[string]any{"query": "SELECT 1"}),
	})
	if len(recs) != 0 {
		t.Errorf("seq_scan=0 should yield nothing, got %d", len(recs))
	}
}

func TestDatabaseRecommendUnusedIndexCleanup(t *testing.T) {
	d := NewDatabase(nil, nil, testDBThresholds, nil)
	recs := d.Recommend([]metric.Metric{
		metric.New(MetricUnusedIndex, 0, "count", map[string]any{
			"schema": "public", "table": "orders", "index": "orders_legacy_idx",
		}),
	})
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}
	r := recs[0]
	if r.Kind != metric.KindUnusedIndex || r.Severity != metric.SeverityLow || r.Risk != metric.RiskLow {
		t.Errorf("got %s/%s/%s, want UNUSED_INDEX/low/low", r.Kind, r.Severity, r.Risk)
	}
	if r.Hint == "" {
		t.Error("cleanup recommendation should carry a drop hint")
	}
}

// --- Analyze ---

func TestDatabaseAnalyzeEmitsQueryMetricsInOrder(t *testing.T) {
	d := NewDatabase(fakeQueryPlan{
		plans: map[string]probe.PlanSummary{
			"q1": {TotalCost: 10, ExecutionTimeMs: 5, HasSequentialScan: false},
			"q2": {TotalCost: 900, ExecutionTimeMs: 1500, HasSequentialScan: true},
		},
	}, []string{"q1", "q2"}, testDBThresholds, nil)

	metrics, err := d.Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	// Three metrics per query, q1 first.
	if len(metrics) != 6 {
		t.Fatalf("got %d metrics, want 6", len(metrics))
	}
	if contextString(metrics[0], "query") != "q1" || contextString(metrics[3], "query") != "q2" {
		t.Error("query metrics out of configured order")
	}
	if metrics[5].Name != MetricSeqScan || metrics[5].Value != 1 {
		t.Errorf("expected q2 seq_scan=1, got %+v", metrics[5])
	}
}

func TestDatabaseAnalyzeDegradesOnOneFailedQuery(t *testing.T) {
	d := NewDatabase(fakeQueryPlan{
		plans: map[string]probe.PlanSummary{
			"good": {ExecutionTimeMs: 10},
		},
		planErr: map[string]error{
			"bad": probe.Unavailable("explain", errors.New("connection reset")),
		},
	}, []string{"bad", "good"}, testDBThresholds, nil)

	metrics, err := d.Analyze(context.Background())
	if err != nil {
		t.Fatalf("one failed query must not abort the analyzer, got %v", err)
	}
	if len(metrics) != 3 {
		t.Fatalf("got %d metrics, want 3 from the good query", len(metrics))
	}
	for _, m := range metrics {
		if contextString(m, "query") != "good" {
			t.Errorf("unexpected metric from failed query: %+v", m)
		}
	}
}

func TestDatabaseAnalyzeUnusedIndexesOnly(t *testing.T) {
	d := NewDatabase(fakeQueryPlan{
		indexes: []probe.IndexStat{
			{Schema: "public", Table: "orders", Index: "orders_pkey", ScanCount: 40000},
			{Schema: "public", Table: "orders", Index: "orders_legacy_idx", ScanCount: 0},
		},
	}, nil, testDBThresholds, nil)

	metrics, err := d.Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(metrics) != 1 {
		t.Fatalf("got %d metrics, want 1 (zero-scan index only)", len(metrics))
	}
	if contextString(metrics[0], "index") != "orders_legacy_idx" {
		t.Errorf("wrong index reported: %+v", metrics[0])
	}
}
