package store

import (
	"testing"
	"time"

	"github.com/blackwell-systems/perfadvisor/internal/metric"
	"github.com/blackwell-systems/perfadvisor/internal/plan"
	"github.com/blackwell-systems/perfadvisor/internal/report"
)

func testReport() *report.Report {
	return &report.Report{
		GeneratedAt: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
		Summary: report.Summary{
			Metrics:         12,
			Recommendations: 4,
			BySeverity: map[metric.Severity]int{
				metric.SeverityCritical: 1,
				metric.SeverityHigh:     2,
				metric.SeverityLow:      1,
			},
			NotScheduled: 1,
		},
		Plan: plan.Plan{
			Phases: []plan.Phase{
				{Name: plan.PhaseQuickWins},
				{Name: plan.PhaseArchitecture},
			},
			Dropped: 1,
		},
		AutoApplied: []string{"Optimize hot function parseRow"},
	}
}

// --- save and list ---

func TestSaveRunAndListRuns(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	defer db.Close()

	id, err := db.SaveRun(testReport())
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero run ID")
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}

	r := runs[0]
	if r.Metrics != 12 || r.Recommendations != 4 {
		t.Errorf("counts = %d/%d, want 12/4", r.Metrics, r.Recommendations)
	}
	if r.Critical != 1 || r.High != 2 || r.Medium != 0 || r.Low != 1 {
		t.Errorf("severity counts wrong: %+v", r)
	}
	if r.Phases != 2 || r.NotScheduled != 1 || r.AutoApplied != 1 {
		t.Errorf("plan columns wrong: %+v", r)
	}
	if !r.CreatedAt.Equal(time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", r.CreatedAt)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	defer db.Close()

	first := testReport()
	second := testReport()
	second.Summary.Metrics = 99

	if _, err := db.SaveRun(first); err != nil {
		t.Fatal(err)
	}
	if _, err := db.SaveRun(second); err != nil {
		t.Fatal(err)
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].Metrics != 99 {
		t.Errorf("latest run first: got metrics %d, want 99", runs[0].Metrics)
	}
}

// --- lookups ---

func TestGetRunNEmptyDatabase(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	defer db.Close()

	r, err := db.GetRunN(0)
	if err != nil {
		t.Fatalf("GetRunN: %v", err)
	}
	if r != nil {
		t.Errorf("expected nil run for empty database, got %+v", r)
	}
}

func TestGetRunNOffset(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	defer db.Close()

	older := testReport()
	older.Summary.Metrics = 5
	newer := testReport()
	newer.Summary.Metrics = 7

	if _, err := db.SaveRun(older); err != nil {
		t.Fatal(err)
	}
	if _, err := db.SaveRun(newer); err != nil {
		t.Fatal(err)
	}

	latest, err := db.GetRunN(0)
	if err != nil {
		t.Fatal(err)
	}
	previous, err := db.GetRunN(1)
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.Metrics != 7 {
		t.Errorf("latest = %+v, want metrics 7", latest)
	}
	if previous == nil || previous.Metrics != 5 {
		t.Errorf("previous = %+v, want metrics 5", previous)
	}
}

func TestGetRunReportRoundTrip(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	defer db.Close()

	id, err := db.SaveRun(testReport())
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	rep, err := db.GetRunReport(id)
	if err != nil {
		t.Fatalf("GetRunReport: %v", err)
	}
	if rep == nil {
		t.Fatal("expected stored report")
	}
	if rep.Summary.Metrics != 12 || len(rep.Plan.Phases) != 2 {
		t.Errorf("report round trip lost data: %+v", rep.Summary)
	}
	if len(rep.AutoApplied) != 1 {
		t.Errorf("auto-applied list lost: %v", rep.AutoApplied)
	}

	missing, err := db.GetRunReport(id + 100)
	if err != nil {
		t.Fatalf("GetRunReport missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown run ID")
	}
}
