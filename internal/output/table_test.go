package output

import (
	"strings"
	"testing"

	"github.com/blackwell-systems/perfadvisor/internal/metric"
)

func TestTableRendersAlignedColumns(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	tbl := NewTable("KIND", "SEVERITY")
	tbl.AddRow("SLOW_QUERY", "critical")
	tbl.AddRow("MISSING_INDEX", "high")

	out := tbl.Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 { // header, separator, two rows
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "KIND") {
		t.Errorf("header missing: %q", lines[0])
	}
	// SEVERITY column starts at the same offset in every row.
	col := strings.Index(lines[0], "SEVERITY")
	if !strings.HasPrefix(lines[2][col:], "critical") {
		t.Errorf("row misaligned: %q", lines[2])
	}
}

func TestTableShortRowPadded(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	tbl := NewTable("A", "B")
	tbl.AddRow("only-a")
	out := tbl.Render()
	if !strings.Contains(out, "only-a") {
		t.Errorf("missing cell in output:\n%s", out)
	}
}

func TestSeverityRenderPlainWithoutColor(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	if got := Severity(metric.SeverityCritical); got != "critical" {
		t.Errorf("Severity = %q, want plain label with color disabled", got)
	}
	if got := Risk(metric.RiskHigh); got != "high" {
		t.Errorf("Risk = %q, want plain label with color disabled", got)
	}
}
