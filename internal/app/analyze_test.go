package app

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runAnalyzeCapture invokes runAnalyze with stdout redirected to a pipe and
// returns what was printed alongside the command error.
func runAnalyzeCapture(t *testing.T) (string, error) {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w

	cmdErr := runAnalyze(analyzeCmd, nil)

	_ = w.Close()
	os.Stdout = old
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return string(out), cmdErr
}

func TestAnalyzeRendersReportWhenEmitFails(t *testing.T) {
	dir := t.TempDir()

	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("pipeline:\n  top_n: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// A regular file where the report directory should go makes the JSON
	// sink fail after the pipeline has finished.
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	flagConfig = cfgPath
	analyzeOut = filepath.Join(blocker, "report.json")
	defer func() {
		flagConfig = ""
		analyzeOut = ""
	}()

	out, err := runAnalyzeCapture(t)
	if err == nil {
		t.Fatal("expected the sink failure to surface as an error")
	}
	if !strings.Contains(out, "Performance Analysis Report") {
		t.Errorf("completed run should still be rendered, got:\n%s", out)
	}
	if !strings.Contains(out, "collecting_code") {
		t.Errorf("stage table missing from rendered output:\n%s", out)
	}
}
