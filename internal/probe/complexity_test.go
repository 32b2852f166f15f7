package probe

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeSource(t *testing.T, name, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func scoresByName(fcs []FunctionComplexity) map[string]int {
	m := make(map[string]int, len(fcs))
	for _, fc := range fcs {
		m[fc.Function] = fc.Score
	}
	return m
}

func TestComplexityStraightLineIsOne(t *testing.T) {
	dir := writeSource(t, "a.go", `package a

func Simple() int { return 1 }
`)
	fcs, err := GoComplexity{}.Complexity(context.Background(), dir)
	if err != nil {
		t.Fatalf("Complexity: %v", err)
	}
	if got := scoresByName(fcs)["Simple"]; got != 1 {
		t.Errorf("Simple score = %d, want 1", got)
	}
}

func TestComplexityCountsDecisionPoints(t *testing.T) {
	dir := writeSource(t, "b.go", `package b

func Branchy(n int) int {
	total := 0
	for i := 0; i < n; i++ { // +1
		if i%2 == 0 && i > 2 { // +1 if, +1 &&
			total += i
		}
	}
	switch n {
	case 1: // +1
		total++
	case 2: // +1
		total--
	default:
	}
	return total
}
`)
	fcs, err := GoComplexity{}.Complexity(context.Background(), dir)
	if err != nil {
		t.Fatalf("Complexity: %v", err)
	}
	if got := scoresByName(fcs)["Branchy"]; got != 6 {
		t.Errorf("Branchy score = %d, want 6", got)
	}
}

func TestComplexityMethodsUseReceiverName(t *testing.T) {
	dir := writeSource(t, "c.go", `package c

type Server struct{}

func (s *Server) Handle() {}
`)
	fcs, err := GoComplexity{}.Complexity(context.Background(), dir)
	if err != nil {
		t.Fatalf("Complexity: %v", err)
	}
	if len(fcs) != 1 {
		t.Fatalf("got %d results, want 1", len(fcs))
	}
	if fcs[0].Function != "Server.Handle" || fcs[0].Kind != "method" {
		t.Errorf("got %+v, want Server.Handle method", fcs[0])
	}
}

func TestComplexitySkipsTestFiles(t *testing.T) {
	dir := writeSource(t, "d_test.go", `package d

func TestSomething(t *T) {}
`)
	fcs, err := GoComplexity{}.Complexity(context.Background(), dir)
	if err != nil {
		t.Fatalf("Complexity: %v", err)
	}
	if len(fcs) != 0 {
		t.Errorf("test files should be skipped, got %d results", len(fcs))
	}
}

func TestComplexitySkipsUnparsableFile(t *testing.T) {
	dir := writeSource(t, "good.go", `package m

func Fine() int { return 1 }
`)
	bad := filepath.Join(dir, "bad.go")
	if err := os.WriteFile(bad, []byte("package m\n\nfunc Broken( {\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	fcs, err := GoComplexity{}.Complexity(context.Background(), dir)
	if err != nil {
		t.Fatalf("one bad file must not fail the probe: %v", err)
	}
	if got := scoresByName(fcs)["Fine"]; got != 1 {
		t.Errorf("Fine score = %d, want 1 despite sibling parse failure", got)
	}
}

func TestComplexityAllFilesUnparsableIsMalformed(t *testing.T) {
	dir := writeSource(t, "bad.go", "package m\n\nfunc Broken( {\n")
	_, err := GoComplexity{}.Complexity(context.Background(), dir)
	if !IsMalformed(err) {
		t.Fatalf("expected malformed output error, got %v", err)
	}
}

func TestComplexityMissingPathUnavailable(t *testing.T) {
	_, err := GoComplexity{}.Complexity(context.Background(), "/nonexistent/source/tree")
	if err == nil {
		t.Fatal("expected error for missing path")
	}
}
