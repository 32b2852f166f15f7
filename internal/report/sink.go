package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Sink receives the finished report. Emitting is a pure side effect; the
// pipeline never reads anything back from a sink.
type Sink interface {
	Emit(r *Report) error
}

// JSONSink writes the report as indented JSON to a file, creating parent
// directories as needed.
type JSONSink struct {
	Path string
}

func (s JSONSink) Emit(r *Report) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(s.Path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// WriterSink streams the report as JSON to an io.Writer.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Emit(r *Report) error {
	enc := json.NewEncoder(s.W)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// MultiSink fans a report out to several sinks. The first error stops the
// fan-out and is returned.
type MultiSink []Sink

func (m MultiSink) Emit(r *Report) error {
	for _, s := range m {
		if err := s.Emit(r); err != nil {
			return err
		}
	}
	return nil
}
