package probe

import (
	"context"
	"os"
	"sort"

	"github.com/google/pprof/profile"
)

// FileProfiler reads a pprof protobuf profile (as written by runtime/pprof
// or `go test -cpuprofile`) and aggregates cumulative time per function.
type FileProfiler struct{}

// Profile parses the profile at path. The file being missing or unreadable
// is an ErrUnavailable failure; a corrupt profile is MalformedOutputError.
func (FileProfiler) Profile(ctx context.Context, path string) ([]FunctionProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, Unavailable("profiler", err)
	}
	defer f.Close()

	prof, err := profile.Parse(f)
	if err != nil {
		return nil, &MalformedOutputError{Source: "profiler", Detail: err.Error()}
	}

	timeIdx, factor := timeValueIndex(prof)
	countIdx := countValueIndex(prof)

	type agg struct {
		seconds float64
		calls   int64
	}
	byFunc := make(map[string]*agg)

	for _, sample := range prof.Sample {
		if timeIdx >= len(sample.Value) {
			continue
		}
		seconds := float64(sample.Value[timeIdx]) * factor

		// Cumulative attribution: every function on the stack accrues the
		// sample once, regardless of how often it appears in the stack.
		seen := make(map[string]bool)
		var leaf string
		for _, loc := range sample.Location {
			for _, line := range loc.Line {
				if line.Function == nil {
					continue
				}
				name := line.Function.Name
				if leaf == "" {
					leaf = name
				}
				if seen[name] {
					continue
				}
				seen[name] = true
				a := byFunc[name]
				if a == nil {
					a = &agg{}
					byFunc[name] = a
				}
				a.seconds += seconds
			}
		}

		if leaf != "" && countIdx >= 0 && countIdx < len(sample.Value) {
			byFunc[leaf].calls += sample.Value[countIdx]
		}
	}

	out := make([]FunctionProfile, 0, len(byFunc))
	for name, a := range byFunc {
		out = append(out, FunctionProfile{
			Function:          name,
			CumulativeSeconds: a.seconds,
			CallCount:         a.calls,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CumulativeSeconds != out[j].CumulativeSeconds {
			return out[i].CumulativeSeconds > out[j].CumulativeSeconds
		}
		return out[i].Function < out[j].Function
	})
	return out, nil
}

// timeValueIndex picks the sample value column carrying time and the factor
// converting it to seconds. Falls back to the last column, which is the
// pprof default display value.
func timeValueIndex(p *profile.Profile) (int, float64) {
	for i, st := range p.SampleType {
		if st.Type == "cpu" || st.Unit == "nanoseconds" {
			return i, unitFactor(st.Unit)
		}
	}
	last := len(p.SampleType) - 1
	if last < 0 {
		return 0, 1
	}
	return last, unitFactor(p.SampleType[last].Unit)
}

func countValueIndex(p *profile.Profile) int {
	for i, st := range p.SampleType {
		if st.Type == "samples" || st.Unit == "count" {
			return i
		}
	}
	return -1
}

func unitFactor(unit string) float64 {
	switch unit {
	case "nanoseconds":
		return 1e-9
	case "microseconds":
		return 1e-6
	case "milliseconds":
		return 1e-3
	case "seconds":
		return 1
	default:
		return 1e-9
	}
}
