package analyzer

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/perfadvisor/internal/metric"
	"github.com/blackwell-systems/perfadvisor/internal/probe"
)

// CodeThresholds holds the tunable heuristic limits for the code analyzer.
type CodeThresholds struct {
	// ComplexityWarn triggers a medium-severity recommendation; above
	// ComplexityHigh the severity escalates to high.
	ComplexityWarn int
	ComplexityHigh int

	// HotFunctionSeconds triggers a high-severity recommendation; above
	// HotFunctionCriticalSeconds the severity escalates to critical.
	HotFunctionSeconds         float64
	HotFunctionCriticalSeconds float64
}

// Code analyzes profiled execution time and cyclomatic complexity of a
// codebase.
type Code struct {
	profiler    probe.Profiler
	complexity  probe.Complexity
	profilePath string
	sourcePaths []string
	thresholds  CodeThresholds
	log         *slog.Logger
}

// NewCode creates a code analyzer. profilePath may be empty to skip
// profiling; sourcePaths may be empty to skip complexity scoring.
func NewCode(profiler probe.Profiler, complexity probe.Complexity, profilePath string, sourcePaths []string, th CodeThresholds, log *slog.Logger) *Code {
	if log == nil {
		log = slog.Default()
	}
	return &Code{
		profiler:    profiler,
		complexity:  complexity,
		profilePath: profilePath,
		sourcePaths: sourcePaths,
		thresholds:  th,
		log:         log,
	}
}

func (c *Code) Name() string { return "code" }

// Analyze runs the profile probe and one complexity probe per source path
// concurrently. Results land in a slot per target so output order matches
// target order regardless of completion order.
func (c *Code) Analyze(ctx context.Context) ([]metric.Metric, error) {
	slots := make([][]metric.Metric, 1+len(c.sourcePaths))

	var g errgroup.Group
	if c.profilePath != "" {
		g.Go(func() error {
			profiles, err := c.profiler.Profile(ctx, c.profilePath)
			if err != nil {
				c.log.Warn("profiler probe degraded", "path", c.profilePath, "err", err)
				return nil
			}
			for _, p := range profiles {
				slots[0] = append(slots[0], metric.New(MetricHotFunction, p.CumulativeSeconds, "seconds", map[string]any{
					"function": p.Function,
					"calls":    p.CallCount,
				}))
			}
			return nil
		})
	}

	for i, path := range c.sourcePaths {
		slot, path := i+1, path
		g.Go(func() error {
			scores, err := c.complexity.Complexity(ctx, path)
			if err != nil {
				c.log.Warn("complexity probe degraded", "path", path, "err", err)
				return nil
			}
			for _, s := range scores {
				slots[slot] = append(slots[slot], metric.New(MetricComplexity, float64(s.Score), "count", map[string]any{
					"function": s.Function,
					"kind":     s.Kind,
					"path":     metric.Excerpt(path),
				}))
			}
			return nil
		})
	}

	_ = g.Wait()
	return flatten(slots), ctx.Err()
}

// Recommend applies the complexity and hot-function heuristics. When both
// fire for the same function, both recommendations are emitted: they lead
// to different remediations (refactor versus cache).
func (c *Code) Recommend(metrics []metric.Metric) []metric.Recommendation {
	var recs []metric.Recommendation
	for _, m := range metrics {
		switch m.Name {
		case MetricComplexity:
			if int(m.Value) <= c.thresholds.ComplexityWarn {
				continue
			}
			severity := metric.SeverityMedium
			if int(m.Value) > c.thresholds.ComplexityHigh {
				severity = metric.SeverityHigh
			}
			fn := contextString(m, "function")
			recs = append(recs, metric.Recommendation{
				Kind:            metric.KindInefficientAlgorithm,
				Severity:        severity,
				Description:     fmt.Sprintf("function %s has cyclomatic complexity %d", fn, int(m.Value)),
				Solution:        "refactor into smaller functions and simplify branching; consider a better-suited algorithm or data structure",
				ImprovementLow:  20,
				ImprovementHigh: 40,
				Hint:            fmt.Sprintf("start by extracting the deepest branches of %s into named helpers", fn),
				Risk:            metric.RiskHigh,
			})

		case MetricHotFunction:
			if m.Value <= c.thresholds.HotFunctionSeconds {
				continue
			}
			severity := metric.SeverityHigh
			if m.Value > c.thresholds.HotFunctionCriticalSeconds {
				severity = metric.SeverityCritical
			}
			fn := contextString(m, "function")
			recs = append(recs, metric.Recommendation{
				Kind:            metric.KindHotFunction,
				Severity:        severity,
				Description:     fmt.Sprintf("function %s accounts for %.3fs of execution time", fn, m.Value),
				Solution:        "cache or memoize results, or hoist the call out of hot loops",
				ImprovementLow:  20,
				ImprovementHigh: 30,
				Hint:            fmt.Sprintf("profile callers of %s; a result cache keyed on its arguments usually pays off first", fn),
				Risk:            metric.RiskLow,
			})
		}
	}
	return recs
}
