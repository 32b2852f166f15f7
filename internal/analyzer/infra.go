package analyzer

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/perfadvisor/internal/metric"
	"github.com/blackwell-systems/perfadvisor/internal/probe"
)

// InfraThresholds holds the tunable heuristic limits for the
// infrastructure analyzer.
type InfraThresholds struct {
	// CPUWarn triggers a high-severity recommendation; above CPUCritical
	// the severity escalates to critical.
	CPUWarn     float64
	CPUCritical float64

	// MemWarn triggers a high-severity recommendation; above MemCritical
	// the severity escalates to critical.
	MemWarn     float64
	MemCritical float64
}

// Infrastructure analyzes resource usage and health-check latency across a
// set of hosts.
type Infrastructure struct {
	metrics    probe.HostMetrics
	hosts      []string
	thresholds InfraThresholds
	log        *slog.Logger
}

// NewInfrastructure creates an infrastructure analyzer for the given hosts.
func NewInfrastructure(metrics probe.HostMetrics, hosts []string, th InfraThresholds, log *slog.Logger) *Infrastructure {
	if log == nil {
		log = slog.Default()
	}
	return &Infrastructure{metrics: metrics, hosts: hosts, thresholds: th, log: log}
}

func (a *Infrastructure) Name() string { return "infrastructure" }

// Analyze probes every host concurrently. An unreachable host contributes
// no metrics; a failed health check drops only that host's latency metric.
// Output preserves the configured host order.
func (a *Infrastructure) Analyze(ctx context.Context) ([]metric.Metric, error) {
	slots := make([][]metric.Metric, len(a.hosts))

	var g errgroup.Group
	for i, host := range a.hosts {
		slot, host := i, host
		g.Go(func() error {
			hctx := map[string]any{"host": host}

			res, err := a.metrics.ResourceUsage(ctx, host)
			if err != nil {
				a.log.Warn("host metrics probe degraded", "host", host, "err", err)
				return nil
			}
			slots[slot] = []metric.Metric{
				metric.New(MetricCPU, res.CPUPercent, "percent", hctx),
				metric.New(MetricMem, res.MemPercent, "percent", hctx),
				metric.New(MetricDisk, res.DiskPercent, "percent", hctx),
			}

			latency, err := a.metrics.HealthLatency(ctx, host)
			if err != nil {
				a.log.Warn("health check degraded", "host", host, "err", err)
				return nil
			}
			slots[slot] = append(slots[slot], metric.New(MetricHealth, float64(latency.Milliseconds()), "ms", hctx))
			return nil
		})
	}

	_ = g.Wait()
	return flatten(slots), ctx.Err()
}

// Recommend applies the CPU and memory pressure heuristics.
func (a *Infrastructure) Recommend(metrics []metric.Metric) []metric.Recommendation {
	var recs []metric.Recommendation
	for _, m := range metrics {
		host := contextString(m, "host")
		switch m.Name {
		case MetricCPU:
			if m.Value <= a.thresholds.CPUWarn {
				continue
			}
			severity := metric.SeverityHigh
			if m.Value > a.thresholds.CPUCritical {
				severity = metric.SeverityCritical
			}
			recs = append(recs, metric.Recommendation{
				Kind:            metric.KindHighCPU,
				Severity:        severity,
				Description:     fmt.Sprintf("host %s CPU at %.1f%%", host, m.Value),
				Solution:        "scale the service out or track down busy loops and unbounded work",
				ImprovementLow:  30,
				ImprovementHigh: 50,
				Hint:            fmt.Sprintf("capture a CPU profile on %s during peak load before resizing", host),
				Risk:            metric.RiskHigh,
			})

		case MetricMem:
			if m.Value <= a.thresholds.MemWarn {
				continue
			}
			severity := metric.SeverityHigh
			if m.Value > a.thresholds.MemCritical {
				severity = metric.SeverityCritical
			}
			recs = append(recs, metric.Recommendation{
				Kind:            metric.KindMemoryLeak,
				Severity:        severity,
				Description:     fmt.Sprintf("host %s memory at %.1f%%", host, m.Value),
				Solution:        "inspect heap growth for leaks; bound caches and queues",
				ImprovementLow:  20,
				ImprovementHigh: 40,
				Hint:            fmt.Sprintf("compare heap profiles on %s an hour apart; steady growth of one allocation site is the leak", host),
				Risk:            metric.RiskMedium,
			})
		}
	}
	return recs
}
