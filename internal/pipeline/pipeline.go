// Package pipeline drives the analysis run: it invokes the configured
// analyzers in stage order, aggregates their metrics and recommendations,
// ranks them, builds the remediation plan, optionally auto-applies safe
// quick fixes, and hands the finished report to a sink.
//
// The stage machine is strictly sequential with no backward transitions.
// A stage with no configuration is skipped, not failed; a degraded or
// timed-out analyzer stage records its reason and the run continues.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blackwell-systems/perfadvisor/internal/analyzer"
	"github.com/blackwell-systems/perfadvisor/internal/metric"
	"github.com/blackwell-systems/perfadvisor/internal/plan"
	"github.com/blackwell-systems/perfadvisor/internal/priority"
	"github.com/blackwell-systems/perfadvisor/internal/report"
)

// Stage identifies one step of the run.
type Stage int

const (
	StageIdle Stage = iota
	StageCollectingCode
	StageCollectingDatabase
	StageCollectingInfrastructure
	StagePrioritizing
	StagePlanning
	StageApplyingQuickFixes
	StageReporting
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageCollectingCode:
		return "collecting_code"
	case StageCollectingDatabase:
		return "collecting_database"
	case StageCollectingInfrastructure:
		return "collecting_infrastructure"
	case StagePrioritizing:
		return "prioritizing"
	case StagePlanning:
		return "planning"
	case StageApplyingQuickFixes:
		return "applying_quick_fixes"
	case StageReporting:
		return "reporting"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// ErrInvariant signals a scoring/partition bug: the plan lost or duplicated
// a ranked recommendation. It is fatal to the run.
var ErrInvariant = errors.New("internal invariant violation")

// DefaultAutoApplyKinds are the issue kinds considered safe enough for
// quick-fix auto-application: cache and index work only.
var DefaultAutoApplyKinds = []metric.IssueKind{
	metric.KindHotFunction,
	metric.KindMissingIndex,
	metric.KindUnusedIndex,
}

// Options configures a Pipeline. A nil analyzer means that stage is
// skipped.
type Options struct {
	Code           analyzer.Analyzer
	Database       analyzer.Analyzer
	Infrastructure analyzer.Analyzer

	// Sink receives the finished report; nil disables emission.
	Sink report.Sink

	// StageTimeout bounds each analyzer stage; zero means no deadline.
	StageTimeout time.Duration

	// AutoApply enables marking safe quick-win tasks as applied.
	AutoApply bool

	// AutoApplyKinds overrides DefaultAutoApplyKinds when non-nil.
	AutoApplyKinds []metric.IssueKind

	// TopN bounds the report's top recommendation list; zero means 5.
	TopN int

	Log *slog.Logger
}

// Pipeline runs the analysis stages for one configuration snapshot. The
// accumulating collections are owned exclusively by the pipeline; analyzers
// return private slices that are appended only after their stage completes.
type Pipeline struct {
	opts  Options
	log   *slog.Logger
	stage Stage
}

// New creates a Pipeline. The options are treated as a read-only snapshot
// for the duration of every Run.
func New(opts Options) *Pipeline {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	if opts.TopN <= 0 {
		opts.TopN = 5
	}
	if opts.AutoApplyKinds == nil {
		opts.AutoApplyKinds = DefaultAutoApplyKinds
	}
	return &Pipeline{opts: opts, log: log, stage: StageIdle}
}

// Stage returns the pipeline's current stage.
func (p *Pipeline) Stage() Stage { return p.stage }

// Run executes the full pipeline and returns the report. Analyzer failures
// degrade their own stage only; the only fatal conditions are a cancelled
// context, a partition invariant violation, and a sink failure.
func (p *Pipeline) Run(ctx context.Context) (*report.Report, error) {
	var (
		metrics []metric.Metric
		recs    []metric.Recommendation
		stages  []report.StageStatus
	)

	collectors := []struct {
		stage Stage
		a     analyzer.Analyzer
	}{
		{StageCollectingCode, p.opts.Code},
		{StageCollectingDatabase, p.opts.Database},
		{StageCollectingInfrastructure, p.opts.Infrastructure},
	}
	for _, c := range collectors {
		ms, rs, status := p.collect(ctx, c.stage, c.a)
		metrics = append(metrics, ms...)
		recs = append(recs, rs...)
		stages = append(stages, status)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	p.stage = StagePrioritizing
	ranked := priority.Rank(recs)

	p.stage = StagePlanning
	pl := plan.Build(ranked)
	if pl.TaskCount()+pl.Dropped != len(ranked) {
		return nil, fmt.Errorf("%w: plan placed %d and dropped %d of %d recommendations",
			ErrInvariant, pl.TaskCount(), pl.Dropped, len(ranked))
	}

	p.stage = StageApplyingQuickFixes
	var applied []string
	if p.opts.AutoApply {
		applied = p.applyQuickFixes(&pl)
		stages = append(stages, report.StageStatus{Stage: StageApplyingQuickFixes.String(), Ran: true})
	} else {
		stages = append(stages, report.StageStatus{Stage: StageApplyingQuickFixes.String(), Skipped: true, Reason: "auto-apply disabled"})
	}

	p.stage = StageReporting
	rep := report.Build(metrics, ranked, pl, stages, applied, p.opts.TopN)
	if p.opts.Sink != nil {
		if err := p.opts.Sink.Emit(rep); err != nil {
			return rep, fmt.Errorf("emit report: %w", err)
		}
	}

	p.stage = StageDone
	return rep, nil
}

// collect runs one analyzer stage under the configured deadline. Probe
// failures and timeouts degrade the stage; they never abort the run.
func (p *Pipeline) collect(ctx context.Context, stage Stage, a analyzer.Analyzer) ([]metric.Metric, []metric.Recommendation, report.StageStatus) {
	p.stage = stage
	if a == nil {
		return nil, nil, report.StageStatus{Stage: stage.String(), Skipped: true, Reason: "not configured"}
	}

	sctx := ctx
	if p.opts.StageTimeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, p.opts.StageTimeout)
		defer cancel()
	}

	status := report.StageStatus{Stage: stage.String(), Ran: true}
	ms, err := a.Analyze(sctx)
	if err != nil && ctx.Err() == nil {
		// Stage deadline or probe failure: keep whatever came back.
		p.log.Warn("analyzer stage degraded", "analyzer", a.Name(), "err", err)
		status.Reason = "degraded: " + err.Error()
	}

	return ms, a.Recommend(ms), status
}

// applyQuickFixes marks Quick Wins tasks whose kind is in the allow-list as
// applied. Task hints are advisory text for a human and are never executed.
func (p *Pipeline) applyQuickFixes(pl *plan.Plan) []string {
	quick := pl.Phase(plan.PhaseQuickWins)
	if quick == nil {
		return nil
	}

	allowed := make(map[metric.IssueKind]bool, len(p.opts.AutoApplyKinds))
	for _, k := range p.opts.AutoApplyKinds {
		allowed[k] = true
	}

	var applied []string
	for i := range quick.Tasks {
		if !allowed[quick.Tasks[i].Kind] {
			continue
		}
		quick.Tasks[i].Applied = true
		applied = append(applied, quick.Tasks[i].Description)
		p.log.Info("quick fix marked applied", "kind", quick.Tasks[i].Kind, "task", quick.Tasks[i].Description)
	}
	return applied
}
