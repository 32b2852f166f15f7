package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/perfadvisor/internal/analyzer"
	"github.com/blackwell-systems/perfadvisor/internal/config"
	"github.com/blackwell-systems/perfadvisor/internal/metric"
	"github.com/blackwell-systems/perfadvisor/internal/output"
	"github.com/blackwell-systems/perfadvisor/internal/pipeline"
	"github.com/blackwell-systems/perfadvisor/internal/probe"
	"github.com/blackwell-systems/perfadvisor/internal/report"
	"github.com/blackwell-systems/perfadvisor/internal/store"
)

var (
	analyzeAutoApply bool
	analyzeOut       string
	analyzeTop       int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the analysis pipeline and build a remediation plan",
	Long: `Collect metrics from the configured sources (code profiles, database
execution plans, infrastructure hosts), rank the resulting recommendations
by impact, and lay them out as a phased remediation plan. Sources that are
not configured are skipped; sources that fail degrade their own stage and
the run continues with whatever was collected.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeAutoApply, "auto-apply", false, "Mark safe quick-win tasks as applied")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "", "Write the JSON report to this path (overrides report.json_path)")
	analyzeCmd.Flags().IntVar(&analyzeTop, "top", 0, "Number of top recommendations to show (overrides pipeline.top_n)")
	rootCmd.AddCommand(analyzeCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if flagNoColor || !cfg.Report.Color || !output.StdoutIsTTY() {
		output.SetNoColor(true)
	}

	log := newLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := pipeline.Options{
		StageTimeout: cfg.Pipeline.StageTimeout,
		AutoApply:    cfg.Pipeline.AutoApply || analyzeAutoApply,
		TopN:         cfg.Pipeline.TopN,
		Log:          log,
	}
	if analyzeTop > 0 {
		opts.TopN = analyzeTop
	}
	if len(cfg.Pipeline.AutoApplyKinds) > 0 {
		kinds := make([]metric.IssueKind, len(cfg.Pipeline.AutoApplyKinds))
		for i, k := range cfg.Pipeline.AutoApplyKinds {
			kinds[i] = metric.IssueKind(strings.ToUpper(k))
		}
		opts.AutoApplyKinds = kinds
	}

	if cfg.Code != nil {
		opts.Code = analyzer.NewCode(
			probe.FileProfiler{},
			probe.GoComplexity{},
			cfg.Code.ProfilePath,
			cfg.Code.SourcePaths,
			analyzer.CodeThresholds{
				ComplexityWarn:             cfg.Code.Thresholds.ComplexityWarn,
				ComplexityHigh:             cfg.Code.Thresholds.ComplexityHigh,
				HotFunctionSeconds:         cfg.Code.Thresholds.HotFunctionSeconds,
				HotFunctionCriticalSeconds: cfg.Code.Thresholds.HotFunctionCriticalSeconds,
			},
			log,
		)
	}

	if cfg.Database != nil {
		pg, err := probe.NewPGExplain(ctx, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("database probe: %w", err)
		}
		defer pg.Close()
		opts.Database = analyzer.NewDatabase(
			pg,
			cfg.Database.Queries,
			analyzer.DatabaseThresholds{
				SlowQueryMs:     cfg.Database.Thresholds.SlowQueryMs,
				CriticalQueryMs: cfg.Database.Thresholds.CriticalQueryMs,
			},
			log,
		)
	}

	if cfg.Infrastructure != nil {
		targets := make([]probe.HostTarget, len(cfg.Infrastructure.Hosts))
		hostIDs := make([]string, len(cfg.Infrastructure.Hosts))
		for i, h := range cfg.Infrastructure.Hosts {
			targets[i] = probe.HostTarget{ID: h.ID, MetricsURL: h.MetricsURL, HealthURL: h.HealthURL}
			hostIDs[i] = h.ID
		}
		opts.Infrastructure = analyzer.NewInfrastructure(
			probe.NewAgentClient(targets, cfg.Infrastructure.ProbeTimeout),
			hostIDs,
			analyzer.InfraThresholds{
				CPUWarn:     cfg.Infrastructure.Thresholds.CPUWarn,
				CPUCritical: cfg.Infrastructure.Thresholds.CPUCritical,
				MemWarn:     cfg.Infrastructure.Thresholds.MemWarn,
				MemCritical: cfg.Infrastructure.Thresholds.MemCritical,
			},
			log,
		)
	}

	jsonPath := cfg.Report.JSONPath
	if analyzeOut != "" {
		jsonPath = analyzeOut
	}
	var sinks report.MultiSink
	if jsonPath != "" {
		sinks = append(sinks, report.JSONSink{Path: jsonPath})
	}
	if flagJSON {
		sinks = append(sinks, report.WriterSink{W: os.Stdout})
	}
	if len(sinks) > 0 {
		opts.Sink = sinks
	}

	rep, runErr := pipeline.New(opts).Run(ctx)
	if rep == nil {
		return runErr
	}

	// A sink failure still leaves a complete report behind; render it
	// before surfacing the error.
	if !flagJSON {
		renderReport(rep)
	}
	if runErr != nil {
		return runErr
	}

	// Run history is secondary output; a broken database must not eat the
	// report that was just built.
	if db, derr := store.Open(config.DBPath()); derr != nil {
		log.Warn("run history unavailable", "err", derr)
	} else {
		if _, serr := db.SaveRun(rep); serr != nil {
			log.Warn("saving run failed", "err", serr)
		}
		_ = db.Close()
	}

	return nil
}

func renderReport(rep *report.Report) {
	fmt.Println(output.StyleHeader.Render("Performance Analysis Report"))
	fmt.Println(output.StyleMuted.Render("generated " + rep.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
	fmt.Println()

	// Stage outcomes.
	stages := output.NewTable("STAGE", "STATUS")
	for _, s := range rep.Stages {
		status := "ok"
		switch {
		case s.Skipped:
			status = "skipped: " + s.Reason
		case s.Reason != "":
			status = s.Reason
		}
		stages.AddRow(s.Stage, status)
	}
	stages.Print()
	fmt.Println()

	fmt.Printf("%s  %d metrics, %d recommendations",
		output.StyleBold.Render("Summary:"),
		rep.Summary.Metrics, rep.Summary.Recommendations)
	if n := rep.Summary.BySeverity[metric.SeverityCritical]; n > 0 {
		fmt.Printf(", %s critical", output.StyleCritical.Render(fmt.Sprintf("%d", n)))
	}
	if n := rep.Summary.BySeverity[metric.SeverityHigh]; n > 0 {
		fmt.Printf(", %s high", output.StyleHigh.Render(fmt.Sprintf("%d", n)))
	}
	fmt.Println()
	fmt.Println()

	if len(rep.Top) > 0 {
		fmt.Println(output.StyleHeader.Render("Top Recommendations"))
		top := output.NewTable("#", "KIND", "SEVERITY", "RISK", "SCORE", "EST. GAIN")
		for i, r := range rep.Top {
			top.AddRow(
				fmt.Sprintf("%d", i+1),
				string(r.Kind),
				output.Severity(r.Severity),
				output.Risk(r.Risk),
				fmt.Sprintf("%.2f", r.Score),
				fmt.Sprintf("%d-%d%%", r.ImprovementLow, r.ImprovementHigh),
			)
		}
		top.Print()
		fmt.Println()
	}

	for _, phase := range rep.Plan.Phases {
		fmt.Printf("%s %s\n",
			output.StyleHeader.Render(phase.Name),
			output.StyleMuted.Render("("+phase.ExpectedDuration+")"))
		for _, t := range phase.Tasks {
			marker := "•"
			if t.Applied {
				marker = output.StyleOK.Render("✓")
			}
			fmt.Printf("  %s %s\n", marker, t.Description)
			if t.Solution != "" {
				fmt.Printf("    %s\n", output.StyleMuted.Render(t.Solution))
			}
			var flags []string
			if t.TestingRequired {
				flags = append(flags, "testing required")
			}
			if t.ApprovalRequired {
				flags = append(flags, "approval required")
			}
			if t.Applied {
				flags = append(flags, "applied")
			}
			if len(flags) > 0 {
				fmt.Printf("    %s\n", output.StyleMuted.Render(strings.Join(flags, ", ")))
			}
		}
		fmt.Println()
	}

	if rep.Summary.NotScheduled > 0 {
		fmt.Println(output.StyleMuted.Render(
			fmt.Sprintf("%d low-impact recommendation(s) not scheduled", rep.Summary.NotScheduled)))
	}
	if len(rep.AutoApplied) > 0 {
		fmt.Printf("%s %d quick fix(es) marked applied\n",
			output.StyleOK.Render("Auto-apply:"), len(rep.AutoApplied))
	}
}
