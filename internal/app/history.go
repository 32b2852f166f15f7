package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/perfadvisor/internal/config"
	"github.com/blackwell-systems/perfadvisor/internal/output"
	"github.com/blackwell-systems/perfadvisor/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past runs and compare against the previous one",
	Long: `Show stored analysis runs, newest first, with deltas against each
run's predecessor so regressions and improvements stand out over time.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if flagNoColor || !output.StdoutIsTTY() {
		output.SetNoColor(true)
	}

	db, err := store.Open(config.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	// Fetch one extra run so the oldest displayed row still has a
	// predecessor to diff against.
	runs, err := db.ListRuns(historyLimit + 1)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet. Run 'perfadvisor analyze' first.")
		return nil
	}

	shown := runs
	if len(shown) > historyLimit {
		shown = shown[:historyLimit]
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(shown)
	}

	tbl := output.NewTable("RUN", "DATE", "METRICS", "RECS", "CRITICAL", "HIGH", "PHASES", "APPLIED")
	for i, r := range shown {
		var prev *store.Run
		if i+1 < len(runs) {
			prev = runs[i+1]
		}
		tbl.AddRow(
			fmt.Sprintf("%d", r.ID),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", r.Metrics),
			delta(r.Recommendations, prev, func(p *store.Run) int { return p.Recommendations }),
			delta(r.Critical, prev, func(p *store.Run) int { return p.Critical }),
			delta(r.High, prev, func(p *store.Run) int { return p.High }),
			fmt.Sprintf("%d", r.Phases),
			fmt.Sprintf("%d", r.AutoApplied),
		)
	}
	tbl.Print()
	return nil
}

// delta formats a count with its change since the previous run. Fewer open
// recommendations is an improvement, so decreases render green.
func delta(cur int, prev *store.Run, field func(*store.Run) int) string {
	s := fmt.Sprintf("%d", cur)
	if prev == nil {
		return s
	}
	d := cur - field(prev)
	switch {
	case d > 0:
		return s + " " + output.StyleCritical.Render(fmt.Sprintf("↑%d", d))
	case d < 0:
		return s + " " + output.StyleOK.Render(fmt.Sprintf("↓%d", -d))
	default:
		return s
	}
}
