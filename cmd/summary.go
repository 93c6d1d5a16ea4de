package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pable/go-fight-metrics/internal/model"
	"github.com/pable/go-fight-metrics/internal/report"
	"github.com/pable/go-fight-metrics/internal/storage"
)

var (
	summaryRunID     string
	summaryMaxIssues int
)

// summaryCmd is the cobra command for displaying a high-level database overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the store and the latest run",
	Long: `Display aggregate statistics about the stored records (counts, date range,
results, weight classes) and, when a run exists, its diagnostics and
per-feature coverage with the correlation of each feature to the label.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().StringVar(&summaryRunID, "run", "", "run id (default: latest run)")
	summaryCmd.Flags().IntVar(&summaryMaxIssues, "issues", 20, "max issues to print (0 = all)")
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ov, err := db.GetOverview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.Fights == 0 {
		fmt.Fprintln(os.Stdout, "No fights stored yet. Run 'fightmetrics ingest <dir>' to add some.")
		return nil
	}

	earliest, latest := "?", "?"
	if ov.Earliest != nil {
		earliest = *ov.Earliest
	}
	if ov.Latest != nil {
		latest = *ov.Latest
	}
	fmt.Fprintf(os.Stdout, "\n=== Store Summary ===\n\n")
	fmt.Fprintf(os.Stdout, "  Fighters      : %d\n", ov.Fighters)
	fmt.Fprintf(os.Stdout, "  Events        : %d\n", ov.Events)
	fmt.Fprintf(os.Stdout, "  Fights        : %d\n", ov.Fights)
	fmt.Fprintf(os.Stdout, "  Date range    : %s → %s\n", earliest, latest)
	fmt.Fprintf(os.Stdout, "  Runs stored   : %d\n", ov.Runs)

	results, err := db.ResultCounts()
	if err != nil {
		return fmt.Errorf("get result counts: %w", err)
	}
	fmt.Fprintf(os.Stdout, "\n--- Results ---\n\n")
	rt := newSummaryTable()
	rt.Header("RESULT", "FIGHTS")
	for _, r := range []model.Result{model.ResultWin, model.ResultDraw, model.ResultNoContest, model.ResultUnknown} {
		rt.Append(r.String(), fmt.Sprintf("%d", results[int(r)]))
	}
	rt.Render()

	classes, err := db.WeightClassCounts()
	if err != nil {
		return fmt.Errorf("get weight classes: %w", err)
	}
	if len(classes) > 1 {
		fmt.Fprintf(os.Stdout, "\n--- Weight Classes ---\n\n")
		wt := newSummaryTable()
		wt.Header("WEIGHT CLASS", "FIGHTS")
		for _, c := range classes {
			name := c.Key
			if name == "" {
				name = "(unknown)"
			}
			wt.Append(name, fmt.Sprintf("%d", c.Fights))
		}
		wt.Render()
	}

	runID, err := resolveRun(db, summaryRunID)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintln(os.Stdout, "\nNo runs stored yet. Run 'fightmetrics build' to create one.")
		return nil
	}
	if err != nil {
		return err
	}
	diag, err := db.RunDiagnostics(runID)
	if err != nil {
		return err
	}
	rows, err := db.LoadRunRows(runID)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "\n--- Run %s ---\n\n", runID)
	report.PrintDiagnostics(os.Stdout, diag, summaryMaxIssues)
	fmt.Fprintf(os.Stdout, "\n--- Feature Coverage ---\n\n")
	report.PrintCoverage(os.Stdout, report.Coverage(rows))
	return nil
}

func newSummaryTable() *tablewriter.Table {
	return tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}
