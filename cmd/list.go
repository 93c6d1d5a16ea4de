package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:       "list [events|fighters|runs]",
	Short:     "List stored events, fighters or runs",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"events", "fighters", "runs"},
	RunE:      runList,
}

func runList(cmd *cobra.Command, args []string) error {
	what := "events"
	if len(args) == 1 {
		what = args[0]
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	switch what {
	case "fighters":
		fighters, err := db.ListFighters()
		if err != nil {
			return fmt.Errorf("list fighters: %w", err)
		}
		if len(fighters) == 0 {
			fmt.Fprintln(os.Stdout, "No fighters stored yet. Run 'fightmetrics ingest <dir>' to add some.")
			return nil
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-28s  %6s\n", "ID", "NAME", "FIGHTS")
		fmt.Fprintf(os.Stdout, "%-36s  %-28s  %6s\n", "────────────────────────────────────", "────────────────────────────", "──────")
		for _, f := range fighters {
			fmt.Fprintf(os.Stdout, "%-36s  %-28s  %6d\n", f.ID, f.Name, f.Fights)
		}

	case "runs":
		runs, err := db.ListRuns()
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stdout, "No runs stored yet. Run 'fightmetrics build' to create one.")
			return nil
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-30s  %6s\n", "RUN", "CREATED", "ROWS")
		fmt.Fprintf(os.Stdout, "%-36s  %-30s  %6s\n", "────────────────────────────────────", "──────────────────────────────", "──────")
		for _, r := range runs {
			fmt.Fprintf(os.Stdout, "%-36s  %-30s  %6d\n", r.ID, r.CreatedAt, r.RowsOut)
		}

	default:
		events, err := db.ListEvents()
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		if len(events) == 0 {
			fmt.Fprintln(os.Stdout, "No events stored yet. Run 'fightmetrics ingest <dir>' to add some.")
			return nil
		}
		fmt.Fprintf(os.Stdout, "%-10s  %-40s  %6s  %s\n", "DATE", "EVENT", "FIGHTS", "ID")
		fmt.Fprintf(os.Stdout, "%-10s  %-40s  %6s  %s\n", "──────────", "────────────────────────────────────────", "──────", "──")
		for _, e := range events {
			date := "undated"
			if e.Date != nil {
				date = *e.Date
			}
			fmt.Fprintf(os.Stdout, "%-10s  %-40s  %6d  %s\n", date, e.Name, e.Fights, e.ID)
		}
	}
	return nil
}
