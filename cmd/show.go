package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-fight-metrics/internal/dataset"
	"github.com/pable/go-fight-metrics/internal/report"
)

var showCmd = &cobra.Command{
	Use:   "show <fighter-id|name>",
	Short: "Show a fighter's pre-fight snapshot timeline",
	Long: `Print the snapshot a fighter carried into each of their fights. The fighter
is matched by exact id, id prefix, or a case-insensitive name fragment.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	fighter, err := db.FindFighter(args[0])
	if err != nil {
		return err
	}

	records, err := db.LoadRecordSet()
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	opts := cfg.DatasetOptions()
	opts.KeepUnlabeled = true
	res, err := dataset.Assemble(cmd.Context(), records, opts, logger)
	if err != nil {
		return fmt.Errorf("assemble: %w", err)
	}

	report.PrintFighterHeader(os.Stdout, *fighter)
	tl, ok := res.Timelines[fighter.ID]
	if !ok || tl.Len() == 0 {
		fmt.Fprintln(os.Stdout, "No dated fights on record.")
		return nil
	}
	report.PrintTimeline(os.Stdout, tl)
	return nil
}
