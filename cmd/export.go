package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-fight-metrics/internal/export"
	"github.com/pable/go-fight-metrics/internal/storage"
)

var exportRunID string

var exportCmd = &cobra.Command{
	Use:   "export <out.csv|out.json|out.xlsx>",
	Short: "Write a stored run's dataset to a file",
	Long: `Write the rows of a stored run (the latest by default) to CSV, JSON or XLSX,
chosen by the file extension. Missing values are NA in CSV/XLSX and null in JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportRunID, "run", "", "run id (default: latest run)")
}

func runExport(cmd *cobra.Command, args []string) error {
	out := args[0]
	format, err := export.FormatFromPath(out)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	runID, err := resolveRun(db, exportRunID)
	if err != nil {
		return err
	}
	rows, err := db.LoadRunRows(runID)
	if err != nil {
		return err
	}
	diag, err := db.RunDiagnostics(runID)
	if err != nil {
		return err
	}

	if err := export.WriteFile(out, format, rows, diag); err != nil {
		return err
	}
	logger.Infow("exported", "run", runID, "rows", len(rows), "path", out)
	fmt.Fprintf(os.Stdout, "Wrote %d rows from run %s to %s\n", len(rows), runID, out)
	return nil
}

// resolveRun returns id, or the latest run's id when id is empty.
func resolveRun(db *storage.DB, id string) (string, error) {
	if id != "" {
		return id, nil
	}
	latest, err := db.LatestRun()
	if err != nil {
		return "", fmt.Errorf("%w (run 'fightmetrics build' first)", err)
	}
	return latest.ID, nil
}
