package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-fight-metrics/internal/storage"
)

var (
	dropForce bool
	dropRun   string
)

// dropCmd deletes the fight database file, or a single stored run.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the fight database or one stored run",
	Long: `Permanently delete the SQLite fight database. All ingested records and runs
will be lost; re-ingest your CSV tables afterwards to rebuild.

With --run, only that run's rows, diagnostics and issues are removed.`,
	Args: cobra.NoArgs,
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
	dropCmd.Flags().StringVar(&dropRun, "run", "", "delete only this run")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if dropRun != "" {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.DeleteRun(dropRun); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Deleted run %s\n", dropRun)
		return nil
	}

	if cfg.DBDriver != storage.DriverSQLite || cfg.DBDSN != "" {
		return fmt.Errorf("drop only removes a local SQLite file; drop %s databases with their own tooling", cfg.DBDriver)
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if err := os.Remove(dbPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(dbPath + suffix)
	}
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}
