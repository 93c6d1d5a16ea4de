package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-fight-metrics/internal/dataset"
	"github.com/pable/go-fight-metrics/internal/export"
	"github.com/pable/go-fight-metrics/internal/report"
)

var (
	buildWorkers       int
	buildMirror        bool
	buildKeepUnlabeled bool
	buildOrientation   string
	buildThreshold     float64
	buildOut           string
	buildNoSave        bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Assemble the pre-fight feature dataset from stored records",
	Long: `Build one row per fight from the fighters' snapshots as of the day before
the fight. Only fights dated strictly earlier ever contribute to a snapshot.

The run is stored (rows, diagnostics and issues) unless --no-save is given.

Example:
  fightmetrics build --mirror --out dataset.csv`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().IntVar(&buildWorkers, "workers", 0, "timeline workers (overrides config)")
	buildCmd.Flags().BoolVar(&buildMirror, "mirror", false, "also emit the B-vs-A row for every fight")
	buildCmd.Flags().BoolVar(&buildKeepUnlabeled, "keep-unlabeled", false, "keep draws and no-contests with a missing label")
	buildCmd.Flags().StringVar(&buildOrientation, "orientation", "", "which fighter is A: corner or hashed")
	buildCmd.Flags().Float64Var(&buildThreshold, "missing-threshold", 0, "flag rows missing more than this share of features")
	buildCmd.Flags().StringVar(&buildOut, "out", "", "also write the dataset to this .csv, .json or .xlsx file")
	buildCmd.Flags().BoolVar(&buildNoSave, "no-save", false, "do not store the run")
}

func buildOptions(cmd *cobra.Command) dataset.Options {
	opts := cfg.DatasetOptions()
	flags := cmd.Flags()
	if flags.Changed("workers") {
		opts.Workers = buildWorkers
	}
	if flags.Changed("mirror") {
		opts.Mirror = buildMirror
	}
	if flags.Changed("keep-unlabeled") {
		opts.KeepUnlabeled = buildKeepUnlabeled
	}
	if flags.Changed("orientation") {
		opts.Orientation = dataset.Orientation(buildOrientation)
	}
	if flags.Changed("missing-threshold") {
		opts.MissingThreshold = buildThreshold
	}
	return opts
}

func runBuild(cmd *cobra.Command, _ []string) error {
	var format export.Format
	if buildOut != "" {
		f, err := export.FormatFromPath(buildOut)
		if err != nil {
			return err
		}
		format = f
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := db.LoadRecordSet()
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	opts := buildOptions(cmd)
	res, err := dataset.Assemble(cmd.Context(), records, opts, logger)
	if err != nil {
		return fmt.Errorf("assemble: %w", err)
	}

	if !buildNoSave {
		id, err := db.SaveRun(res, opts)
		if err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		logger.Infow("run stored", "run", id, "rows", len(res.Rows))
		fmt.Fprintf(os.Stdout, "Run %s: %d rows.\n\n", id, len(res.Rows))
	}

	if buildOut != "" {
		if err := export.WriteFile(buildOut, format, res.Rows, &res.Diagnostics); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Wrote %d rows to %s\n\n", len(res.Rows), buildOut)
	}

	report.PrintDiagnostics(os.Stdout, &res.Diagnostics, 20)
	return nil
}
