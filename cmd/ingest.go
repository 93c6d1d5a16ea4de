package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pable/go-fight-metrics/internal/model"
	"github.com/pable/go-fight-metrics/internal/parser"
)

var (
	ingestFighters string
	ingestEvents   string
	ingestFights   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Load scraped CSV tables into the store",
	Long: `Parse fighters.csv, events.csv and fights.csv (from dir, or the paths given
by flags) and store them. Within a file the first record of each id wins and
later copies are reported. Stored events and fights are never overwritten, and
stored fighter attributes are only filled in when missing, so re-ingesting the
same files is a no-op.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFighters, "fighters", "", "fighters CSV (default <dir>/fighters.csv)")
	ingestCmd.Flags().StringVar(&ingestEvents, "events", "", "events CSV (default <dir>/events.csv)")
	ingestCmd.Flags().StringVar(&ingestFights, "fights", "", "fights CSV (default <dir>/fights.csv)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	pick := func(flag, name string) string {
		if flag != "" {
			return flag
		}
		return filepath.Join(dir, name)
	}

	var rs model.RecordSet
	if err := parseFile(pick(ingestFighters, "fighters.csv"), func(r io.Reader) (err error) {
		rs.Fighters, err = parser.ParseFighters(r)
		return err
	}); err != nil {
		return err
	}
	if err := parseFile(pick(ingestEvents, "events.csv"), func(r io.Reader) (err error) {
		rs.Events, err = parser.ParseEvents(r)
		return err
	}); err != nil {
		return err
	}
	if err := parseFile(pick(ingestFights, "fights.csv"), func(r io.Reader) (err error) {
		rs.Fights, err = parser.ParseFights(r, cfg.RoundSeconds)
		return err
	}); err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	rep, err := db.Ingest(rs)
	if err != nil {
		return fmt.Errorf("store records: %w", err)
	}
	for _, is := range rep.Issues {
		logger.Warnw("ingest issue", "kind", is.Kind, "entity", is.Entity, "message", is.Message)
	}

	logger.Infow("ingested",
		"fighters", rep.Fighters, "events", rep.Events, "fights", rep.Fights,
		"skipped", rep.Skipped, "duplicates", len(rep.Issues))
	fmt.Fprintf(os.Stdout, "Stored %d fighters, %d new events, %d new fights (%d already stored).\n",
		rep.Fighters, rep.Events, rep.Fights, rep.Skipped)
	if len(rep.Issues) > 0 {
		fmt.Fprintf(os.Stdout, "Discarded %d duplicate records (%d fighters, %d events, %d fights); first copy kept.\n",
			len(rep.Issues), rep.DuplicateFighters, rep.DuplicateEvents, rep.DuplicateFights)
	}
	return nil
}

func parseFile(path string, parse func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if err := parse(f); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
