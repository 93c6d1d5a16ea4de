package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-fight-metrics/internal/config"
	"github.com/pable/go-fight-metrics/internal/logging"
	"github.com/pable/go-fight-metrics/internal/storage"
)

var (
	dbPath    string
	logLevel  string
	logFormat string
	noColor   bool

	cfg    *config.Config
	logger *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:   "fightmetrics",
	Short: "MMA fight feature pipeline",
	Long: `Ingest scraped fighter, event and fight tables, build leakage-free
pre-fight feature datasets, and inspect fighter timelines.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultDB := filepath.Join(mustUserHome(), ".fightmetrics", "fights.db")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console or json (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
}

// setup loads .env, the layered config and the logger before any command.
func setup(cmd *cobra.Command, _ []string) error {
	if noColor {
		color.NoColor = true
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	c, err := config.Load()
	if err != nil {
		return err
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if logFormat != "" {
		c.LogFormat = logFormat
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c

	l, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	logger = l.Sugar()
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if logger != nil {
		// Sync on a terminal stderr returns ENOTTY; nothing to report.
		_ = logger.Sync()
	}
	return nil
}

// openDB opens the configured store. For sqlite the --db path is used and its
// directory created; db_dsn, when set, takes precedence.
func openDB() (*storage.DB, error) {
	dsn := cfg.DBDSN
	if dsn == "" {
		if cfg.DBDriver == storage.DriverPostgres {
			return nil, fmt.Errorf("postgres requires db_dsn")
		}
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dsn = dbPath
	}
	db, err := storage.Open(cfg.DBDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
