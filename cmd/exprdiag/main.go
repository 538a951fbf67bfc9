// Package main implements the exprdiag CLI, the command-line front end
// for the expression diagnostics engine.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"exprdiag/internal/config"
	"exprdiag/internal/logging"
	"exprdiag/internal/report"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dbPath     string
	saveRun    bool
	timeout    time.Duration

	// Loaded once in PersistentPreRunE, shared by every subcommand
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "exprdiag",
	Short: "Expression diagnostics for emotion and sexual prototype catalogs",
	Long: `exprdiag analyzes expression catalogs against sampled simulation states.

It detects behaviorally overlapping prototype pairs, checks non-axis
prerequisite clauses for empirical feasibility, explains mood-axis
conflicts, and validates variable paths against the prototype catalog.

Runs can be archived in a local SQLite database and diffed against each
other to track how catalog edits shift clause feasibility.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		logger, err = logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "exprdiag.yaml", "Config file path (defaults apply when missing)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Run archive database path (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&saveRun, "save", false, "Archive the run in the report database")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	// Add commands to root
	rootCmd.AddCommand(overlapCmd)
	rootCmd.AddCommand(feasibilityCmd)
	rootCmd.AddCommand(conflictsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(diffCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore opens the run archive at the --db override or the configured
// path. Callers own the returned store and must close it.
func openStore() (*report.Store, error) {
	path := dbPath
	if path == "" {
		path = cfg.Report.DatabasePath
	}
	return report.Open(path, logger)
}

// printJSON renders a result envelope to stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
