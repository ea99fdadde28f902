// Package cmd implements the clinvoice command line interface.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/xolan/clinvoice/internal/config"
	"github.com/xolan/clinvoice/internal/ledger"
	"github.com/xolan/clinvoice/internal/period"
)

// logger is the process-wide leveled logger. Verbosity is raised by the
// persistent --verbose flag before any subcommand runs.
var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: false,
	Level:           log.WarnLevel,
})

var rootCmd = &cobra.Command{
	Use:   "clinvoice",
	Short: "Turn plain-text timesheets into invoices",
	Long: `clinvoice reads plain-text timesheet files (.cli), aggregates the
logged hours and costs, and generates invoices with unique sequence
numbers.

Timesheet format: a date line (2024.01.15, 20240115, or 2024-01-15)
followed by entry lines until the next date line.

  8h = Implemented the parser
  09:00-12:30 = Code review
  $150 = License fee
  -2h = Discount for rework
  * Met with the client
  # full-line comment

Period selectors: 2024 (year), 2024.03 (month), 2024.03.15 (day), or an
explicit range like 2024.01..2024.03.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		switch {
		case verbosity >= 2:
			logger.SetLevel(log.DebugLevel)
		case verbosity == 1:
			logger.SetLevel(log.InfoLevel)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("directory", "d", ".", "directory containing .cli timesheet files")
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to clinvoice.toml (default: searched)")
	rootCmd.PersistentFlags().CountP("verbose", "v", "increase log verbosity (-v info, -vv debug)")
}

// SetVersionInfo sets the version information for the CLI.
func SetVersionInfo(version, commit, date string) {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(
		"clinvoice version {{.Version}}\n" +
			"commit: " + commit + "\n" +
			"built: " + date + "\n",
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// fail reports an error and exits nonzero through the injected deps.
func fail(err error) {
	_, _ = fmt.Fprintf(deps.Stderr, "Error: %v\n", err)
	deps.Exit(1)
}

// loadConfig locates and loads the configuration for a command.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	directory, _ := cmd.Flags().GetString("directory")
	explicit, _ := cmd.Flags().GetString("config")
	path, err := config.Find(explicit, directory)
	if err != nil {
		return nil, err
	}
	logger.Debug("using configuration", "path", path)
	return config.Load(path)
}

// loadLedger parses all timesheet sources under the --directory flag.
func loadLedger(cmd *cobra.Command) (ledger.Ledger, error) {
	directory, _ := cmd.Flags().GetString("directory")
	l, err := ledger.LoadDir(directory)
	if err != nil {
		return ledger.Ledger{}, err
	}
	logger.Debug("loaded timesheets", "directory", directory, "dates", l.Len())
	return l, nil
}

// resolvePeriod parses an optional period selector argument. With no
// argument the fallback range is returned.
func resolvePeriod(args []string, fallback period.DateRange) (period.DateRange, error) {
	if len(args) == 0 {
		return fallback, nil
	}
	return period.ParseSelector(args[0])
}

// currentMonth is the default period for invoice generation.
func currentMonth() period.DateRange {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return period.DateRange{Start: start, End: period.LastDayOfMonth(now.Year(), now.Month())}
}

// fullRange spans all representable dates, for commands that default to
// the whole ledger.
func fullRange() period.DateRange {
	return period.DateRange{
		Start: time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}
