package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xolan/clinvoice/internal/ledger"
)

// logCmd lists aggregated timesheet records.
var logCmd = &cobra.Command{
	Use:   "log [period]",
	Short: "List logged hours and costs",
	Long: `List timesheet records, optionally restricted to a period and
collapsed to a granularity.

  clinvoice log                        every entry
  clinvoice log --format day           daily totals
  clinvoice log --format month 2024    monthly totals for 2024
  clinvoice log 2024.01..2024.03       entries for a date range`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runLog(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().StringP("format", "f", "full", "aggregation granularity: full, day, month, or year")
}

func runLog(cmd *cobra.Command, args []string) {
	formatStr, _ := cmd.Flags().GetString("format")
	granularity, err := ledger.ParseGranularity(formatStr)
	if err != nil {
		fail(err)
		return
	}

	rng, err := resolvePeriod(args, fullRange())
	if err != nil {
		fail(err)
		return
	}

	l, err := loadLedger(cmd)
	if err != nil {
		fail(err)
		return
	}

	for _, bucket := range l.Filter(rng).Aggregate(granularity) {
		value := bucket.Hours.String()
		if !bucket.Fixed.IsZero() {
			if bucket.Hours.IsZero() && granularity == ledger.GranularityFull {
				value = "$" + bucket.Fixed.String()
			} else {
				value = fmt.Sprintf("%s +$%s", bucket.Hours, bucket.Fixed)
			}
		}
		_, _ = fmt.Fprintf(deps.Stdout, "%s  %8s  %s\n", bucket.Label, value, bucket.Description)
	}
}
