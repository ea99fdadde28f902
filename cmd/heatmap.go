package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xolan/clinvoice/internal/heatmap"
)

// heatmapCmd draws a calendar heatmap of daily hours.
var heatmapCmd = &cobra.Command{
	Use:   "heatmap [period]",
	Short: "Draw a calendar heatmap of logged hours",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runHeatmap(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(heatmapCmd)
	heatmapCmd.Flags().IntP("width", "w", 0, "terminal width (default 80)")
}

func runHeatmap(cmd *cobra.Command, args []string) {
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

	width, _ := cmd.Flags().GetInt("width")
	heatmap.Draw(deps.Stdout, l.Filter(rng), width)
}
