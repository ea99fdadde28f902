package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xolan/clinvoice/internal/seqindex"
)

// sequencesCmd inspects the invoice sequence index.
var sequencesCmd = &cobra.Command{
	Use:   "sequences [number]",
	Short: "List allocated invoice sequence numbers",
	Long: `List every allocated invoice sequence number and the period it
covers, or look up a single sequence number.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runSequences(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(sequencesCmd)
}

func runSequences(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fail(err)
		return
	}
	directory, _ := cmd.Flags().GetString("directory")
	index := seqindex.New(cfg.IndexPath(directory))

	if len(args) == 1 {
		sequence, err := strconv.Atoi(args[0])
		if err != nil {
			fail(fmt.Errorf("invalid sequence number %q", args[0]))
			return
		}
		rng, err := index.Lookup(cmd.Context(), sequence)
		if err != nil {
			fail(err)
			return
		}
		_, _ = fmt.Fprintf(deps.Stdout, "%d  %s\n", sequence, rng)
		return
	}

	records, err := index.Records(cmd.Context())
	if err != nil {
		fail(err)
		return
	}
	if len(records) == 0 {
		_, _ = fmt.Fprintln(deps.Stdout, "No sequences allocated")
		return
	}
	for _, record := range records {
		_, _ = fmt.Fprintf(deps.Stdout, "%d  %s\n", record.Sequence, record.Range)
	}
}
