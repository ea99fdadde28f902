package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/xolan/clinvoice/internal/invoice"
	"github.com/xolan/clinvoice/internal/period"
	"github.com/xolan/clinvoice/internal/render"
	"github.com/xolan/clinvoice/internal/seqindex"
)

// generateCmd produces an invoice for a period.
var generateCmd = &cobra.Command{
	Use:   "generate [period]",
	Short: "Generate an invoice",
	Long: `Generate an invoice for a period (default: the current month).

The invoice figures are computed from the timesheet files, a sequence
number is allocated from the shared index (or recorded, when --sequence
is given explicitly), and the selected generator profile renders the
output. A profile's build_command, if configured, runs on the rendered
file afterwards.

  clinvoice generate 2024.03 --generator latex --output invoice-2024-03.tex
  clinvoice generate 2024.03 -g latex -o invoice.tex --sequence 42`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runGenerate(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringP("generator", "g", "", "generator profile from the configuration")
	generateCmd.Flags().StringP("output", "o", "", "output file to write")
	generateCmd.Flags().IntP("sequence", "s", 0, "explicit invoice sequence number (default: allocated)")
	_ = generateCmd.MarkFlagRequired("generator")
	_ = generateCmd.MarkFlagRequired("output")
}

func runGenerate(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fail(err)
		return
	}

	generatorName, _ := cmd.Flags().GetString("generator")
	generator, ok := cfg.Generator[generatorName]
	if !ok {
		fail(fmt.Errorf("generator %q is not configured in %s", generatorName, cfg.Path))
		return
	}

	rng, err := resolvePeriod(args, currentMonth())
	if err != nil {
		fail(err)
		return
	}

	l, err := loadLedger(cmd)
	if err != nil {
		fail(err)
		return
	}

	figures, err := invoice.Compute(l, rng, cfg.Contract)
	if err != nil {
		fail(err)
		return
	}
	logger.Info("computed invoice figures",
		"period", rng.String(),
		"hours_billed", figures.TotalHoursBilled.String(),
		"total", figures.TotalAmount.StringFixed(2))

	directory, _ := cmd.Flags().GetString("directory")
	index := seqindex.New(cfg.IndexPath(directory))
	explicitSeq, _ := cmd.Flags().GetInt("sequence")

	sequence, err := resolveSequence(cmd, index, explicitSeq, rng)
	if err != nil {
		fail(err)
		return
	}
	logger.Info("invoice sequence", "sequence", sequence)

	escape := render.EscapeFor(generator.Escape)
	context := invoice.TemplateContext(figures, cfg.Contract, sequence, time.Now(), cfg.Passthrough(), escape)

	templatePath := generator.Template
	if !filepath.IsAbs(templatePath) {
		templatePath = filepath.Join(filepath.Dir(cfg.Path), templatePath)
	}
	outputPath, _ := cmd.Flags().GetString("output")

	if err := render.RenderFile(templatePath, outputPath, context); err != nil {
		fail(err)
		return
	}
	if err := render.RunBuildCommand(cmd.Context(), generator.BuildCommand, outputPath); err != nil {
		fail(err)
		return
	}

	_, _ = fmt.Fprintf(deps.Stdout, "Generated invoice %d for %s: %s\n", sequence, rng, outputPath)
}

// resolveSequence picks the invoice sequence number: an explicit number is
// recorded as-is (rejecting duplicates), otherwise an existing allocation
// for the identical period is reused, otherwise the next number is
// allocated.
func resolveSequence(cmd *cobra.Command, index *seqindex.Index, explicit int, rng period.DateRange) (int, error) {
	ctx := cmd.Context()
	if explicit > 0 {
		if err := index.Record(ctx, explicit, rng); err != nil {
			return 0, err
		}
		return explicit, nil
	}

	if existing, found, err := index.FindByRange(ctx, rng); err != nil {
		return 0, err
	} else if found {
		logger.Debug("reusing existing sequence for period", "sequence", existing)
		return existing, nil
	}

	return index.AllocateNext(ctx, rng)
}
