package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/TruWeaveTrader/statarb/internal/report"
	"github.com/TruWeaveTrader/statarb/pkg/formatters"
)

var (
	scanTop    int
	scanOutput string
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().IntVar(&scanTop, "top", 5, "number of ranked pairs to show (-1 for all)")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "write a JSON report to this path")
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Rank every pair in the universe by cointegration",
	Long: `Runs an Engle-Granger test on every pair of symbols that share enough
observations and lists them by ascending p-value. When a split date is set,
only the training window is scanned.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := commandContext()
	defer stop()

	start := time.Now()
	sel, dropped, err := runner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	logCacheStats()

	fmt.Println(formatters.FormatSelectionBanner(sel, cfg.PValueThreshold))
	fmt.Println(formatters.FormatPairsTable(sel.Top(scanTop), cfg.PValueThreshold))
	if len(dropped) > 0 {
		fmt.Println(formatters.FormatWarnings([]string{
			"Dropped for low coverage: " + strings.Join(dropped, ", "),
		}))
	}

	if scanOutput != "" {
		r := report.New(cfg).WithSelection(sel)
		r.Dropped = dropped
		if err := report.Write(scanOutput, r); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Printf("💾 Report %s written to %s\n", r.RunID, scanOutput)
	}

	fmt.Printf("\n⏱  Scanned • %dms\n", time.Since(start).Milliseconds())
	return nil
}
