package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/TruWeaveTrader/statarb/internal/config"
	"github.com/TruWeaveTrader/statarb/internal/pipeline"
	"github.com/TruWeaveTrader/statarb/internal/report"
	"github.com/TruWeaveTrader/statarb/pkg/formatters"
)

var (
	backtestPair   string
	backtestOutput string
	backtestTail   int
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(btCmd) // Alias

	for _, c := range []*cobra.Command{backtestCmd, btCmd} {
		c.Flags().StringVar(&backtestPair, "pair", "", "trade this pair (A,B) instead of the best cointegrated one")
		c.Flags().StringVarP(&backtestOutput, "output", "o", "", "write a JSON report to this path")
		c.Flags().IntVar(&backtestTail, "tail", 10, "days of spread and P&L to show (-1 for all)")
	}
}

var btCmd = &cobra.Command{
	Use:   "bt",
	Short: "Backtest (alias for backtest)",
	Args:  cobra.NoArgs,
	RunE:  runBacktest,
}

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest z-score mean reversion on the best pair",
	Long: `Selects the most cointegrated pair (or the one given with --pair), fits
the hedge ratio on the training window and simulates a long/short/flat
z-score strategy on the spread. Reports Sharpe ratio, maximum drawdown and
cumulative P&L.`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

func runBacktest(cmd *cobra.Command, args []string) error {
	override, err := parsePair(backtestPair)
	if err != nil {
		return err
	}

	ctx, stop := commandContext()
	defer stop()

	start := time.Now()
	res, err := runner.Run(ctx, override)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}
	logCacheStats()

	if !res.Override {
		fmt.Println(formatters.FormatSelectionBanner(res.Selection, cfg.PValueThreshold))
	}
	fmt.Println(formatters.FormatSummary(res))
	fmt.Println(formatters.FormatSeriesTail(res, backtestTail))
	if len(res.Warnings) > 0 {
		fmt.Println(formatters.FormatWarnings(res.Warnings))
	}

	if err := writeRunReport(backtestOutput, res, backtestTail); err != nil {
		return err
	}

	fmt.Printf("\n⏱  Completed • %dms\n", time.Since(start).Milliseconds())
	return nil
}

// parsePair reads "A,B" into an override; empty means no override
func parsePair(raw string) (*pipeline.Pair, error) {
	if raw == "" {
		return nil, nil
	}
	legs := config.ParseSymbols(raw)
	if len(legs) != 2 {
		return nil, fmt.Errorf("pair %q must name two different symbols, e.g. KO,PEP", raw)
	}
	return &pipeline.Pair{A: legs[0], B: legs[1]}, nil
}

func writeRunReport(path string, res *pipeline.Result, tail int) error {
	if path == "" {
		return nil
	}
	r := report.New(cfg).WithRun(res, tail)
	if err := report.Write(path, r); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Printf("💾 Report %s written to %s\n", r.RunID, path)
	return nil
}
