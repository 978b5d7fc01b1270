package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TruWeaveTrader/statarb/internal/config"
	"github.com/TruWeaveTrader/statarb/internal/pipeline"
	"github.com/TruWeaveTrader/statarb/pkg/formatters"
)

var (
	spreadTail   int
	spreadOutput string
)

func init() {
	rootCmd.AddCommand(spreadCmd)

	spreadCmd.Flags().IntVar(&spreadTail, "tail", 20, "days to show (-1 for all)")
	spreadCmd.Flags().StringVarP(&spreadOutput, "output", "o", "", "write a JSON report to this path")
}

var spreadCmd = &cobra.Command{
	Use:   "spread [symbolA] [symbolB]",
	Short: "Show the hedged spread and z-score of a pair",
	Long:  `Regresses A on B over the training window and prints the resulting spread, its rolling z-score and the position the strategy would hold.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runSpread,
}

func runSpread(cmd *cobra.Command, args []string) error {
	legs := config.ParseSymbols(args)
	if len(legs) != 2 {
		return fmt.Errorf("need two different symbols, got %v", args)
	}

	ctx, stop := commandContext()
	defer stop()

	res, err := runner.Run(ctx, &pipeline.Pair{A: legs[0], B: legs[1]})
	if err != nil {
		return fmt.Errorf("failed to build spread: %w", err)
	}

	fmt.Printf("%s = %s - %s × %s  (intercept %s, not traded)\n",
		formatters.ColorBlue.Sprint("spread"), legs[0],
		formatters.FormatNumber(res.HedgeRatio, 4), legs[1],
		formatters.FormatNumber(res.Intercept, 4))
	fmt.Println(formatters.FormatSeriesTail(res, spreadTail))
	if len(res.Warnings) > 0 {
		fmt.Println(formatters.FormatWarnings(res.Warnings))
	}

	return writeRunReport(spreadOutput, res, spreadTail)
}
