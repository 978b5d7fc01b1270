package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TruWeaveTrader/statarb/internal/report"
	"github.com/TruWeaveTrader/statarb/pkg/formatters"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show [report.json]",
	Short: "Display a saved run report",
	Long:  `Reads a report written with --output and prints its settings, ranked pairs, backtest summary and series tail. No price data is loaded.`,
	Args:  cobra.ExactArgs(1),
	// reading a report needs neither credentials nor a price source
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE:              runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	r, err := report.Read(args[0])
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no report at %s", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}

	fmt.Println(formatters.FormatReport(r))
	return nil
}
