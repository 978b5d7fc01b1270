package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/TruWeaveTrader/statarb/internal/alpaca"
	"github.com/TruWeaveTrader/statarb/internal/cache"
	"github.com/TruWeaveTrader/statarb/internal/config"
	"github.com/TruWeaveTrader/statarb/internal/marketdata"
	"github.com/TruWeaveTrader/statarb/internal/pipeline"
)

var (
	// Global instances
	cfg       *config.Config
	dataCache *cache.Cache
	provider  marketdata.Provider
	runner    *pipeline.Runner
	logger    *zap.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "statarb",
	Short: "Cointegration pairs-trading research from the terminal",
	Long: `statarb loads daily closes for a universe of equities, ranks every
pair by Engle-Granger cointegration, and backtests a z-score mean-reversion
strategy on the spread of the best pair. Prices come from the Alpaca market
data API or a local CSV file.`,
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (yaml, json or toml)")
	pf.Bool("verbose", false, "verbose output")

	// Data
	pf.String("source", config.SourceAlpaca, "price source: alpaca or csv")
	pf.String("csv", "", "wide CSV of closes (date column then one column per symbol)")
	pf.String("symbols", "KO,PEP,MCD,YUM,DPZ", "comma separated universe")
	pf.String("start", "2018-01-01", "first date (YYYY-MM-DD)")
	pf.String("end", "2024-01-01", "last date (YYYY-MM-DD)")
	pf.String("split", "", "train/test split date; empty runs in-sample")

	// Selection
	pf.Float64("pvalue", 0.05, "cointegration p-value threshold")
	pf.Int("min-obs", 504, "minimum overlapping observations per pair")
	pf.Float64("min-coverage", 0.5, "drop symbols observed on less than this fraction of dates")
	pf.Int("workers", 0, "concurrent pair tests (0 uses the CPU count, capped at 8)")
	pf.Int("scan-timeout-ms", 0, "abort the pair scan after this many milliseconds (0 disables)")

	// Signal and backtest
	pf.Int("window", 30, "rolling z-score window")
	pf.Float64("entry", 2.0, "z-score entry threshold")
	pf.Float64("exit", 0.5, "z-score exit threshold")
	pf.Float64("cost", 0.0005, "cost charged per position change, in spread units")
	pf.String("equity-convention", "compound", "drawdown equity curve: compound or additive")

	// Cache
	pf.String("cache-file", "", "bar cache file (default is <user cache dir>/statarb/bars.msgpack)")
	pf.Bool("refresh", false, "discard cached bars and fetch again")
}

// initConfig sets up the logger before any command runs.
func initConfig() {
	// Configure logger: default INFO, DEBUG if DEBUG env is truthy or --verbose
	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
	if v := os.Getenv("DEBUG"); v == "true" || v == "1" || v == "yes" {
		verbose = true
	}

	zcfg := zap.NewProductionConfig()
	zcfg.EncoderConfig.TimeKey = "time"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	var err error
	logger, err = zcfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
}

// initializeApp sets up all dependencies
func initializeApp(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")

	// Load configuration
	var err error
	cfg, err = config.Load(configFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize components
	switch cfg.DataSource {
	case config.SourceCSV:
		provider = marketdata.NewCSVProvider(cfg.CSVPath, logger)
	default:
		refresh, _ := cmd.Flags().GetBool("refresh")
		dataCache = openCache(refresh)
		provider = marketdata.NewAlpacaProvider(alpaca.NewClient(cfg), dataCache, logger)
	}
	runner = pipeline.NewRunner(cfg, provider, logger)

	fmt.Printf("📈 statarb - %s data, %d symbol(s)\n", cfg.DataSource, len(cfg.Symbols))
	return nil
}

// openCache restores the persisted bar cache, falling back to memory only when
// the file cannot be used
func openCache(refresh bool) *cache.Cache {
	path := cfg.CacheFile
	if path == "" {
		var err error
		if path, err = cache.DefaultPath(); err != nil {
			logger.Warn("no user cache directory, bars cached in memory only", zap.Error(err))
			return cache.NewCache(cfg.CacheTTL)
		}
	}

	c, err := cache.Open(path, cfg.CacheTTL)
	if err != nil {
		logger.Warn("discarding unreadable bar cache", zap.String("path", path), zap.Error(err))
		if rmErr := os.Remove(path); rmErr != nil {
			return cache.NewCache(cfg.CacheTTL)
		}
		if c, err = cache.Open(path, cfg.CacheTTL); err != nil {
			return cache.NewCache(cfg.CacheTTL)
		}
	}
	if refresh {
		c.Clear()
	}
	logger.Debug("bar cache opened",
		zap.String("path", path),
		zap.Int("series", c.GetStats().SeriesCount))
	return c
}

// commandContext is cancelled on Ctrl-C
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func logCacheStats() {
	if dataCache == nil {
		return
	}
	logger.Debug("price cache", zap.Int("series", dataCache.GetStats().SeriesCount))
}
