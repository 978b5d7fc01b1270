package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Data sources
const (
	SourceAlpaca = "alpaca"
	SourceCSV    = "csv"
)

const dateLayout = "2006-01-02"

// Config holds all application configuration
type Config struct {
	// Data
	DataSource string
	CSVPath    string

	// Alpaca API
	AlpacaKeyID     string
	AlpacaSecretKey string
	AlpacaDataURL   string
	AlpacaFeed      string

	// Universe
	Symbols   []string
	StartDate time.Time
	EndDate   time.Time
	SplitDate time.Time

	// Pair selection
	PValueThreshold float64
	MinObservations int
	MinCoverage     float64
	ScanWorkers     int
	ScanTimeout     time.Duration

	// Signal and backtest
	ZScoreWindow     int
	EntryZ           float64
	ExitZ            float64
	Cost             float64
	EquityConvention string

	// Performance
	CacheTTL    time.Duration
	CacheFile   string
	HTTPTimeout time.Duration
}

// flagKeys maps command-line flag names onto configuration keys
var flagKeys = map[string]string{
	"source":            "data_source",
	"csv":               "csv_path",
	"symbols":           "symbols",
	"start":             "start_date",
	"end":               "end_date",
	"split":             "split_date",
	"pvalue":            "pvalue_threshold",
	"min-obs":           "min_observations",
	"min-coverage":      "min_coverage",
	"workers":           "scan_workers",
	"scan-timeout-ms":   "scan_timeout_ms",
	"window":            "zscore_window",
	"entry":             "entry_z",
	"exit":              "exit_z",
	"cost":              "cost",
	"equity-convention": "equity_convention",
	"cache-file":        "cache_file",
}

func setDefaults(v *viper.Viper) {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}

	v.SetDefault("data_source", SourceAlpaca)
	v.SetDefault("csv_path", "")
	v.SetDefault("alpaca_key_id", "")
	v.SetDefault("alpaca_secret_key", "")
	v.SetDefault("alpaca_data_url", "https://data.alpaca.markets")
	v.SetDefault("alpaca_feed", "iex")
	v.SetDefault("http_timeout_ms", 10000)
	v.SetDefault("cache_ttl_ms", 86400000)
	v.SetDefault("cache_file", "")
	v.SetDefault("symbols", "KO,PEP,MCD,YUM,DPZ")
	v.SetDefault("start_date", "2018-01-01")
	v.SetDefault("end_date", "2024-01-01")
	v.SetDefault("split_date", "")
	v.SetDefault("pvalue_threshold", 0.05)
	v.SetDefault("min_observations", 504)
	v.SetDefault("min_coverage", 0.5)
	v.SetDefault("scan_workers", workers)
	v.SetDefault("scan_timeout_ms", 0)
	v.SetDefault("zscore_window", 30)
	v.SetDefault("entry_z", 2.0)
	v.SetDefault("exit_z", 0.5)
	v.SetDefault("cost", 0.0005)
	v.SetDefault("equity_convention", "compound")
}

// Load reads configuration from defaults, an optional YAML file, the
// environment (.env included) and any changed flags, in increasing order of
// precedence. flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	// Try to load .env file (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		DataSource: strings.ToLower(strings.TrimSpace(v.GetString("data_source"))),
		CSVPath:    v.GetString("csv_path"),

		AlpacaKeyID:     v.GetString("alpaca_key_id"),
		AlpacaSecretKey: v.GetString("alpaca_secret_key"),
		AlpacaDataURL:   strings.TrimRight(v.GetString("alpaca_data_url"), "/"),
		AlpacaFeed:      v.GetString("alpaca_feed"),

		Symbols: ParseSymbols(v.Get("symbols")),

		PValueThreshold: v.GetFloat64("pvalue_threshold"),
		MinObservations: v.GetInt("min_observations"),
		MinCoverage:     v.GetFloat64("min_coverage"),
		ScanWorkers:     v.GetInt("scan_workers"),
		ScanTimeout:     time.Duration(v.GetInt64("scan_timeout_ms")) * time.Millisecond,

		ZScoreWindow:     v.GetInt("zscore_window"),
		EntryZ:           v.GetFloat64("entry_z"),
		ExitZ:            v.GetFloat64("exit_z"),
		Cost:             v.GetFloat64("cost"),
		EquityConvention: strings.ToLower(v.GetString("equity_convention")),

		CacheTTL:    time.Duration(v.GetInt64("cache_ttl_ms")) * time.Millisecond,
		CacheFile:   v.GetString("cache_file"),
		HTTPTimeout: time.Duration(v.GetInt64("http_timeout_ms")) * time.Millisecond,
	}

	var err error
	if cfg.StartDate, err = parseDate("start_date", v.GetString("start_date")); err != nil {
		return nil, err
	}
	if cfg.EndDate, err = parseDate("end_date", v.GetString("end_date")); err != nil {
		return nil, err
	}
	if cfg.SplitDate, err = parseDate("split_date", v.GetString("split_date")); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects structurally invalid settings. Threshold combinations that
// are merely unusual, such as an exit band wider than the entry band, pass.
func (c *Config) Validate() error {
	var errs []error
	switch c.DataSource {
	case SourceAlpaca:
		if c.AlpacaKeyID == "" || c.AlpacaSecretKey == "" {
			errs = append(errs, errors.New("ALPACA_KEY_ID and ALPACA_SECRET_KEY must be set"))
		}
	case SourceCSV:
		if c.CSVPath == "" {
			errs = append(errs, errors.New("CSV_PATH must be set for the csv data source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown data source %q", c.DataSource))
	}
	if len(c.Symbols) == 0 && c.DataSource != SourceCSV {
		errs = append(errs, errors.New("at least one symbol is required"))
	}
	if !c.StartDate.IsZero() && !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate) {
		errs = append(errs, fmt.Errorf("end date %s is before start date %s",
			c.EndDate.Format(dateLayout), c.StartDate.Format(dateLayout)))
	}
	if !c.SplitDate.IsZero() {
		if (!c.StartDate.IsZero() && !c.SplitDate.After(c.StartDate)) ||
			(!c.EndDate.IsZero() && !c.SplitDate.Before(c.EndDate)) {
			errs = append(errs, fmt.Errorf("split date %s must fall strictly inside the date range",
				c.SplitDate.Format(dateLayout)))
		}
	}
	if c.PValueThreshold < 0 || c.PValueThreshold > 1 {
		errs = append(errs, fmt.Errorf("pvalue_threshold %.4f outside [0, 1]", c.PValueThreshold))
	}
	if c.MinObservations < 3 {
		errs = append(errs, fmt.Errorf("min_observations %d must be at least 3", c.MinObservations))
	}
	if c.MinCoverage < 0 || c.MinCoverage > 1 {
		errs = append(errs, fmt.Errorf("min_coverage %.2f outside [0, 1]", c.MinCoverage))
	}
	if c.ZScoreWindow < 2 {
		errs = append(errs, fmt.Errorf("zscore_window %d must be at least 2", c.ZScoreWindow))
	}
	if c.Cost < 0 {
		errs = append(errs, fmt.Errorf("cost %.6f must not be negative", c.Cost))
	}
	switch c.EquityConvention {
	case "compound", "additive":
	default:
		errs = append(errs, fmt.Errorf("equity_convention %q must be compound or additive", c.EquityConvention))
	}
	return errors.Join(errs...)
}

// HasSplit reports whether an out-of-sample split date is configured
func (c *Config) HasSplit() bool {
	return !c.SplitDate.IsZero()
}

// ParseSymbols accepts a comma or whitespace separated string, or a list, and
// returns upper-cased symbols with duplicates removed.
func ParseSymbols(raw interface{}) []string {
	var parts []string
	for _, item := range cast.ToStringSlice(raw) {
		parts = append(parts, strings.FieldsFunc(item, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		})...)
	}

	seen := make(map[string]bool, len(parts))
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		sym := strings.ToUpper(strings.TrimSpace(p))
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		symbols = append(symbols, sym)
	}
	return symbols
}

func parseDate(key, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %q is not a YYYY-MM-DD date", key, value)
	}
	return t, nil
}
