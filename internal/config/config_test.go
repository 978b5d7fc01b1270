package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func setTestEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for key, value := range env {
		t.Setenv(key, value)
	}
}

func TestLoad(t *testing.T) {
	setTestEnv(t, map[string]string{
		"ALPACA_KEY_ID":     "test_key",
		"ALPACA_SECRET_KEY": "test_secret",
		"DATA_SOURCE":       "alpaca",
		"CACHE_TTL_MS":      "200",
		"CACHE_FILE":        "/tmp/statarb-test/bars.msgpack",
		"SYMBOLS":           "ko, pep,KO",
		"ENTRY_Z":           "",
		"SPLIT_DATE":        "",
	})

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.AlpacaKeyID != "test_key" {
		t.Errorf("Expected AlpacaKeyID='test_key', got '%s'", cfg.AlpacaKeyID)
	}

	// Test parsed duration
	expectedTTL := 200 * time.Millisecond
	if cfg.CacheTTL != expectedTTL {
		t.Errorf("Expected CacheTTL=%v, got %v", expectedTTL, cfg.CacheTTL)
	}

	if cfg.CacheFile != "/tmp/statarb-test/bars.msgpack" {
		t.Errorf("Unexpected CacheFile '%s'", cfg.CacheFile)
	}

	if got := strings.Join(cfg.Symbols, ","); got != "KO,PEP" {
		t.Errorf("Expected symbols KO,PEP, got %s", got)
	}

	// Test defaults
	if cfg.AlpacaDataURL != "https://data.alpaca.markets" {
		t.Errorf("Unexpected AlpacaDataURL '%s'", cfg.AlpacaDataURL)
	}
	if cfg.MinObservations != 504 {
		t.Errorf("Expected MinObservations=504, got %d", cfg.MinObservations)
	}
	if cfg.ZScoreWindow != 30 || cfg.EntryZ != 2.0 || cfg.ExitZ != 0.5 || cfg.Cost != 0.0005 {
		t.Errorf("Unexpected backtest defaults: window=%d entry=%v exit=%v cost=%v",
			cfg.ZScoreWindow, cfg.EntryZ, cfg.ExitZ, cfg.Cost)
	}
	if cfg.PValueThreshold != 0.05 {
		t.Errorf("Expected PValueThreshold=0.05, got %v", cfg.PValueThreshold)
	}
	if !cfg.StartDate.Equal(time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected start date %v", cfg.StartDate)
	}
	if cfg.HasSplit() {
		t.Error("Expected no split date by default")
	}
	if cfg.ScanWorkers < 1 || cfg.ScanWorkers > 8 {
		t.Errorf("Expected 1..8 scan workers, got %d", cfg.ScanWorkers)
	}
}

func TestLoadMissingKeys(t *testing.T) {
	setTestEnv(t, map[string]string{
		"ALPACA_KEY_ID":     "",
		"ALPACA_SECRET_KEY": "",
		"DATA_SOURCE":       "alpaca",
	})

	_, err := Load("", nil)
	if err == nil {
		t.Fatal("Expected error when API keys are missing, got nil")
	}

	expectedError := "ALPACA_KEY_ID and ALPACA_SECRET_KEY must be set"
	if !strings.Contains(err.Error(), expectedError) {
		t.Errorf("Expected error containing '%s', got '%s'", expectedError, err.Error())
	}
}

func TestLoadCSVSourceNeedsNoKeys(t *testing.T) {
	setTestEnv(t, map[string]string{
		"ALPACA_KEY_ID":     "",
		"ALPACA_SECRET_KEY": "",
		"DATA_SOURCE":       "CSV",
		"CSV_PATH":          "prices.csv",
	})

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.DataSource != SourceCSV {
		t.Errorf("Expected csv source, got %s", cfg.DataSource)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	setTestEnv(t, map[string]string{
		"DATA_SOURCE": "csv",
		"CSV_PATH":    "prices.csv",
		"ENTRY_Z":     "2.5",
	})

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Float64("entry", 2.0, "")
	flags.Float64("exit", 0.5, "")
	flags.String("split", "", "")
	if err := flags.Parse([]string{"--exit", "3", "--split", "2021-01-01"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.EntryZ != 2.5 {
		t.Errorf("Expected env entry 2.5 over unchanged flag, got %v", cfg.EntryZ)
	}
	// exit above entry is allowed
	if cfg.ExitZ != 3 {
		t.Errorf("Expected flag exit 3, got %v", cfg.ExitZ)
	}
	if !cfg.HasSplit() || cfg.SplitDate.Year() != 2021 {
		t.Errorf("Expected split date in 2021, got %v", cfg.SplitDate)
	}
}

func TestLoadConfigFile(t *testing.T) {
	setTestEnv(t, map[string]string{
		"DATA_SOURCE": "",
		"SYMBOLS":     "",
		"CSV_PATH":    "",
	})

	path := filepath.Join(t.TempDir(), "statarb.yaml")
	content := "data_source: csv\ncsv_path: data.csv\nsymbols:\n  - xom\n  - cvx\nzscore_window: 20\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got := strings.Join(cfg.Symbols, ","); got != "XOM,CVX" {
		t.Errorf("Expected XOM,CVX, got %s", got)
	}
	if cfg.ZScoreWindow != 20 {
		t.Errorf("Expected window 20, got %d", cfg.ZScoreWindow)
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		DataSource:       SourceCSV,
		CSVPath:          "x.csv",
		StartDate:        time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:          time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		PValueThreshold:  0.05,
		MinObservations:  504,
		MinCoverage:      0.5,
		ZScoreWindow:     30,
		EntryZ:           2,
		ExitZ:            0.5,
		EquityConvention: "compound",
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"window", func(c *Config) { c.ZScoreWindow = 1 }},
		{"min obs", func(c *Config) { c.MinObservations = 2 }},
		{"dates", func(c *Config) { c.EndDate = c.StartDate.AddDate(0, 0, -1) }},
		{"split outside", func(c *Config) { c.SplitDate = c.EndDate.AddDate(1, 0, 0) }},
		{"source", func(c *Config) { c.DataSource = "ftp" }},
		{"cost", func(c *Config) { c.Cost = -1 }},
		{"convention", func(c *Config) { c.EquityConvention = "log" }},
		{"pvalue", func(c *Config) { c.PValueThreshold = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Errorf("Expected validation error for %s", tt.name)
			}
		})
	}

	c := base
	c.ExitZ = 5
	if err := c.Validate(); err != nil {
		t.Errorf("Expected exit >= entry to pass validation, got %v", err)
	}
}

func TestParseSymbols(t *testing.T) {
	got := ParseSymbols([]interface{}{"aapl,msft", " goog "})
	if strings.Join(got, ",") != "AAPL,MSFT,GOOG" {
		t.Errorf("Unexpected symbols %v", got)
	}
	if len(ParseSymbols("")) != 0 {
		t.Error("Expected no symbols from empty string")
	}
}
