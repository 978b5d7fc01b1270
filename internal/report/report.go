// Package report persists the outcome of a scan or backtest run as JSON.
package report

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/TruWeaveTrader/statarb/internal/config"
	"github.com/TruWeaveTrader/statarb/internal/metrics"
	"github.com/TruWeaveTrader/statarb/internal/models"
	"github.com/TruWeaveTrader/statarb/internal/pairs"
	"github.com/TruWeaveTrader/statarb/internal/pipeline"
)

// Number is a float that encodes NaN and infinities as null
type Number float64

// MarshalJSON implements json.Marshaler
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = Number(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// Report is the persisted form of a run
type Report struct {
	RunID     uuid.UUID  `json:"run_id"`
	CreatedAt time.Time  `json:"created_at"`
	Settings  Settings   `json:"settings"`
	Selection *Selection `json:"selection,omitempty"`
	Backtest  *Backtest  `json:"backtest,omitempty"`
	Dropped   []string   `json:"dropped,omitempty"`
	Warnings  []string   `json:"warnings,omitempty"`
}

// Settings echoes the configuration the run used
type Settings struct {
	DataSource       string   `json:"data_source"`
	Symbols          []string `json:"symbols"`
	StartDate        string   `json:"start_date,omitempty"`
	EndDate          string   `json:"end_date,omitempty"`
	SplitDate        string   `json:"split_date,omitempty"`
	PValueThreshold  float64  `json:"pvalue_threshold"`
	MinObservations  int      `json:"min_observations"`
	MinCoverage      float64  `json:"min_coverage"`
	ZScoreWindow     int      `json:"zscore_window"`
	EntryZ           float64  `json:"entry_z"`
	ExitZ            float64  `json:"exit_z"`
	Cost             float64  `json:"cost"`
	EquityConvention string   `json:"equity_convention"`
}

// Selection is the ranked pair list
type Selection struct {
	Kind      string `json:"kind"`
	Evaluated int    `json:"evaluated"`
	Skipped   int    `json:"skipped"`
	Pairs     []Pair `json:"pairs"`
}

// Pair is one ranked candidate
type Pair struct {
	A            string `json:"a"`
	B            string `json:"b"`
	PValue       Number `json:"p_value"`
	Statistic    Number `json:"statistic"`
	Observations int    `json:"observations"`
}

// Backtest is the traded pair and its performance
type Backtest struct {
	Pair       string          `json:"pair"`
	Override   bool            `json:"override"`
	HedgeRatio Number          `json:"hedge_ratio"`
	Intercept  Number          `json:"intercept"`
	Trades     int             `json:"trades"`
	Exposure   Number          `json:"exposure"`
	Summary    metrics.Summary `json:"summary"`
	Tail       []Point         `json:"tail"`
}

// Point is one day of the spread, signal and P&L
type Point struct {
	Date          string `json:"date"`
	Spread        Number `json:"spread"`
	ZScore        Number `json:"zscore"`
	Return        Number `json:"return"`
	CumulativePnL Number `json:"cumulative_pnl"`
}

// New starts a report for cfg with a fresh run ID
func New(cfg *config.Config) *Report {
	return &Report{
		RunID:     uuid.New(),
		CreatedAt: time.Now().UTC(),
		Settings: Settings{
			DataSource:       cfg.DataSource,
			Symbols:          cfg.Symbols,
			StartDate:        formatDate(cfg.StartDate),
			EndDate:          formatDate(cfg.EndDate),
			SplitDate:        formatDate(cfg.SplitDate),
			PValueThreshold:  cfg.PValueThreshold,
			MinObservations:  cfg.MinObservations,
			MinCoverage:      cfg.MinCoverage,
			ZScoreWindow:     cfg.ZScoreWindow,
			EntryZ:           cfg.EntryZ,
			ExitZ:            cfg.ExitZ,
			Cost:             cfg.Cost,
			EquityConvention: cfg.EquityConvention,
		},
	}
}

// WithSelection records a scan result
func (r *Report) WithSelection(sel pairs.Selection) *Report {
	out := &Selection{
		Kind:      sel.Kind.String(),
		Evaluated: sel.Evaluated,
		Skipped:   sel.Skipped,
		Pairs:     make([]Pair, 0, len(sel.Pairs)),
	}
	for _, p := range sel.Pairs {
		out.Pairs = append(out.Pairs, fromCandidate(p))
	}
	r.Selection = out
	return r
}

// WithRun records a backtest and the last tail days of its series
func (r *Report) WithRun(res *pipeline.Result, tail int) *Report {
	if !res.Override {
		r.WithSelection(res.Selection)
	}
	r.Dropped = res.Dropped
	r.Warnings = res.Warnings

	bt := &Backtest{
		Pair:       res.Pair.Name(),
		Override:   res.Override,
		HedgeRatio: Number(res.HedgeRatio),
		Intercept:  Number(res.Intercept),
		Trades:     res.Backtest.Trades,
		Exposure:   Number(res.Backtest.Exposure),
		Summary:    res.Summary,
	}

	// returns start one day after the spread
	n := res.Returns.Len()
	start := 0
	if tail >= 0 && tail < n {
		start = n - tail
	}
	for i := start; i < n; i++ {
		bt.Tail = append(bt.Tail, Point{
			Date:          formatDate(res.Returns.Dates[i]),
			Spread:        Number(res.Spread.Values[i+1]),
			ZScore:        Number(res.ZScore.Values[i+1]),
			Return:        Number(res.Returns.Values[i]),
			CumulativePnL: Number(res.CumulativePnL.Values[i]),
		})
	}
	r.Backtest = bt
	return r
}

// Write stores the report at path, creating parent directories
func Write(path string, r *Report) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// Read loads a report written by Write
func Read(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, os.ErrNotExist
		}
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func fromCandidate(p models.CandidatePair) Pair {
	return Pair{
		A:            p.A,
		B:            p.B,
		PValue:       Number(p.PValue),
		Statistic:    Number(p.Statistic),
		Observations: p.Observations,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(models.DateLayout)
}
