package formatters

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/TruWeaveTrader/statarb/internal/backtest"
	"github.com/TruWeaveTrader/statarb/internal/metrics"
	"github.com/TruWeaveTrader/statarb/internal/models"
	"github.com/TruWeaveTrader/statarb/internal/pairs"
	"github.com/TruWeaveTrader/statarb/internal/pipeline"
	"github.com/TruWeaveTrader/statarb/internal/report"
)

func TestFormatPairsTable(t *testing.T) {
	out := FormatPairsTable([]models.CandidatePair{
		{A: "KO", B: "PEP", PValue: 0.012, Statistic: -3.9, Observations: 1500},
		{A: "MCD", B: "YUM", PValue: 0.3, Statistic: math.Inf(-1), Observations: 1490},
	}, 0.05)

	assert.Contains(t, out, "KO/PEP")
	assert.Contains(t, out, "0.0120")
	assert.Contains(t, out, "-inf")
	assert.Contains(t, out, "1490")

	assert.Contains(t, FormatPairsTable(nil, 0.05), "No pairs")
}

func TestFormatSelectionBanner(t *testing.T) {
	assert.Contains(t, FormatSelectionBanner(pairs.Selection{Kind: pairs.SelectionBestEffort}, 0.05), "best-effort")
	assert.Contains(t, FormatSelectionBanner(pairs.Selection{Kind: pairs.SelectionNone}, 0.05), "No pair")
}

func TestFormatNumbers(t *testing.T) {
	assert.Contains(t, FormatPercent(-0.1234), "-12.34%")
	assert.Contains(t, FormatPercent(0.05), "+5.00%")
	assert.Equal(t, "0.00%", FormatPercent(0))
	assert.Contains(t, FormatPercent(math.NaN()), "n/a")
	assert.Contains(t, FormatPnL(-0.5), "-0.5000")
	assert.Equal(t, "1.50", FormatNumber(1.5, 2))
	assert.Contains(t, FormatPValue(1e-7, 0.05), "1.00e-07")
	assert.Equal(t, "ab...", TruncateString("abcdefgh", 5))
}

func TestFormatSummaryAndTail(t *testing.T) {
	d := func(i int) time.Time { return time.Date(2022, 5, 2+i, 0, 0, 0, 0, time.UTC) }
	dates := []time.Time{d(0), d(1), d(2)}
	returns := []float64{-0.0005, 0.3}
	res := &pipeline.Result{
		Pair:          models.CandidatePair{A: "KO", B: "PEP", PValue: 0.01},
		HedgeRatio:    0.75,
		SplitDate:     d(0),
		Spread:        models.Series{Dates: dates, Values: []float64{1, 1.1, 1.4}},
		ZScore:        models.Series{Dates: dates, Values: []float64{math.NaN(), -2.2, -1.0}},
		Returns:       models.Series{Dates: dates[1:], Values: returns},
		CumulativePnL: models.Series{Dates: dates[1:], Values: metrics.CumulativePnL(returns)},
		Backtest: backtest.Result{
			Returns:   returns,
			Positions: []backtest.Position{backtest.Long, backtest.Long},
			Trades:    1,
			Exposure:  1,
		},
		Summary: metrics.Summarize(returns, metrics.Compound),
	}

	summary := FormatSummary(res)
	assert.Contains(t, summary, "KO/PEP")
	assert.Contains(t, summary, "0.7500")
	assert.Contains(t, summary, "out-of-sample from 2022-05-02")
	assert.Contains(t, summary, "100.0%")

	tail := FormatSeriesTail(res, 1)
	assert.Contains(t, tail, "2022-05-04")
	assert.NotContains(t, tail, "2022-05-03")
	assert.Contains(t, tail, "LONG")
	assert.Equal(t, 1, strings.Count(tail, "LONG"))
}

func TestFormatWarnings(t *testing.T) {
	out := FormatWarnings([]string{"one", "two"})
	assert.Contains(t, out, "one")
	assert.Contains(t, out, "two")
	assert.Equal(t, "", FormatWarnings(nil))
}

func TestFormatReport(t *testing.T) {
	r := &report.Report{
		Settings: report.Settings{
			DataSource:      "csv",
			Symbols:         []string{"KO", "PEP"},
			StartDate:       "2019-01-01",
			PValueThreshold: 0.05,
		},
		Selection: &report.Selection{
			Kind:      "tradable",
			Evaluated: 1,
			Pairs:     []report.Pair{{A: "KO", B: "PEP", PValue: 0.02, Statistic: report.Number(math.NaN()), Observations: 700}},
		},
		Backtest: &report.Backtest{
			Pair:       "KO/PEP",
			HedgeRatio: 0.8,
			Trades:     4,
			Tail:       []report.Point{{Date: "2021-06-30", Spread: 1.5, ZScore: report.Number(math.NaN())}},
		},
		Warnings: []string{"cost is large"},
	}

	out := FormatReport(r)
	assert.Contains(t, out, "KO/PEP")
	assert.Contains(t, out, "0.0200")
	assert.Contains(t, out, "tradable")
	assert.Contains(t, out, "0.8000")
	assert.Contains(t, out, "2021-06-30")
	assert.Contains(t, out, "2019-01-01 to -")
	assert.Contains(t, out, "cost is large")
	assert.NotContains(t, out, "Split")
}
