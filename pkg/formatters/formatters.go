package formatters

import (
	"fmt"
	"math"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"

	"github.com/TruWeaveTrader/statarb/internal/backtest"
	"github.com/TruWeaveTrader/statarb/internal/models"
	"github.com/TruWeaveTrader/statarb/internal/pairs"
	"github.com/TruWeaveTrader/statarb/internal/pipeline"
	"github.com/TruWeaveTrader/statarb/internal/report"
)

// Colors for different values
var (
	ColorGreen  = text.FgGreen
	ColorRed    = text.FgRed
	ColorYellow = text.FgYellow
	ColorBlue   = text.FgCyan
	ColorGray   = text.FgHiBlack
)

// FormatPercent formats a fraction as a signed, colored percentage
func FormatPercent(fraction float64) string {
	if math.IsNaN(fraction) || math.IsInf(fraction, 0) {
		return ColorGray.Sprint("n/a")
	}
	percent := decimal.NewFromFloat(fraction).Mul(decimal.NewFromInt(100))
	sign := ""
	if percent.IsPositive() {
		sign = "+"
	}

	percentStr := fmt.Sprintf("%s%s%%", sign, percent.StringFixed(2))

	if percent.IsPositive() {
		return ColorGreen.Sprint(percentStr)
	} else if percent.IsNegative() {
		return ColorRed.Sprint(percentStr)
	}
	return percentStr
}

// FormatPnL formats a spread P&L in price units with appropriate color
func FormatPnL(amount float64) string {
	d := decimal.NewFromFloat(amount)
	amountStr := d.Abs().StringFixed(4)

	if d.IsNegative() {
		return ColorRed.Sprint("-" + amountStr)
	}
	return ColorGreen.Sprint(amountStr)
}

// FormatNumber prints a float, or n/a when undefined
func FormatNumber(v float64, places int) string {
	switch {
	case math.IsNaN(v):
		return ColorGray.Sprint("n/a")
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsInf(v, 1):
		return "+inf"
	}
	return fmt.Sprintf("%.*f", places, v)
}

// FormatPValue prints a p-value, flagging those at or below threshold
func FormatPValue(p, threshold float64) string {
	s := fmt.Sprintf("%.4f", p)
	if p < 0.0001 {
		s = fmt.Sprintf("%.2e", p)
	}
	if p <= threshold {
		return ColorGreen.Sprint(s)
	}
	return s
}

// FormatSelectionBanner describes what kind of result a scan produced
func FormatSelectionBanner(sel pairs.Selection, threshold float64) string {
	switch sel.Kind {
	case pairs.SelectionTradable:
		return ColorGreen.Sprintf("%d pair(s) cointegrated at p <= %.3f (%d evaluated, %d skipped)",
			len(sel.Pairs), threshold, sel.Evaluated, sel.Skipped)
	case pairs.SelectionBestEffort:
		return ColorYellow.Sprintf("No pair cointegrated at p <= %.3f; showing best-effort ranking (%d evaluated, %d skipped)",
			threshold, sel.Evaluated, sel.Skipped)
	default:
		return ColorRed.Sprint("No pair had enough overlapping observations")
	}
}

// FormatPairsTable creates a pretty ranked-pairs table
func FormatPairsTable(candidates []models.CandidatePair, threshold float64) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"#", "Pair", "P-Value", "ADF Stat", "Obs"})

	for i, p := range candidates {
		t.AppendRow(table.Row{
			i + 1,
			text.Bold.Sprint(TruncateString(p.Name(), 21)),
			FormatPValue(p.PValue, threshold),
			FormatNumber(p.Statistic, 3),
			p.Observations,
		})
	}

	if len(candidates) == 0 {
		t.AppendRow(table.Row{"", "No pairs", "", "", ""})
	}

	return t.Render()
}

// FormatSummary creates a pretty backtest summary
func FormatSummary(res *pipeline.Result) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	sample := "in-sample"
	if !res.SplitDate.IsZero() {
		sample = "out-of-sample from " + res.SplitDate.Format(models.DateLayout)
	}
	source := "best cointegrated"
	if res.Override {
		source = "explicit"
	}

	t.AppendRow(table.Row{"Pair", text.Bold.Sprint(res.Pair.Name()) + " " + ColorGray.Sprintf("(%s)", source)})
	if !res.Override {
		t.AppendRow(table.Row{"P-Value", FormatPValue(res.Pair.PValue, 1)})
	}
	t.AppendRow(table.Row{"Hedge Ratio", FormatNumber(res.HedgeRatio, 4)})
	t.AppendRow(table.Row{"Sample", ColorBlue.Sprint(sample)})
	if n := res.Returns.Len(); n > 0 {
		t.AppendRow(table.Row{"Period", fmt.Sprintf("%s to %s (%d days)",
			res.Returns.Dates[0].Format(models.DateLayout),
			res.Returns.Dates[n-1].Format(models.DateLayout), n)})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"Sharpe Ratio", colorSigned(res.Summary.Sharpe, FormatNumber(res.Summary.Sharpe, 2))})
	t.AppendRow(table.Row{"Max Drawdown", FormatPercent(res.Summary.MaxDrawdown) + ColorGray.Sprintf(" (%s)", res.Summary.Convention)})
	t.AppendRow(table.Row{"Cumulative P&L", FormatPnL(res.Summary.TotalPnL)})
	t.AppendRow(table.Row{"Total Return", FormatPercent(res.Summary.TotalReturn)})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Trades", res.Backtest.Trades})
	t.AppendRow(table.Row{"Exposure", fmt.Sprintf("%.1f%%", res.Backtest.Exposure*100)})

	return t.Render()
}

// FormatSeriesTail creates a table of the last n days of spread, signal,
// position and P&L
func FormatSeriesTail(res *pipeline.Result, n int) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Date", "Spread", "Z-Score", "Position", "P&L", "Cum P&L"})

	total := res.Returns.Len()
	start := 0
	if n >= 0 && n < total {
		start = total - n
	}
	for i := start; i < total; i++ {
		pos := res.Backtest.Positions[i]
		t.AppendRow(table.Row{
			res.Returns.Dates[i].Format(models.DateLayout),
			FormatNumber(res.Spread.Values[i+1], 4),
			FormatNumber(res.ZScore.Values[i+1], 2),
			formatPosition(pos),
			FormatPnL(res.Returns.Values[i]),
			FormatPnL(res.CumulativePnL.Values[i]),
		})
	}

	if total == 0 {
		t.AppendRow(table.Row{"No data", "", "", "", "", ""})
	}

	return t.Render()
}

// FormatWarnings renders warnings one per line
func FormatWarnings(warnings []string) string {
	lines := make([]string, 0, len(warnings))
	for _, w := range warnings {
		lines = append(lines, ColorYellow.Sprint("⚠️  "+w))
	}
	return strings.Join(lines, "\n")
}

// FormatReport renders a saved run report
func FormatReport(r *report.Report) string {
	var sections []string

	header := table.NewWriter()
	header.SetStyle(table.StyleLight)
	header.AppendRow(table.Row{"Run", ColorBlue.Sprint(r.RunID.String())})
	header.AppendRow(table.Row{"Created", r.CreatedAt.Format("2006-01-02 15:04:05 MST")})
	header.AppendRow(table.Row{"Data", fmt.Sprintf("%s: %s", r.Settings.DataSource, strings.Join(r.Settings.Symbols, ", "))})
	header.AppendRow(table.Row{"Range", fmt.Sprintf("%s to %s", orDash(r.Settings.StartDate), orDash(r.Settings.EndDate))})
	if r.Settings.SplitDate != "" {
		header.AppendRow(table.Row{"Split", r.Settings.SplitDate})
	}
	header.AppendRow(table.Row{"Thresholds", fmt.Sprintf("p <= %.3f, entry %.2f, exit %.2f, cost %g, window %d",
		r.Settings.PValueThreshold, r.Settings.EntryZ, r.Settings.ExitZ, r.Settings.Cost, r.Settings.ZScoreWindow)})
	sections = append(sections, header.Render())

	if sel := r.Selection; sel != nil {
		candidates := make([]models.CandidatePair, 0, len(sel.Pairs))
		for _, p := range sel.Pairs {
			candidates = append(candidates, models.CandidatePair{
				A:            p.A,
				B:            p.B,
				PValue:       float64(p.PValue),
				Statistic:    float64(p.Statistic),
				Observations: p.Observations,
			})
		}
		sections = append(sections,
			ColorGray.Sprintf("Selection: %s (%d evaluated, %d skipped)", sel.Kind, sel.Evaluated, sel.Skipped),
			FormatPairsTable(candidates, r.Settings.PValueThreshold))
	}

	if bt := r.Backtest; bt != nil {
		t := table.NewWriter()
		t.SetStyle(table.StyleLight)
		t.AppendRow(table.Row{"Pair", text.Bold.Sprint(bt.Pair)})
		t.AppendRow(table.Row{"Hedge Ratio", FormatNumber(float64(bt.HedgeRatio), 4)})
		t.AppendRow(table.Row{"Sharpe Ratio", colorSigned(bt.Summary.Sharpe, FormatNumber(bt.Summary.Sharpe, 2))})
		t.AppendRow(table.Row{"Max Drawdown", FormatPercent(bt.Summary.MaxDrawdown) + ColorGray.Sprintf(" (%s)", bt.Summary.Convention)})
		t.AppendRow(table.Row{"Cumulative P&L", FormatPnL(bt.Summary.TotalPnL)})
		t.AppendRow(table.Row{"Trades", bt.Trades})
		sections = append(sections, t.Render())

		tail := table.NewWriter()
		tail.SetStyle(table.StyleLight)
		tail.AppendHeader(table.Row{"Date", "Spread", "Z-Score", "P&L", "Cum P&L"})
		for _, pt := range bt.Tail {
			tail.AppendRow(table.Row{
				pt.Date,
				FormatNumber(float64(pt.Spread), 4),
				FormatNumber(float64(pt.ZScore), 2),
				FormatPnL(float64(pt.Return)),
				FormatPnL(float64(pt.CumulativePnL)),
			})
		}
		if len(bt.Tail) > 0 {
			sections = append(sections, tail.Render())
		}
	}

	if len(r.Dropped) > 0 {
		sections = append(sections, FormatWarnings([]string{"Dropped for low coverage: " + strings.Join(r.Dropped, ", ")}))
	}
	if len(r.Warnings) > 0 {
		sections = append(sections, FormatWarnings(r.Warnings))
	}
	return strings.Join(sections, "\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatPosition(p backtest.Position) string {
	switch p {
	case backtest.Long:
		return ColorGreen.Sprint(strings.ToUpper(p.String()))
	case backtest.Short:
		return ColorRed.Sprint(strings.ToUpper(p.String()))
	}
	return ColorGray.Sprint(strings.ToUpper(p.String()))
}

func colorSigned(v float64, s string) string {
	if v > 0 {
		return ColorGreen.Sprint(s)
	} else if v < 0 {
		return ColorRed.Sprint(s)
	}
	return s
}

// TruncateString truncates a string to specified length
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
