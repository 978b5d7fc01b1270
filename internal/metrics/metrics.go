// Package metrics computes performance statistics from a daily return series.
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TradingDays is the number of periods per year used for annualization
const TradingDays = 252

// EquityConvention selects how returns are accumulated into an equity curve
type EquityConvention string

const (
	// Compound builds equity as the running product of (1+r)
	Compound EquityConvention = "compound"
	// Additive builds equity as 1 plus the running sum of r
	Additive EquityConvention = "additive"
)

// ParseEquityConvention validates a convention name
func ParseEquityConvention(s string) (EquityConvention, error) {
	switch EquityConvention(s) {
	case Compound, Additive:
		return EquityConvention(s), nil
	case "":
		return Compound, nil
	}
	return "", fmt.Errorf("unknown equity convention %q (want compound or additive)", s)
}

// SharpeRatio returns sqrt(252)*mean/std using the sample standard deviation.
// A series with zero deviation, or fewer than two points, scores 0.
func SharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean, std := stat.MeanStdDev(returns, nil)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return math.Sqrt(TradingDays) * mean / std
}

// EquityCurve accumulates returns under the given convention, starting from 1
func EquityCurve(returns []float64, convention EquityConvention) []float64 {
	curve := make([]float64, len(returns))
	if convention == Additive {
		floats.CumSum(curve, returns)
		floats.AddConst(1, curve)
		return curve
	}
	equity := 1.0
	for i, r := range returns {
		equity *= 1 + r
		curve[i] = equity
	}
	return curve
}

// CumulativePnL is the running sum of returns
func CumulativePnL(returns []float64) []float64 {
	out := make([]float64, len(returns))
	floats.CumSum(out, returns)
	return out
}

// MaxDrawdown builds the equity curve for returns and returns its largest
// peak-to-trough decline as a non-positive fraction. The curve is measured
// from the starting equity of 1, so a loss on the first day counts.
func MaxDrawdown(returns []float64, convention EquityConvention) float64 {
	equity := append([]float64{1}, EquityCurve(returns, convention)...)
	return MaxDrawdownFromEquity(equity)
}

// MaxDrawdownFromEquity scans an equity curve against its running peak, which
// starts at the first point. Points are skipped while the peak is not
// positive, since no fractional decline is defined from there.
func MaxDrawdownFromEquity(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}
	peak := equity[0]
	worst := 0.0
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if peak <= 0 {
			continue
		}
		if dd := (e - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return worst
}

// Summary collects the headline statistics of a return series
type Summary struct {
	Sharpe       float64          `json:"sharpe"`
	MaxDrawdown  float64          `json:"max_drawdown"`
	TotalPnL     float64          `json:"total_pnl"`
	TotalReturn  float64          `json:"total_return"`
	Observations int              `json:"observations"`
	Convention   EquityConvention `json:"equity_convention"`
}

// Summarize computes a Summary for returns
func Summarize(returns []float64, convention EquityConvention) Summary {
	s := Summary{
		Sharpe:       SharpeRatio(returns),
		MaxDrawdown:  MaxDrawdown(returns, convention),
		TotalPnL:     floats.Sum(returns),
		Observations: len(returns),
		Convention:   convention,
	}
	if curve := EquityCurve(returns, convention); len(curve) > 0 {
		s.TotalReturn = curve[len(curve)-1] - 1
	}
	return s
}
