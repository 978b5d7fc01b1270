package stats

import (
	"fmt"
	"math"
)

// ADFResult is the outcome of an augmented Dickey-Fuller regression
type ADFResult struct {
	Statistic float64
	UsedLag   int
	NObs      int
	ICBest    float64
}

// DefaultMaxLag is the Schwert rule 12*(n/100)^(1/4), capped at n/2-1
func DefaultMaxLag(n int) int {
	lag := int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	if limit := n/2 - 1; lag > limit {
		lag = limit
	}
	return lag
}

// ADF runs an augmented Dickey-Fuller regression without deterministic terms:
//
//	Δx_t = γ x_{t-1} + Σ_{i=1..p} φ_i Δx_{t-i} + ε_t
//
// A negative maxLag selects DefaultMaxLag. With autolag the lag order p is chosen
// by minimum AIC over 0..maxLag on the common sample, then the regression is
// re-estimated on the longest sample available for that order.
func ADF(x []float64, maxLag int, autolag bool) (*ADFResult, error) {
	n := len(x)
	if maxLag < 0 {
		maxLag = DefaultMaxLag(n)
	}
	if maxLag < 0 || n < 4 {
		return nil, fmt.Errorf("adf: %d observations: %w", n, ErrTooFewObservations)
	}

	diff := make([]float64, n-1)
	for i := 1; i < n; i++ {
		diff[i-1] = x[i] - x[i-1]
	}

	usedLag := maxLag
	icBest := math.NaN()
	if autolag {
		y, cols := adfDesign(x, diff, maxLag)
		best := math.Inf(1)
		bestLag := -1
		for lag := 0; lag <= maxLag; lag++ {
			fit, err := OLS(y, cols[:lag+1], false)
			if err != nil {
				continue
			}
			if fit.AIC < best {
				best = fit.AIC
				bestLag = lag
			}
		}
		if bestLag < 0 {
			return nil, fmt.Errorf("adf: no lag order could be fitted: %w", ErrDegenerate)
		}
		usedLag = bestLag
		icBest = best
	}

	y, cols := adfDesign(x, diff, usedLag)
	fit, err := OLS(y, cols, false)
	if err != nil {
		return nil, fmt.Errorf("adf: %w", err)
	}

	return &ADFResult{
		Statistic: fit.TValues[0],
		UsedLag:   usedLag,
		NObs:      fit.NObs,
		ICBest:    icBest,
	}, nil
}

// adfDesign builds the response Δx_t and regressors [x_{t-1}, Δx_{t-1}..Δx_{t-lag}]
// over the rows where every lag is available.
func adfDesign(x, diff []float64, lag int) ([]float64, [][]float64) {
	rows := len(diff) - lag
	if rows < 0 {
		rows = 0
	}
	y := make([]float64, rows)
	cols := make([][]float64, lag+1)
	for j := range cols {
		cols[j] = make([]float64, rows)
	}
	for r := 0; r < rows; r++ {
		t := lag + r
		y[r] = diff[t]
		cols[0][r] = x[t]
		for j := 1; j <= lag; j++ {
			cols[j][r] = diff[t-j]
		}
	}
	return y, cols
}
