package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// MacKinnon (1994, 2010) response-surface coefficients for regressions with a
// constant, indexed by the number of series N-1.
var (
	tauStarC = []float64{-1.61, -2.62}
	tauMinC  = []float64{-18.83, -18.86}
	tauMaxC  = []float64{2.74, 0.92}

	tauSmallPC = [][]float64{
		{2.1659, 1.4412, 0.038269},
		{2.92, 1.5012, 0.039796},
	}
	tauLargePC = [][]float64{
		{1.7339, 0.93202, -0.12745, -0.010368},
		{2.1945, 0.64695, -0.29198, -0.042377},
	}
)

// collinearTolerance mirrors 1 - 100*sqrt(machine epsilon)
var collinearTolerance = 1 - 100*math.Sqrt(2.220446049250313e-16)

// MacKinnonP returns the approximate asymptotic p-value of a Dickey-Fuller type
// statistic for a regression with a constant over n series (1 = plain ADF,
// 2 = Engle-Granger on a pair).
func MacKinnonP(stat float64, n int) (float64, error) {
	if n < 1 || n > len(tauStarC) {
		return math.NaN(), fmt.Errorf("mackinnon: unsupported number of series %d", n)
	}
	i := n - 1
	switch {
	case math.IsNaN(stat):
		return math.NaN(), fmt.Errorf("mackinnon: statistic is NaN")
	case stat > tauMaxC[i]:
		return 1, nil
	case stat < tauMinC[i]:
		return 0, nil
	}

	coef := tauLargePC[i]
	if stat <= tauStarC[i] {
		coef = tauSmallPC[i]
	}
	var poly, pow float64 = 0, 1
	for _, c := range coef {
		poly += c * pow
		pow *= stat
	}
	return distuv.UnitNormal.CDF(poly), nil
}

// CointResult is the outcome of an Engle-Granger two-step test
type CointResult struct {
	Statistic  float64
	PValue     float64
	HedgeRatio float64
	Intercept  float64
	UsedLag    int
	NObs       int
}

// Coint runs the Engle-Granger test of y against x: y is regressed on a constant
// and x, and the residuals are tested for a unit root with an AIC-selected ADF.
// The null hypothesis is no cointegration. Perfectly collinear inputs report a
// statistic of -Inf and a p-value of 0.
func Coint(y, x []float64) (*CointResult, error) {
	if len(y) != len(x) {
		return nil, fmt.Errorf("coint: series lengths differ (%d vs %d)", len(y), len(x))
	}
	if len(y) < 10 {
		return nil, fmt.Errorf("coint: %d observations: %w", len(y), ErrTooFewObservations)
	}

	fit, err := OLS(y, [][]float64{x}, true)
	if err != nil {
		return nil, fmt.Errorf("coint: cointegrating regression: %w", err)
	}
	res := &CointResult{
		Intercept:  fit.Params[0],
		HedgeRatio: fit.Params[1],
		NObs:       fit.NObs,
	}

	if fit.RSquared >= collinearTolerance {
		res.Statistic = math.Inf(-1)
		res.PValue = 0
		return res, nil
	}

	adf, err := ADF(fit.Resid, -1, true)
	if err != nil {
		return nil, fmt.Errorf("coint: residual unit-root test: %w", err)
	}
	res.Statistic = adf.Statistic
	res.UsedLag = adf.UsedLag

	p, err := MacKinnonP(adf.Statistic, 2)
	if err != nil {
		return nil, fmt.Errorf("coint: %w", err)
	}
	res.PValue = p
	return res, nil
}
