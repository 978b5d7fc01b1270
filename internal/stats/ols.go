// Package stats provides the regression and unit-root primitives used by the
// pair selector and spread builder.
package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrDegenerate is returned when a regression has no unique solution
	// (constant or collinear regressors, zero variance in the response).
	ErrDegenerate = errors.New("degenerate regression")
	// ErrTooFewObservations is returned when there are not enough rows for the
	// requested number of regressors.
	ErrTooFewObservations = errors.New("too few observations")
)

// OLSResult holds an ordinary least squares fit
type OLSResult struct {
	Params   []float64
	StdErr   []float64
	TValues  []float64
	Resid    []float64
	SSR      float64
	RSquared float64
	NObs     int
	K        int
	LogLike  float64
	AIC      float64
}

// OLS regresses y on the given regressor columns. When withConst is true a
// column of ones is prepended and Params[0] is the intercept.
func OLS(y []float64, cols [][]float64, withConst bool) (*OLSResult, error) {
	n := len(y)
	k := len(cols)
	if withConst {
		k++
	}
	if k == 0 {
		return nil, fmt.Errorf("ols: no regressors")
	}
	for i, c := range cols {
		if len(c) != n {
			return nil, fmt.Errorf("ols: column %d has %d rows, want %d", i, len(c), n)
		}
	}
	if n <= k {
		return nil, fmt.Errorf("ols: %d rows for %d regressors: %w", n, k, ErrTooFewObservations)
	}
	for i, c := range cols {
		// a constant column duplicates the intercept; without one, only zeros are fatal
		if (withConst && constant(c)) || (!withConst && constant(c) && c[0] == 0) {
			return nil, fmt.Errorf("ols: column %d has no variation: %w", i, ErrDegenerate)
		}
	}

	X := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		j := 0
		if withConst {
			X.Set(i, 0, 1)
			j = 1
		}
		for _, c := range cols {
			X.Set(i, j, c[i])
			j++
		}
	}
	yVec := mat.NewVecDense(n, append([]float64(nil), y...))

	var qr mat.QR
	qr.Factorize(X)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, yVec); err != nil {
		return nil, fmt.Errorf("ols: %v: %w", err, ErrDegenerate)
	}

	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	var cov mat.Dense
	if err := cov.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("ols: %v: %w", err, ErrDegenerate)
	}

	var fitted mat.VecDense
	fitted.MulVec(X, &beta)

	res := &OLSResult{
		Params:  make([]float64, k),
		StdErr:  make([]float64, k),
		TValues: make([]float64, k),
		Resid:   make([]float64, n),
		NObs:    n,
		K:       k,
	}
	for j := 0; j < k; j++ {
		res.Params[j] = beta.AtVec(j)
	}

	var meanY float64
	for i := 0; i < n; i++ {
		meanY += y[i]
	}
	meanY /= float64(n)

	var tss float64
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		res.Resid[i] = r
		res.SSR += r * r
		d := y[i]
		if withConst {
			d -= meanY
		}
		tss += d * d
	}
	if tss == 0 {
		return nil, fmt.Errorf("ols: response has no variation: %w", ErrDegenerate)
	}
	res.RSquared = 1 - res.SSR/tss

	sigma2 := res.SSR / float64(n-k)
	for j := 0; j < k; j++ {
		res.StdErr[j] = math.Sqrt(sigma2 * cov.At(j, j))
		res.TValues[j] = res.Params[j] / res.StdErr[j]
	}

	nf := float64(n)
	res.LogLike = -nf / 2 * (math.Log(2*math.Pi) + math.Log(res.SSR/nf) + 1)
	res.AIC = -2*res.LogLike + 2*float64(k)

	return res, nil
}

func constant(c []float64) bool {
	for _, v := range c[1:] {
		if v != c[0] {
			return false
		}
	}
	return true
}
