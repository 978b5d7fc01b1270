// Package strategy builds the hedged spread between two instruments and the
// rolling z-score signal the backtest trades on.
package strategy

import (
	"errors"
	"fmt"

	"github.com/TruWeaveTrader/statarb/internal/stats"
)

// ErrDegenerateRegression is returned when the hedge ratio cannot be estimated
var ErrDegenerateRegression = errors.New("degenerate hedge regression")

// AlignmentError reports two series that are not aligned on the same axis
type AlignmentError struct {
	LenA int
	LenB int
}

func (e *AlignmentError) Error() string {
	if e.LenA == e.LenB {
		return fmt.Sprintf("series too short to align: %d points, need at least 2", e.LenA)
	}
	return fmt.Sprintf("series not aligned: %d vs %d points", e.LenA, e.LenB)
}

// Spread is A - HedgeRatio*B over an aligned window
type Spread struct {
	Values     []float64 `json:"values"`
	HedgeRatio float64   `json:"hedge_ratio"`
	// Intercept of the hedge regression. Reported only, never subtracted.
	Intercept float64 `json:"intercept"`
}

// ComputeSpread regresses a on b with an intercept and returns the spread
// a(t) - slope*b(t). Both series must be pre-aligned and hold at least 2 points.
func ComputeSpread(a, b []float64) (Spread, error) {
	if len(a) != len(b) || len(a) < 2 {
		return Spread{}, &AlignmentError{LenA: len(a), LenB: len(b)}
	}

	fit, err := stats.OLS(a, [][]float64{b}, true)
	if err != nil {
		if errors.Is(err, stats.ErrDegenerate) || errors.Is(err, stats.ErrTooFewObservations) {
			return Spread{}, fmt.Errorf("%w: %v", ErrDegenerateRegression, err)
		}
		return Spread{}, err
	}

	values, err := ApplyHedge(a, b, fit.Params[1])
	if err != nil {
		return Spread{}, err
	}
	return Spread{
		Values:     values,
		HedgeRatio: fit.Params[1],
		Intercept:  fit.Params[0],
	}, nil
}

// ApplyHedge builds a - hedge*b with a hedge ratio fitted elsewhere, e.g. on a
// training window.
func ApplyHedge(a, b []float64, hedge float64) ([]float64, error) {
	if len(a) != len(b) {
		return nil, &AlignmentError{LenA: len(a), LenB: len(b)}
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - hedge*b[i]
	}
	return out, nil
}
