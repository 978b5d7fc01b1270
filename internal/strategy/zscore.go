package strategy

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DefaultWindow is the rolling lookback used for the z-score
const DefaultWindow = 30

// ZScore normalizes values by their rolling mean and sample standard deviation.
// Entries before the first full window are NaN, as are windows that contain
// NaN or have zero deviation.
func ZScore(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if window < 2 {
		return out
	}

	for i := window - 1; i < len(values); i++ {
		w := values[i-window+1 : i+1]
		if hasNaN(w) || isConstant(w) {
			continue
		}
		mean, std := stat.MeanStdDev(w, nil)
		if std == 0 || math.IsNaN(std) {
			continue
		}
		out[i] = (values[i] - mean) / std
	}
	return out
}

func hasNaN(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func isConstant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
