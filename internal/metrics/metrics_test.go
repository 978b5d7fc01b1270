package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharpeRatio(t *testing.T) {
	assert.Equal(t, 0.0, SharpeRatio(make([]float64, 20)))
	assert.Equal(t, 0.0, SharpeRatio(nil))
	assert.Equal(t, 0.0, SharpeRatio([]float64{0.3}))

	// mean 0.01, sample std 0.01
	returns := []float64{0.0, 0.01, 0.02}
	assert.InDelta(t, math.Sqrt(252), SharpeRatio(returns), 1e-9)

	assert.Less(t, SharpeRatio([]float64{-0.02, -0.01, 0.0}), 0.0)
}

func TestMaxDrawdownMonotone(t *testing.T) {
	returns := []float64{0.01, 0.02, 0.005, 0.03}
	assert.Equal(t, 0.0, MaxDrawdown(returns, Compound))
	assert.Equal(t, 0.0, MaxDrawdown(returns, Additive))
	assert.Equal(t, 0.0, MaxDrawdown(nil, Compound))
}

func TestMaxDrawdownCompound(t *testing.T) {
	// equity 1.1, 0.88, 0.968
	returns := []float64{0.1, -0.2, 0.1}
	assert.InDelta(t, -0.2, MaxDrawdown(returns, Compound), 1e-12)
}

func TestMaxDrawdownAdditive(t *testing.T) {
	// equity 1.5, 1.0, 1.25
	returns := []float64{0.5, -0.5, 0.25}
	assert.InDelta(t, -1.0/3.0, MaxDrawdown(returns, Additive), 1e-12)
}

func TestMaxDrawdownInitialLoss(t *testing.T) {
	assert.InDelta(t, -0.1, MaxDrawdown([]float64{-0.1}, Compound), 1e-12)
}

func TestMaxDrawdownFromEquityMonotone(t *testing.T) {
	assert.Equal(t, 0.0, MaxDrawdownFromEquity([]float64{0.5, 0.6, 0.7}))
	assert.Equal(t, 0.0, MaxDrawdownFromEquity([]float64{100, 101, 150}))
	assert.Equal(t, 0.0, MaxDrawdownFromEquity(nil))
	assert.InDelta(t, -0.5, MaxDrawdownFromEquity([]float64{0.4, 0.8, 0.4}), 1e-12)
}

func TestMaxDrawdownFromEquityNonPositivePeak(t *testing.T) {
	// no positive peak until 0.2
	assert.Equal(t, 0.0, MaxDrawdownFromEquity([]float64{-1, -0.5, 0.2}))
	assert.InDelta(t, -0.5, MaxDrawdownFromEquity([]float64{-1, 0.2, 0.1}), 1e-12)
}

func TestMaxDrawdownNegativeEquity(t *testing.T) {
	// additive equity 1, 0.5, -0.5, -1, 0.2
	dd := MaxDrawdown([]float64{-0.5, -1, -0.5, 1.2}, Additive)
	assert.InDelta(t, -2.0, dd, 1e-12)
	assert.False(t, math.IsInf(dd, 0))
	assert.False(t, math.IsNaN(dd))
}

func TestEquityCurve(t *testing.T) {
	returns := []float64{0.1, -0.1}
	compound := EquityCurve(returns, Compound)
	require.Len(t, compound, 2)
	assert.InDelta(t, 1.1, compound[0], 1e-12)
	assert.InDelta(t, 0.99, compound[1], 1e-12)

	additive := EquityCurve(returns, Additive)
	assert.InDelta(t, 1.1, additive[0], 1e-12)
	assert.InDelta(t, 1.0, additive[1], 1e-12)
}

func TestCumulativePnL(t *testing.T) {
	assert.Equal(t, []float64{1, 3, 2}, CumulativePnL([]float64{1, 2, -1}))
	assert.Empty(t, CumulativePnL(nil))
}

func TestParseEquityConvention(t *testing.T) {
	c, err := ParseEquityConvention("additive")
	require.NoError(t, err)
	assert.Equal(t, Additive, c)

	c, err = ParseEquityConvention("")
	require.NoError(t, err)
	assert.Equal(t, Compound, c)

	_, err = ParseEquityConvention("log")
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{0.1, -0.2, 0.1}, Compound)
	assert.Equal(t, 3, s.Observations)
	assert.InDelta(t, 0.0, s.TotalPnL, 1e-12)
	assert.InDelta(t, -0.032, s.TotalReturn, 1e-12)
	assert.InDelta(t, -0.2, s.MaxDrawdown, 1e-12)
	assert.Equal(t, Compound, s.Convention)
}
