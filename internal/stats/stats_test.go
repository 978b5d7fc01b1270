package stats

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomWalk(r *rand.Rand, n int, start float64) []float64 {
	out := make([]float64, n)
	out[0] = start
	for i := 1; i < n; i++ {
		out[i] = out[i-1] + r.NormFloat64()
	}
	return out
}

func ar1(r *rand.Rand, n int, phi, sd float64) []float64 {
	out := make([]float64, n)
	for i := 1; i < n; i++ {
		out[i] = phi*out[i-1] + sd*r.NormFloat64()
	}
	return out
}

func TestOLSRecoversLine(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 3 + 2*v
	}
	// perturb symmetrically so the fit stays exact in slope/intercept
	y[0] += 0.1
	y[7] += 0.1
	y[3] -= 0.1
	y[4] -= 0.1

	fit, err := OLS(y, [][]float64{x}, true)
	require.NoError(t, err)
	require.Len(t, fit.Params, 2)
	assert.InDelta(t, 3.0, fit.Params[0], 1e-9)
	assert.InDelta(t, 2.0, fit.Params[1], 1e-9)
	assert.Equal(t, 8, fit.NObs)
	assert.Equal(t, 2, fit.K)
	assert.InDelta(t, 0.04, fit.SSR, 1e-9)
	assert.Greater(t, fit.RSquared, 0.99)
	assert.Greater(t, fit.TValues[1], 10.0)
}

func TestOLSDegenerate(t *testing.T) {
	x := []float64{5, 5, 5, 5, 5}
	y := []float64{1, 2, 3, 4, 5}
	_, err := OLS(y, [][]float64{x}, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDegenerate))

	_, err = OLS([]float64{1, 2}, [][]float64{{1, 2}}, true)
	assert.True(t, errors.Is(err, ErrTooFewObservations))
}

func TestDefaultMaxLag(t *testing.T) {
	assert.Equal(t, 12, DefaultMaxLag(100))
	assert.Equal(t, 19, DefaultMaxLag(600))
	assert.Equal(t, 4, DefaultMaxLag(10))
}

func TestADFStationarySeries(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	x := ar1(r, 500, 0.5, 1)

	res, err := ADF(x, -1, true)
	require.NoError(t, err)
	assert.Less(t, res.Statistic, -3.5)
	assert.GreaterOrEqual(t, res.UsedLag, 0)
	assert.LessOrEqual(t, res.UsedLag, DefaultMaxLag(500))
	assert.False(t, math.IsNaN(res.ICBest))
}

func TestADFFixedLag(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	x := ar1(r, 200, 0.3, 1)

	res, err := ADF(x, 2, false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.UsedLag)
	assert.Equal(t, 199-2, res.NObs)
	assert.True(t, math.IsNaN(res.ICBest))
}

func TestMacKinnonP(t *testing.T) {
	// asymptotic 5% critical values
	p, err := MacKinnonP(-3.34, 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, p, 0.005)

	p, err = MacKinnonP(-2.86, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, p, 0.005)

	p, err = MacKinnonP(5, 2)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p)

	p, err = MacKinnonP(-40, 2)
	require.NoError(t, err)
	assert.Equal(t, 0.0, p)

	_, err = MacKinnonP(-3, 7)
	assert.Error(t, err)
}

func TestMacKinnonPMonotone(t *testing.T) {
	prev := -1.0
	for stat := -18.0; stat < 0.9; stat += 0.25 {
		p, err := MacKinnonP(stat, 2)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
		assert.GreaterOrEqual(t, p, prev-1e-3, "p-value should not fall as the statistic rises (stat=%.2f)", stat)
		prev = p
	}
}

func TestCointDetectsCointegratedPair(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 99))
	a := randomWalk(r, 600, 100)
	noise := ar1(r, 600, 0.5, 0.5)
	b := make([]float64, len(a))
	for i := range a {
		b[i] = 2*a[i] + noise[i]
	}

	res, err := Coint(b, a)
	require.NoError(t, err)
	assert.Less(t, res.PValue, 0.05)
	assert.InDelta(t, 2.0, res.HedgeRatio, 0.1)
	assert.Equal(t, 600, res.NObs)
}

func TestCointPValueRange(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	a := randomWalk(r, 300, 50)
	b := randomWalk(r, 300, 80)

	res, err := Coint(a, b)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.PValue, 0.0)
	assert.LessOrEqual(t, res.PValue, 1.0)
}

func TestCointCollinear(t *testing.T) {
	a := make([]float64, 50)
	b := make([]float64, 50)
	for i := range a {
		a[i] = float64(i) + math.Sin(float64(i))
		b[i] = 3 * a[i]
	}
	res, err := Coint(b, a)
	require.NoError(t, err)
	assert.True(t, math.IsInf(res.Statistic, -1))
	assert.Equal(t, 0.0, res.PValue)
}

func TestCointDegenerate(t *testing.T) {
	flat := make([]float64, 40)
	moving := make([]float64, 40)
	for i := range flat {
		flat[i] = 10
		moving[i] = float64(i)
	}
	_, err := Coint(moving, flat)
	assert.True(t, errors.Is(err, ErrDegenerate))

	_, err = Coint(flat, moving)
	assert.True(t, errors.Is(err, ErrDegenerate))

	_, err = Coint(flat[:5], moving[:5])
	assert.True(t, errors.Is(err, ErrTooFewObservations))

	_, err = Coint(flat, moving[:10])
	assert.Error(t, err)
}
