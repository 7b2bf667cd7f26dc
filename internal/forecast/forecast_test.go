package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearSeries(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func TestProject_LinearSeriesFollowsTrend(t *testing.T) {
	// 100, 101, ..., 140: the trend model fits exactly.
	closes := linearSeries(100, 1, 41)

	out, err := Project(closes, Options{})
	require.NoError(t, err)
	assert.Equal(t, "trend", out.Model)
	require.Len(t, out.Prices, 7)
	assert.InDelta(t, 141, out.Prices[0], 1e-6)
	assert.InDelta(t, 147, out.Prices[6], 1e-6)
	assert.InDelta(t, (147.0-141.0)/141.0*100, out.PercentChange, 1e-6)
	assert.InDelta(t, 0, out.TestMSE, 1e-9)
}

func TestProject_DecliningSeriesProjectsDown(t *testing.T) {
	closes := linearSeries(200, -2, 30)

	out, err := Project(closes, Options{})
	require.NoError(t, err)
	assert.Negative(t, out.PercentChange)
	assert.Less(t, out.Prices[6], out.Prices[0])
}

func TestProject_MeanRevertingSeriesPicksAutoregressive(t *testing.T) {
	// Geometric decay toward zero: exact under AR(1), poorly fit by a line.
	closes := make([]float64, 12)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		closes[i] = 0.5 * closes[i-1]
	}

	out, err := Project(closes, Options{})
	require.NoError(t, err)
	assert.Equal(t, "autoregressive", out.Model)
	assert.Negative(t, out.PercentChange)
}

func TestProject_CustomHorizon(t *testing.T) {
	out, err := Project(linearSeries(50, 0.5, 20), Options{Horizon: 3})
	require.NoError(t, err)
	assert.Len(t, out.Prices, 3)
}

func TestProject_TooFewObservations(t *testing.T) {
	_, err := Project(linearSeries(100, 1, 9), Options{})
	assert.Error(t, err)
}
