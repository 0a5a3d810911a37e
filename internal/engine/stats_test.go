package engine

import (
	"math"
	"testing"

	"github.com/yourorg/portfolio-sim/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantile(t *testing.T) {
	values := []float64{3, 1, 4, 2, 5}

	q, err := quantile(values, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, q)

	q, err = quantile(values, 1)
	require.NoError(t, err)
	assert.Equal(t, 5.0, q)

	q, err = quantile(values, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 3.0, q)

	// Linear interpolation between order statistics.
	q, err = quantile([]float64{1, 2}, 0.25)
	require.NoError(t, err)
	assert.InDelta(t, 1.25, q, 1e-12)

	// Input must not be reordered.
	assert.Equal(t, []float64{3, 1, 4, 2, 5}, values)
}

func TestQuantileErrors(t *testing.T) {
	var cfgErr *model.ConfigurationError
	_, err := quantile([]float64{1}, -0.1)
	assert.ErrorAs(t, err, &cfgErr)
	_, err = quantile([]float64{1}, 1.1)
	assert.ErrorAs(t, err, &cfgErr)

	var numErr *model.NumericalError
	_, err = quantile(nil, 0.5)
	assert.ErrorAs(t, err, &numErr)
}

func TestMeanAndStddev(t *testing.T) {
	assert.Zero(t, mean(nil))
	assert.InDelta(t, 2.0, mean([]float64{1, 2, 3}), 1e-12)

	assert.Zero(t, stddev([]float64{5}))
	// Sample stddev of {2,4,4,4,5,5,7,9} is 2.138...
	assert.InDelta(t, 2.13809, stddev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-4)
	assert.Zero(t, stddev([]float64{3, 3, 3}))
}

func TestMaxDrawdown(t *testing.T) {
	assert.Zero(t, maxDrawdown(nil))
	assert.Zero(t, maxDrawdown([]float64{1, 2, 3}))
	assert.InDelta(t, 0.5, maxDrawdown([]float64{100, 50, 120}), 1e-12)
	assert.InDelta(t, 0.25, maxDrawdown([]float64{100, 110, 90, 82.5, 120}), 1e-12)
	// All-zero series has no positive peak.
	assert.Zero(t, maxDrawdown([]float64{0, 0, 0}))
}

func TestCholesky(t *testing.T) {
	lower, err := cholesky([][]float64{
		{1.0, 0.5},
		{0.5, 1.0},
	})
	require.NoError(t, err)

	// Multiplying the factor by its transpose must reproduce the input.
	n := len(lower)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sum := 0.0
			for k := 0; k < n; k++ {
				sum += lower[i][k] * lower[j][k]
			}
			want := 1.0
			if i != j {
				want = 0.5
			}
			assert.InDelta(t, want, sum, 1e-12)
		}
	}
	assert.InDelta(t, math.Sqrt(0.75), lower[1][1], 1e-12)
}

func TestCholeskyRejectsNonPositiveDefinite(t *testing.T) {
	var cfgErr *model.ConfigurationError
	_, err := cholesky([][]float64{
		{1.0, 2.0},
		{2.0, 1.0},
	})
	assert.ErrorAs(t, err, &cfgErr)
}
