package engine

import (
	"math"
	"sort"

	"github.com/yourorg/portfolio-sim/internal/model"
)

// quantile returns the q-th quantile of values using linear interpolation
// between order statistics.
func quantile(values []float64, q float64) (float64, error) {
	if q < 0 || q > 1 {
		return 0, model.NewConfigurationError("quantile", "must be in [0,1], got %g", q)
	}
	if len(values) == 0 {
		return 0, model.NewNumericalError("quantile", "empty sample")
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1], nil
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo]), nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// stddev is the sample standard deviation.
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// maxDrawdown is the largest peak-to-trough decline of the series as a
// fraction of the running peak. Zero-valued prefixes contribute nothing
// until a positive peak exists.
func maxDrawdown(series []float64) float64 {
	peak := 0.0
	worst := 0.0
	for _, v := range series {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := 1.0 - v/peak
			if dd > worst {
				worst = dd
			}
		}
	}
	if worst < 0 {
		return 0
	}
	return worst
}

// cholesky decomposes a symmetric positive-definite matrix into its lower
// triangular factor. Failure means the matrix is not a valid correlation
// structure.
func cholesky(matrix [][]float64) ([][]float64, error) {
	n := len(matrix)
	lower := make([][]float64, n)
	for i := range lower {
		lower[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := matrix[i][j]
			for k := 0; k < j; k++ {
				sum -= lower[i][k] * lower[j][k]
			}
			if i == j {
				if sum <= 0 {
					return nil, model.NewConfigurationError("correlations", "matrix is not positive definite")
				}
				lower[i][j] = math.Sqrt(sum)
			} else {
				lower[i][j] = sum / lower[j][j]
			}
		}
	}
	return lower, nil
}
