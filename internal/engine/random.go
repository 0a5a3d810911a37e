package engine

import "math/rand"

// splitmix64 mixes a seed with a path index into an independent sub-seed.
// Deriving each path's stream this way keeps every path's draws independent
// of how many other paths run and of worker scheduling, so identical
// (config, seed) pairs reproduce bit-identical series.
func splitmix64(seed, path uint64) uint64 {
	z := seed + 0x9e3779b97f4a7c15*(path+1)
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e9b5
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// pathSource returns the dedicated random source for one path. Draw order
// within a path is fixed: period-major, asset-minor.
func pathSource(seed int64, path int) *rand.Rand {
	sub := splitmix64(uint64(seed), uint64(path))
	return rand.New(rand.NewSource(int64(sub)))
}

// drawShocks fills dst with one standard normal draw per asset, applying the
// Cholesky factor when a correlation structure is configured. scratch must
// have the same length as dst.
func drawShocks(rng *rand.Rand, lower [][]float64, dst, scratch []float64) {
	for i := range dst {
		scratch[i] = rng.NormFloat64()
	}
	if lower == nil {
		copy(dst, scratch)
		return
	}
	for i := range dst {
		sum := 0.0
		for k := 0; k <= i; k++ {
			sum += lower[i][k] * scratch[k]
		}
		dst[i] = sum
	}
}
