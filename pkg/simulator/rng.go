package simulator

import (
	"math"
	"math/rand/v2"
)

// newRand builds the engine's random source. A non-zero seed makes every
// cycle reproducible; seed 0 derives the source from entropy.
func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}

// intBetween draws uniformly from [lo, hi] inclusive.
func intBetween(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}

// floatBetween draws uniformly from [lo, hi).
func floatBetween(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// weightedChoice draws one value using the given relative weights.
// Weights do not need to sum to 1.
func weightedChoice[T any](rng *rand.Rand, values []T, weights []float64) T {
	if len(values) != len(weights) {
		panic("weightedChoice: values and weights must have the same length")
	}

	total := 0.0
	for _, w := range weights {
		total += w
	}

	draw := rng.Float64() * total
	for i, w := range weights {
		draw -= w
		if draw < 0 {
			return values[i]
		}
	}
	return values[len(values)-1]
}

// round2 rounds a price to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
