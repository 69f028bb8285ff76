package nn

import (
	"math"
	"math/rand"
)

// Gaussian fills values with draws from N(0, 1/fanIn).
//
// For rectified-linear activations the fan-in is halved, giving N(0, 2/fanIn)
// (He initialization).
//
// Parameters:
//   - rng: Random source; nil uses the math/rand global source
//   - values: Slice to fill
//   - fanIn: Number of inputs feeding each unit
//   - rectified: Whether the consuming activation is rectified-linear
func Gaussian(rng *rand.Rand, values []float64, fanIn int, rectified bool) {
	scale := float64(max(fanIn, 1))
	if rectified {
		scale /= 2
	}
	std := 1 / math.Sqrt(scale)

	normal := rand.NormFloat64
	if rng != nil {
		normal = rng.NormFloat64
	}
	for i := range values {
		//nolint:gosec // Using math/rand for weight initialization (not security-critical)
		values[i] = normal() * std
	}
}
