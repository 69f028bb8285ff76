package nn

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// probabilityFloor keeps cross-entropy finite for saturated outputs.
const probabilityFloor = 1e-12

// SquaredError computes ½ Σ (out - target)².
//
// Its derivative with respect to out is (out - target), the error vector fed
// to the last layer on BackPropagate.
func SquaredError(out, target []float64) float64 {
	d := floats.Distance(out, target, 2)
	return 0.5 * d * d
}

// BinaryCrossEntropy computes -Σ [t·ln(o) + (1-t)·ln(1-o)].
//
// Paired with a sigmoid output its derivative with respect to the
// pre-activation is (out - target), which is why the SigmoidCrossEntropy
// activation passes gradients through unchanged.
func BinaryCrossEntropy(out, target []float64) float64 {
	var loss float64
	for i, o := range out {
		o = math.Min(math.Max(o, probabilityFloor), 1-probabilityFloor)
		t := target[i]
		loss -= t*math.Log(o) + (1-t)*math.Log(1-o)
	}
	return loss
}

// LossFor returns the loss whose output derivative matches the error vector
// used with activation a.
func LossFor(a Activation) func(out, target []float64) float64 {
	if a == SigmoidCrossEntropy {
		return BinaryCrossEntropy
	}
	return SquaredError
}
