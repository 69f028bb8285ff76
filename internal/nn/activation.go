package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Activation selects the elementwise (or, for SoftMax, vector-wise) function
// applied by Dense and Nonlinearity operators.
type Activation int

const (
	// Identity passes values through: f(x) = x.
	Identity Activation = iota
	// Tanh squashes values to (-1, 1).
	Tanh
	// Sigmoid squashes values to (0, 1): σ(x) = 1 / (1 + exp(-x)).
	Sigmoid
	// SigmoidCrossEntropy computes σ(x) but passes gradients through
	// unchanged, because with a cross-entropy loss dE/dx = σ(x) - target
	// already. It is only valid as the final operator of an output channel.
	SigmoidCrossEntropy
	// RectifiedLinear is max(0, x).
	RectifiedLinear
	// SoftSign is x / (1 + |x|).
	SoftSign
	// SoftMax normalizes the whole vector: exp(x_i) / Σ exp(x_j).
	SoftMax
)

var activationNames = map[Activation]string{
	Identity:            "identity",
	Tanh:                "tanh",
	Sigmoid:             "sigmoid",
	SigmoidCrossEntropy: "sigmoid_cross_entropy",
	RectifiedLinear:     "relu",
	SoftSign:            "softsign",
	SoftMax:             "softmax",
}

// String returns the persistence name of the activation.
func (a Activation) String() string {
	if name, ok := activationNames[a]; ok {
		return name
	}
	return fmt.Sprintf("activation(%d)", int(a))
}

// ParseActivation converts a persistence name back to an Activation.
func ParseActivation(name string) (Activation, error) {
	for a, n := range activationNames {
		if n == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown activation %q", ErrInvalidConfig, name)
}

// Range returns the achievable output range used for classification
// thresholds and one-hot targets. Unbounded activations report [0, 1], the
// conventional target range for regression outputs.
func (a Activation) Range() (lo, hi float64) {
	switch a {
	case Tanh, SoftSign:
		return -1, 1
	default:
		return 0, 1
	}
}

// forward writes f(pre) into out. pre and out must have equal length and may
// not alias for SoftMax.
func (a Activation) forward(pre, out []float64) {
	switch a {
	case Tanh:
		for i, x := range pre {
			out[i] = math.Tanh(x)
		}
	case Sigmoid, SigmoidCrossEntropy:
		for i, x := range pre {
			out[i] = 1 / (1 + math.Exp(-x))
		}
	case RectifiedLinear:
		for i, x := range pre {
			out[i] = math.Max(0, x)
		}
	case SoftSign:
		for i, x := range pre {
			out[i] = x / (1 + math.Abs(x))
		}
	case SoftMax:
		if len(pre) == 0 {
			return
		}
		// Shift by the maximum so exp never overflows.
		peak := floats.Max(pre)
		for i, x := range pre {
			out[i] = math.Exp(x - peak)
		}
		floats.Scale(1/floats.Sum(out), out)
	default:
		copy(out, pre)
	}
}

// backward converts dE/d(out) into dE/d(pre), given the cached pre-activation
// and output of the matching forward call. The result is written to a new
// slice.
//
// Derivatives in terms of the output h where a closed form exists:
//
//	tanh'    = 1 - h²
//	sigmoid' = h - h²
//
// ReLU and soft-sign use the cached pre-activation x directly:
//
//	relu'     = 0 if x <= 0, else 1
//	softsign' = 1 / (1 + |x|)²
//
// SoftMax applies its full Jacobian: d_i = h_i (g_i - Σ_j g_j h_j).
func (a Activation) backward(pre, out, grad []float64) []float64 {
	d := make([]float64, len(grad))
	switch a {
	case Tanh:
		for i, h := range out {
			d[i] = grad[i] * (1 - h*h)
		}
	case Sigmoid:
		for i, h := range out {
			d[i] = grad[i] * (h - h*h)
		}
	case RectifiedLinear:
		for i, x := range pre {
			if x > 0 {
				d[i] = grad[i]
			}
		}
	case SoftSign:
		for i, x := range pre {
			s := 1 + math.Abs(x)
			d[i] = grad[i] / (s * s)
		}
	case SoftMax:
		dot := floats.Dot(grad, out)
		for i, h := range out {
			d[i] = h * (grad[i] - dot)
		}
	default:
		// Identity and SigmoidCrossEntropy pass the gradient through.
		copy(d, grad)
	}
	return d
}
