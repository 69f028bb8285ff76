// Package nn implements the operators of the network engine.
//
// This package provides the four operator kinds a channel pipeline is built
// from:
//   - Convolution: square kernel per 2-D plane with edge-extended borders
//   - Pooling: per-axis block reduction (average, minimum, maximum)
//   - Dense: fully connected layer with a bias column and an activation
//   - Nonlinearity: stateless elementwise activation
//
// Every operator pairs a Forward with an analytic Backward, accumulates its
// parameter gradients between StartBatch and UpdateWeights, and can verify
// those gradients against finite differences of the owning network's loss.
package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/deepnet/internal/document"
	"github.com/born-ml/deepnet/internal/tensor"
)

// Kind tags the operator variant. It doubles as the persistence type tag.
type Kind int

const (
	// KindConvolution is the Convolution operator.
	KindConvolution Kind = iota
	// KindPooling is the Pooling operator.
	KindPooling
	// KindDense is the Dense operator.
	KindDense
	// KindNonlinearity is the Nonlinearity operator.
	KindNonlinearity
)

var kindNames = map[Kind]string{
	KindConvolution:  "convolution",
	KindPooling:      "pooling",
	KindDense:        "dense",
	KindNonlinearity: "nonlinearity",
}

// String returns the persistence tag of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind converts a persistence tag back to a Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOperator, name)
}

// LossFunc re-evaluates the owning network on its current sample and returns
// the scalar loss. Gradient checks call it after every parameter perturbation.
type LossFunc func() (float64, error)

// Operator is one tensor transform in a channel pipeline.
//
// Lifecycle: Uninitialized -> (InitializeParameters or ResultingSize) ->
// Ready -> Forward -> Forwarded -> Backward -> Ready. UpdateWeights may be
// called whenever the operator is Ready or Forwarded. Backward outside the
// Forwarded state returns a *PreconditionError.
//
// An operator instance belongs to exactly one channel; it is never called
// concurrently.
type Operator interface {
	// Kind returns the variant tag.
	Kind() Kind

	// ResultingSize returns the output shape produced for the given input
	// shape, or an error if the input is not acceptable. Dense additionally
	// reallocates and reinitializes its weights when the flattened input size
	// differs from the one it was built for.
	ResultingSize(input tensor.Shape) (tensor.Shape, error)

	// InitializeParameters reseeds learnable parameters from rng (the global
	// source when rng is nil). Parameterless operators ignore it.
	InitializeParameters(rng *rand.Rand)

	// Forward computes the output and caches whatever Backward needs.
	Forward(input *tensor.Tensor) (*tensor.Tensor, error)

	// Backward converts dE/d(output) into dE/d(input) and adds this sample's
	// parameter gradient to the accumulator.
	Backward(outputGrad []float64) ([]float64, error)

	// StartBatch zeroes the gradient accumulator.
	StartBatch()

	// UpdateWeights applies params = params*decay - rate*accumulator.
	UpdateWeights(rate, decay float64)

	// GradientCheck compares every accumulated parameter gradient with a
	// central finite difference of loss, returning a *GradientCheckError
	// when any discrepancy exceeds tolerance.
	GradientCheck(epsilon, tolerance float64, loss LossFunc) error

	// Encode returns the operator as a document node, including its type tag.
	Encode() document.Node

	// String describes the operator for logs and diagrams.
	String() string
}

type opState int

const (
	stateUninitialized opState = iota
	stateReady
	stateForwarded
)
