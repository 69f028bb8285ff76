package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/deepnet/internal/document"
	"github.com/born-ml/deepnet/internal/tensor"
)

// Nonlinearity applies an activation to its input without any parameters.
// The output has the input's shape.
//
// Example:
//
//	relu := nn.NewNonlinearity(nn.RectifiedLinear)
//	out, _ := relu.Forward(x)
type Nonlinearity struct {
	activation Activation

	state   opState
	lastPre []float64
	lastOut []float64
}

// NewNonlinearity creates a nonlinearity operator.
func NewNonlinearity(activation Activation) *Nonlinearity {
	return &Nonlinearity{activation: activation, state: stateReady}
}

// Kind returns KindNonlinearity.
func (n *Nonlinearity) Kind() Kind {
	return KindNonlinearity
}

// Activation returns the activation function.
func (n *Nonlinearity) Activation() Activation {
	return n.activation
}

// ResultingSize returns the input shape unchanged.
func (n *Nonlinearity) ResultingSize(input tensor.Shape) (tensor.Shape, error) {
	if err := input.Validate(); err != nil {
		return nil, shapeError(n, "%v", err)
	}
	return input.Clone(), nil
}

// InitializeParameters is a no-op.
func (n *Nonlinearity) InitializeParameters(*rand.Rand) {}

// Forward applies the activation.
func (n *Nonlinearity) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	out := make([]float64, input.Len())
	n.activation.forward(input.Data, out)

	n.lastPre = input.Data
	n.lastOut = out
	n.state = stateForwarded
	return &tensor.Tensor{Data: out, Shape: input.Shape.Clone()}, nil
}

// Backward applies the activation derivative.
func (n *Nonlinearity) Backward(outputGrad []float64) ([]float64, error) {
	if n.state != stateForwarded {
		return nil, precondition(n, "Backward", ErrBackwardBeforeForward)
	}
	if len(outputGrad) != len(n.lastOut) {
		return nil, shapeError(n, "expected %d gradient values, got %d", len(n.lastOut), len(outputGrad))
	}
	n.state = stateReady
	return n.activation.backward(n.lastPre, n.lastOut, outputGrad), nil
}

// StartBatch is a no-op.
func (n *Nonlinearity) StartBatch() {}

// UpdateWeights is a no-op.
func (n *Nonlinearity) UpdateWeights(float64, float64) {}

// GradientCheck always succeeds.
func (n *Nonlinearity) GradientCheck(float64, float64, LossFunc) error {
	return nil
}

// Encode returns the operator document.
func (n *Nonlinearity) Encode() document.Node {
	return document.Node{
		"type":       KindNonlinearity.String(),
		"activation": n.activation.String(),
	}
}

// String returns a string representation of the operator.
func (n *Nonlinearity) String() string {
	return fmt.Sprintf("Nonlinearity(%s)", n.activation)
}

func decodeNonlinearity(node document.Node) (Operator, error) {
	name, err := node.String("activation")
	if err != nil {
		return nil, err
	}
	activation, err := ParseActivation(name)
	if err != nil {
		return nil, &document.FieldError{Key: "activation", Reason: err.Error(), Err: document.ErrWrongType}
	}
	return NewNonlinearity(activation), nil
}

// FinalActivation returns the activation applied last by op, if any.
func FinalActivation(op Operator) (Activation, bool) {
	switch o := op.(type) {
	case *Dense:
		return o.activation, true
	case *Nonlinearity:
		return o.activation, true
	default:
		return 0, false
	}
}
