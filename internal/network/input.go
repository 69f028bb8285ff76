package network

import (
	"github.com/pkg/errors"

	"github.com/born-ml/deepnet/internal/nn"
	"github.com/born-ml/deepnet/internal/tensor"
)

// Input is a named, fixed-shape entry point of a network. Its values are
// replaced between passes with Network.SetInput or Network.SetInputs.
type Input struct {
	id     string
	shape  tensor.Shape
	values []float64
}

// ID returns the input identifier.
func (in *Input) ID() string {
	return in.id
}

// Shape returns a copy of the input shape.
func (in *Input) Shape() tensor.Shape {
	return in.shape.Clone()
}

// Values returns a copy of the current values.
func (in *Input) Values() []float64 {
	return append([]float64(nil), in.values...)
}

// tensor returns a snapshot of the values. Operators may keep their forward
// input until Backward, so it must not alias the buffer SetInput writes to.
func (in *Input) tensor() *tensor.Tensor {
	return &tensor.Tensor{Data: append([]float64(nil), in.values...), Shape: in.shape}
}

func (in *Input) set(values []float64) error {
	if len(values) != len(in.values) {
		return errors.Wrapf(nn.ErrShapeMismatch, "input %s: expected %d values, got %d", in.id, len(in.values), len(values))
	}
	copy(in.values, values)
	return nil
}
