// Package tensor implements the flat float64 buffers that flow between
// operators, together with their shapes.
package tensor

import (
	"fmt"
)

// Tensor is a flat numeric buffer plus its shape.
//
// Tensors are ephemeral: operators create a new output tensor on every
// forward call and callers must not retain the buffers of another
// component's tensor across passes.
type Tensor struct {
	Data  []float64
	Shape Shape
}

// New allocates a zero-filled tensor of the given shape.
func New(shape Shape) *Tensor {
	return &Tensor{
		Data:  make([]float64, shape.NumElements()),
		Shape: shape.Clone(),
	}
}

// FromSlice wraps data in a tensor, validating that its length matches shape.
// The slice is not copied.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements())
	}
	return &Tensor{Data: data, Shape: shape.Clone()}, nil
}

// Len returns the number of elements in the tensor.
func (t *Tensor) Len() int {
	return len(t.Data)
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	data := make([]float64, len(t.Data))
	copy(data, t.Data)
	return &Tensor{Data: data, Shape: t.Shape.Clone()}
}

// Concat joins tensors along their last axis (see ConcatShapes).
// A single tensor is returned as-is, without copying.
func Concat(ts ...*Tensor) (*Tensor, error) {
	if len(ts) == 1 {
		return ts[0], nil
	}
	shapes := make([]Shape, len(ts))
	total := 0
	for i, t := range ts {
		shapes[i] = t.Shape
		total += len(t.Data)
	}
	shape, err := ConcatShapes(shapes...)
	if err != nil {
		return nil, err
	}
	data := make([]float64, 0, total)
	for _, t := range ts {
		data = append(data, t.Data...)
	}
	return &Tensor{Data: data, Shape: shape}, nil
}
