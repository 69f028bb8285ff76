// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the float64 tensors that flow
// between network operators.
//
// A Shape has at most MaxRank dimensions. Data is laid out with the first
// axis varying fastest, so concatenating tensors along their last axis is a
// plain append of their buffers:
//
//	a, _ := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2})
//	b, _ := tensor.FromSlice([]float64{5, 6}, tensor.Shape{2, 1})
//	c, _ := tensor.Concat(a, b) // Shape{2, 3}, Data [1 2 3 4 5 6]
package tensor

import (
	"github.com/born-ml/deepnet/internal/tensor"
)

// MaxRank is the largest number of dimensions a Shape may carry.
const MaxRank = tensor.MaxRank

// Shape represents the dimensions of a tensor, first axis fastest.
// Example: Shape{28, 28} is a 28×28 plane.
type Shape = tensor.Shape

// Tensor is a dense float64 buffer with a shape.
type Tensor = tensor.Tensor

// New creates a zero-filled tensor.
func New(shape Shape) *Tensor {
	return tensor.New(shape)
}

// FromSlice wraps data in a tensor without copying it.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// Concat joins tensors along the last axis of the highest-ranked one.
// Lower-ranked operands are padded with trailing dimensions of size 1.
func Concat(ts ...*Tensor) (*Tensor, error) {
	return tensor.Concat(ts...)
}

// ConcatShapes returns the shape Concat would produce.
func ConcatShapes(shapes ...Shape) (Shape, error) {
	return tensor.ConcatShapes(shapes...)
}
