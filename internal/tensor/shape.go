package tensor

import (
	"fmt"
	"strings"
)

// MaxRank is the largest number of dimensions a Shape may carry.
const MaxRank = 4

// Shape represents the dimensions of a tensor.
//
// The first dimension varies fastest in memory (x, then y, then z, then w),
// so for Shape{w, h} the element at column c, row r lives at index r*w + c.
// With this layout, tensors that agree on every axis but the last can be
// concatenated along the last axis by appending their buffers.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (rank <= MaxRank, all dimensions > 0).
func (s Shape) Validate() error {
	if len(s) > MaxRank {
		return fmt.Errorf("rank %d exceeds maximum of %d", len(s), MaxRank)
	}
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// Dim returns dimension i, treating axes beyond the rank as size 1.
func (s Shape) Dim(i int) int {
	if i < 0 || i >= len(s) {
		return 1
	}
	return s[i]
}

// Strides calculates first-axis-fastest strides for the shape.
// stride[i] = product of all dimensions before i.
func (s Shape) Strides() []int {
	strides := make([]int, len(s))
	step := 1
	for i, dim := range s {
		strides[i] = step
		step *= dim
	}
	return strides
}

// Pad returns the shape extended with trailing 1-dims up to rank.
// Shapes already at or above rank are returned as a copy.
func (s Shape) Pad(rank int) Shape {
	out := s.Clone()
	for len(out) < rank {
		out = append(out, 1)
	}
	return out
}

// String formats the shape as "[2x3x4]".
func (s Shape) String() string {
	if len(s) == 0 {
		return "[]"
	}
	parts := make([]string, len(s))
	for i, dim := range s {
		parts[i] = fmt.Sprint(dim)
	}
	return "[" + strings.Join(parts, "x") + "]"
}

// ConcatShapes computes the shape produced by concatenating tensors of the
// given shapes along their last axis.
//
// Rules:
//  1. Lower-rank shapes are promoted with trailing 1-dims to the largest rank
//  2. Every axis except the last must match exactly
//  3. The resulting last axis is the sum of the inputs' last axes
//
// A single shape is returned unchanged.
//
// Examples:
//
//	[3x3] + [3x3]   -> [3x6]
//	[3x3] + [3x3x2] -> [3x3x3]
//	[4] + [2]       -> [6]
//	[3x2] + [4x2]   -> error
func ConcatShapes(shapes ...Shape) (Shape, error) {
	switch len(shapes) {
	case 0:
		return nil, fmt.Errorf("no shapes to concatenate")
	case 1:
		return shapes[0].Clone(), nil
	}

	rank := 0
	for _, s := range shapes {
		rank = max(rank, len(s))
	}
	if rank == 0 {
		rank = 1
	}

	result := shapes[0].Pad(rank)
	for i, s := range shapes[1:] {
		padded := s.Pad(rank)
		for axis := 0; axis < rank-1; axis++ {
			if padded[axis] != result[axis] {
				return nil, fmt.Errorf("shapes not compatible for concatenation: %v vs %v (dimension %d: %d vs %d)",
					shapes[0], shapes[i+1], axis, result[axis], padded[axis])
			}
		}
		result[rank-1] += padded[rank-1]
	}
	return result, nil
}
