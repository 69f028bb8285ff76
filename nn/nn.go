// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/deepnet/internal/document"
	"github.com/born-ml/deepnet/internal/nn"
)

// Operator is one stage of a channel pipeline.
type Operator = nn.Operator

// Kind tags the operator variant.
type Kind = nn.Kind

// Operator kinds.
const (
	KindConvolution  Kind = nn.KindConvolution
	KindPooling      Kind = nn.KindPooling
	KindDense        Kind = nn.KindDense
	KindNonlinearity Kind = nn.KindNonlinearity
)

// Parameter is a learnable parameter block with its gradient accumulator.
type Parameter = nn.Parameter

// LossFunc evaluates the owning network's loss for gradient checks.
type LossFunc = nn.LossFunc

// Activations

// Activation selects the function applied by Dense and Nonlinearity.
type Activation = nn.Activation

// Activation functions.
const (
	Identity            Activation = nn.Identity
	Tanh                Activation = nn.Tanh
	Sigmoid             Activation = nn.Sigmoid
	SigmoidCrossEntropy Activation = nn.SigmoidCrossEntropy
	RectifiedLinear     Activation = nn.RectifiedLinear
	SoftSign            Activation = nn.SoftSign
	SoftMax             Activation = nn.SoftMax
)

// ParseActivation converts a persistence name ("tanh", "relu", ...) to an Activation.
func ParseActivation(name string) (Activation, error) {
	return nn.ParseActivation(name)
}

// Operators

// Dense represents a fully connected layer.
type Dense = nn.Dense

// NewDense creates a Dense operator. Weights are sized once the network is
// validated.
//
// Example:
//
//	hidden := nn.NewDense(128, nn.Tanh)
func NewDense(nodes int, activation Activation) *Dense {
	return nn.NewDense(nodes, activation)
}

// NewDenseWithWeights creates a Dense operator with explicit row-major
// weights of shape [nodes, inputs+1], the bias being the last column.
func NewDenseWithWeights(nodes, inputs int, activation Activation, weights []float64) (*Dense, error) {
	return nn.NewDenseWithWeights(nodes, inputs, activation, weights)
}

// Convolution represents a square-kernel convolution over 2-D planes.
type Convolution = nn.Convolution

// KernelPreset selects how a Convolution kernel is initialized.
type KernelPreset = nn.KernelPreset

// Kernel presets.
const (
	PresetRandom         KernelPreset = nn.PresetRandom
	PresetIdentity       KernelPreset = nn.PresetIdentity
	PresetHorizontalEdge KernelPreset = nn.PresetHorizontalEdge
	PresetVerticalEdge   KernelPreset = nn.PresetVerticalEdge
	PresetCustom         KernelPreset = nn.PresetCustom
)

// NewConvolution creates a random kernel of the given odd size.
//
// Example:
//
//	conv := nn.NewConvolution(3)
func NewConvolution(size int) *Convolution {
	return nn.NewConvolution(size)
}

// NewConvolutionPreset creates a 3x3 kernel from a preset.
func NewConvolutionPreset(preset KernelPreset) *Convolution {
	return nn.NewConvolutionPreset(preset)
}

// NewConvolutionKernel creates a convolution with explicit values laid out
// as an odd square.
func NewConvolutionKernel(kernel []float64) (*Convolution, error) {
	return nn.NewConvolutionKernel(kernel)
}

// Pooling represents a per-axis block reduction.
type Pooling = nn.Pooling

// PoolKind selects the block reduction.
type PoolKind = nn.PoolKind

// Pool kinds.
const (
	PoolAverage PoolKind = nn.PoolAverage
	PoolMinimum PoolKind = nn.PoolMinimum
	PoolMaximum PoolKind = nn.PoolMaximum
)

// NewPooling creates a pooling operator with one factor per axis.
//
// Example:
//
//	pool := nn.NewPooling(nn.PoolMaximum, 2, 2) // halves both plane axes
func NewPooling(kind PoolKind, factors ...int) *Pooling {
	return nn.NewPooling(kind, factors...)
}

// Nonlinearity applies an activation without parameters.
type Nonlinearity = nn.Nonlinearity

// NewNonlinearity creates a Nonlinearity operator.
func NewNonlinearity(activation Activation) *Nonlinearity {
	return nn.NewNonlinearity(activation)
}

// Loss Functions

// SquaredError returns ½·Σ(out-target)².
func SquaredError(out, target []float64) float64 {
	return nn.SquaredError(out, target)
}

// BinaryCrossEntropy returns -Σ [t·ln(o) + (1-t)·ln(1-o)].
func BinaryCrossEntropy(out, target []float64) float64 {
	return nn.BinaryCrossEntropy(out, target)
}

// Persistence

// Registry maps operator type tags to decoders.
type Registry = nn.Registry

// NewRegistry returns a registry with the built-in operators registered.
func NewRegistry() *Registry {
	return nn.NewRegistry()
}

// Decode rebuilds an operator from its document with the built-in registry.
func Decode(n map[string]any) (Operator, error) {
	return nn.Decode(document.Node(n))
}

// Errors

// Error sentinels and types, usable with errors.Is and errors.As.
var (
	ErrBackwardBeforeForward = nn.ErrBackwardBeforeForward
	ErrNotInitialized        = nn.ErrNotInitialized
	ErrShapeMismatch         = nn.ErrShapeMismatch
	ErrInvalidConfig         = nn.ErrInvalidConfig
	ErrUnknownOperator       = nn.ErrUnknownOperator
)

// PreconditionError reports a call made in a state where it is not allowed.
type PreconditionError = nn.PreconditionError

// NumericError reports a non-finite value produced during a pass.
type NumericError = nn.NumericError

// GradientCheckError lists every parameter that failed a gradient check.
type GradientCheckError = nn.GradientCheckError

// Mismatch is one failed gradient comparison.
type Mismatch = nn.Mismatch
