package nn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/deepnet/internal/document"
	"github.com/born-ml/deepnet/internal/tensor"
)

// PoolKind selects the reduction a Pooling operator applies to each block.
type PoolKind int

const (
	// PoolAverage takes the mean of the block.
	PoolAverage PoolKind = iota
	// PoolMinimum takes the smallest value of the block.
	PoolMinimum
	// PoolMaximum takes the largest value of the block.
	PoolMaximum
)

var poolNames = map[PoolKind]string{
	PoolAverage: "average",
	PoolMinimum: "minimum",
	PoolMaximum: "maximum",
}

// String returns the persistence name of the pool kind.
func (k PoolKind) String() string {
	if name, ok := poolNames[k]; ok {
		return name
	}
	return fmt.Sprintf("pool(%d)", int(k))
}

// ParsePoolKind converts a persistence name back to a PoolKind.
func ParsePoolKind(name string) (PoolKind, error) {
	for k, n := range poolNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown pool kind %q", ErrInvalidConfig, name)
}

// Pooling reduces non-overlapping blocks of its input to one value each.
//
// Axis i is reduced by factors[i]; missing factors are 1. The output keeps
// the input's rank with every dimension ceil(dim / factor), so a trailing
// partial block is reduced over the cells it has.
//
// Backward routes gradients to the cell that won a minimum or maximum, and
// spreads them evenly over the block for an average.
//
// Example:
//
//	pool := nn.NewPooling(nn.PoolMaximum, 2, 2)
//	out, _ := pool.ResultingSize(tensor.Shape{28, 28, 3}) // [14, 14, 3]
type Pooling struct {
	kind    PoolKind
	factors []int

	state    opState
	inShape  tensor.Shape
	outShape tensor.Shape
	extrema  []int // per output cell: flat input index of the winning cell
	counts   []int // per output cell: number of input cells in the block
}

// NewPooling creates a pooling operator with one reduction factor per axis.
func NewPooling(kind PoolKind, factors ...int) *Pooling {
	return &Pooling{
		kind:    kind,
		factors: append([]int(nil), factors...),
		state:   stateReady,
	}
}

// Kind returns KindPooling.
func (p *Pooling) Kind() Kind {
	return KindPooling
}

// PoolKind returns the block reduction.
func (p *Pooling) PoolKind() PoolKind {
	return p.kind
}

// Factors returns a copy of the per-axis reduction factors.
func (p *Pooling) Factors() []int {
	return append([]int(nil), p.factors...)
}

func (p *Pooling) checkFactors() error {
	if len(p.factors) == 0 || len(p.factors) > tensor.MaxRank {
		return fmt.Errorf("%w: pooling needs 1 to %d factors, got %d", ErrInvalidConfig, tensor.MaxRank, len(p.factors))
	}
	for i, f := range p.factors {
		if f <= 0 {
			return fmt.Errorf("%w: pooling factor %d must be > 0, got %d", ErrInvalidConfig, i, f)
		}
	}
	return nil
}

func (p *Pooling) paddedFactors() [tensor.MaxRank]int {
	var f [tensor.MaxRank]int
	for i := range f {
		f[i] = 1
		if i < len(p.factors) {
			f[i] = p.factors[i]
		}
	}
	return f
}

// ResultingSize returns ceil(dim / factor) for every axis of input.
func (p *Pooling) ResultingSize(input tensor.Shape) (tensor.Shape, error) {
	if err := p.checkFactors(); err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	if err := input.Validate(); err != nil {
		return nil, shapeError(p, "%v", err)
	}
	f := p.paddedFactors()
	out := make(tensor.Shape, len(input))
	for i, d := range input {
		out[i] = (d + f[i] - 1) / f[i]
	}
	return out, nil
}

// InitializeParameters is a no-op: Pooling has no parameters.
func (p *Pooling) InitializeParameters(*rand.Rand) {}

// blocks calls fn for every output cell in layout order with the flat input
// indices of its block.
func (p *Pooling) blocks(in tensor.Shape, fn func(o int, cells []int) error) error {
	dims := in.Pad(tensor.MaxRank)
	strides := dims.Strides()
	f := p.paddedFactors()

	var out [tensor.MaxRank]int
	size := 1
	for i := range out {
		out[i] = (dims[i] + f[i] - 1) / f[i]
		size *= f[i]
	}

	cells := make([]int, 0, size)
	o := 0
	for w := 0; w < out[3]; w++ {
		for z := 0; z < out[2]; z++ {
			for y := 0; y < out[1]; y++ {
				for x := 0; x < out[0]; x++ {
					cells = cells[:0]
					for ww := w * f[3]; ww < min((w+1)*f[3], dims[3]); ww++ {
						for zz := z * f[2]; zz < min((z+1)*f[2], dims[2]); zz++ {
							for yy := y * f[1]; yy < min((y+1)*f[1], dims[1]); yy++ {
								for xx := x * f[0]; xx < min((x+1)*f[0], dims[0]); xx++ {
									cells = append(cells, xx*strides[0]+yy*strides[1]+zz*strides[2]+ww*strides[3])
								}
							}
						}
					}
					if err := fn(o, cells); err != nil {
						return err
					}
					o++
				}
			}
		}
	}
	return nil
}

// Forward reduces every block of input.
func (p *Pooling) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	outShape, err := p.ResultingSize(input.Shape)
	if err != nil {
		return nil, err
	}
	if input.Len() != input.Shape.NumElements() {
		return nil, shapeError(p, "%d values for shape %v", input.Len(), input.Shape)
	}

	in := input.Data
	out := make([]float64, outShape.NumElements())
	extrema := make([]int, len(out))
	counts := make([]int, len(out))

	var block []float64
	err = p.blocks(input.Shape, func(o int, cells []int) error {
		if len(cells) == 0 {
			return &NumericError{Location: p.String(), Index: o, Details: "empty pooling block"}
		}
		counts[o] = len(cells)
		block = block[:0]
		for _, c := range cells {
			block = append(block, in[c])
		}
		switch p.kind {
		case PoolMaximum:
			extrema[o] = cells[floats.MaxIdx(block)]
			out[o] = in[extrema[o]]
		case PoolMinimum:
			extrema[o] = cells[floats.MinIdx(block)]
			out[o] = in[extrema[o]]
		default:
			out[o] = floats.Sum(block) / float64(len(cells))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.inShape = input.Shape.Clone()
	p.outShape = outShape
	p.extrema = extrema
	p.counts = counts
	p.state = stateForwarded
	return &tensor.Tensor{Data: out, Shape: outShape}, nil
}

// Backward routes each output gradient back into its block.
func (p *Pooling) Backward(outputGrad []float64) ([]float64, error) {
	if p.state != stateForwarded {
		return nil, precondition(p, "Backward", ErrBackwardBeforeForward)
	}
	if len(outputGrad) != len(p.counts) {
		return nil, shapeError(p, "expected %d gradient values, got %d", len(p.counts), len(outputGrad))
	}

	inGrad := make([]float64, p.inShape.NumElements())
	if p.kind == PoolAverage {
		_ = p.blocks(p.inShape, func(o int, cells []int) error {
			share := outputGrad[o] / float64(p.counts[o])
			for _, c := range cells {
				inGrad[c] += share
			}
			return nil
		})
	} else {
		for o, c := range p.extrema {
			inGrad[c] += outputGrad[o]
		}
	}

	p.state = stateReady
	return inGrad, nil
}

// StartBatch is a no-op: Pooling has no parameters.
func (p *Pooling) StartBatch() {}

// UpdateWeights is a no-op: Pooling has no parameters.
func (p *Pooling) UpdateWeights(float64, float64) {}

// GradientCheck always succeeds: Pooling has no parameters.
func (p *Pooling) GradientCheck(float64, float64, LossFunc) error {
	return nil
}

// Encode returns the operator document.
func (p *Pooling) Encode() document.Node {
	return document.Node{
		"type":    KindPooling.String(),
		"pool":    p.kind.String(),
		"factors": p.Factors(),
	}
}

// String returns a string representation of the operator.
func (p *Pooling) String() string {
	return fmt.Sprintf("Pooling(%s, %v)", p.kind, p.factors)
}

func decodePooling(n document.Node) (Operator, error) {
	name, err := n.String("pool")
	if err != nil {
		return nil, err
	}
	kind, err := ParsePoolKind(name)
	if err != nil {
		return nil, &document.FieldError{Key: "pool", Reason: err.Error(), Err: document.ErrWrongType}
	}
	factors, err := n.Ints("factors")
	if err != nil {
		return nil, err
	}
	p := NewPooling(kind, factors...)
	if err := p.checkFactors(); err != nil {
		return nil, &document.FieldError{Key: "factors", Reason: err.Error(), Err: document.ErrWrongType}
	}
	return p, nil
}
