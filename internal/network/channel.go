package network

import (
	"math"
	"slices"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/deepnet/internal/nn"
	"github.com/born-ml/deepnet/internal/tensor"
)

// sourceRef is a resolved channel source and its slot in the concatenated
// channel input.
type sourceRef struct {
	id      string
	input   *Input
	channel *Channel
	offset  int
	size    int
}

// consumer is a next-layer channel that reads this channel's output at
// offset within its concatenated input.
type consumer struct {
	channel *Channel
	offset  int
}

// Channel is an ordered pipeline of operators fed by the concatenation of
// its sources. Sources are network inputs or channels of the previous layer,
// concatenated along the last axis in declaration order.
//
// A channel is run by exactly one goroutine at a time; all of its mutable
// state is private to it between layer barriers.
type Channel struct {
	id      string
	sources []string
	ops     []nn.Operator
	layer   *Layer

	// Cached by Validate.
	resolved  []sourceRef
	consumers []consumer
	inShape   tensor.Shape
	outShape  tensor.Shape
	outOffset int // offset into the network output (last layer only)

	// Cached by forward and backward passes.
	output  *tensor.Tensor
	outGrad []float64
	inGrad  []float64
}

// NewChannel creates a channel reading from the given sources.
func NewChannel(id string, sources ...string) *Channel {
	return &Channel{
		id:      id,
		sources: slices.Clone(sources),
	}
}

// ID returns the channel identifier.
func (c *Channel) ID() string {
	return c.id
}

// Sources returns a copy of the source identifiers.
func (c *Channel) Sources() []string {
	return slices.Clone(c.sources)
}

// SetSources replaces the source identifiers.
func (c *Channel) SetSources(sources ...string) {
	c.sources = slices.Clone(sources)
	c.invalidate()
}

// Operators returns a copy of the operator list.
func (c *Channel) Operators() []nn.Operator {
	return slices.Clone(c.ops)
}

// AddOperator appends op to the pipeline and returns the channel for
// chaining.
func (c *Channel) AddOperator(op nn.Operator) *Channel {
	c.ops = append(c.ops, op)
	c.invalidate()
	return c
}

// InsertOperator inserts op before position i.
func (c *Channel) InsertOperator(i int, op nn.Operator) error {
	if i < 0 || i > len(c.ops) {
		return errors.Wrapf(ErrIndexRange, "channel %s: insert at %d of %d operators", c.id, i, len(c.ops))
	}
	c.ops = slices.Insert(c.ops, i, op)
	c.invalidate()
	return nil
}

// RemoveOperator deletes the operator at position i.
func (c *Channel) RemoveOperator(i int) error {
	if i < 0 || i >= len(c.ops) {
		return errors.Wrapf(ErrIndexRange, "channel %s: remove %d of %d operators", c.id, i, len(c.ops))
	}
	c.ops = slices.Delete(c.ops, i, i+1)
	c.invalidate()
	return nil
}

// ReplaceOperator swaps the operator at position i for op.
func (c *Channel) ReplaceOperator(i int, op nn.Operator) error {
	if i < 0 || i >= len(c.ops) {
		return errors.Wrapf(ErrIndexRange, "channel %s: replace %d of %d operators", c.id, i, len(c.ops))
	}
	c.ops[i] = op
	c.invalidate()
	return nil
}

// InputShape returns the validated shape of the concatenated input, or nil
// before a successful validation.
func (c *Channel) InputShape() tensor.Shape {
	return c.inShape.Clone()
}

// OutputShape returns the validated output shape, or nil before a
// successful validation.
func (c *Channel) OutputShape() tensor.Shape {
	return c.outShape.Clone()
}

// Output returns a copy of the last forward output.
func (c *Channel) Output() []float64 {
	if c.output == nil {
		return nil
	}
	return slices.Clone(c.output.Data)
}

// InputGradient returns a copy of dE/d(input) from the last backward pass.
func (c *Channel) InputGradient() []float64 {
	return slices.Clone(c.inGrad)
}

func (c *Channel) invalidate() {
	if c.layer != nil {
		c.layer.invalidate()
	}
}

// reset drops everything cached by a previous validation.
func (c *Channel) reset() {
	c.resolved = c.resolved[:0]
	c.consumers = c.consumers[:0]
	c.inShape = nil
	c.outShape = nil
	c.outOffset = 0
	c.output = nil
	c.outGrad = nil
	c.inGrad = nil
}

// finalActivation returns the activation of the last operator that applies
// one.
func (c *Channel) finalActivation() (nn.Activation, bool) {
	for i := len(c.ops) - 1; i >= 0; i-- {
		if a, ok := nn.FinalActivation(c.ops[i]); ok {
			return a, true
		}
	}
	return 0, false
}

func (c *Channel) forward() error {
	parts := make([]*tensor.Tensor, len(c.resolved))
	for i, s := range c.resolved {
		if s.input != nil {
			parts[i] = s.input.tensor()
		} else {
			parts[i] = s.channel.output
		}
	}
	x, err := tensor.Concat(parts...)
	if err != nil {
		return errors.Wrapf(err, "channel %s", c.id)
	}

	for _, op := range c.ops {
		if x, err = op.Forward(x); err != nil {
			return errors.WithMessagef(err, "channel %s", c.id)
		}
	}

	for i, v := range x.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &nn.NumericError{
				Location: c.location(),
				Index:    i,
				Value:    v,
				Details:  "non-finite channel output",
			}
		}
	}
	c.output = x
	return nil
}

// backward pulls the output gradient from the network error (last layer) or
// from the input gradients of the consumers, then runs the operators in
// reverse.
func (c *Channel) backward(last bool, errVec []float64) error {
	size := c.outShape.NumElements()
	g := make([]float64, size)
	if last {
		copy(g, errVec[c.outOffset:c.outOffset+size])
	} else {
		for _, k := range c.consumers {
			floats.Add(g, k.channel.inGrad[k.offset:k.offset+size])
		}
	}
	c.outGrad = g

	var err error
	for i := len(c.ops) - 1; i >= 0; i-- {
		if g, err = c.ops[i].Backward(g); err != nil {
			return errors.WithMessagef(err, "channel %s", c.id)
		}
	}
	c.inGrad = g
	return nil
}

func (c *Channel) location() string {
	if c.layer == nil {
		return "channel " + c.id
	}
	return "layer " + c.layer.id + " channel " + c.id
}
