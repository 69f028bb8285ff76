// Package network assembles operators into channels, channels into layers
// and layers into a feed-forward network.
//
// Data flows from the network inputs through the layers in order. Channels of
// one layer run concurrently on the configured scheduler and are joined
// before the next layer starts; the network output is the concatenation of
// the last layer's channel outputs in declaration order. Backward passes walk
// the layers in reverse with the same fan-out, each channel summing the
// gradient slices its consumers computed for it.
//
// Every topology change marks the network stale. FeedForward and
// BackPropagate validate a stale network first and refuse to run an invalid
// one.
package network

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/deepnet/internal/document"
	"github.com/born-ml/deepnet/internal/nn"
	"github.com/born-ml/deepnet/internal/parallel"
	"github.com/born-ml/deepnet/internal/tensor"
)

// Config configures a network.
type Config struct {
	// Parallel selects how channels of a layer are scheduled.
	Parallel parallel.Config

	// Seed seeds parameter initialization. Zero uses the math/rand global
	// source.
	Seed int64
}

// DefaultConfig returns a config with parallel channels and a fixed seed.
func DefaultConfig() Config {
	return Config{
		Parallel: parallel.DefaultConfig(),
		Seed:     1,
	}
}

// Network is a feed-forward network of layers.
//
// A Network is not safe for concurrent use; it parallelizes internally.
type Network struct {
	cfg   Config
	sched parallel.Scheduler
	rng   *rand.Rand

	inputs []*Input
	layers []*Layer

	validated   bool
	initialized bool
	forwarded   bool

	output   []float64
	errVec   []float64
	expected []float64

	outMin, outMax float64
	lossFns        []segmentLoss
}

// segmentLoss is the loss of one output channel over its slice of the output.
type segmentLoss struct {
	offset, size int
	fn           func(out, target []float64) float64
}

// New creates an empty network.
func New(cfg Config) *Network {
	n := &Network{
		cfg:    cfg,
		sched:  parallel.NewScheduler(cfg.Parallel),
		outMin: 0,
		outMax: 1,
	}
	if cfg.Seed != 0 {
		n.rng = rand.New(rand.NewSource(cfg.Seed))
	}
	return n
}

// SetScheduler replaces the scheduler channels run on.
func (n *Network) SetScheduler(s parallel.Scheduler) {
	n.sched = s
}

// Invalidate marks the topology as changed. Builders call it automatically.
func (n *Network) Invalidate() {
	n.validated = false
	n.forwarded = false
}

// IsValid reports whether the last validation succeeded and nothing changed
// since.
func (n *Network) IsValid() bool {
	return n.validated
}

// AddInput appends a network input of the given shape, zero-filled.
func (n *Network) AddInput(id string, shape tensor.Shape) *Input {
	in := &Input{
		id:     id,
		shape:  shape.Clone(),
		values: make([]float64, max(shape.NumElements(), 0)),
	}
	n.inputs = append(n.inputs, in)
	n.Invalidate()
	return in
}

// RemoveInput deletes the input with the given id.
func (n *Network) RemoveInput(id string) error {
	i := slices.IndexFunc(n.inputs, func(in *Input) bool { return in.id == id })
	if i < 0 {
		return errors.Wrapf(ErrUnknownInput, "%q", id)
	}
	n.inputs = slices.Delete(n.inputs, i, i+1)
	n.Invalidate()
	return nil
}

// Inputs returns the inputs in declaration order.
func (n *Network) Inputs() []*Input {
	return slices.Clone(n.inputs)
}

// Input returns the input with the given id.
func (n *Network) Input(id string) (*Input, bool) {
	return lo.Find(n.inputs, func(in *Input) bool { return in.id == id })
}

// InputSize returns the total number of input values.
func (n *Network) InputSize() int {
	return lo.SumBy(n.inputs, func(in *Input) int { return len(in.values) })
}

// SetInput replaces the values of one input.
func (n *Network) SetInput(id string, values []float64) error {
	in, ok := n.Input(id)
	if !ok {
		return errors.Wrapf(ErrUnknownInput, "%q", id)
	}
	return in.set(values)
}

// SetInputs replaces the values of all inputs from one vector laid out as the
// inputs' values concatenated in declaration order.
func (n *Network) SetInputs(values []float64) error {
	if len(values) != n.InputSize() {
		return errors.Wrapf(nn.ErrShapeMismatch, "expected %d input values, got %d", n.InputSize(), len(values))
	}
	offset := 0
	for _, in := range n.inputs {
		copy(in.values, values[offset:offset+len(in.values)])
		offset += len(in.values)
	}
	return nil
}

// AddLayer appends l and returns it.
func (n *Network) AddLayer(l *Layer) *Layer {
	l.network = n
	n.layers = append(n.layers, l)
	n.Invalidate()
	return l
}

// InsertLayer inserts l before position i.
func (n *Network) InsertLayer(i int, l *Layer) error {
	if i < 0 || i > len(n.layers) {
		return errors.Wrapf(ErrIndexRange, "insert layer at %d of %d", i, len(n.layers))
	}
	l.network = n
	n.layers = slices.Insert(n.layers, i, l)
	n.Invalidate()
	return nil
}

// RemoveLayer deletes the layer at position i.
func (n *Network) RemoveLayer(i int) error {
	if i < 0 || i >= len(n.layers) {
		return errors.Wrapf(ErrIndexRange, "remove layer %d of %d", i, len(n.layers))
	}
	n.layers[i].network = nil
	n.layers = slices.Delete(n.layers, i, i+1)
	n.Invalidate()
	return nil
}

// ReplaceLayer swaps the layer at position i for l.
func (n *Network) ReplaceLayer(i int, l *Layer) error {
	if i < 0 || i >= len(n.layers) {
		return errors.Wrapf(ErrIndexRange, "replace layer %d of %d", i, len(n.layers))
	}
	n.layers[i].network = nil
	l.network = n
	n.layers[i] = l
	n.Invalidate()
	return nil
}

// Layers returns the layers in order.
func (n *Network) Layers() []*Layer {
	return slices.Clone(n.layers)
}

// Layer returns the layer with the given id.
func (n *Network) Layer(id string) (*Layer, bool) {
	return lo.Find(n.layers, func(l *Layer) bool { return l.id == id })
}

// operators lists every operator in layer, channel and pipeline order.
func (n *Network) operators() []nn.Operator {
	var ops []nn.Operator
	for _, l := range n.layers {
		for _, c := range l.channels {
			ops = append(ops, c.ops...)
		}
	}
	return ops
}

// InitializeParameters redraws every learnable parameter from the network's
// random source.
func (n *Network) InitializeParameters() {
	for _, op := range n.operators() {
		op.InitializeParameters(n.rng)
	}
	n.initialized = true
}

func (n *Network) ensureValid(op string) error {
	if n.validated {
		return nil
	}
	if errs := n.Validate(); len(errs) > 0 {
		return &nn.PreconditionError{Op: "Network." + op, Err: ValidationErrors(errs)}
	}
	return nil
}

// FeedForward runs the network on its current inputs and returns a copy of
// the output vector.
func (n *Network) FeedForward() ([]float64, error) {
	if err := n.ensureValid("FeedForward"); err != nil {
		return nil, err
	}
	n.forwarded = false

	for _, l := range n.layers {
		if err := l.each(n.sched, (*Channel).forward); err != nil {
			return nil, errors.WithMessagef(err, "layer %s", l.id)
		}
	}

	last := n.layers[len(n.layers)-1]
	out := make([]float64, 0, len(n.output))
	for _, c := range last.channels {
		out = append(out, c.output.Data...)
	}
	n.output = out
	n.forwarded = true
	return slices.Clone(out), nil
}

// BackPropagate computes the error output - expected for the last forward
// pass and propagates it through every layer, adding each operator's
// parameter gradient to its accumulator.
func (n *Network) BackPropagate(expected []float64) error {
	if err := n.ensureValid("BackPropagate"); err != nil {
		return err
	}
	if !n.forwarded {
		return &nn.PreconditionError{Op: "Network.BackPropagate", Err: ErrNoForward}
	}
	if len(expected) != len(n.output) {
		return errors.Wrapf(nn.ErrShapeMismatch, "expected %d target values, got %d", len(n.output), len(expected))
	}

	n.errVec = make([]float64, len(n.output))
	floats.SubTo(n.errVec, n.output, expected)
	n.expected = slices.Clone(expected)

	for li := len(n.layers) - 1; li >= 0; li-- {
		l := n.layers[li]
		last := li == len(n.layers)-1
		err := l.each(n.sched, func(c *Channel) error {
			return c.backward(last, n.errVec)
		})
		if err != nil {
			return errors.WithMessagef(err, "layer %s", l.id)
		}
	}
	n.forwarded = false
	return nil
}

// Output returns a copy of the last output vector.
func (n *Network) Output() []float64 {
	return slices.Clone(n.output)
}

// OutputSize returns the length of the output vector of a validated network.
func (n *Network) OutputSize() int {
	return lo.SumBy(n.lossFns, func(s segmentLoss) int { return s.size })
}

// Error returns a copy of the last error vector (output - expected).
func (n *Network) Error() []float64 {
	return slices.Clone(n.errVec)
}

// OutputRange returns the achievable output range of the last layer's final
// activations.
func (n *Network) OutputRange() (low, high float64) {
	return n.outMin, n.outMax
}

// Loss returns the loss of the last output against expected: ½Σ(o-t)² per
// output channel, or binary cross-entropy for channels that end in the
// sigmoid cross-entropy activation.
func (n *Network) Loss(expected []float64) (float64, error) {
	if n.output == nil {
		return 0, &nn.PreconditionError{Op: "Network.Loss", Err: ErrNoForward}
	}
	if len(expected) != len(n.output) {
		return 0, errors.Wrapf(nn.ErrShapeMismatch, "expected %d target values, got %d", len(n.output), len(expected))
	}
	var loss float64
	for _, s := range n.lossFns {
		end := s.offset + s.size
		loss += s.fn(n.output[s.offset:end], expected[s.offset:end])
	}
	return loss, nil
}

// StartBatch zeroes every gradient accumulator.
func (n *Network) StartBatch() error {
	if err := n.ensureValid("StartBatch"); err != nil {
		return err
	}
	for _, l := range n.layers {
		err := l.each(n.sched, func(c *Channel) error {
			for _, op := range c.ops {
				op.StartBatch()
			}
			return nil
		})
		if err != nil {
			return errors.WithMessagef(err, "layer %s", l.id)
		}
	}
	return nil
}

// UpdateWeights applies params = params*decay - rate*accumulator to every
// operator.
func (n *Network) UpdateWeights(rate, decay float64) error {
	if err := n.ensureValid("UpdateWeights"); err != nil {
		return err
	}
	for _, l := range n.layers {
		err := l.each(n.sched, func(c *Channel) error {
			for _, op := range c.ops {
				op.UpdateWeights(rate, decay)
			}
			return nil
		})
		if err != nil {
			return errors.WithMessagef(err, "layer %s", l.id)
		}
	}
	return nil
}

// ClassExpectation returns the target vector for a class: for a single
// output the range minimum (class 0) or maximum (class 1), otherwise a
// one-hot vector of range minimum and maximum.
func (n *Network) ClassExpectation(class int) ([]float64, error) {
	if err := n.ensureValid("ClassExpectation"); err != nil {
		return nil, err
	}
	size := n.OutputSize()
	if size == 1 {
		switch class {
		case 0:
			return []float64{n.outMin}, nil
		case 1:
			return []float64{n.outMax}, nil
		}
		return nil, errors.Wrapf(ErrInvalidClass, "class %d for a single output", class)
	}
	if class < 0 || class >= size {
		return nil, errors.Wrapf(ErrInvalidClass, "class %d for %d outputs", class, size)
	}
	v := make([]float64, size)
	for i := range v {
		v[i] = n.outMin
	}
	v[class] = n.outMax
	return v, nil
}

// ResultClass interprets the last output as a class: for a single output 1
// if it exceeds the middle of the output range, else 0; otherwise the index
// of the first maximum. It returns -1 before any forward pass.
func (n *Network) ResultClass() int {
	switch len(n.output) {
	case 0:
		return -1
	case 1:
		if n.output[0] > (n.outMin+n.outMax)/2 {
			return 1
		}
		return 0
	default:
		return floats.MaxIdx(n.output)
	}
}

// GradientCheck verifies the analytic gradient of every parameter against
// central finite differences of the loss for the last sample passed to
// BackPropagate. It resets the accumulators, recomputes that sample's
// gradient and runs serially. All mismatches are reported in one
// *nn.GradientCheckError.
func (n *Network) GradientCheck(epsilon, tolerance float64) error {
	if n.expected == nil {
		return &nn.PreconditionError{Op: "Network.GradientCheck", Err: ErrNoSample}
	}
	expected := n.expected

	sched := n.sched
	n.sched = parallel.Sequential{}
	defer func() { n.sched = sched }()

	if err := n.StartBatch(); err != nil {
		return err
	}
	if _, err := n.FeedForward(); err != nil {
		return err
	}
	if err := n.BackPropagate(expected); err != nil {
		return err
	}

	loss := func() (float64, error) {
		if _, err := n.FeedForward(); err != nil {
			return 0, err
		}
		return n.Loss(expected)
	}

	var failed nn.GradientCheckError
	for _, op := range n.operators() {
		err := op.GradientCheck(epsilon, tolerance, loss)
		var gce *nn.GradientCheckError
		switch {
		case err == nil:
		case errors.As(err, &gce):
			failed.Mismatches = append(failed.Mismatches, gce.Mismatches...)
		default:
			return errors.WithMessage(err, "gradient check")
		}
	}

	// Leave the outputs consistent with the unperturbed parameters.
	if _, err := loss(); err != nil {
		return err
	}
	if len(failed.Mismatches) > 0 {
		return &failed
	}
	return nil
}

// Validate checks the whole topology and caches shapes, source offsets and
// the output range. It returns every problem found; an empty result marks
// the network valid. The first successful validation also initializes the
// parameters of a network that was not decoded from a document.
func (n *Network) Validate() []*ValidationError {
	n.validated = false
	n.forwarded = false
	n.output = nil

	var errs []*ValidationError
	report := func(layer, channel string, typ ValidationType, format string, args ...any) {
		errs = append(errs, &ValidationError{
			Layer:   layer,
			Channel: channel,
			Type:    typ,
			Details: fmt.Sprintf(format, args...),
		})
	}

	if len(n.inputs) == 0 {
		report("", "", NoInputs, "network has no inputs")
	}
	if len(n.layers) == 0 {
		report("", "", NoLayers, "network has no layers")
	}

	n.validateIDs(report)

	inputs := make(map[string]*Input, len(n.inputs))
	for _, in := range n.inputs {
		if err := in.shape.Validate(); err != nil {
			report("", in.id, InvalidShape, "%v", err)
			continue
		}
		inputs[in.id] = in
	}

	owner := make(map[string]int)
	for li, l := range n.layers {
		for _, c := range l.channels {
			owner[c.id] = li
			c.reset()
		}
	}

	var prev map[string]*Channel
	for li, l := range n.layers {
		if len(l.channels) == 0 {
			report(l.id, "", EmptyLayer, "layer has no channels")
		}
		last := li == len(n.layers)-1
		for _, c := range l.channels {
			n.validateChannel(l, c, last, inputs, prev, owner, li, report)
		}
		prev = lo.SliceToMap(l.channels, func(c *Channel) (string, *Channel) { return c.id, c })
	}

	if len(errs) > 0 {
		return errs
	}

	n.wire()
	n.validated = true
	if !n.initialized {
		n.InitializeParameters()
	}
	return nil
}

type reportFunc func(layer, channel string, typ ValidationType, format string, args ...any)

func (n *Network) validateIDs(report reportFunc) {
	ids := lo.Map(n.inputs, func(in *Input, _ int) string { return in.id })
	for _, l := range n.layers {
		ids = append(ids, lo.Map(l.channels, func(c *Channel, _ int) string { return c.id })...)
	}
	for _, id := range ids {
		if err := document.ValidateID(id); err != nil {
			report("", id, InvalidID, "%v", err)
		}
	}
	for _, id := range lo.FindDuplicates(ids) {
		report("", id, DuplicateID, "id %q is used by more than one input or channel", id)
	}

	layerIDs := lo.Map(n.layers, func(l *Layer, _ int) string { return l.id })
	for _, id := range layerIDs {
		if err := document.ValidateID(id); err != nil {
			report(id, "", InvalidID, "%v", err)
		}
	}
	for _, id := range lo.FindDuplicates(layerIDs) {
		report(id, "", DuplicateID, "layer id %q is used more than once", id)
	}
}

func (n *Network) validateChannel(
	l *Layer, c *Channel, last bool,
	inputs map[string]*Input, prev map[string]*Channel, owner map[string]int, li int,
	report reportFunc,
) {
	if len(c.sources) == 0 {
		report(l.id, c.id, NoSources, "channel has no sources")
		return
	}

	resolved := true
	shapes := make([]tensor.Shape, 0, len(c.sources))
	offset := 0
	for _, id := range c.sources {
		ref := sourceRef{id: id, offset: offset}
		var shape tensor.Shape
		if in, ok := inputs[id]; ok {
			ref.input = in
			shape = in.shape
		} else if src, ok := prev[id]; ok {
			if src.outShape == nil {
				// The source channel failed validation itself.
				resolved = false
				continue
			}
			ref.channel = src
			shape = src.outShape
		} else {
			resolved = false
			if oli, ok := owner[id]; ok {
				report(l.id, c.id, UnresolvedSource,
					"source %q is a channel of layer %d, not of the previous layer %d", id, oli, li-1)
			} else if _, isInput := lo.Find(n.inputs, func(in *Input) bool { return in.id == id }); !isInput {
				report(l.id, c.id, UnresolvedSource, "source %q is neither an input nor a channel", id)
			}
			continue
		}
		ref.size = shape.NumElements()
		offset += ref.size
		c.resolved = append(c.resolved, ref)
		shapes = append(shapes, shape)
	}
	if !resolved {
		return
	}

	shape, err := tensor.ConcatShapes(shapes...)
	if err != nil {
		report(l.id, c.id, IncompatibleConcat, "sources %v: %v", c.sources, err)
		return
	}
	c.inShape = shape

	for i, op := range c.ops {
		if a, ok := nn.FinalActivation(op); ok && a == nn.SigmoidCrossEntropy && (!last || i != len(c.ops)-1) {
			report(l.id, c.id, MisplacedActivation, "operator %d (%s) must be the final operator of an output channel", i, op)
		}
		if shape, err = op.ResultingSize(shape); err != nil {
			report(l.id, c.id, OperatorShape, "operator %d (%s): %v", i, op, err)
			return
		}
	}
	c.outShape = shape
}

// wire links every channel to its consumers and lays out the output vector.
// It runs only on a topology that passed validation.
func (n *Network) wire() {
	for _, l := range n.layers {
		for _, c := range l.channels {
			for _, ref := range c.resolved {
				if ref.channel != nil {
					ref.channel.consumers = append(ref.channel.consumers, consumer{channel: c, offset: ref.offset})
				}
			}
		}
	}

	n.lossFns = n.lossFns[:0]
	n.outMin, n.outMax = 0, 1
	first := true
	offset := 0
	for _, c := range n.layers[len(n.layers)-1].channels {
		c.outOffset = offset
		size := c.outShape.NumElements()

		a, ok := c.finalActivation()
		if !ok {
			a = nn.Identity
		}
		n.lossFns = append(n.lossFns, segmentLoss{offset: offset, size: size, fn: nn.LossFor(a)})

		low, high := a.Range()
		if first {
			n.outMin, n.outMax = low, high
			first = false
		} else {
			n.outMin, n.outMax = min(n.outMin, low), max(n.outMax, high)
		}
		offset += size
	}
}
