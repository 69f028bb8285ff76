package nn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/deepnet/internal/document"
	"github.com/born-ml/deepnet/internal/tensor"
)

// Dense implements a fully connected layer followed by an activation.
//
// Performs the transformation: y = f(W · [x; 1])
// where:
//   - x is the flattened input with n elements
//   - W is the weight matrix with shape [nodes, n+1]; the last column is the bias
//   - f is the activation
//   - y is the output with shape [nodes]
//
// The input size is learned from the first ResultingSize call. If a later
// call observes a different flattened size, the weights are reallocated and
// reinitialized.
//
// Example:
//
//	hidden := nn.NewDense(4, nn.Tanh)
//	out, _ := hidden.ResultingSize(tensor.Shape{2}) // [4], weights now [4, 3]
type Dense struct {
	nodes      int
	inputs     int
	activation Activation

	weights *mat.Dense // [nodes, inputs+1]
	accum   *mat.Dense // [nodes, inputs+1]
	param   *Parameter
	rng     *rand.Rand

	state     opState
	lastInput *mat.VecDense // [inputs+1], trailing 1
	lastPre   []float64
	lastOut   []float64
}

// NewDense creates a Dense operator with the given number of output nodes.
// Weights are allocated once the input size is known (see ResultingSize).
func NewDense(nodes int, activation Activation) *Dense {
	if nodes <= 0 {
		panic(fmt.Sprintf("dense: invalid node count %d", nodes))
	}
	return &Dense{
		nodes:      nodes,
		activation: activation,
	}
}

// NewDenseWithWeights creates a Dense operator for a known input size with
// explicit weights laid out row-major as [nodes, inputs+1].
func NewDenseWithWeights(nodes, inputs int, activation Activation, weights []float64) (*Dense, error) {
	if nodes <= 0 || inputs <= 0 {
		return nil, fmt.Errorf("%w: dense needs nodes > 0 and inputs > 0, got %d and %d", ErrInvalidConfig, nodes, inputs)
	}
	if len(weights) != nodes*(inputs+1) {
		return nil, fmt.Errorf("%w: dense [%d, %d+1] needs %d weights, got %d",
			ErrInvalidConfig, nodes, inputs, nodes*(inputs+1), len(weights))
	}
	d := NewDense(nodes, activation)
	d.allocate(inputs)
	copy(d.param.Values, weights)
	return d, nil
}

// Kind returns KindDense.
func (d *Dense) Kind() Kind {
	return KindDense
}

// Nodes returns the number of output nodes.
func (d *Dense) Nodes() int {
	return d.nodes
}

// Inputs returns the flattened input size the weights are built for, or 0
// before the first ResultingSize call.
func (d *Dense) Inputs() int {
	return d.inputs
}

// Activation returns the activation function.
func (d *Dense) Activation() Activation {
	return d.activation
}

// Weights returns the weight matrix [nodes, inputs+1], or nil before
// allocation. The matrix is live: callers must not modify it.
func (d *Dense) Weights() mat.Matrix {
	if d.weights == nil {
		return nil
	}
	return d.weights
}

// Parameters returns the learnable parameters (empty before allocation).
func (d *Dense) Parameters() []*Parameter {
	if d.param == nil {
		return nil
	}
	return []*Parameter{d.param}
}

func (d *Dense) allocate(inputs int) {
	d.inputs = inputs
	d.weights = mat.NewDense(d.nodes, inputs+1, nil)
	d.accum = mat.NewDense(d.nodes, inputs+1, nil)
	d.param = &Parameter{
		Name:   "weights",
		Values: d.weights.RawMatrix().Data,
		Grad:   d.accum.RawMatrix().Data,
	}
	d.state = stateReady
}

// ResultingSize returns [nodes] and (re)allocates the weights when the
// flattened input size changed.
func (d *Dense) ResultingSize(input tensor.Shape) (tensor.Shape, error) {
	if err := input.Validate(); err != nil {
		return nil, shapeError(d, "%v", err)
	}
	if n := input.NumElements(); d.weights == nil || n != d.inputs {
		d.allocate(n)
		d.InitializeParameters(d.rng)
	}
	return tensor.Shape{d.nodes}, nil
}

// InitializeParameters draws weights from N(0, 1/fanIn), halving the fan-in
// for rectified-linear activations.
func (d *Dense) InitializeParameters(rng *rand.Rand) {
	if rng != nil {
		d.rng = rng
	}
	if d.param == nil {
		return
	}
	Gaussian(d.rng, d.param.Values, d.inputs+1, d.activation == RectifiedLinear)
}

// Forward computes f(W · [x; 1]).
func (d *Dense) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	if d.state == stateUninitialized {
		return nil, precondition(d, "Forward", ErrNotInitialized)
	}
	if input.Len() != d.inputs {
		return nil, shapeError(d, "expected %d inputs, got %d", d.inputs, input.Len())
	}

	xa := make([]float64, d.inputs+1)
	copy(xa, input.Data)
	xa[d.inputs] = 1
	x := mat.NewVecDense(d.inputs+1, xa)

	z := mat.NewVecDense(d.nodes, nil)
	z.MulVec(d.weights, x)

	pre := z.RawVector().Data
	out := make([]float64, d.nodes)
	d.activation.forward(pre, out)

	d.lastInput = x
	d.lastPre = pre
	d.lastOut = out
	d.state = stateForwarded

	return &tensor.Tensor{Data: out, Shape: tensor.Shape{d.nodes}}, nil
}

// Backward applies the activation derivative to outputGrad, accumulates the
// outer product delta · [x; 1]ᵀ into the weight gradient and returns Wᵀ · delta
// without the bias row.
func (d *Dense) Backward(outputGrad []float64) ([]float64, error) {
	if d.state != stateForwarded {
		return nil, precondition(d, "Backward", ErrBackwardBeforeForward)
	}
	if len(outputGrad) != d.nodes {
		return nil, shapeError(d, "expected %d gradient values, got %d", d.nodes, len(outputGrad))
	}

	delta := mat.NewVecDense(d.nodes, d.activation.backward(d.lastPre, d.lastOut, outputGrad))
	d.accum.RankOne(d.accum, 1, delta, d.lastInput)

	in := mat.NewVecDense(d.inputs+1, nil)
	in.MulVec(d.weights.T(), delta)

	d.state = stateReady
	return in.RawVector().Data[:d.inputs], nil
}

// StartBatch zeroes the weight gradient accumulator.
func (d *Dense) StartBatch() {
	if d.accum != nil {
		d.accum.Zero()
	}
}

// UpdateWeights applies W = W*decay - rate*accumulator.
func (d *Dense) UpdateWeights(rate, decay float64) {
	if d.param != nil {
		d.param.update(rate, decay)
	}
}

// GradientCheck verifies every weight and bias gradient.
func (d *Dense) GradientCheck(epsilon, tolerance float64, loss LossFunc) error {
	return checkGradients(d.String(), d.Parameters(), epsilon, tolerance, loss)
}

// Encode returns the operator document. Weights are included once allocated.
func (d *Dense) Encode() document.Node {
	n := document.Node{
		"type":       KindDense.String(),
		"nodes":      d.nodes,
		"activation": d.activation.String(),
	}
	if d.param != nil {
		weights := make([]float64, len(d.param.Values))
		copy(weights, d.param.Values)
		n["inputs"] = d.inputs
		n["weights"] = weights
	}
	return n
}

// String returns a string representation of the operator.
func (d *Dense) String() string {
	return fmt.Sprintf("Dense(%d, %s)", d.nodes, d.activation)
}

func decodeDense(n document.Node) (Operator, error) {
	nodes, err := n.Int("nodes")
	if err != nil {
		return nil, err
	}
	name, err := n.String("activation")
	if err != nil {
		return nil, err
	}
	activation, err := ParseActivation(name)
	if err != nil {
		return nil, &document.FieldError{Key: "activation", Reason: err.Error(), Err: document.ErrWrongType}
	}
	if nodes <= 0 {
		return nil, &document.FieldError{Key: "nodes", Reason: fmt.Sprintf("must be > 0, got %d", nodes), Err: document.ErrWrongType}
	}
	if !n.Has("weights") {
		return NewDense(nodes, activation), nil
	}

	inputs, err := n.Int("inputs")
	if err != nil {
		return nil, err
	}
	weights, err := n.Floats("weights")
	if err != nil {
		return nil, err
	}
	d, err := NewDenseWithWeights(nodes, inputs, activation, weights)
	if err != nil {
		return nil, &document.FieldError{Key: "weights", Reason: err.Error(), Err: document.ErrWrongType}
	}
	return d, nil
}
