package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/born-ml/deepnet/internal/document"
	"github.com/born-ml/deepnet/internal/tensor"
)

// KernelPreset selects how a Convolution kernel is initialized.
type KernelPreset int

const (
	// PresetRandom draws the kernel from N(0, 1/size²).
	PresetRandom KernelPreset = iota
	// PresetIdentity has a single 1 at the center.
	PresetIdentity
	// PresetHorizontalEdge is the 3x3 Sobel kernel responding to horizontal edges.
	PresetHorizontalEdge
	// PresetVerticalEdge is the 3x3 Sobel kernel responding to vertical edges.
	PresetVerticalEdge
	// PresetCustom uses caller-supplied values.
	PresetCustom
)

var presetNames = map[KernelPreset]string{
	PresetRandom:         "random",
	PresetIdentity:       "identity",
	PresetHorizontalEdge: "horizontal_edge",
	PresetVerticalEdge:   "vertical_edge",
	PresetCustom:         "custom",
}

// String returns the persistence name of the preset.
func (p KernelPreset) String() string {
	if name, ok := presetNames[p]; ok {
		return name
	}
	return fmt.Sprintf("preset(%d)", int(p))
}

// ParseKernelPreset converts a persistence name back to a KernelPreset.
func ParseKernelPreset(name string) (KernelPreset, error) {
	for p, n := range presetNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown kernel preset %q", ErrInvalidConfig, name)
}

// Convolution applies a square kernel to every 2-D plane of its input.
//
// The plane is spanned by the first two axes (x fastest, then y); every
// further axis indexes an independent plane. Border pixels are extended:
// reads outside the plane are clamped to the nearest edge, so the output
// always has the input's shape.
//
//	out[x, y] = Σ_{i,j} K[i, j] · in[clamp(x+i-r), clamp(y+j-r)],  r = size/2
//
// Example:
//
//	edges := nn.NewConvolutionPreset(nn.PresetVerticalEdge)
//	out, _ := edges.Forward(image) // same shape as image
type Convolution struct {
	size    int
	preset  KernelPreset
	initial []float64 // kernel restored by InitializeParameters for non-random presets

	kernel *Parameter // [size, size], x fastest

	state     opState
	lastInput *tensor.Tensor
}

// NewConvolution creates a size x size convolution with a random kernel.
// size must be a positive odd number.
func NewConvolution(size int) *Convolution {
	if size <= 0 || size%2 == 0 {
		panic(fmt.Sprintf("convolution: kernel size must be positive and odd, got %d", size))
	}
	c := &Convolution{size: size, preset: PresetRandom}
	c.kernel = &Parameter{
		Name:   "kernel",
		Values: make([]float64, size*size),
		Grad:   make([]float64, size*size),
	}
	c.InitializeParameters(nil)
	return c
}

// NewConvolutionPreset creates a 3x3 convolution from a named preset.
func NewConvolutionPreset(preset KernelPreset) *Convolution {
	var k []float64
	switch preset {
	case PresetIdentity:
		k = identityKernel(3)
	case PresetHorizontalEdge:
		k = []float64{
			-1, -2, -1,
			0, 0, 0,
			1, 2, 1,
		}
	case PresetVerticalEdge:
		k = []float64{
			-1, 0, 1,
			-2, 0, 2,
			-1, 0, 1,
		}
	case PresetRandom:
		return NewConvolution(3)
	default:
		panic(fmt.Sprintf("convolution: preset %s needs explicit kernel values", preset))
	}
	c, _ := newFixedConvolution(preset, k)
	return c
}

// NewConvolutionKernel creates a convolution from explicit kernel values laid
// out row by row (x fastest). The number of values must be an odd square.
func NewConvolutionKernel(kernel []float64) (*Convolution, error) {
	return newFixedConvolution(PresetCustom, kernel)
}

func newFixedConvolution(preset KernelPreset, kernel []float64) (*Convolution, error) {
	size := int(math.Round(math.Sqrt(float64(len(kernel)))))
	if size*size != len(kernel) || size%2 == 0 {
		return nil, fmt.Errorf("%w: convolution kernel needs an odd square number of values, got %d",
			ErrInvalidConfig, len(kernel))
	}
	c := &Convolution{
		size:    size,
		preset:  preset,
		initial: append([]float64(nil), kernel...),
		kernel: &Parameter{
			Name:   "kernel",
			Values: append([]float64(nil), kernel...),
			Grad:   make([]float64, len(kernel)),
		},
		state: stateReady,
	}
	return c, nil
}

func identityKernel(size int) []float64 {
	k := make([]float64, size*size)
	k[(size*size)/2] = 1
	return k
}

// Kind returns KindConvolution.
func (c *Convolution) Kind() Kind {
	return KindConvolution
}

// Size returns the kernel edge length.
func (c *Convolution) Size() int {
	return c.size
}

// Preset returns how the kernel was created.
func (c *Convolution) Preset() KernelPreset {
	return c.preset
}

// Kernel returns a copy of the current kernel values.
func (c *Convolution) Kernel() []float64 {
	return append([]float64(nil), c.kernel.Values...)
}

// Parameters returns the kernel parameter.
func (c *Convolution) Parameters() []*Parameter {
	return []*Parameter{c.kernel}
}

// ResultingSize returns the input shape unchanged.
func (c *Convolution) ResultingSize(input tensor.Shape) (tensor.Shape, error) {
	if err := input.Validate(); err != nil {
		return nil, shapeError(c, "%v", err)
	}
	return input.Clone(), nil
}

// InitializeParameters redraws a random kernel, or restores a preset or
// custom kernel to its original values.
func (c *Convolution) InitializeParameters(rng *rand.Rand) {
	if c.preset == PresetRandom {
		Gaussian(rng, c.kernel.Values, c.size*c.size, false)
	} else {
		copy(c.kernel.Values, c.initial)
	}
	c.state = stateReady
}

// planes walks every 2-D plane of shape, calling fn with the plane offset,
// width and height.
func planes(shape tensor.Shape, fn func(base, w, h int)) {
	w, h := shape.Dim(0), shape.Dim(1)
	n := shape.NumElements()
	for base := 0; base < n; base += w * h {
		fn(base, w, h)
	}
}

func clampIndex(v, limit int) int {
	return min(max(v, 0), limit-1)
}

// Forward convolves every plane of input with the kernel.
func (c *Convolution) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	if c.state == stateUninitialized {
		return nil, precondition(c, "Forward", ErrNotInitialized)
	}
	if input.Len() != input.Shape.NumElements() {
		return nil, shapeError(c, "%d values for shape %v", input.Len(), input.Shape)
	}

	in := input.Data
	out := make([]float64, len(in))
	k := c.kernel.Values
	r := c.size / 2

	planes(input.Shape, func(base, w, h int) {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				var sum float64
				for j := 0; j < c.size; j++ {
					row := base + clampIndex(y+j-r, h)*w
					for i := 0; i < c.size; i++ {
						sum += k[j*c.size+i] * in[row+clampIndex(x+i-r, w)]
					}
				}
				out[base+y*w+x] = sum
			}
		}
	})

	c.lastInput = input
	c.state = stateForwarded
	return &tensor.Tensor{Data: out, Shape: input.Shape.Clone()}, nil
}

// Backward distributes each output gradient back over the input pixels it
// read, and accumulates the kernel gradient. Clamped border reads collect
// gradient from every position that touched them.
func (c *Convolution) Backward(outputGrad []float64) ([]float64, error) {
	if c.state != stateForwarded {
		return nil, precondition(c, "Backward", ErrBackwardBeforeForward)
	}
	in := c.lastInput.Data
	if len(outputGrad) != len(in) {
		return nil, shapeError(c, "expected %d gradient values, got %d", len(in), len(outputGrad))
	}

	inGrad := make([]float64, len(in))
	k := c.kernel.Values
	kg := c.kernel.Grad
	r := c.size / 2

	planes(c.lastInput.Shape, func(base, w, h int) {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				g := outputGrad[base+y*w+x]
				if g == 0 {
					continue
				}
				for j := 0; j < c.size; j++ {
					row := base + clampIndex(y+j-r, h)*w
					for i := 0; i < c.size; i++ {
						src := row + clampIndex(x+i-r, w)
						kg[j*c.size+i] += g * in[src]
						inGrad[src] += g * k[j*c.size+i]
					}
				}
			}
		}
	})

	c.state = stateReady
	return inGrad, nil
}

// StartBatch zeroes the kernel gradient.
func (c *Convolution) StartBatch() {
	c.kernel.zeroGrad()
}

// UpdateWeights applies K = K*decay - rate*accumulator.
func (c *Convolution) UpdateWeights(rate, decay float64) {
	c.kernel.update(rate, decay)
}

// GradientCheck verifies every kernel gradient.
func (c *Convolution) GradientCheck(epsilon, tolerance float64, loss LossFunc) error {
	return checkGradients(c.String(), c.Parameters(), epsilon, tolerance, loss)
}

// Encode returns the operator document.
func (c *Convolution) Encode() document.Node {
	return document.Node{
		"type":   KindConvolution.String(),
		"size":   c.size,
		"preset": c.preset.String(),
		"kernel": c.Kernel(),
	}
}

// String returns a string representation of the operator.
func (c *Convolution) String() string {
	return fmt.Sprintf("Convolution(%dx%d, %s)", c.size, c.size, c.preset)
}

func decodeConvolution(n document.Node) (Operator, error) {
	name, err := n.OptString("preset", PresetCustom.String())
	if err != nil {
		return nil, err
	}
	preset, err := ParseKernelPreset(name)
	if err != nil {
		return nil, &document.FieldError{Key: "preset", Reason: err.Error(), Err: document.ErrWrongType}
	}
	kernel, err := n.Floats("kernel")
	if err != nil {
		return nil, err
	}

	c, err := newFixedConvolution(preset, kernel)
	if err != nil {
		return nil, &document.FieldError{Key: "kernel", Reason: err.Error(), Err: document.ErrWrongType}
	}
	if size, err := n.OptInt("size", c.size); err != nil {
		return nil, err
	} else if size != c.size {
		return nil, &document.FieldError{
			Key:    "size",
			Reason: fmt.Sprintf("size %d does not match %d kernel values", size, len(kernel)),
			Err:    document.ErrWrongType,
		}
	}
	if preset == PresetRandom {
		// Random kernels are redrawn on reinitialization.
		c.initial = nil
	}
	return c, nil
}
