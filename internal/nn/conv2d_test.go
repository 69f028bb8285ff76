package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/deepnet/internal/tensor"
)

func TestConvolution_IdentityPreset(t *testing.T) {
	c := NewConvolutionPreset(PresetIdentity)
	x := tensor.New(tensor.Shape{4, 3})
	for i := range x.Data {
		x.Data[i] = float64(i + 1)
	}

	out, err := c.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, x.Shape, out.Shape)
	assert.Equal(t, x.Data, out.Data)
}

func TestConvolution_EdgeExtension(t *testing.T) {
	c, err := NewConvolutionKernel([]float64{
		1, 1, 1,
		1, 1, 1,
		1, 1, 1,
	})
	require.NoError(t, err)

	// (0,0)=1 (1,0)=2 (0,1)=3 (1,1)=4
	x, _ := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2})
	out, err := c.Forward(x)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{18, 21, 24, 27}, out.Data, 1e-12)
}

func TestConvolution_EdgeKernelsOnFlatPlanes(t *testing.T) {
	x := tensor.New(tensor.Shape{3, 3, 2})
	for i := range x.Data {
		x.Data[i] = 7
	}
	for _, preset := range []KernelPreset{PresetHorizontalEdge, PresetVerticalEdge} {
		out, err := NewConvolutionPreset(preset).Forward(x)
		require.NoError(t, err)
		assert.Equal(t, tensor.Shape{3, 3, 2}, out.Shape)
		for i, v := range out.Data {
			assert.InDelta(t, 0, v, 1e-12, "%s at %d", preset, i)
		}
	}
}

func TestConvolution_VerticalEdgeResponds(t *testing.T) {
	// Left column 0, right columns 1: a vertical edge.
	x, _ := tensor.FromSlice([]float64{
		0, 1, 1,
		0, 1, 1,
		0, 1, 1,
	}, tensor.Shape{3, 3})

	out, err := NewConvolutionPreset(PresetVerticalEdge).Forward(x)
	require.NoError(t, err)
	assert.Greater(t, out.Data[4], 0.0)
	assert.InDelta(t, 0, out.Data[2], 1e-12)
}

func TestConvolution_RankOneIsARow(t *testing.T) {
	c, err := NewConvolutionKernel([]float64{
		0, 0, 0,
		1, 0, 1,
		0, 0, 0,
	})
	require.NoError(t, err)

	x, _ := tensor.FromSlice([]float64{1, 2, 3, 4, 5}, tensor.Shape{5})
	out, err := c.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{5}, out.Shape)
	// left + right neighbor, clamped at both ends
	assert.InDeltaSlice(t, []float64{3, 4, 6, 8, 9}, out.Data, 1e-12)
}

func TestConvolution_Gradients(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for _, size := range []int{1, 3, 5} {
		c := NewConvolution(size)
		c.InitializeParameters(rng)

		x := randomTensor(rng, tensor.Shape{4, 3, 2})
		target := randomTensor(rng, tensor.Shape{24}).Data

		in := accumulate(t, c, x, target)
		require.NoError(t, c.GradientCheck(1e-4, 1e-2, squaredLoss(c, x, target)), "size %d", size)
		assert.InDeltaSlice(t, numericInputGradient(t, c, x, target), in, 1e-6, "size %d", size)
	}
}

func TestConvolution_InvalidKernels(t *testing.T) {
	assert.Panics(t, func() { NewConvolution(4) })
	assert.Panics(t, func() { NewConvolution(0) })

	_, err := NewConvolutionKernel(make([]float64, 8))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewConvolutionKernel(make([]float64, 4))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConvolution_InitializeRestoresPreset(t *testing.T) {
	c := NewConvolutionPreset(PresetIdentity)
	x, _ := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2})

	accumulate(t, c, x, []float64{0, 0, 0, 0})
	c.UpdateWeights(0.1, 1)
	require.NotEqual(t, identityKernel(3), c.Kernel())

	c.InitializeParameters(nil)
	assert.Equal(t, identityKernel(3), c.Kernel())
}

func TestConvolution_InitializeRedrawsRandom(t *testing.T) {
	c := NewConvolution(3)
	c.InitializeParameters(rand.New(rand.NewSource(1)))
	first := c.Kernel()
	c.InitializeParameters(rand.New(rand.NewSource(1)))
	assert.Equal(t, first, c.Kernel())
	c.InitializeParameters(rand.New(rand.NewSource(2)))
	assert.NotEqual(t, first, c.Kernel())
}
