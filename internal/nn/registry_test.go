package nn

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/deepnet/internal/document"
	"github.com/born-ml/deepnet/internal/tensor"
)

func TestDecode_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(21))

	dense := NewDense(3, RectifiedLinear)
	dense.InitializeParameters(rng)
	_, err := dense.ResultingSize(tensor.Shape{2, 2})
	require.NoError(t, err)

	random := NewConvolution(3)
	random.InitializeParameters(rng)

	ops := []Operator{
		dense,
		NewDense(2, Sigmoid),
		random,
		NewConvolutionPreset(PresetHorizontalEdge),
		NewPooling(PoolMinimum, 2, 1, 3),
		NewNonlinearity(SoftMax),
	}

	for _, op := range ops {
		encoded := op.Encode()
		decoded, err := Decode(encoded)
		require.NoError(t, err, "%s", op)
		assert.Equal(t, op.Kind(), decoded.Kind())
		assert.Equal(t, op.String(), decoded.String())
		if diff := cmp.Diff(encoded, decoded.Encode()); diff != "" {
			t.Errorf("%s: re-encoded document differs (-want +got):\n%s", op, diff)
		}
	}
}

func TestDecode_SameOutputs(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	d := NewDense(2, Tanh)
	d.InitializeParameters(rng)
	_, err := d.ResultingSize(tensor.Shape{3})
	require.NoError(t, err)

	decoded, err := Decode(d.Encode())
	require.NoError(t, err)

	x, _ := tensor.FromSlice([]float64{0.3, -0.7, 0.2}, tensor.Shape{3})
	want, err := d.Forward(x)
	require.NoError(t, err)
	got, err := decoded.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, want.Data, got.Data)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		node document.Node
		key  string
		err  error
	}{
		{"missing type", document.Node{"nodes": 3}, "type", document.ErrMissingField},
		{"unknown type", document.Node{"type": "lstm"}, "type", ErrUnknownOperator},
		{"missing nodes", document.Node{"type": "dense", "activation": "tanh"}, "nodes", document.ErrMissingField},
		{"wrong nodes", document.Node{"type": "dense", "nodes": "three", "activation": "tanh"}, "nodes", document.ErrWrongType},
		{"bad activation", document.Node{"type": "nonlinearity", "activation": "swish"}, "activation", document.ErrWrongType},
		{"short weights", document.Node{
			"type": "dense", "nodes": 2, "activation": "tanh", "inputs": 2, "weights": []float64{1, 2},
		}, "weights", document.ErrWrongType},
		{"bad kernel", document.Node{"type": "convolution", "kernel": []float64{1, 2}}, "kernel", document.ErrWrongType},
		{"bad factors", document.Node{"type": "pooling", "pool": "maximum", "factors": []int{0}}, "factors", document.ErrWrongType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.node)
			require.Error(t, err)
			var fe *document.FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.key, fe.Key)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestRegistry_Tags(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"convolution", "dense", "nonlinearity", "pooling"}, r.Tags())

	r.Register("echo", func(document.Node) (Operator, error) {
		return NewNonlinearity(Identity), nil
	})
	op, err := r.Decode(document.Node{"type": "echo"})
	require.NoError(t, err)
	assert.Equal(t, KindNonlinearity, op.Kind())
}
