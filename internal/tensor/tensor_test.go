package tensor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertEqualShape(t *testing.T, expected, actual Shape, msg string) {
	t.Helper()
	if !expected.Equal(actual) {
		t.Errorf("%s: expected shape %v, got %v", msg, expected, actual)
	}
}

func TestShapeNumElements(t *testing.T) {
	tests := []struct {
		shape Shape
		want  int
	}{
		{Shape{}, 1},
		{Shape{5}, 5},
		{Shape{3, 4}, 12},
		{Shape{2, 3, 4, 5}, 120},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.shape.NumElements(), "shape %v", tt.shape)
	}
}

func TestShapeValidate(t *testing.T) {
	assert.NoError(t, Shape{1, 2, 3, 4}.Validate())
	assert.Error(t, Shape{1, 2, 3, 4, 5}.Validate(), "rank 5 must be rejected")
	assert.Error(t, Shape{3, 0}.Validate())
	assert.Error(t, Shape{-1}.Validate())
}

func TestShapeStrides(t *testing.T) {
	// First axis fastest.
	assert.Equal(t, []int{1, 4, 12}, Shape{4, 3, 2}.Strides())
	assert.Empty(t, Shape{}.Strides())
}

func TestShapeDimAndPad(t *testing.T) {
	s := Shape{4, 3}
	assert.Equal(t, 4, s.Dim(0))
	assert.Equal(t, 1, s.Dim(2))
	assert.Equal(t, 1, s.Dim(-1))

	padded := s.Pad(4)
	assertEqualShape(t, Shape{4, 3, 1, 1}, padded, "Pad")
	assertEqualShape(t, Shape{4, 3}, s, "Pad must not mutate receiver")
}

func TestShapeString(t *testing.T) {
	assert.Equal(t, "[2x3]", Shape{2, 3}.String())
	assert.Equal(t, "[]", Shape{}.String())
}

func TestConcatShapes(t *testing.T) {
	tests := []struct {
		name    string
		inputs  []Shape
		want    Shape
		wantErr bool
	}{
		{"single", []Shape{{3, 3}}, Shape{3, 3}, false},
		{"vectors", []Shape{{4}, {2}}, Shape{6}, false},
		{"planes", []Shape{{3, 3}, {3, 3}}, Shape{3, 6}, false},
		{"promoted", []Shape{{3, 3}, {3, 3, 2}}, Shape{3, 3, 3}, false},
		{"mismatch", []Shape{{3, 2}, {4, 2}}, nil, true},
		{"empty", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConcatShapes(tt.inputs...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ConcatShapes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFromSlice(t *testing.T) {
	tn, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{3, 2})
	require.NoError(t, err)
	assert.Equal(t, 6, tn.Len())

	_, err = FromSlice([]float64{1, 2, 3}, Shape{2, 2})
	assert.Error(t, err)
}

func TestConcat(t *testing.T) {
	a, err := FromSlice([]float64{1, 2, 3, 4}, Shape{2, 2})
	require.NoError(t, err)
	b, err := FromSlice([]float64{5, 6}, Shape{2, 1})
	require.NoError(t, err)

	out, err := Concat(a, b)
	require.NoError(t, err)
	assertEqualShape(t, Shape{2, 3}, out.Shape, "Concat")
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, out.Data)

	// The inputs must be untouched.
	assert.Equal(t, []float64{1, 2, 3, 4}, a.Data)

	c, err := FromSlice([]float64{1, 2, 3}, Shape{3})
	require.NoError(t, err)
	_, err = Concat(a, c)
	assert.Error(t, err)
}

func TestClone(t *testing.T) {
	a := New(Shape{2})
	b := a.Clone()
	b.Data[0] = 7
	assert.Zero(t, a.Data[0])
}
