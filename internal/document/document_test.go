package document

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeAccessors(t *testing.T) {
	n := Node{
		"name":    "conv",
		"size":    3,
		"rate":    0.5,
		"whole":   float64(4),
		"flag":    true,
		"weights": []float64{1, 2, 3},
		"dims":    []any{float64(2), 3},
		"ids":     []any{"a", "b"},
		"child":   map[string]any{"k": "v"},
		"kids":    []any{map[string]any{"k": 1}},
	}

	s, err := n.String("name")
	require.NoError(t, err)
	assert.Equal(t, "conv", s)

	i, err := n.Int("size")
	require.NoError(t, err)
	assert.Equal(t, 3, i)

	i, err = n.Int("whole")
	require.NoError(t, err)
	assert.Equal(t, 4, i)

	f, err := n.Float("rate")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, f, 1e-12)

	b, err := n.Bool("flag")
	require.NoError(t, err)
	assert.True(t, b)

	ws, err := n.Floats("weights")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, ws)

	dims, err := n.Ints("dims")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, dims)

	ids, err := n.Strings("ids")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	child, err := n.Node("child")
	require.NoError(t, err)
	assert.Equal(t, "v", child["k"])

	kids, err := n.Nodes("kids")
	require.NoError(t, err)
	require.Len(t, kids, 1)
	assert.Equal(t, 1, kids[0]["k"])
}

func TestNodeMissingAndMistyped(t *testing.T) {
	n := Node{"size": "three", "rate": 0.5, "list": []any{1, "x"}}

	_, err := n.Int("missing")
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Equal(t, "missing", fe.Key)

	_, err = n.Int("size")
	assert.ErrorIs(t, err, ErrWrongType)

	_, err = n.Int("rate")
	assert.ErrorIs(t, err, ErrWrongType, "fractional numbers are not integers")

	_, err = n.Floats("list")
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "list[1]", fe.Key)

	_, err = n.Node("rate")
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestNodeOptional(t *testing.T) {
	n := Node{"a": "x", "b": 1}

	s, err := n.OptString("missing", "def")
	require.NoError(t, err)
	assert.Equal(t, "def", s)

	_, err = n.OptString("b", "def")
	assert.ErrorIs(t, err, ErrWrongType, "present but mistyped optional field")

	f, err := n.OptFloat("missing", 1.5)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, f, 0)

	i, err := n.OptInt("b", 7)
	require.NoError(t, err)
	assert.Equal(t, 1, i)
}

func TestWithPath(t *testing.T) {
	_, err := Node{}.String("id")
	err = WithPath(err, "channels[0]")
	err = WithPath(err, "layers[2]")

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "layers[2].channels[0]", fe.Path)
	assert.Equal(t, "layers[2].channels[0].id: missing required field", err.Error())

	plain := errors.New("plain")
	assert.Equal(t, plain, WithPath(plain, "x"))
}

func TestEnvelope(t *testing.T) {
	n := Envelope("network", Node{"layers": []Node{}})
	require.NoError(t, CheckEnvelope(n, "network"))

	assert.ErrorIs(t, CheckEnvelope(n, "channel"), ErrKindMismatch)

	n[KeyFormatVersion] = 99
	assert.ErrorIs(t, CheckEnvelope(n, "network"), ErrUnsupportedVersion)

	delete(n, KeyFormatVersion)
	assert.ErrorIs(t, CheckEnvelope(n, "network"), ErrMissingField)
}

func TestMarshalRoundTrip(t *testing.T) {
	for _, f := range []Format{JSON, YAML} {
		t.Run(f.String(), func(t *testing.T) {
			n := Node{
				"id":      "hidden",
				"sources": []string{"x", "y"},
				"weights": []float64{0.25, -1.5},
				"dims":    []int{2, 2},
				"ops":     []Node{{"type": "dense", "nodes": 4}},
			}
			data, err := Marshal(n, f)
			require.NoError(t, err)

			back, err := Unmarshal(data, f)
			require.NoError(t, err)

			id, err := back.String("id")
			require.NoError(t, err)
			assert.Equal(t, "hidden", id)

			ws, err := back.Floats("weights")
			require.NoError(t, err)
			assert.Equal(t, []float64{0.25, -1.5}, ws)

			dims, err := back.Ints("dims")
			require.NoError(t, err)
			assert.Equal(t, []int{2, 2}, dims)

			ops, err := back.Nodes("ops")
			require.NoError(t, err)
			nodes, err := ops[0].Int("nodes")
			require.NoError(t, err)
			assert.Equal(t, 4, nodes)
		})
	}
}

func TestReadWriteFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"net.json", "net.yaml", "net.yml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(path, Envelope("network", Node{"x": 1})))

		n, err := ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, CheckEnvelope(n, "network"))
	}

	err := WriteFile(filepath.Join(dir, "net.txt"), Node{})
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = ReadFile(filepath.Join(dir, "absent.json"))
	assert.Error(t, err)
}

func TestUnmarshalRejectsNonObject(t *testing.T) {
	_, err := Unmarshal([]byte("[1, 2]"), JSON)
	assert.Error(t, err)

	_, err = Unmarshal([]byte(""), YAML)
	assert.Error(t, err)
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("conv_1"))
	assert.NoError(t, ValidateID("layer1/out"))
	assert.ErrorIs(t, ValidateID(""), ErrInvalidID)
	assert.ErrorIs(t, ValidateID("has space"), ErrInvalidID)
	assert.ErrorIs(t, ValidateID("quo\"te"), ErrInvalidID)
	assert.ErrorIs(t, ValidateID("tab\t"), ErrInvalidID)
}
