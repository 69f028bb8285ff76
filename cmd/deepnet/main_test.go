package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, version)
}

func TestXORThenInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xor.yaml")
	out, err := run(t, "xor", "--seed", "1", "--log-every", "0", "--workers", "1", "--save", path)
	require.NoError(t, err)
	assert.Contains(t, out, "accuracy 100.00%")
	assert.Contains(t, out, "saved to "+path)

	out, err = run(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "valid, 1 inputs, 2 layers, 1 outputs")

	out, err = run(t, "dot", path)
	require.NoError(t, err)
	assert.Contains(t, out, "digraph network")
	assert.Contains(t, out, "Dense(4, tanh)")

	dotPath := filepath.Join(t.TempDir(), "xor.dot")
	_, err = run(t, "dot", path, "-o", dotPath)
	require.NoError(t, err)
	data, err := os.ReadFile(dotPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "cluster_hidden")

	out, err = run(t, "gradcheck", path, "--workers", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "gradients match")
}

func TestXOR_CrossEntropy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xor.json")
	out, err := run(t, "xor", "--cross-entropy", "--hidden", "8", "--epochs", "3000", "--log-every", "0", "--save", path)
	require.NoError(t, err)
	assert.Contains(t, out, "saved to "+path)

	out, err = run(t, "dot", path)
	require.NoError(t, err)
	assert.Contains(t, out, "sigmoid_cross_entropy")
}

func TestValidate_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	doc := `{
  "format_version": 1,
  "kind": "network",
  "created_at": "2025-01-01T00:00:00Z",
  "inputs": [{"id": "x", "shape": [2]}],
  "layers": [{"id": "out", "channels": [
    {"id": "y", "sources": ["nowhere"], "operators": [{"type": "dense", "nodes": 1, "activation": "identity"}]}
  ]}]
}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	out, err := run(t, "validate", path)
	assert.ErrorContains(t, err, "1 problems found")
	assert.Contains(t, out, "unresolved_source")
}

func TestArgs(t *testing.T) {
	_, err := run(t, "validate")
	assert.Error(t, err)

	_, err = run(t, "dot", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
