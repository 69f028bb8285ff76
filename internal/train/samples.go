// Package train drives a network over samples: online and batched weight
// updates, epochs, and evaluation of classification and regression results.
//
// Samples are fetched by index from a provider; the trainer never reorders
// them.
package train

import (
	"errors"
	"fmt"
	"slices"
)

// Common errors.
var (
	ErrEmptyProvider = errors.New("provider has no samples")
	ErrSampleIndex   = errors.New("sample index out of range")
	ErrNoTargets     = errors.New("provider supplies neither expected vectors nor classes")
)

// Provider supplies network inputs by index.
type Provider interface {
	// Count returns the number of samples.
	Count() int
	// Input returns the network input of sample i, laid out as the network's
	// inputs concatenated in declaration order.
	Input(i int) ([]float64, error)
}

// SampleProvider supplies inputs with expected output vectors.
type SampleProvider interface {
	Provider
	Expected(i int) ([]float64, error)
}

// ClassProvider supplies inputs with expected classes.
type ClassProvider interface {
	Provider
	ExpectedClass(i int) (int, error)
}

// Dataset is an in-memory SampleProvider.
type Dataset struct {
	inputs   [][]float64
	expected [][]float64
}

// NewDataset creates an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{}
}

// Add appends a sample. The slices are copied.
func (d *Dataset) Add(input, expected []float64) *Dataset {
	d.inputs = append(d.inputs, slices.Clone(input))
	d.expected = append(d.expected, slices.Clone(expected))
	return d
}

// Count returns the number of samples.
func (d *Dataset) Count() int {
	return len(d.inputs)
}

// Input returns the input of sample i.
func (d *Dataset) Input(i int) ([]float64, error) {
	if i < 0 || i >= len(d.inputs) {
		return nil, fmt.Errorf("%w: %d of %d", ErrSampleIndex, i, len(d.inputs))
	}
	return d.inputs[i], nil
}

// Expected returns the expected output of sample i.
func (d *Dataset) Expected(i int) ([]float64, error) {
	if i < 0 || i >= len(d.expected) {
		return nil, fmt.Errorf("%w: %d of %d", ErrSampleIndex, i, len(d.expected))
	}
	return d.expected[i], nil
}

// ClassDataset is an in-memory ClassProvider.
type ClassDataset struct {
	inputs  [][]float64
	classes []int
}

// NewClassDataset creates an empty class dataset.
func NewClassDataset() *ClassDataset {
	return &ClassDataset{}
}

// Add appends a sample. The input is copied.
func (d *ClassDataset) Add(input []float64, class int) *ClassDataset {
	d.inputs = append(d.inputs, slices.Clone(input))
	d.classes = append(d.classes, class)
	return d
}

// Count returns the number of samples.
func (d *ClassDataset) Count() int {
	return len(d.inputs)
}

// Input returns the input of sample i.
func (d *ClassDataset) Input(i int) ([]float64, error) {
	if i < 0 || i >= len(d.inputs) {
		return nil, fmt.Errorf("%w: %d of %d", ErrSampleIndex, i, len(d.inputs))
	}
	return d.inputs[i], nil
}

// ExpectedClass returns the class of sample i.
func (d *ClassDataset) ExpectedClass(i int) (int, error) {
	if i < 0 || i >= len(d.classes) {
		return 0, fmt.Errorf("%w: %d of %d", ErrSampleIndex, i, len(d.classes))
	}
	return d.classes[i], nil
}
