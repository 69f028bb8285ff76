// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"errors"
	"testing"

	"github.com/born-ml/deepnet/nn"
	"github.com/born-ml/deepnet/tensor"
)

// TestOperatorInterface verifies that every operator satisfies Operator and
// reports its kind.
func TestOperatorInterface(t *testing.T) {
	tests := []struct {
		name string
		op   nn.Operator
		kind nn.Kind
		want tensor.Shape
	}{
		{"Dense", nn.NewDense(5, nn.Tanh), nn.KindDense, tensor.Shape{5}},
		{"Convolution", nn.NewConvolution(3), nn.KindConvolution, tensor.Shape{4, 6}},
		{"Pooling", nn.NewPooling(nn.PoolAverage, 2, 2), nn.KindPooling, tensor.Shape{2, 3}},
		{"Nonlinearity", nn.NewNonlinearity(nn.SoftSign), nn.KindNonlinearity, tensor.Shape{4, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.op.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", tt.op.Kind(), tt.kind)
			}
			got, err := tt.op.ResultingSize(tensor.Shape{4, 6})
			if err != nil {
				t.Fatalf("ResultingSize failed: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ResultingSize = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestDecodeAPI verifies an encoded operator decodes through the public API.
func TestDecodeAPI(t *testing.T) {
	op, err := nn.Decode(nn.NewPooling(nn.PoolMaximum, 1, 2).Encode())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if op.String() != "Pooling(maximum, [1 2])" {
		t.Errorf("String() = %q", op.String())
	}

	_, err = nn.Decode(map[string]any{"type": "lstm"})
	if !errors.Is(err, nn.ErrUnknownOperator) {
		t.Errorf("expected ErrUnknownOperator, got %v", err)
	}
}

// TestLosses verifies the exported loss functions.
func TestLosses(t *testing.T) {
	if got := nn.SquaredError([]float64{1, 2}, []float64{0, 0}); got != 2.5 {
		t.Errorf("SquaredError = %v, want 2.5", got)
	}
	if got := nn.BinaryCrossEntropy([]float64{0.5}, []float64{1}); got < 0.69 || got > 0.7 {
		t.Errorf("BinaryCrossEntropy = %v, want ln 2", got)
	}
}
