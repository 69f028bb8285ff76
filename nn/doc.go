// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the operators a network channel is built from.
//
// # Overview
//
// This package contains:
//   - Operators: Convolution, Pooling, Dense, Nonlinearity
//   - Activations: Identity, Tanh, Sigmoid, SigmoidCrossEntropy,
//     RectifiedLinear, SoftSign, SoftMax
//   - Losses: SquaredError, BinaryCrossEntropy
//   - Persistence: Decode and Registry for operator documents
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/deepnet/network"
//	    "github.com/born-ml/deepnet/nn"
//	    "github.com/born-ml/deepnet/tensor"
//	)
//
//	func main() {
//	    net := network.New(network.DefaultConfig())
//	    net.AddInput("image", tensor.Shape{28, 28})
//	    net.AddLayer(network.NewLayer("features",
//	        network.NewChannel("edges", "image").
//	            AddOperator(nn.NewConvolutionPreset(nn.PresetVerticalEdge)).
//	            AddOperator(nn.NewPooling(nn.PoolMaximum, 2, 2)),
//	    ))
//	    net.AddLayer(network.NewLayer("out",
//	        network.NewChannel("digits", "edges").
//	            AddOperator(nn.NewDense(10, nn.SoftMax)),
//	    ))
//	}
//
// # Operators
//
// Convolution: odd square kernel per 2-D plane, borders extended
//
//	conv := nn.NewConvolution(5)
//
// Pooling: block reduction with one factor per axis
//
//	pool := nn.NewPooling(nn.PoolAverage, 2, 2)
//
// Dense: fully connected with a bias column
//
//	dense := nn.NewDense(64, nn.RectifiedLinear)
//
// Nonlinearity: elementwise activation without parameters
//
//	act := nn.NewNonlinearity(nn.SoftSign)
//
// # Gradient Checking
//
// Every operator verifies its parameter gradients against central finite
// differences of a loss supplied by the owning network. Use
// network.Network.GradientCheck rather than calling operators directly.
package nn
