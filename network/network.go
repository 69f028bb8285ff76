// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package network provides the public API for assembling operators into
// channels, layers and feed-forward networks.
//
// Example:
//
//	net := network.New(network.DefaultConfig())
//	net.AddInput("x", tensor.Shape{2})
//	net.AddLayer(network.NewLayer("hidden",
//	    network.NewChannel("h", "x").AddOperator(nn.NewDense(4, nn.Tanh))))
//	net.AddLayer(network.NewLayer("out",
//	    network.NewChannel("y", "h").AddOperator(nn.NewDense(1, nn.Sigmoid))))
//
//	if errs := net.Validate(); len(errs) > 0 {
//	    log.Fatal(network.ValidationErrors(errs))
//	}
//	_ = net.SetInputs([]float64{0, 1})
//	out, _ := net.FeedForward()
package network

import (
	"github.com/born-ml/deepnet/internal/document"
	"github.com/born-ml/deepnet/internal/network"
	"github.com/born-ml/deepnet/internal/parallel"
)

// Network is a layered feed-forward network.
type Network = network.Network

// Layer is a group of channels evaluated concurrently.
type Layer = network.Layer

// Channel is an operator pipeline fed by inputs or previous-layer channels.
type Channel = network.Channel

// Input is a named network input.
type Input = network.Input

// Config configures a network.
type Config = network.Config

// ParallelConfig controls how the channels of a layer are scheduled.
type ParallelConfig = parallel.Config

// Scheduler runs the channels of a layer and joins them.
type Scheduler = parallel.Scheduler

// DefaultConfig returns a parallel configuration sized to the CPU count and
// seed 1.
func DefaultConfig() Config {
	return network.DefaultConfig()
}

// DefaultParallelConfig returns a parallel configuration sized to the CPU count.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}

// New creates an empty network.
func New(cfg Config) *Network {
	return network.New(cfg)
}

// NewLayer creates a layer.
func NewLayer(id string, channels ...*Channel) *Layer {
	return network.NewLayer(id, channels...)
}

// NewChannel creates a channel reading the given sources.
func NewChannel(id string, sources ...string) *Channel {
	return network.NewChannel(id, sources...)
}

// Load reads a network saved with Network.Save. The format (JSON or YAML)
// follows the file extension.
func Load(path string, cfg Config) (*Network, error) {
	return network.Load(path, cfg)
}

// Decode rebuilds a network from the document returned by Network.Encode.
func Decode(node map[string]any, cfg Config) (*Network, error) {
	return network.Decode(document.Node(node), cfg)
}

// Validation

// ValidationError describes one structural problem.
type ValidationError = network.ValidationError

// ValidationErrors joins the problems reported by Validate into one error.
type ValidationErrors = network.ValidationErrors

// ValidationType classifies a validation failure.
type ValidationType = network.ValidationType

// Validation failure types.
const (
	InvalidID           = network.InvalidID
	DuplicateID         = network.DuplicateID
	NoInputs            = network.NoInputs
	NoLayers            = network.NoLayers
	EmptyLayer          = network.EmptyLayer
	NoSources           = network.NoSources
	UnresolvedSource    = network.UnresolvedSource
	IncompatibleConcat  = network.IncompatibleConcat
	OperatorShape       = network.OperatorShape
	MisplacedActivation = network.MisplacedActivation
	InvalidShape        = network.InvalidShape
)

// Error sentinels, usable with errors.Is.
var (
	ErrInvalidNetwork = network.ErrInvalidNetwork
	ErrNoForward      = network.ErrNoForward
	ErrNoSample       = network.ErrNoSample
	ErrUnknownInput   = network.ErrUnknownInput
	ErrUnknownChannel = network.ErrUnknownChannel
	ErrUnknownLayer   = network.ErrUnknownLayer
	ErrIndexRange     = network.ErrIndexRange
	ErrInvalidClass   = network.ErrInvalidClass
)
