// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train provides the public API for training networks on samples.
//
// Example:
//
//	data := train.NewClassDataset().
//	    Add([]float64{0, 0}, 0).
//	    Add([]float64{0, 1}, 1).
//	    Add([]float64{1, 0}, 1).
//	    Add([]float64{1, 1}, 0)
//
//	cfg := train.DefaultConfig()
//	cfg.TargetAccuracy = 1
//	trainer := train.NewTrainer(net, cfg, log.Default())
//	result, err := trainer.Fit(data)
package train

import (
	"log"

	"github.com/born-ml/deepnet/internal/train"
	"github.com/born-ml/deepnet/network"
)

// Config holds training hyperparameters.
type Config = train.Config

// FitResult summarizes a Fit run.
type FitResult = train.FitResult

// Trainer trains one network.
type Trainer = train.Trainer

// Provider supplies network inputs by index.
type Provider = train.Provider

// SampleProvider supplies inputs with expected output vectors.
type SampleProvider = train.SampleProvider

// ClassProvider supplies inputs with expected classes.
type ClassProvider = train.ClassProvider

// Dataset is an in-memory SampleProvider.
type Dataset = train.Dataset

// ClassDataset is an in-memory ClassProvider.
type ClassDataset = train.ClassDataset

// DefaultConfig returns online training with rate 0.1 and no decay.
func DefaultConfig() Config {
	return train.DefaultConfig()
}

// NewTrainer creates a trainer. logger may be nil.
func NewTrainer(net *network.Network, cfg Config, logger *log.Logger) *Trainer {
	return train.NewTrainer(net, cfg, logger)
}

// NewDataset creates an empty regression dataset.
func NewDataset() *Dataset {
	return train.NewDataset()
}

// NewClassDataset creates an empty classification dataset.
func NewClassDataset() *ClassDataset {
	return train.NewClassDataset()
}

// Error sentinels, usable with errors.Is.
var (
	ErrEmptyProvider = train.ErrEmptyProvider
	ErrSampleIndex   = train.ErrSampleIndex
	ErrNoTargets     = train.ErrNoTargets
)
