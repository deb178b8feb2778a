// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package model

import (
	"github.com/born-ml/convnet/internal/model"
)

// Network is an ordered list of named layers ending in a softmax loss.
type Network = model.Network

// Config holds network construction options.
type Config = model.Config

// ConvParam configures the convolution of the simple CNN.
type ConvParam = model.ConvParam

// VGGConfig scales and extends the VGG16 architecture.
type VGGConfig = model.VGGConfig

// Model names accepted by Config.Model.
const (
	ModelSimpleCNN = model.ModelSimpleCNN
	ModelVGG16     = model.ModelVGG16
	ModelCustom    = model.ModelCustom
)

// DefaultSeed seeds weight initialization when the config does not set one.
const DefaultSeed = model.DefaultSeed

// DefaultConfig returns the default simple CNN configuration.
func DefaultConfig() Config {
	return model.DefaultConfig()
}

// LoadConfig reads a YAML network config.
func LoadConfig(path string) (Config, error) {
	return model.LoadConfig(path)
}

// ParseConfig decodes a YAML network config over DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	return model.ParseConfig(data)
}

// Architectures

// Architecture is an ordered layer list for a given input shape.
type Architecture = model.Architecture

// LayerSpec describes one layer of an Architecture.
type LayerSpec = model.LayerSpec

// LayerKind names a layer type.
type LayerKind = model.LayerKind

// Layer kinds understood by Build.
const (
	KindConv      = model.KindConv
	KindPool      = model.KindPool
	KindReLU      = model.KindReLU
	KindSigmoid   = model.KindSigmoid
	KindAffine    = model.KindAffine
	KindBatchNorm = model.KindBatchNorm
	KindDropout   = model.KindDropout
)

// Build creates a network from an architecture descriptor.
//
// Example:
//
//	arch := model.Architecture{
//	    Name:     "Tiny",
//	    InputDim: tensor.Shape{1, 28, 28},
//	    Layers: []model.LayerSpec{
//	        {Kind: model.KindConv, Filters: 8, Kernel: 3, Pad: 1},
//	        {Kind: model.KindReLU},
//	        {Kind: model.KindPool, Kernel: 2},
//	        {Kind: model.KindAffine, Units: 10},
//	    },
//	}
//	cfg := model.DefaultConfig()
//	cfg.OutputSize = 10
//	net, err := model.Build(arch, cfg)
func Build(arch Architecture, cfg Config) (*Network, error) {
	return model.Build(arch, cfg)
}

// New creates the network selected by cfg.Model.
func New(cfg Config) (*Network, error) {
	return model.New(cfg)
}

// NewSimpleCNN creates conv - relu - pool - affine - relu - affine.
func NewSimpleCNN(cfg Config) (*Network, error) {
	return model.NewSimpleCNN(cfg)
}

// NewVGG16 creates the 13-convolution, 3-affine VGG16 network.
//
// The convolution blocks are followed by five 2x2 max-pooling stages, so
// each spatial input dimension must survive five halvings (48x48 reaches
// 1x1x512 before the first affine layer).
func NewVGG16(cfg Config) (*Network, error) {
	return model.NewVGG16(cfg)
}

// Inference and Evaluation

// PredictOptions controls Network.Predict.
type PredictOptions = model.PredictOptions

// FeatureMap holds the captured output channels of one layer.
type FeatureMap = model.FeatureMap

// EvalOptions controls Network.Evaluate.
type EvalOptions = model.EvalOptions

// Result holds accuracy, macro F1 and the confusion matrix of an evaluation.
type Result = model.Result

// ErrArchitectureMismatch is returned when saved parameters do not fit the
// network they are loaded into.
var ErrArchitectureMismatch = model.ErrArchitectureMismatch
