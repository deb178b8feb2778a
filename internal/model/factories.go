package model

import (
	"fmt"
	"strings"
)

// vggBlocks holds the convolutions per VGG16 block and the width multiplier
// applied to VGGConfig.BaseFilters.
var vggBlocks = []struct{ convs, widthMul int }{
	{2, 1}, {2, 2}, {3, 4}, {3, 8}, {3, 8},
}

// SimpleCNNArchitecture describes
//
//	conv - relu - pool(2x2, stride 2) - affine - relu - affine
//
// with parameters W1/b1 (conv), W2/b2 and W3/b3 (affine).
func SimpleCNNArchitecture(cfg Config) Architecture {
	p := cfg.ConvParam
	return Architecture{
		Name:     "SimpleCNN",
		InputDim: cfg.inputShape(),
		Layers: []LayerSpec{
			{Kind: KindConv, Filters: p.FilterNum, Kernel: p.FilterSize, Stride: p.Stride, Pad: p.Pad},
			{Kind: KindReLU},
			{Kind: KindPool, Kernel: 2, Stride: 2},
			{Kind: KindAffine, Units: cfg.HiddenSize},
			{Kind: KindReLU},
			{Kind: KindAffine, Units: cfg.OutputSize},
		},
	}
}

// VGG16Architecture describes thirteen 3x3 "same" convolutions with ReLU in
// blocks of 2, 2, 3, 3, 3, each block followed by a 2x2 max-pool with
// stride 2, then affine - relu - affine - relu - affine. Parameters are
// W1..W13 for the convolutions and W14..W16 for the affine layers.
//
// With the default widths a 3x48x48 input reaches the first affine layer
// as 512 features. VGG.BatchNorm inserts batch normalization between each
// convolution and its ReLU; a positive VGG.Dropout adds dropout after each
// hidden affine ReLU.
func VGG16Architecture(cfg Config) Architecture {
	v := cfg.VGG
	var layers []LayerSpec
	for _, block := range vggBlocks {
		for range block.convs {
			layers = append(layers, LayerSpec{Kind: KindConv, Filters: v.BaseFilters * block.widthMul, Kernel: 3, Stride: 1, Pad: 1})
			if v.BatchNorm {
				layers = append(layers, LayerSpec{Kind: KindBatchNorm})
			}
			layers = append(layers, LayerSpec{Kind: KindReLU})
		}
		layers = append(layers, LayerSpec{Kind: KindPool, Kernel: 2, Stride: 2})
	}
	for range 2 {
		layers = append(layers, LayerSpec{Kind: KindAffine, Units: v.FCHidden}, LayerSpec{Kind: KindReLU})
		if v.Dropout > 0 {
			layers = append(layers, LayerSpec{Kind: KindDropout, Ratio: v.Dropout})
		}
	}
	layers = append(layers, LayerSpec{Kind: KindAffine, Units: cfg.OutputSize})

	return Architecture{Name: "VGG16", InputDim: cfg.inputShape(), Layers: layers}
}

// NewSimpleCNN creates the simple CNN described by cfg.
func NewSimpleCNN(cfg Config) (*Network, error) {
	cfg.Model = ModelSimpleCNN
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return Build(SimpleCNNArchitecture(cfg), cfg)
}

// NewVGG16 creates the VGG16 network described by cfg, with a 2x2
// max-pooling stage after each of the five convolution blocks.
func NewVGG16(cfg Config) (*Network, error) {
	cfg.Model = ModelVGG16
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return Build(VGG16Architecture(cfg), cfg)
}

// New creates the network selected by cfg.Model.
func New(cfg Config) (*Network, error) {
	switch strings.ToLower(cfg.Model) {
	case ModelSimpleCNN:
		return NewSimpleCNN(cfg)
	case ModelVGG16:
		return NewVGG16(cfg)
	case ModelCustom:
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return Build(Architecture{Name: "Custom", InputDim: cfg.inputShape(), Layers: cfg.Layers}, cfg)
	default:
		return nil, fmt.Errorf("unknown model %q", cfg.Model)
	}
}
