// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand/v2"

	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/tensor"
)

// Layer is the base interface for all network layers.
type Layer = nn.Layer

// ModeLayer is a layer whose forward pass differs between training and
// inference.
type ModeLayer = nn.ModeLayer

// ParamLayer is a layer that owns trainable parameters.
type ParamLayer = nn.ParamLayer

// FeatureLayer marks layers whose outputs are spatial feature maps.
type FeatureLayer = nn.FeatureLayer

// Run forwards x through l in training or inference mode.
func Run(l Layer, x *tensor.Tensor, training bool) *tensor.Tensor {
	return nn.Run(l, x, training)
}

// IsFeatureLayer reports whether l produces spatial feature maps.
func IsFeatureLayer(l Layer) bool {
	return nn.IsFeatureLayer(l)
}

// Layers

// Affine represents a fully connected layer, y = x·W + b.
type Affine = nn.Affine

// NewAffine creates a fully connected layer from existing parameters.
//
// Example:
//
//	w := nn.NewParameter("W1", nn.Logistic(tensor.Shape{784, 100}, 0.1, rng, tensor.Float64, tensor.CPU))
//	b := nn.NewParameter("b1", nn.Zeros(tensor.Shape{100}, tensor.Float64, tensor.CPU))
//	layer := nn.NewAffine(w, b)
func NewAffine(weight, bias *Parameter) *Affine {
	return nn.NewAffine(weight, bias)
}

// Convolution represents a 2D convolution computed via im2col.
type Convolution = nn.Convolution

// NewConvolution creates a convolution layer. The weight has shape
// (filters, channels, kH, kW) and the bias (filters).
func NewConvolution(weight, bias *Parameter, stride, pad int) *Convolution {
	return nn.NewConvolution(weight, bias, stride, pad)
}

// Pooling represents a 2D max pooling layer.
type Pooling = nn.Pooling

// NewPooling creates a max pooling layer.
func NewPooling(poolH, poolW, stride, pad int) *Pooling {
	return nn.NewPooling(poolH, poolW, stride, pad)
}

// BatchNormalization normalizes activations per feature.
type BatchNormalization = nn.BatchNormalization

// DefaultMomentum is the default running-statistics momentum.
const DefaultMomentum = nn.DefaultMomentum

// NewBatchNormalization creates a batch normalization layer.
func NewBatchNormalization(gamma, beta *Parameter, momentum float64) *BatchNormalization {
	return nn.NewBatchNormalization(gamma, beta, momentum)
}

// Dropout zeroes random activations during training.
type Dropout = nn.Dropout

// NewDropout creates a dropout layer drawing its masks from rng.
func NewDropout(ratio float64, rng *rand.Rand) *Dropout {
	return nn.NewDropout(ratio, rng)
}

// Activation Functions

// ReLU applies max(0, x).
type ReLU = nn.ReLU

// NewReLU creates a new ReLU activation layer.
func NewReLU() *ReLU {
	return nn.NewReLU()
}

// SigmoidLayer applies the logistic function.
type SigmoidLayer = nn.SigmoidLayer

// NewSigmoid creates a new sigmoid activation layer.
func NewSigmoid() *SigmoidLayer {
	return nn.NewSigmoid()
}

// Loss Functions

// SoftmaxWithLoss combines softmax with cross-entropy loss.
type SoftmaxWithLoss = nn.SoftmaxWithLoss

// NewSoftmaxWithLoss creates the loss layer.
//
// Example:
//
//	loss := nn.NewSoftmaxWithLoss()
//	value := loss.Forward(scores, labels) // one-hot or class indices
//	dscores := loss.Backward(1)
func NewSoftmaxWithLoss() *SoftmaxWithLoss {
	return nn.NewSoftmaxWithLoss()
}

// Softmax returns the row-wise softmax of a 2D tensor.
func Softmax(x *tensor.Tensor) *tensor.Tensor {
	return nn.Softmax(x)
}

// CrossEntropyError returns the mean cross-entropy of probabilities y
// against labels t.
func CrossEntropyError(y, t *tensor.Tensor) float64 {
	return nn.CrossEntropyError(y, t)
}

// Initialization

// Logistic returns std * Logistic(0, 1) samples drawn from rng.
func Logistic(shape tensor.Shape, std float64, rng *rand.Rand, dtype tensor.DataType, device tensor.Device) *tensor.Tensor {
	return nn.Logistic(shape, std, rng, dtype, device)
}

// Zeros returns a zero tensor with the given precision and device.
func Zeros(shape tensor.Shape, dtype tensor.DataType, device tensor.Device) *tensor.Tensor {
	return nn.Zeros(shape, dtype, device)
}

// Ones returns a tensor of ones with the given precision and device.
func Ones(shape tensor.Shape, dtype tensor.DataType, device tensor.Device) *tensor.Tensor {
	return nn.Ones(shape, dtype, device)
}
