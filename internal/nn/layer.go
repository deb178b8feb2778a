// Package nn implements the layers used to build convolutional networks.
//
// This package provides building blocks with explicit forward and backward
// passes:
//   - Layer interface: Forward and Backward over cached activations
//   - Parameter: Named trainable tensors with gradient slots
//   - Affine, Convolution, Pooling: Shape-changing layers
//   - Activations: ReLU, Sigmoid
//   - Normalization and regularization: BatchNormalization, Dropout
//   - SoftmaxWithLoss: Terminal classification loss
//
// Each layer caches what its own backward pass needs during Forward, so a
// Backward call is only valid after the Forward call that produced it.
// Layers are not safe for concurrent use.
package nn

import (
	"github.com/born-ml/convnet/internal/tensor"
)

// Layer is the base interface for all network layers.
//
// Every layer must implement:
//   - Forward: Compute the output and cache what Backward needs
//   - Backward: Map the upstream gradient to the input gradient
//
// Layers with trainable parameters store their gradients on the
// Parameter objects during Backward.
type Layer interface {
	// Forward computes the output of the layer for input x.
	Forward(x *tensor.Tensor) *tensor.Tensor

	// Backward returns dL/dx given dL/dout from the next layer.
	//
	// Panics if called before Forward.
	Backward(dout *tensor.Tensor) *tensor.Tensor
}

// ModeLayer is a layer whose forward pass differs between training and
// inference (BatchNormalization, Dropout).
type ModeLayer interface {
	Layer

	// ForwardMode computes the output in training or inference mode.
	ForwardMode(x *tensor.Tensor, training bool) *tensor.Tensor
}

// ParamLayer is a layer that owns trainable parameters.
type ParamLayer interface {
	Layer

	// Parameters returns the layer's trainable parameters in a fixed order.
	Parameters() []*Parameter
}

// FeatureLayer marks layers whose outputs are spatial feature maps worth
// capturing for visualization (convolution and pooling).
type FeatureLayer interface {
	Layer
	featureMaps()
}

// Run forwards x through l in the given mode. Layers that do not implement
// ModeLayer ignore the mode.
func Run(l Layer, x *tensor.Tensor, training bool) *tensor.Tensor {
	if m, ok := l.(ModeLayer); ok {
		return m.ForwardMode(x, training)
	}
	return l.Forward(x)
}

// IsFeatureLayer reports whether l produces spatial feature maps.
func IsFeatureLayer(l Layer) bool {
	_, ok := l.(FeatureLayer)
	return ok
}
