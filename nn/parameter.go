// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// A Parameter is shared by pointer between the network's parameter store
// and the layer that uses it, so optimizer updates and loads are seen by
// the layer on its next forward pass.
//
// Example:
//
//	weight := nn.NewParameter("W1", weightTensor)
//	layer := nn.NewAffine(weight, bias)
//
//	// Get gradient after backward pass
//	grad := weight.Grad()
//
// Methods:
//
//	Name() string
//	    Returns the parameter name (e.g., "W1", "gamma2").
//
//	Tensor() *tensor.Tensor
//	    Returns the parameter tensor.
//
//	Bind(t *tensor.Tensor) error
//	    Replaces the value, keeping precision and device. The shape must match.
//
//	Grad() *tensor.Tensor
//	    Returns the gradient tensor (nil if not computed yet).
//
//	SetGrad(grad *tensor.Tensor)
//	    Sets the gradient tensor.
type Parameter = nn.Parameter

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return nn.NewParameter(name, t)
}
