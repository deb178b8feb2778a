// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the layers convnet networks are built from.
//
// # Overview
//
// This package contains:
//   - Layers: Affine, Convolution, Pooling, BatchNormalization, Dropout
//   - Activations: ReLU, Sigmoid
//   - Loss: SoftmaxWithLoss
//   - Utilities: Layer interfaces, Parameter, Run
//   - Initialization: Logistic, Zeros, Ones
//
// Every layer computes its own gradient. Forward caches what Backward
// needs, and Backward stores parameter gradients on the layer's Parameters
// and returns the gradient with respect to the input.
//
// # Basic Usage
//
//	import (
//	    "math/rand/v2"
//
//	    "github.com/born-ml/convnet/nn"
//	    "github.com/born-ml/convnet/tensor"
//	)
//
//	func main() {
//	    rng := rand.New(rand.NewPCG(43, 43))
//	    w := nn.NewParameter("W1", nn.Logistic(tensor.Shape{30, 3, 5, 5}, 0.1, rng, tensor.Float64, tensor.CPU))
//	    b := nn.NewParameter("b1", nn.Zeros(tensor.Shape{30}, tensor.Float64, tensor.CPU))
//
//	    conv := nn.NewConvolution(w, b, 1, 0)
//	    relu := nn.NewReLU()
//	    pool := nn.NewPooling(2, 2, 2, 0)
//
//	    h := pool.Forward(relu.Forward(conv.Forward(x)))
//	    dx := conv.Backward(relu.Backward(pool.Backward(dh)))
//	    _ = w.Grad() // dL/dW1
//	}
//
// # Training and Inference
//
// BatchNormalization and Dropout implement ModeLayer. Use Run to forward
// in a given mode; plain Forward runs in training mode.
//
//	y := nn.Run(layer, x, false) // inference
//
// # Layers Are Not Reentrant
//
// Layers cache the last forward pass. Use one layer instance per goroutine.
package nn
