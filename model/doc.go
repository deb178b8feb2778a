// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package model builds, evaluates and persists convolutional networks.
//
// # Overview
//
// A Network is an ordered list of named layers ending in a softmax
// cross-entropy loss, together with a parameter store keyed by name
// (W1, b1, ..., gamma1, beta1, ...). Two architectures are provided:
//   - SimpleCNN: conv - relu - pool - affine - relu - affine
//   - VGG16: 13 3x3 convolutions in five pooled blocks, then three affines
//
// Custom architectures are described with an Architecture and built with
// Build; parameter shapes are inferred from the input shape.
//
// # Basic Usage
//
//	import "github.com/born-ml/convnet/model"
//
//	func main() {
//	    cfg := model.DefaultConfig() // 3x48x48 input, 43 classes
//	    net, err := model.NewSimpleCNN(cfg)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    grads := net.Gradient(x, t) // map[string]*tensor.Tensor keyed by parameter name
//	    res, err := net.AccuracyF1Score(xTest, tTest, 100)
//	    fmt.Printf("acc %.3f, f1 %.3f\n", res.Accuracy, res.F1)
//	}
//
// # Persistence
//
// SaveParams and LoadParams store parameters and batch-norm running
// statistics in the .cnet format. Loading into a network with a different
// architecture fails with ErrArchitectureMismatch and leaves the network
// unchanged.
//
// # Concurrency
//
// A Network caches activations between its forward and backward passes
// and is not safe for concurrent use.
package model
