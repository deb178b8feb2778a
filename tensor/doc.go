// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense tensors used by convnet networks.
//
// # Overview
//
// Tensors are the fundamental data structure in convnet. This package provides:
//   - Dense row-major tensors with a precision tag (float32, float64)
//   - A device tag (CPU, CUDA, Vulkan, Metal, WebGPU) carried through layers
//   - Matrix multiplication backed by gonum
//   - Im2Col / Col2Im for convolution and pooling
//
// # Basic Usage
//
//	import "github.com/born-ml/convnet/tensor"
//
//	func main() {
//	    x := tensor.Zeros(tensor.Shape{2, 3})
//	    w := tensor.Full(tensor.Shape{3, 4}, 0.5)
//
//	    y := x.MatMul(w)           // (2, 4)
//	    z := y.Reshape(4, 2)       // view, shares storage with y
//	    h := z.Cast(tensor.Float32) // copy rounded to float32 precision
//	}
//
// # Precision
//
// Storage is always []float64. A Float32 tensor rounds every element to
// single precision after each operation, so results match float32
// arithmetic element by element.
//
// # Devices
//
// Host memory is the only physical storage. The device tag lets layers
// check and move inputs onto the device of their weights with To.
//
// # Errors
//
// Shape mismatches inside operations panic with a message naming the
// operation and both shapes. Constructors that take user data, such as
// FromSlice, return errors instead.
package tensor
