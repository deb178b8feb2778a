// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/convnet/internal/tensor"
)

// Type aliases for public API

// DataType is the working precision tag of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float64 DataType = tensor.Float64
	Float32 DataType = tensor.Float32
)

// Device represents the device a tensor is placed on.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	CUDA   Device = tensor.CUDA
	Vulkan Device = tensor.Vulkan
	Metal  Device = tensor.Metal
	WebGPU Device = tensor.WebGPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Tensor is a dense row-major N-d tensor.
//
// Storage is float64; a Float32 tensor keeps every element rounded to
// single precision. Reshape returns a view sharing storage, every other
// operation returns a new tensor.
//
// Example:
//
//	x := tensor.Zeros(tensor.Shape{2, 3})
//	x.Set(1.5, 0, 2)
//	y := x.MatMul(tensor.Full(tensor.Shape{3, 4}, 1))
type Tensor = tensor.Tensor

// New creates a zero tensor with the given precision and device.
func New(shape Shape, dtype DataType, device Device) *Tensor {
	return tensor.New(shape, dtype, device)
}

// Zeros creates a float64 CPU tensor filled with zeros.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// ZerosLike creates a zero tensor with t's shape, precision and device.
func ZerosLike(t *Tensor) *Tensor {
	return tensor.ZerosLike(t)
}

// Full creates a float64 CPU tensor filled with value.
func Full(shape Shape, value float64) *Tensor {
	return tensor.Full(shape, value)
}

// FromSlice creates a float64 CPU tensor from data in row-major order.
//
// Example:
//
//	x, err := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// ParseDevice converts "cpu", "cuda", "vulkan", "metal" or "webgpu" to a
// Device.
func ParseDevice(s string) (Device, error) {
	return tensor.ParseDevice(s)
}

// ParseDataType converts "float32" or "float64" to a DataType.
func ParseDataType(s string) (DataType, error) {
	return tensor.ParseDataType(s)
}

// Im2Col unfolds (N, C, H, W) image patches into rows of a
// (N*outH*outW, C*kH*kW) matrix.
func Im2Col(x *Tensor, kH, kW, stride, pad int) *Tensor {
	return tensor.Im2Col(x, kH, kW, stride, pad)
}

// Col2Im folds a column matrix back into an image of the given shape,
// summing overlapping patches. It is the adjoint of Im2Col.
func Col2Im(col *Tensor, shape Shape, kH, kW, stride, pad int) *Tensor {
	return tensor.Col2Im(col, shape, kH, kW, stride, pad)
}

// ConvOutputSize returns the output length of a convolution or pooling
// window along one axis.
func ConvOutputSize(in, kernel, stride, pad int) int {
	return tensor.ConvOutputSize(in, kernel, stride, pad)
}
