package tensor

import (
	"fmt"
)

// Tensor is a dense, row-major N-dimensional array.
//
// Images use (batch, channel, height, width); fully connected activations
// use (batch, features). Reshape returns views that share storage with the
// original tensor; every other operation allocates its result.
//
// Example:
//
//	x := tensor.Zeros(tensor.Shape{2, 3, 4, 4})
//	flat := x.Reshape(2, -1) // shape [2, 48], shares data with x
type Tensor struct {
	data   []float64
	shape  Shape
	stride []int
	dtype  DataType
	device Device
}

// New creates a zero-filled tensor with the given shape, precision and device.
// Panics if the shape is invalid.
func New(shape Shape, dtype DataType, device Device) *Tensor {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("tensor.New: invalid shape: %v", err))
	}
	return &Tensor{
		data:   make([]float64, shape.NumElements()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}
}

// Zeros creates a zero-filled float64 tensor on the CPU.
func Zeros(shape Shape) *Tensor {
	return New(shape, Float64, CPU)
}

// ZerosLike creates a zero-filled tensor with t's shape, precision and device.
func ZerosLike(t *Tensor) *Tensor {
	return New(t.shape, t.dtype, t.device)
}

// Full creates a float64 CPU tensor filled with value.
func Full(shape Shape, value float64) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// FromSlice creates a float64 CPU tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t := Zeros(shape)
	copy(t.data, data)
	return t, nil
}

// Shape returns the tensor's shape. The returned slice must not be modified.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Dim returns the size of dimension i. Negative i counts from the end.
func (t *Tensor) Dim(i int) int {
	if i < 0 {
		i += len(t.shape)
	}
	return t.shape[i]
}

// NDim returns the number of dimensions.
func (t *Tensor) NDim() int {
	return len(t.shape)
}

// DType returns the tensor's working precision.
func (t *Tensor) DType() DataType {
	return t.dtype
}

// Device returns the tensor's device tag.
func (t *Tensor) Device() Device {
	return t.device
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Data returns the underlying storage in row-major order.
//
// WARNING: Modifications to the returned slice will modify the tensor
// and every view sharing its storage.
func (t *Tensor) Data() []float64 {
	return t.data
}

// At returns the element at the given indices.
// Panics if indices are out of bounds.
func (t *Tensor) At(indices ...int) float64 {
	return t.data[t.offset(indices)]
}

// Set sets the element at the given indices, applying the tensor's precision.
// Panics if indices are out of bounds.
func (t *Tensor) Set(value float64, indices ...int) {
	t.data[t.offset(indices)] = t.dtype.round(value)
}

func (t *Tensor) offset(indices []int) int {
	if len(indices) != len(t.shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(t.shape), len(indices)))
	}
	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= t.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, t.shape[i]))
		}
		offset += idx * t.stride[i]
	}
	return offset
}

// String returns a human-readable description of the tensor.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor[%s]%v on %s", t.dtype, t.shape, t.device)
}

// Clone creates a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	data := make([]float64, len(t.data))
	copy(data, t.data)
	return &Tensor{
		data:   data,
		shape:  t.shape.Clone(),
		stride: append([]int(nil), t.stride...),
		dtype:  t.dtype,
		device: t.device,
	}
}

// Reshape returns a view with a new shape sharing t's storage.
// One dimension may be -1 and is inferred. Panics on element-count mismatch.
func (t *Tensor) Reshape(dims ...int) *Tensor {
	shape, err := Shape(dims).resolve(len(t.data))
	if err != nil {
		panic(fmt.Sprintf("reshape %v -> %v: %v", t.shape, dims, err))
	}
	return &Tensor{
		data:   t.data,
		shape:  shape,
		stride: shape.ComputeStrides(),
		dtype:  t.dtype,
		device: t.device,
	}
}

// Flatten2D returns a (batch, features) view that keeps the first dimension.
func (t *Tensor) Flatten2D() *Tensor {
	if len(t.shape) == 2 {
		return t
	}
	return t.Reshape(t.shape[0], -1)
}

// Cast returns t converted to dtype. Returns t itself when nothing changes.
func (t *Tensor) Cast(dtype DataType) *Tensor {
	if dtype == t.dtype {
		return t
	}
	out := New(t.shape, dtype, t.device)
	for i, v := range t.data {
		out.data[i] = dtype.round(v)
	}
	return out
}

// To returns t placed on device. Returns t itself when already there.
func (t *Tensor) To(device Device) *Tensor {
	if device == t.device {
		return t
	}
	out := t.Clone()
	out.device = device
	return out
}

// Rows returns a copy of rows [start, end) along the first dimension.
func (t *Tensor) Rows(start, end int) *Tensor {
	if start < 0 || end > t.shape[0] || start >= end {
		panic(fmt.Sprintf("rows [%d, %d) out of range for shape %v", start, end, t.shape))
	}
	rowSize := len(t.data) / t.shape[0]
	shape := t.shape.Clone()
	shape[0] = end - start
	out := New(shape, t.dtype, t.device)
	copy(out.data, t.data[start*rowSize:end*rowSize])
	return out
}

// Take gathers the given rows along the first dimension into a new tensor.
func (t *Tensor) Take(indices []int) *Tensor {
	if len(indices) == 0 {
		panic("take: at least one index required")
	}
	rowSize := len(t.data) / t.shape[0]
	shape := t.shape.Clone()
	shape[0] = len(indices)
	out := New(shape, t.dtype, t.device)
	for i, idx := range indices {
		if idx < 0 || idx >= t.shape[0] {
			panic(fmt.Sprintf("take: index %d out of range for dimension of size %d", idx, t.shape[0]))
		}
		copy(out.data[i*rowSize:(i+1)*rowSize], t.data[idx*rowSize:(idx+1)*rowSize])
	}
	return out
}

// Permute returns a copy of t with its axes reordered.
//
// Example:
//
//	nhwc := nchw.Permute(0, 2, 3, 1)
func (t *Tensor) Permute(axes ...int) *Tensor {
	nd := len(t.shape)
	if len(axes) != nd {
		panic(fmt.Sprintf("permute: expected %d axes, got %d", nd, len(axes)))
	}
	seen := make([]bool, nd)
	newShape := make(Shape, nd)
	srcStride := make([]int, nd)
	for i, a := range axes {
		if a < 0 || a >= nd || seen[a] {
			panic(fmt.Sprintf("permute: invalid axes %v for shape %v", axes, t.shape))
		}
		seen[a] = true
		newShape[i] = t.shape[a]
		srcStride[i] = t.stride[a]
	}

	out := New(newShape, t.dtype, t.device)
	idx := make([]int, nd)
	src := 0
	for dst := range out.data {
		out.data[dst] = t.data[src]
		// Advance the multi-index in output order, tracking the source offset.
		for d := nd - 1; d >= 0; d-- {
			idx[d]++
			src += srcStride[d]
			if idx[d] < newShape[d] {
				break
			}
			src -= srcStride[d] * newShape[d]
			idx[d] = 0
		}
	}
	return out
}
