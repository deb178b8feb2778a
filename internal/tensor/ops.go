package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// checkBinary panics unless a and b can be combined element-wise.
func checkBinary(op string, a, b *Tensor) {
	if !a.shape.Equal(b.shape) {
		panic(fmt.Sprintf("%s: shape mismatch %v vs %v", op, a.shape, b.shape))
	}
	if a.device != b.device {
		panic(fmt.Sprintf("%s: device mismatch %s vs %s", op, a.device, b.device))
	}
}

// Round applies t's precision to every element in place and returns t.
func (t *Tensor) Round() *Tensor {
	if t.dtype == Float32 {
		for i, v := range t.data {
			t.data[i] = float64(float32(v))
		}
	}
	return t
}

// Add returns t + other element-wise. The result has t's precision.
func (t *Tensor) Add(other *Tensor) *Tensor {
	checkBinary("add", t, other)
	out := ZerosLike(t)
	floats.AddTo(out.data, t.data, other.data)
	return out.Round()
}

// Sub returns t - other element-wise.
func (t *Tensor) Sub(other *Tensor) *Tensor {
	checkBinary("sub", t, other)
	out := ZerosLike(t)
	floats.SubTo(out.data, t.data, other.data)
	return out.Round()
}

// Mul returns t * other element-wise.
func (t *Tensor) Mul(other *Tensor) *Tensor {
	checkBinary("mul", t, other)
	out := ZerosLike(t)
	floats.MulTo(out.data, t.data, other.data)
	return out.Round()
}

// Scale returns t * s.
func (t *Tensor) Scale(s float64) *Tensor {
	out := ZerosLike(t)
	floats.ScaleTo(out.data, s, t.data)
	return out.Round()
}

// Map returns f applied to every element.
func (t *Tensor) Map(f func(float64) float64) *Tensor {
	out := ZerosLike(t)
	for i, v := range t.data {
		out.data[i] = f(v)
	}
	return out.Round()
}

// Sum returns the sum of all elements.
func (t *Tensor) Sum() float64 {
	return floats.Sum(t.data)
}

// dense wraps a 2D tensor as a gonum matrix sharing its storage.
func (t *Tensor) dense(op string) *mat.Dense {
	if len(t.shape) != 2 {
		panic(fmt.Sprintf("%s: expected 2D tensor, got shape %v", op, t.shape))
	}
	return mat.NewDense(t.shape[0], t.shape[1], t.data)
}

// matmul stores a·b into a fresh (rows, cols) tensor shaped like t.
func (t *Tensor) matmul(a, b mat.Matrix, rows, cols int) *Tensor {
	out := New(Shape{rows, cols}, t.dtype, t.device)
	mat.NewDense(rows, cols, out.data).Mul(a, b)
	return out.Round()
}

// MatMul returns t·other for 2D tensors: [m, k] x [k, n] -> [m, n].
func (t *Tensor) MatMul(other *Tensor) *Tensor {
	a, b := t.dense("matmul"), other.dense("matmul")
	if t.shape[1] != other.shape[0] {
		panic(fmt.Sprintf("matmul: inner dimensions differ %v x %v", t.shape, other.shape))
	}
	if t.device != other.device {
		panic(fmt.Sprintf("matmul: device mismatch %s vs %s", t.device, other.device))
	}
	return t.matmul(a, b, t.shape[0], other.shape[1])
}

// MatMulT returns t·otherᵀ: [m, k] x [n, k]ᵀ -> [m, n].
func (t *Tensor) MatMulT(other *Tensor) *Tensor {
	a, b := t.dense("matmulT"), other.dense("matmulT")
	if t.shape[1] != other.shape[1] {
		panic(fmt.Sprintf("matmulT: inner dimensions differ %v x %vᵀ", t.shape, other.shape))
	}
	if t.device != other.device {
		panic(fmt.Sprintf("matmulT: device mismatch %s vs %s", t.device, other.device))
	}
	return t.matmul(a, b.T(), t.shape[0], other.shape[0])
}

// TMatMul returns tᵀ·other: [k, m]ᵀ x [k, n] -> [m, n].
func (t *Tensor) TMatMul(other *Tensor) *Tensor {
	a, b := t.dense("tmatmul"), other.dense("tmatmul")
	if t.shape[0] != other.shape[0] {
		panic(fmt.Sprintf("tmatmul: inner dimensions differ %vᵀ x %v", t.shape, other.shape))
	}
	if t.device != other.device {
		panic(fmt.Sprintf("tmatmul: device mismatch %s vs %s", t.device, other.device))
	}
	return t.matmul(a.T(), b, t.shape[1], other.shape[1])
}

// Transpose returns a copy of a 2D tensor with rows and columns swapped.
func (t *Tensor) Transpose() *Tensor {
	if len(t.shape) != 2 {
		panic(fmt.Sprintf("transpose: expected 2D tensor, got shape %v", t.shape))
	}
	return t.Permute(1, 0)
}

// AddRowVector adds a [cols] vector to every row of a [rows, cols] tensor.
func (t *Tensor) AddRowVector(v *Tensor) *Tensor {
	rows, cols := t.rowsCols("add row vector")
	if v.NumElements() != cols {
		panic(fmt.Sprintf("add row vector: vector shape %v does not match %v", v.shape, t.shape))
	}
	if t.device != v.device {
		panic(fmt.Sprintf("add row vector: device mismatch %s vs %s", t.device, v.device))
	}
	out := ZerosLike(t)
	for r := 0; r < rows; r++ {
		floats.AddTo(out.data[r*cols:(r+1)*cols], t.data[r*cols:(r+1)*cols], v.data)
	}
	return out.Round()
}

// SumRows sums a [rows, cols] tensor over its first axis, returning [cols].
func (t *Tensor) SumRows() *Tensor {
	rows, cols := t.rowsCols("sum rows")
	out := New(Shape{cols}, t.dtype, t.device)
	for r := 0; r < rows; r++ {
		floats.Add(out.data, t.data[r*cols:(r+1)*cols])
	}
	return out.Round()
}

// MeanRows averages a [rows, cols] tensor over its first axis, returning [cols].
func (t *Tensor) MeanRows() *Tensor {
	rows, _ := t.rowsCols("mean rows")
	sum := t.SumRows()
	floats.Scale(1/float64(rows), sum.data)
	return sum.Round()
}

// ArgmaxRows returns, for each row, the index of its maximum.
// The first maximum wins ties.
func (t *Tensor) ArgmaxRows() []int {
	rows, cols := t.rowsCols("argmax rows")
	idx := make([]int, rows)
	for r := 0; r < rows; r++ {
		idx[r] = floats.MaxIdx(t.data[r*cols : (r+1)*cols])
	}
	return idx
}

// rowsCols validates a 2D tensor and returns its dimensions.
func (t *Tensor) rowsCols(op string) (int, int) {
	if len(t.shape) != 2 {
		panic(fmt.Sprintf("%s: expected 2D tensor, got shape %v", op, t.shape))
	}
	return t.shape[0], t.shape[1]
}

// AllClose reports whether t and other have equal shapes and every element
// pair differs by at most tol.
func (t *Tensor) AllClose(other *Tensor, tol float64) bool {
	if !t.shape.Equal(other.shape) {
		return false
	}
	return floats.EqualApprox(t.data, other.data, tol)
}
