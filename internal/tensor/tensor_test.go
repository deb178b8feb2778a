package tensor

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomTensor(rng *rand.Rand, shape Shape) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		t.data[i] = rng.NormFloat64()
	}
	return t
}

// TestShape_Resolve tests -1 inference in reshape.
func TestShape_Resolve(t *testing.T) {
	tests := []struct {
		name    string
		shape   Shape
		n       int
		want    Shape
		wantErr bool
	}{
		{"no inference", Shape{2, 3}, 6, Shape{2, 3}, false},
		{"infer last", Shape{2, -1}, 12, Shape{2, 6}, false},
		{"infer first", Shape{-1, 4}, 12, Shape{3, 4}, false},
		{"two inferred", Shape{-1, -1}, 4, nil, true},
		{"not divisible", Shape{5, -1}, 12, nil, true},
		{"count mismatch", Shape{2, 2}, 5, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.shape.resolve(tt.n)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestTensor_FromSlice tests construction and element access.
func TestTensor_FromSlice(t *testing.T) {
	x, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	require.NoError(t, err)

	assert.Equal(t, Shape{2, 3}, x.Shape())
	assert.Equal(t, Float64, x.DType())
	assert.Equal(t, CPU, x.Device())
	assert.Equal(t, 6.0, x.At(1, 2))
	assert.Equal(t, 2.0, x.At(0, 1))

	_, err = FromSlice([]float64{1, 2, 3}, Shape{2, 2})
	assert.Error(t, err)
}

// TestTensor_ReshapeSharesStorage tests that reshape is a view.
func TestTensor_ReshapeSharesStorage(t *testing.T) {
	x := Zeros(Shape{2, 3, 2, 2})
	flat := x.Reshape(2, -1)

	assert.Equal(t, Shape{2, 12}, flat.Shape())
	flat.Set(7, 1, 11)
	assert.Equal(t, 7.0, x.At(1, 2, 1, 1))

	assert.Panics(t, func() { x.Reshape(5, -1) })
}

// TestTensor_Cast tests precision rounding.
func TestTensor_Cast(t *testing.T) {
	x, err := FromSlice([]float64{0.1, 1.0 / 3.0}, Shape{2})
	require.NoError(t, err)

	f32 := x.Cast(Float32)
	assert.Equal(t, Float32, f32.DType())
	assert.Equal(t, float64(float32(0.1)), f32.Data()[0])
	assert.Equal(t, float64(float32(1.0/3.0)), f32.Data()[1])

	// No-op cast returns the same tensor.
	assert.Same(t, x, x.Cast(Float64))
}

// TestTensor_To tests device moves.
func TestTensor_To(t *testing.T) {
	x := Full(Shape{2, 2}, 1.5)
	y := x.To(CUDA)

	assert.Equal(t, CUDA, y.Device())
	assert.Equal(t, x.Data(), y.Data())
	assert.Same(t, y, y.To(CUDA))

	// Combining tensors on different devices is a contract violation.
	assert.Panics(t, func() { x.Add(y) })
}

// TestTensor_Permute tests axis reordering.
func TestTensor_Permute(t *testing.T) {
	x, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	require.NoError(t, err)

	xt := x.Transpose()
	assert.Equal(t, Shape{3, 2}, xt.Shape())
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, xt.Data())

	rng := rand.New(rand.NewPCG(1, 2))
	img := randomTensor(rng, Shape{2, 3, 4, 5})
	nhwc := img.Permute(0, 2, 3, 1)
	assert.Equal(t, Shape{2, 4, 5, 3}, nhwc.Shape())
	assert.Equal(t, img.At(1, 2, 3, 4), nhwc.At(1, 3, 4, 2))

	back := nhwc.Permute(0, 3, 1, 2)
	assert.Equal(t, img.Data(), back.Data())

	assert.Panics(t, func() { img.Permute(0, 1, 1, 2) })
}

// TestTensor_RowsAndTake tests batching helpers.
func TestTensor_RowsAndTake(t *testing.T) {
	x, err := FromSlice([]float64{0, 1, 2, 3, 4, 5, 6, 7}, Shape{4, 2})
	require.NoError(t, err)

	rows := x.Rows(1, 3)
	assert.Equal(t, Shape{2, 2}, rows.Shape())
	assert.Equal(t, []float64{2, 3, 4, 5}, rows.Data())

	taken := x.Take([]int{3, 0})
	assert.Equal(t, []float64{6, 7, 0, 1}, taken.Data())

	assert.Panics(t, func() { x.Rows(3, 5) })
	assert.Panics(t, func() { x.Take([]int{4}) })
}

// TestTensor_MatMul tests the three matmul layouts against each other.
func TestTensor_MatMul(t *testing.T) {
	a, _ := FromSlice([]float64{1, 2, 3, 4}, Shape{2, 2})
	b, _ := FromSlice([]float64{5, 6, 7, 8}, Shape{2, 2})

	c := a.MatMul(b)
	assert.Equal(t, []float64{19, 22, 43, 50}, c.Data())

	rng := rand.New(rand.NewPCG(3, 4))
	x := randomTensor(rng, Shape{4, 3})
	y := randomTensor(rng, Shape{5, 3})
	z := randomTensor(rng, Shape{4, 2})

	assert.True(t, x.MatMulT(y).AllClose(x.MatMul(y.Transpose()), 1e-12))
	assert.True(t, x.TMatMul(z).AllClose(x.Transpose().MatMul(z), 1e-12))

	assert.Panics(t, func() { x.MatMul(y) })
}

// TestTensor_RowReductions tests SumRows, MeanRows, ArgmaxRows and AddRowVector.
func TestTensor_RowReductions(t *testing.T) {
	x, _ := FromSlice([]float64{1, 5, 3, 4, 2, 4}, Shape{2, 3})

	assert.Equal(t, []float64{5, 7, 7}, x.SumRows().Data())
	assert.Equal(t, []float64{2.5, 3.5, 3.5}, x.MeanRows().Data())

	// Ties resolve to the first maximum.
	assert.Equal(t, []int{1, 0}, x.ArgmaxRows())

	v, _ := FromSlice([]float64{10, 20, 30}, Shape{3})
	assert.Equal(t, []float64{11, 25, 33, 14, 22, 34}, x.AddRowVector(v).Data())
}

// TestTensor_Float32Arithmetic tests that results keep single precision.
func TestTensor_Float32Arithmetic(t *testing.T) {
	a := Full(Shape{3}, 0.1).Cast(Float32)
	b := Full(Shape{3}, 0.2).Cast(Float32)

	sum := a.Add(b)
	for _, v := range sum.Data() {
		assert.Equal(t, float64(float32(v)), v)
	}
	assert.InDelta(t, 0.3, sum.Data()[0], 1e-7)
	assert.False(t, math.IsNaN(sum.Sum()))
}
