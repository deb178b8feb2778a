package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnet/internal/tensor"
)

// TestPooling_Forward tests 2x2 max pooling with stride 2.
func TestPooling_Forward(t *testing.T) {
	pool := NewPooling(2, 2, 2, 0)
	x := mustTensor(t, []float64{
		1, 2, 5, 6,
		3, 4, 7, 8,
		9, 10, 13, 14,
		11, 12, 15, 16,

		-1, -2, -5, -6,
		-3, -4, -7, -8,
		-9, -10, -13, -14,
		-11, -12, -15, -16,
	}, tensor.Shape{1, 2, 4, 4})

	out := pool.Forward(x)

	require.Equal(t, tensor.Shape{1, 2, 2, 2}, out.Shape())
	assert.Equal(t, []float64{4, 8, 12, 16, -1, -5, -9, -13}, out.Data())
}

// TestPooling_Backward tests that each window's gradient goes to its argmax.
func TestPooling_Backward(t *testing.T) {
	pool := NewPooling(2, 2, 2, 0)
	x := mustTensor(t, []float64{
		1, 2, 5, 6,
		3, 4, 7, 8,
		9, 10, 13, 14,
		11, 12, 15, 16,
	}, tensor.Shape{1, 1, 4, 4})
	pool.Forward(x)

	dx := pool.Backward(mustTensor(t, []float64{10, 20, 30, 40}, tensor.Shape{1, 1, 2, 2}))

	assert.Equal(t, []float64{
		0, 0, 0, 0,
		0, 10, 0, 20,
		0, 0, 0, 0,
		0, 30, 0, 40,
	}, dx.Data())
}

// TestPooling_TieGoesToFirst tests that equal maxima route the gradient to
// the first position only.
func TestPooling_TieGoesToFirst(t *testing.T) {
	pool := NewPooling(2, 2, 2, 0)
	pool.Forward(tensor.Full(tensor.Shape{1, 1, 2, 2}, 3))

	dx := pool.Backward(tensor.Full(tensor.Shape{1, 1, 1, 1}, 1))
	assert.Equal(t, []float64{1, 0, 0, 0}, dx.Data())
}

// TestPooling_Gradient tests Pooling against finite differences.
func TestPooling_Gradient(t *testing.T) {
	rng := newRNG(7)
	x := randn(rng, tensor.Shape{2, 3, 6, 6})

	checkGradients(t, rng, NewPooling(2, 2, 2, 0), x)
	checkGradients(t, rng, NewPooling(3, 3, 2, 1), x)
}

// TestPooling_OutputShape tests the padded output-size formula.
func TestPooling_OutputShape(t *testing.T) {
	assert.Equal(t, tensor.Shape{30, 22, 22}, NewPooling(2, 2, 2, 0).OutputShape(tensor.Shape{30, 44, 44}))
	assert.Equal(t, tensor.Shape{8, 4, 4}, NewPooling(3, 3, 2, 1).OutputShape(tensor.Shape{8, 7, 7}))
	assert.Panics(t, func() { NewPooling(0, 2, 2, 0) })
	assert.Panics(t, func() { NewPooling(2, 2, 2, 0).Backward(tensor.Zeros(tensor.Shape{1})) })
}
