package nn

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/born-ml/convnet/internal/tensor"
)

const gradTol = 1e-5

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func randn(rng *rand.Rand, shape tensor.Shape) *tensor.Tensor {
	t := tensor.Zeros(shape)
	data := t.Data()
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	return t
}

func mustTensor(t *testing.T, data []float64, shape tensor.Shape) *tensor.Tensor {
	t.Helper()
	x, err := tensor.FromSlice(data, shape)
	require.NoError(t, err)
	return x
}

// numericalGrad returns the central-difference gradient of f with respect
// to the elements of x. f must read x through its storage.
func numericalGrad(x *tensor.Tensor, f func() float64) []float64 {
	data := x.Data()
	orig := append([]float64(nil), data...)
	grad := fd.Gradient(nil, func(v []float64) float64 {
		copy(data, v)
		return f()
	}, orig, &fd.Settings{Formula: fd.Central, Step: 1e-5})
	copy(data, orig)
	return grad
}

// checkGradients compares a layer's analytic input and parameter gradients
// against finite differences of L = Σ Forward(x) * r for a random r.
func checkGradients(t *testing.T, rng *rand.Rand, layer Layer, x *tensor.Tensor, params ...*Parameter) {
	t.Helper()

	out := layer.Forward(x)
	r := randn(rng, out.Shape())
	dx := layer.Backward(r)
	require.Equal(t, x.Shape(), dx.Shape(), "input gradient shape")

	analytic := make([][]float64, len(params))
	for i, p := range params {
		require.NotNil(t, p.Grad(), "gradient for %s", p.Name())
		require.Equal(t, p.Tensor().Shape(), p.Grad().Shape(), "gradient shape for %s", p.Name())
		analytic[i] = append([]float64(nil), p.Grad().Data()...)
	}

	loss := func() float64 {
		return layer.Forward(x).Mul(r).Sum()
	}

	assert.InDeltaSlice(t, numericalGrad(x, loss), dx.Data(), gradTol, "dx")
	for i, p := range params {
		assert.InDeltaSlice(t, numericalGrad(p.Tensor(), loss), analytic[i], gradTol, "d%s", p.Name())
	}
}
