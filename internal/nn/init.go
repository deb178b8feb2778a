package nn

import (
	"math"
	"math/rand/v2"

	"github.com/born-ml/convnet/internal/tensor"
)

// Logistic initializes a tensor with std * Logistic(0, 1) samples.
//
// Samples are drawn by inverse transform, log(u / (1 - u)) for u in (0, 1),
// so the same rng state always produces the same weights.
//
// Parameters:
//   - shape: Shape of the tensor
//   - std: Scale applied to every sample (weight_init_std)
//   - rng: Source of randomness
//   - dtype, device: Precision and placement of the result
func Logistic(shape tensor.Shape, std float64, rng *rand.Rand, dtype tensor.DataType, device tensor.Device) *tensor.Tensor {
	t := tensor.New(shape, dtype, device)
	data := t.Data()
	for i := range data {
		u := rng.Float64()
		for u == 0 {
			u = rng.Float64()
		}
		data[i] = std * math.Log(u/(1-u))
	}
	return t.Round()
}

// Zeros creates a zero-filled tensor. Used for biases and BN shift.
func Zeros(shape tensor.Shape, dtype tensor.DataType, device tensor.Device) *tensor.Tensor {
	return tensor.New(shape, dtype, device)
}

// Ones creates a tensor filled with ones. Used for BN scale.
func Ones(shape tensor.Shape, dtype tensor.DataType, device tensor.Device) *tensor.Tensor {
	t := tensor.New(shape, dtype, device)
	data := t.Data()
	for i := range data {
		data[i] = 1
	}
	return t
}
