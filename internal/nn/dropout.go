package nn

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/convnet/internal/tensor"
)

// Dropout randomly zeroes activations during training.
//
// Training keeps each element where a uniform sample exceeds ratio.
// Inference scales the input by (1 - ratio) instead of masking.
type Dropout struct {
	ratio float64
	rng   *rand.Rand
	mask  *tensor.Tensor // 1 where kept, 0 where dropped
}

// NewDropout creates a dropout layer drawing its masks from rng.
func NewDropout(ratio float64, rng *rand.Rand) *Dropout {
	if ratio < 0 || ratio >= 1 {
		panic(fmt.Sprintf("dropout: ratio %v must be in [0, 1)", ratio))
	}
	return &Dropout{ratio: ratio, rng: rng}
}

// Forward applies dropout in training mode.
func (d *Dropout) Forward(x *tensor.Tensor) *tensor.Tensor {
	return d.ForwardMode(x, true)
}

// ForwardMode applies a fresh mask (training) or the (1 - ratio) scale
// (inference).
func (d *Dropout) ForwardMode(x *tensor.Tensor, training bool) *tensor.Tensor {
	if !training {
		return x.Scale(1 - d.ratio)
	}
	d.mask = tensor.ZerosLike(x)
	m := d.mask.Data()
	for i := range m {
		if d.rng.Float64() > d.ratio {
			m[i] = 1
		}
	}
	return x.Mul(d.mask)
}

// Backward multiplies dout by the last training mask.
func (d *Dropout) Backward(dout *tensor.Tensor) *tensor.Tensor {
	if d.mask == nil {
		panic("dropout: backward called before a training forward pass")
	}
	return dout.Reshape(d.mask.Shape()...).Mul(d.mask)
}

// Ratio returns the drop probability.
func (d *Dropout) Ratio() float64 {
	return d.ratio
}
