package nn

import (
	"github.com/born-ml/convnet/internal/tensor"
)

// ReLU applies max(0, x) element-wise.
//
// Backward passes the gradient through where the input was positive and
// zeroes it where the input was <= 0.
type ReLU struct {
	mask []bool // true where x <= 0
}

// NewReLU creates a new ReLU activation layer.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward applies ReLU and records the non-positive positions.
func (r *ReLU) Forward(x *tensor.Tensor) *tensor.Tensor {
	out := x.Clone()
	data := out.Data()
	r.mask = make([]bool, len(data))
	for i, v := range data {
		if v <= 0 {
			r.mask[i] = true
			data[i] = 0
		}
	}
	return out
}

// Backward zeroes dout where the forward input was non-positive.
func (r *ReLU) Backward(dout *tensor.Tensor) *tensor.Tensor {
	if r.mask == nil {
		panic("relu: backward called before forward")
	}
	if dout.NumElements() != len(r.mask) {
		panic("relu: gradient size does not match forward input")
	}
	dx := dout.Clone()
	data := dx.Data()
	for i, masked := range r.mask {
		if masked {
			data[i] = 0
		}
	}
	return dx
}

// SigmoidLayer applies the logistic function 1 / (1 + exp(-x)).
type SigmoidLayer struct {
	out *tensor.Tensor
}

// NewSigmoid creates a new sigmoid activation layer.
func NewSigmoid() *SigmoidLayer {
	return &SigmoidLayer{}
}

// Forward applies the sigmoid and caches its output.
func (s *SigmoidLayer) Forward(x *tensor.Tensor) *tensor.Tensor {
	s.out = Sigmoid(x)
	return s.out
}

// Backward computes dout * out * (1 - out).
func (s *SigmoidLayer) Backward(dout *tensor.Tensor) *tensor.Tensor {
	if s.out == nil {
		panic("sigmoid: backward called before forward")
	}
	grad := s.out.Map(func(y float64) float64 { return y * (1 - y) })
	return dout.Reshape(s.out.Shape()...).Mul(grad)
}
