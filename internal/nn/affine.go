package nn

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// Affine is a fully connected layer: y = x @ W + b.
//
// Inputs with more than two dimensions are flattened to (batch, features)
// first, and the input gradient is reshaped back to the original shape.
// Inputs are cast to the weight's precision and device before use.
//
// Weight has shape [in_features, out_features], bias [out_features].
type Affine struct {
	weight *Parameter
	bias   *Parameter

	x             *tensor.Tensor // flattened forward input
	originalShape tensor.Shape
}

// NewAffine creates a fully connected layer from existing parameters.
// Panics if the parameter shapes are inconsistent.
func NewAffine(weight, bias *Parameter) *Affine {
	w, b := weight.Tensor().Shape(), bias.Tensor().Shape()
	if len(w) != 2 || b.NumElements() != w[1] {
		panic(fmt.Sprintf("affine: weight %v and bias %v are inconsistent", w, b))
	}
	return &Affine{weight: weight, bias: bias}
}

// Forward computes x @ W + b.
func (a *Affine) Forward(x *tensor.Tensor) *tensor.Tensor {
	w := a.weight.Tensor()
	a.originalShape = x.Shape().Clone()
	flat := x.Flatten2D().Cast(w.DType()).To(w.Device())
	if flat.Dim(1) != w.Dim(0) {
		panic(fmt.Sprintf("affine: input features %d do not match weight %v", flat.Dim(1), w.Shape()))
	}
	a.x = flat
	return flat.MatMul(w).AddRowVector(a.bias.Tensor())
}

// Backward computes dx = dout @ Wᵀ, dW = xᵀ @ dout and db = Σ dout.
func (a *Affine) Backward(dout *tensor.Tensor) *tensor.Tensor {
	if a.x == nil {
		panic("affine: backward called before forward")
	}
	dout = dout.Flatten2D()
	a.weight.SetGrad(a.x.TMatMul(dout))
	a.bias.SetGrad(dout.SumRows())
	return dout.MatMulT(a.weight.Tensor()).Reshape(a.originalShape...)
}

// Parameters returns [weight, bias].
func (a *Affine) Parameters() []*Parameter {
	return []*Parameter{a.weight, a.bias}
}

// InFeatures returns the number of input features.
func (a *Affine) InFeatures() int {
	return a.weight.Tensor().Dim(0)
}

// OutFeatures returns the number of output features.
func (a *Affine) OutFeatures() int {
	return a.weight.Tensor().Dim(1)
}
