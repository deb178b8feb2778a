package nn

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// Parameter represents a trainable parameter in a network.
//
// A Parameter is shared by pointer between the layer that uses it and the
// network's name-keyed parameter store, so an optimizer update or a
// loaded snapshot is immediately visible to the layer.
//
// Example:
//
//	w := nn.NewParameter("W1", nn.Logistic(tensor.Shape{784, 100}, 0.1, rng, tensor.Float64, tensor.CPU))
//	layer := nn.NewAffine(w, b)
//	...
//	grad := w.Grad() // set by layer.Backward
type Parameter struct {
	name   string
	tensor *tensor.Tensor
	grad   *tensor.Tensor // nil until the first backward pass
}

// NewParameter creates a new trainable parameter.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return &Parameter{name: name, tensor: t}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Tensor {
	return p.tensor
}

// Bind replaces the parameter value with t, keeping the parameter's
// precision and device. The shape must not change.
func (p *Parameter) Bind(t *tensor.Tensor) error {
	if !t.Shape().Equal(p.tensor.Shape()) {
		return fmt.Errorf("parameter %s: shape %v does not match %v", p.name, t.Shape(), p.tensor.Shape())
	}
	p.tensor = t.Cast(p.tensor.DType()).To(p.tensor.Device())
	return nil
}

// Grad returns the gradient tensor.
//
// Returns nil if no gradient has been computed yet.
func (p *Parameter) Grad() *tensor.Tensor {
	return p.grad
}

// SetGrad sets the gradient tensor.
func (p *Parameter) SetGrad(grad *tensor.Tensor) {
	p.grad = grad
}

// ZeroGrad clears the gradient tensor.
func (p *Parameter) ZeroGrad() {
	p.grad = nil
}
