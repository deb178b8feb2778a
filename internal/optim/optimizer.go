// Package optim implements optimization algorithms for training networks.
//
// This package provides:
//   - Optimizer interface: Apply a name-keyed gradient map to parameters
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Optimizers update parameter tensors in place, so the layers holding the
// same Parameter see the new values on their next forward pass.
//
// Example usage:
//
//	optimizer := optim.NewAdam(optim.AdamConfig{LR: 0.001})
//
//	for step := range steps {
//	    grads := network.Gradient(x, t)
//	    if err := optimizer.Update(network.Parameters(), grads); err != nil {
//	        return err
//	    }
//	}
package optim

import (
	"fmt"
	"strings"

	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Update applies one step to params using grads keyed by parameter
	// name. Parameters without a gradient are skipped.
	Update(params []*nn.Parameter, grads map[string]*tensor.Tensor) error

	// LR returns the current learning rate.
	LR() float64

	// SetLR updates the learning rate.
	SetLR(lr float64)

	// Name returns the optimizer name ("SGD", "Adam").
	Name() string

	// StateDict exports the optimizer state keyed by name.
	StateDict() map[string]*tensor.Tensor

	// LoadStateDict restores state exported by StateDict.
	LoadStateDict(state map[string]*tensor.Tensor) error
}

// Config selects and configures an optimizer, e.g. from a YAML file.
type Config struct {
	Name     string  `yaml:"name"`     // "sgd" or "adam"
	LR       float64 `yaml:"lr"`       // Learning rate
	Momentum float64 `yaml:"momentum"` // SGD only
	Beta1    float64 `yaml:"beta1"`    // Adam only
	Beta2    float64 `yaml:"beta2"`    // Adam only
	Eps      float64 `yaml:"eps"`      // Adam only
}

// New creates the optimizer described by cfg. Zero fields take the
// optimizer's defaults.
func New(cfg Config) (Optimizer, error) {
	switch strings.ToLower(cfg.Name) {
	case "", "adam":
		return NewAdam(AdamConfig{LR: cfg.LR, Betas: [2]float64{cfg.Beta1, cfg.Beta2}, Eps: cfg.Eps}), nil
	case "sgd", "momentum":
		return NewSGD(SGDConfig{LR: cfg.LR, Momentum: cfg.Momentum}), nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", cfg.Name)
	}
}

// update pairs a parameter with its gradient for one step.
type update struct {
	param *nn.Parameter
	grad  []float64
}

// collect matches gradients to parameters, converting each gradient to the
// parameter's precision and device.
func collect(params []*nn.Parameter, grads map[string]*tensor.Tensor) ([]update, error) {
	updates := make([]update, 0, len(params))
	for _, p := range params {
		g, ok := grads[p.Name()]
		if !ok || g == nil {
			continue
		}
		value := p.Tensor()
		if g.NumElements() != value.NumElements() {
			return nil, fmt.Errorf("gradient for %s has shape %v, parameter has %v", p.Name(), g.Shape(), value.Shape())
		}
		g = g.Cast(value.DType()).To(value.Device())
		updates = append(updates, update{param: p, grad: g.Data()})
	}
	return updates, nil
}

// buffer returns the state buffer for p from buffers, creating a zero
// buffer on first use. Buffers restored by LoadStateDict are checked against
// the parameter and moved to its precision and device.
func buffer(buffers map[string]*tensor.Tensor, p *nn.Parameter) (*tensor.Tensor, error) {
	value := p.Tensor()
	b, ok := buffers[p.Name()]
	if !ok {
		b = tensor.ZerosLike(value)
		buffers[p.Name()] = b
		return b, nil
	}
	if b.NumElements() != value.NumElements() {
		return nil, fmt.Errorf("optimizer state for %s has shape %v, parameter has %v", p.Name(), b.Shape(), value.Shape())
	}
	if b.DType() != value.DType() || b.Device() != value.Device() {
		b = b.Cast(value.DType()).To(value.Device())
		buffers[p.Name()] = b
	}
	return b, nil
}
