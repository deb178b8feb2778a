package optim

import (
	"fmt"
	"strings"

	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/parallel"
	"github.com/born-ml/convnet/internal/tensor"
	"gonum.org/v1/gonum/floats"
)

// SGD implements Stochastic Gradient Descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Example:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
type SGD struct {
	lr         float64
	momentum   float64
	velocities map[string]*tensor.Tensor
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[string]*tensor.Tensor),
	}
}

// Update performs a single optimization step.
//
// Parameters are updated in parallel; each owns its velocity buffer.
func (s *SGD) Update(params []*nn.Parameter, grads map[string]*tensor.Tensor) error {
	updates, err := collect(params, grads)
	if err != nil {
		return err
	}

	velocities := make([]*tensor.Tensor, len(updates))
	if s.momentum != 0 {
		for i, u := range updates {
			v, err := buffer(s.velocities, u.param)
			if err != nil {
				return err
			}
			velocities[i] = v
		}
	}

	parallel.For(len(updates), func(i int) {
		u := updates[i]
		value := u.param.Tensor()
		step := u.grad
		if v := velocities[i]; v != nil {
			floats.Scale(s.momentum, v.Data())
			floats.Add(v.Data(), u.grad)
			v.Round()
			step = v.Data()
		}
		floats.AddScaled(value.Data(), -s.lr, step)
		value.Round()
	}, parallel.CoarseConfig())
	return nil
}

// LR returns the current learning rate.
func (s *SGD) LR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}

// Name returns "SGD".
func (s *SGD) Name() string {
	return "SGD"
}

// StateDict exports velocity buffers as "velocity.<param>".
// Without momentum, returns an empty map.
func (s *SGD) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor, len(s.velocities))
	for name, v := range s.velocities {
		state["velocity."+name] = v.Clone()
	}
	return state
}

// LoadStateDict restores velocity buffers. Shapes are checked against the
// parameters on the next Update.
func (s *SGD) LoadStateDict(state map[string]*tensor.Tensor) error {
	velocities := make(map[string]*tensor.Tensor)
	for key, v := range state {
		name, ok := strings.CutPrefix(key, "velocity.")
		if !ok {
			return fmt.Errorf("unexpected SGD state %q", key)
		}
		velocities[name] = v.Clone()
	}
	s.velocities = velocities
	return nil
}
