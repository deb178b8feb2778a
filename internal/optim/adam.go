package optim

import (
	"fmt"
	"math"
	"strings"

	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/parallel"
	"github.com/born-ml/convnet/internal/tensor"
)

// stepKey names the timestep entry in Adam's state dict.
const stepKey = "adam.step"

// Adam implements the Adam optimizer (Adaptive Moment Estimation).
//
// Adam combines momentum with adaptive per-parameter learning rates:
//
//	m_t = β1 * m_{t-1} + (1 - β1) * g_t
//	v_t = β2 * v_{t-1} + (1 - β2) * g_t²
//	m̂_t = m_t / (1 - β1^t)
//	v̂_t = v_t / (1 - β2^t)
//	θ_t = θ_{t-1} - α * m̂_t / (√v̂_t + ε)
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64
	t     int                       // Timestep for bias correction
	m     map[string]*tensor.Tensor // First moment estimates
	v     map[string]*tensor.Tensor // Second moment estimates
}

// AdamConfig holds configuration for the Adam optimizer.
type AdamConfig struct {
	LR    float64    // Learning rate (default: 0.001)
	Betas [2]float64 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float64    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer.
func NewAdam(config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam{
		lr:    config.LR,
		beta1: config.Betas[0],
		beta2: config.Betas[1],
		eps:   config.Eps,
		m:     make(map[string]*tensor.Tensor),
		v:     make(map[string]*tensor.Tensor),
	}
}

// Update performs a single optimization step with bias-corrected moments.
func (a *Adam) Update(params []*nn.Parameter, grads map[string]*tensor.Tensor) error {
	updates, err := collect(params, grads)
	if err != nil {
		return err
	}

	ms := make([]*tensor.Tensor, len(updates))
	vs := make([]*tensor.Tensor, len(updates))
	for i, u := range updates {
		if ms[i], err = buffer(a.m, u.param); err != nil {
			return err
		}
		if vs[i], err = buffer(a.v, u.param); err != nil {
			return err
		}
	}

	a.t++
	biasCorrection1 := 1.0 - math.Pow(a.beta1, float64(a.t))
	biasCorrection2 := 1.0 - math.Pow(a.beta2, float64(a.t))

	parallel.For(len(updates), func(i int) {
		a.updateParameter(updates[i], ms[i], vs[i], biasCorrection1, biasCorrection2)
	}, parallel.CoarseConfig())
	return nil
}

func (a *Adam) updateParameter(u update, m, v *tensor.Tensor, biasCorrection1, biasCorrection2 float64) {
	value := u.param.Tensor()
	paramData := value.Data()
	mData := m.Data()
	vData := v.Data()

	for i, g := range u.grad {
		mData[i] = a.beta1*mData[i] + (1.0-a.beta1)*g
		vData[i] = a.beta2*vData[i] + (1.0-a.beta2)*g*g

		mHat := mData[i] / biasCorrection1
		vHat := vData[i] / biasCorrection2

		paramData[i] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
	}
	m.Round()
	v.Round()
	value.Round()
}

// LR returns the current learning rate.
func (a *Adam) LR() float64 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float64) {
	a.lr = lr
}

// Name returns "Adam".
func (a *Adam) Name() string {
	return "Adam"
}

// Step returns the number of updates applied so far.
func (a *Adam) Step() int {
	return a.t
}

// StateDict exports moments as "m.<param>" and "v.<param>" plus the
// timestep under "adam.step".
func (a *Adam) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor, 2*len(a.m)+1)
	for name, m := range a.m {
		state["m."+name] = m.Clone()
	}
	for name, v := range a.v {
		state["v."+name] = v.Clone()
	}
	state[stepKey] = tensor.Full(tensor.Shape{1}, float64(a.t))
	return state
}

// LoadStateDict restores moments and the timestep.
func (a *Adam) LoadStateDict(state map[string]*tensor.Tensor) error {
	m := make(map[string]*tensor.Tensor)
	v := make(map[string]*tensor.Tensor)
	t := 0
	for key, value := range state {
		if key == stepKey {
			if value.NumElements() != 1 {
				return fmt.Errorf("%s must hold one value, got shape %v", stepKey, value.Shape())
			}
			t = int(value.Data()[0])
			continue
		}
		if name, ok := strings.CutPrefix(key, "m."); ok {
			m[name] = value.Clone()
			continue
		}
		if name, ok := strings.CutPrefix(key, "v."); ok {
			v[name] = value.Clone()
			continue
		}
		return fmt.Errorf("unexpected Adam state %q", key)
	}
	if len(m) != len(v) {
		return fmt.Errorf("adam state has %d first moments and %d second moments", len(m), len(v))
	}
	a.m, a.v, a.t = m, v, t
	return nil
}
