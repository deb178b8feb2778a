package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/convnet/internal/tensor"
)

// BatchNormEpsilon is added to the variance before the square root.
const BatchNormEpsilon = 1e-7

// DefaultMomentum is the running-statistics momentum used by the builders.
const DefaultMomentum = 0.9

// BatchNormalization normalizes each feature over the batch.
//
// Inputs with more than two dimensions are flattened to (N, D), so a conv
// activation [N, C, H, W] is normalized per element with D = C*H*W.
//
// Training:
//
//	mu = mean(x), var = mean((x - mu)^2)
//	xn = (x - mu) / sqrt(var + eps)
//	out = gamma * xn + beta
//	running = momentum * running + (1 - momentum) * batch
//
// Inference uses the running statistics only and leaves the backward cache
// of the last training pass untouched. The statistics start at zero and
// are allocated on the first forward pass.
type BatchNormalization struct {
	gamma    *Parameter
	beta     *Parameter
	momentum float64

	runningMean *tensor.Tensor
	runningVar  *tensor.Tensor

	// Forward cache.
	inputShape tensor.Shape
	xc         []float64 // x - mu, (N, D)
	xn         []float64 // normalized x, (N, D)
	std        []float64 // (D)
}

// NewBatchNormalization creates a batch normalization layer.
// gamma and beta must have the same number of elements.
func NewBatchNormalization(gamma, beta *Parameter, momentum float64) *BatchNormalization {
	if gamma.Tensor().NumElements() != beta.Tensor().NumElements() {
		panic(fmt.Sprintf("batchnorm: gamma %v and beta %v are inconsistent", gamma.Tensor().Shape(), beta.Tensor().Shape()))
	}
	return &BatchNormalization{gamma: gamma, beta: beta, momentum: momentum}
}

// Forward normalizes x in training mode.
func (bn *BatchNormalization) Forward(x *tensor.Tensor) *tensor.Tensor {
	return bn.ForwardMode(x, true)
}

// ForwardMode normalizes x with batch statistics (training) or running
// statistics (inference).
func (bn *BatchNormalization) ForwardMode(x *tensor.Tensor, training bool) *tensor.Tensor {
	g := bn.gamma.Tensor()
	shape := x.Shape().Clone()
	x2 := x.Flatten2D().Cast(g.DType()).To(g.Device())
	n, d := x2.Dim(0), x2.Dim(1)
	if d != g.NumElements() {
		panic(fmt.Sprintf("batchnorm: %d features do not match gamma %v", d, g.Shape()))
	}
	if bn.runningMean == nil {
		bn.runningMean = tensor.New(tensor.Shape{d}, g.DType(), g.Device())
		bn.runningVar = tensor.New(tensor.Shape{d}, g.DType(), g.Device())
	}

	xd := x2.Data()
	mean := make([]float64, d)
	std := make([]float64, d)
	if training {
		variance := make([]float64, d)
		for i := 0; i < n; i++ {
			for j := 0; j < d; j++ {
				mean[j] += xd[i*d+j]
			}
		}
		for j := range mean {
			mean[j] /= float64(n)
		}
		for i := 0; i < n; i++ {
			for j := 0; j < d; j++ {
				c := xd[i*d+j] - mean[j]
				variance[j] += c * c
			}
		}
		rm, rv := bn.runningMean.Data(), bn.runningVar.Data()
		for j := range variance {
			variance[j] /= float64(n)
			std[j] = math.Sqrt(variance[j] + BatchNormEpsilon)
			rm[j] = bn.momentum*rm[j] + (1-bn.momentum)*mean[j]
			rv[j] = bn.momentum*rv[j] + (1-bn.momentum)*variance[j]
		}
		bn.runningMean.Round()
		bn.runningVar.Round()
	} else {
		copy(mean, bn.runningMean.Data())
		for j, v := range bn.runningVar.Data() {
			std[j] = math.Sqrt(v + BatchNormEpsilon)
		}
	}

	xc := make([]float64, n*d)
	xn := make([]float64, n*d)
	out := tensor.New(tensor.Shape{n, d}, g.DType(), g.Device())
	od, gd, bd := out.Data(), g.Data(), bn.beta.Tensor().Data()
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			k := i*d + j
			xc[k] = xd[k] - mean[j]
			xn[k] = xc[k] / std[j]
			od[k] = gd[j]*xn[k] + bd[j]
		}
	}
	if training {
		bn.inputShape, bn.xc, bn.xn, bn.std = shape, xc, xn, std
	}
	return out.Round().Reshape(shape...)
}

// Backward computes the gamma, beta and input gradients.
//
//	dbeta = Σ dout, dgamma = Σ xn * dout
//	dxc = gamma * dout / std + (2/N) * xc * dvar
//	dvar = -0.5 * Σ(gamma * dout * xc / std^2) / std
//	dx = dxc - Σ dxc / N
func (bn *BatchNormalization) Backward(dout *tensor.Tensor) *tensor.Tensor {
	if bn.xn == nil {
		panic("batchnorm: backward called before forward")
	}
	g := bn.gamma.Tensor()
	d := g.NumElements()
	n := len(bn.xn) / d
	if dout.NumElements() != n*d {
		panic(fmt.Sprintf("batchnorm: gradient %v does not match forward input %v", dout.Shape(), bn.inputShape))
	}
	dd, gd := dout.Data(), g.Data()

	dbeta := tensor.New(tensor.Shape{d}, g.DType(), g.Device())
	dgamma := tensor.New(tensor.Shape{d}, g.DType(), g.Device())
	dbd, dgd := dbeta.Data(), dgamma.Data()
	dstd := make([]float64, d)
	dxc := make([]float64, n*d)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			k := i*d + j
			dbd[j] += dd[k]
			dgd[j] += bn.xn[k] * dd[k]
			dxn := gd[j] * dd[k]
			dxc[k] = dxn / bn.std[j]
			dstd[j] -= dxn * bn.xc[k] / (bn.std[j] * bn.std[j])
		}
	}

	dmu := make([]float64, d)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			k := i*d + j
			dvar := 0.5 * dstd[j] / bn.std[j]
			dxc[k] += (2 / float64(n)) * bn.xc[k] * dvar
			dmu[j] += dxc[k]
		}
	}

	dx := tensor.New(tensor.Shape{n, d}, g.DType(), g.Device())
	dxd := dx.Data()
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			k := i*d + j
			dxd[k] = dxc[k] - dmu[j]/float64(n)
		}
	}

	bn.gamma.SetGrad(dgamma.Round())
	bn.beta.SetGrad(dbeta.Round())
	return dx.Round().Reshape(bn.inputShape...)
}

// Parameters returns [gamma, beta].
func (bn *BatchNormalization) Parameters() []*Parameter {
	return []*Parameter{bn.gamma, bn.beta}
}

// RunningMean returns the running mean, or nil before the first forward pass.
func (bn *BatchNormalization) RunningMean() *tensor.Tensor {
	return bn.runningMean
}

// RunningVar returns the running variance, or nil before the first forward pass.
func (bn *BatchNormalization) RunningVar() *tensor.Tensor {
	return bn.runningVar
}

// SetRunningStats replaces the running statistics, as when restoring a
// saved model.
func (bn *BatchNormalization) SetRunningStats(mean, variance *tensor.Tensor) error {
	d := bn.gamma.Tensor().NumElements()
	if mean.NumElements() != d || variance.NumElements() != d {
		return fmt.Errorf("batchnorm: running stats %v, %v do not match %d features", mean.Shape(), variance.Shape(), d)
	}
	g := bn.gamma.Tensor()
	bn.runningMean = mean.Reshape(d).Cast(g.DType()).To(g.Device())
	bn.runningVar = variance.Reshape(d).Cast(g.DType()).To(g.Device())
	return nil
}
