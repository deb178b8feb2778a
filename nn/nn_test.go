// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/born-ml/convnet/nn"
	"github.com/born-ml/convnet/tensor"
)

// TestLayerInterfaces verifies that concrete types implement the layer interfaces.
func TestLayerInterfaces(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	w := nn.NewParameter("W1", nn.Logistic(tensor.Shape{2, 1, 3, 3}, 0.1, rng, tensor.Float64, tensor.CPU))
	b := nn.NewParameter("b1", nn.Zeros(tensor.Shape{2}, tensor.Float64, tensor.CPU))
	gamma := nn.NewParameter("gamma1", nn.Ones(tensor.Shape{4}, tensor.Float64, tensor.CPU))
	beta := nn.NewParameter("beta1", nn.Zeros(tensor.Shape{4}, tensor.Float64, tensor.CPU))

	tests := []struct {
		name    string
		layer   nn.Layer
		params  bool
		mode    bool
		feature bool
	}{
		{"Convolution", nn.NewConvolution(w, b, 1, 0), true, false, true},
		{"Pooling", nn.NewPooling(2, 2, 2, 0), false, false, true},
		{"BatchNormalization", nn.NewBatchNormalization(gamma, beta, nn.DefaultMomentum), true, true, false},
		{"Dropout", nn.NewDropout(0.5, rng), false, true, false},
		{"ReLU", nn.NewReLU(), false, false, false},
		{"Sigmoid", nn.NewSigmoid(), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := tt.layer.(nn.ParamLayer); ok != tt.params {
				t.Errorf("ParamLayer = %v, want %v", ok, tt.params)
			}
			if _, ok := tt.layer.(nn.ModeLayer); ok != tt.mode {
				t.Errorf("ModeLayer = %v, want %v", ok, tt.mode)
			}
			if got := nn.IsFeatureLayer(tt.layer); got != tt.feature {
				t.Errorf("IsFeatureLayer() = %v, want %v", got, tt.feature)
			}
		})
	}
}

func TestAffineBackward(t *testing.T) {
	wt, _ := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2})
	w := nn.NewParameter("W1", wt)
	b := nn.NewParameter("b1", nn.Zeros(tensor.Shape{2}, tensor.Float64, tensor.CPU))
	layer := nn.NewAffine(w, b)

	x, _ := tensor.FromSlice([]float64{1, 0, -1}, tensor.Shape{1, 3})
	y := layer.Forward(x)
	if y.At(0, 0) != -4 || y.At(0, 1) != -4 {
		t.Fatalf("Forward() = %v, want [[-4 -4]]", y.Data())
	}

	dx := layer.Backward(tensor.Full(tensor.Shape{1, 2}, 1))
	want := []float64{3, 7, 11}
	for i, v := range dx.Data() {
		if v != want[i] {
			t.Errorf("Backward()[%d] = %v, want %v", i, v, want[i])
		}
	}
	if w.Grad() == nil || b.Grad() == nil {
		t.Error("Backward() should set parameter gradients")
	}
}

func TestSoftmaxWithLoss(t *testing.T) {
	loss := nn.NewSoftmaxWithLoss()
	scores := tensor.Zeros(tensor.Shape{2, 4})
	labels, _ := tensor.FromSlice([]float64{1, 3}, tensor.Shape{2})

	// Equal scores give ln(C) up to the log epsilon.
	got := loss.Forward(scores, labels)
	if math.Abs(got-math.Log(4)) > 1e-6 {
		t.Errorf("Forward() = %v, want ln 4", got)
	}
}

func TestParameter_Bind(t *testing.T) {
	p := nn.NewParameter("W1", nn.Zeros(tensor.Shape{2}, tensor.Float32, tensor.CPU))

	if err := p.Bind(tensor.Full(tensor.Shape{2}, 0.1)); err != nil {
		t.Fatalf("Bind() failed: %v", err)
	}
	if p.Tensor().DType() != tensor.Float32 {
		t.Errorf("Bind() dtype = %v, want Float32", p.Tensor().DType())
	}
	if err := p.Bind(tensor.Zeros(tensor.Shape{3})); err == nil {
		t.Error("Bind() with a different shape should fail")
	}
}
