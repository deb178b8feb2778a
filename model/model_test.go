// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package model_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/born-ml/convnet/model"
	"github.com/born-ml/convnet/tensor"
)

func tinyArchitecture(filters int) model.Architecture {
	return model.Architecture{
		Name:     "Tiny",
		InputDim: tensor.Shape{1, 6, 6},
		Layers: []model.LayerSpec{
			{Kind: model.KindConv, Filters: filters, Kernel: 3, Pad: 1},
			{Kind: model.KindReLU},
			{Kind: model.KindPool, Kernel: 2},
			{Kind: model.KindAffine, Units: 3},
		},
	}
}

func tinyConfig() model.Config {
	cfg := model.DefaultConfig()
	cfg.Model = model.ModelCustom
	cfg.InputDim = []int{1, 6, 6}
	cfg.OutputSize = 3
	return cfg
}

// TestBuild verifies a custom architecture through the public API.
func TestBuild(t *testing.T) {
	net, err := model.Build(tinyArchitecture(2), tinyConfig())
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	wantLayers := []string{"Conv1", "Relu1", "Pool1", "Affine1"}
	got := net.LayerNames()
	if len(got) != len(wantLayers) {
		t.Fatalf("LayerNames() = %v, want %v", got, wantLayers)
	}
	for i := range wantLayers {
		if got[i] != wantLayers[i] {
			t.Errorf("LayerNames()[%d] = %s, want %s", i, got[i], wantLayers[i])
		}
	}

	// 2 filters x 3x3 pooled to 2 x 3 x 3 = 18 inputs.
	if shape := net.Param("W2").Tensor().Shape(); !shape.Equal(tensor.Shape{18, 3}) {
		t.Errorf("W2 shape = %v, want [18 3]", shape)
	}

	x := tensor.Full(tensor.Shape{4, 1, 6, 6}, 0.5)
	y, _ := net.Predict(x, model.PredictOptions{})
	if !y.Shape().Equal(tensor.Shape{4, 3}) {
		t.Errorf("Predict() shape = %v, want [4 3]", y.Shape())
	}
}

func TestNew(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.InputDim = []int{1, 10, 10}
	cfg.ConvParam = model.ConvParam{FilterNum: 3, FilterSize: 3, Stride: 1}
	cfg.HiddenSize = 8
	cfg.OutputSize = 4

	net, err := model.New(cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if net.Classes() != 4 {
		t.Errorf("Classes() = %d, want 4", net.Classes())
	}

	cfg.Model = "resnet"
	if _, err := model.New(cfg); err == nil {
		t.Error("New() with an unknown model should fail")
	}
}

func TestSaveLoadParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.cnet")

	src, err := model.Build(tinyArchitecture(2), tinyConfig())
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if err := src.SaveParams(path); err != nil {
		t.Fatalf("SaveParams() failed: %v", err)
	}

	cfg := tinyConfig()
	cfg.Seed = 7
	dst, err := model.Build(tinyArchitecture(2), cfg)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if err := dst.LoadParams(path); err != nil {
		t.Fatalf("LoadParams() failed: %v", err)
	}
	if !dst.Param("W1").Tensor().AllClose(src.Param("W1").Tensor(), 0) {
		t.Error("LoadParams() did not restore W1")
	}

	wide, err := model.Build(tinyArchitecture(4), tinyConfig())
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if err := wide.LoadParams(path); !errors.Is(err, model.ErrArchitectureMismatch) {
		t.Errorf("LoadParams() error = %v, want ErrArchitectureMismatch", err)
	}
}
