// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training networks.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//
// Optimizers take the gradient map returned by a network, keyed by
// parameter name, and update the parameters in place.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/convnet/model"
//	    "github.com/born-ml/convnet/optim"
//	)
//
//	func main() {
//	    net, _ := model.NewSimpleCNN(model.DefaultConfig())
//	    optimizer := optim.NewAdam(optim.AdamConfig{LR: 0.001})
//
//	    for step := range steps {
//	        grads := net.Gradient(x, t)
//	        if err := optimizer.Update(net.Parameters(), grads); err != nil {
//	            log.Fatal(err)
//	        }
//	    }
//	}
//
// # Optimizers
//
// SGD (Stochastic Gradient Descent):
//
//	optimizer := optim.NewSGD(optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
//
// Adam (Adaptive Moment Estimation):
//
//	optimizer := optim.NewAdam(optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float64{0.9, 0.999},
//	    Eps:   1e-8,
//	})
//
// # Checkpoints
//
// StateDict and LoadStateDict export and restore the optimizer state
// (momentum buffers, Adam moments and timestep) so training can resume.
package optim
