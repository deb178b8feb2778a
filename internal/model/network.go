// Package model composes layers into trainable convolutional networks.
//
// A Network is built from an Architecture, an ordered list of layer specs,
// and owns every Parameter its layers use. Layers hold the same Parameter
// pointers, so optimizer updates and loaded snapshots reach them without
// copying.
//
// Example usage:
//
//	cfg := model.DefaultConfig()
//	net, err := model.NewSimpleCNN(cfg)
//	if err != nil {
//	    return err
//	}
//
//	grads := net.Gradient(x, t)
//	err = optimizer.Update(net.Parameters(), grads)
//
//	result, err := net.AccuracyF1Score(xTest, tTest, 100)
package model

import (
	"fmt"
	"strings"

	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/tensor"
)

// MaxFeatureChannels is the number of leading channels kept per captured
// feature map.
const MaxFeatureChannels = 10

type namedLayer struct {
	name     string
	layer    nn.Layer
	outShape tensor.Shape // per sample
}

type normEntry struct {
	index int // suffix of gamma<i>/beta<i>
	layer *nn.BatchNormalization
}

// Network is an ordered sequence of named layers ending in a softmax loss.
//
// A Network is not safe for concurrent use: every layer caches the
// activations of its last forward pass, and a second forward pass before
// the matching backward pass overwrites them. Parameters must not be
// modified while Gradient runs.
type Network struct {
	arch    Architecture
	config  Config
	layers  []namedLayer
	last    *nn.SoftmaxWithLoss
	params  []*nn.Parameter
	byName  map[string]*nn.Parameter
	norms   []normEntry
	classes int
	runID   string
}

// PredictOptions controls a forward pass.
type PredictOptions struct {
	// Training selects batch statistics in batch normalization and
	// random masks in dropout.
	Training bool

	// Capture records the first channels of sample 0 after every
	// convolution and pooling layer.
	Capture bool
}

// FeatureMap is a captured layer output for visualization.
type FeatureMap struct {
	Layer string
	Maps  *tensor.Tensor // (channels, height, width), at most MaxFeatureChannels channels
}

// Predict runs x through every layer in order and returns the class
// scores before softmax.
func (n *Network) Predict(x *tensor.Tensor, opts PredictOptions) (*tensor.Tensor, []FeatureMap) {
	var maps []FeatureMap
	for _, l := range n.layers {
		x = nn.Run(l.layer, x, opts.Training)
		if opts.Capture && nn.IsFeatureLayer(l.layer) {
			maps = append(maps, capture(l.name, x))
		}
	}
	return x, maps
}

// capture copies the first channels of sample 0 of a (N, C, H, W) output.
func capture(name string, out *tensor.Tensor) FeatureMap {
	c, h, w := out.Dim(1), out.Dim(2), out.Dim(3)
	first := out.Rows(0, 1).Reshape(c, h, w)
	return FeatureMap{Layer: name, Maps: first.Rows(0, min(c, MaxFeatureChannels))}
}

// Loss runs a training-mode forward pass and returns the mean
// cross-entropy against labels t (one-hot or class indices).
func (n *Network) Loss(x, t *tensor.Tensor) float64 {
	y, _ := n.Predict(x, PredictOptions{Training: true})
	return n.last.Forward(y, t)
}

// Gradient computes the loss and backpropagates it through every layer in
// reverse order. The result maps each parameter name to its gradient, which
// is also stored on the Parameter.
func (n *Network) Gradient(x, t *tensor.Tensor) map[string]*tensor.Tensor {
	n.Loss(x, t)

	dout := n.last.Backward(1)
	for i := len(n.layers) - 1; i >= 0; i-- {
		dout = n.layers[i].layer.Backward(dout)
	}

	grads := make(map[string]*tensor.Tensor, len(n.params))
	for _, p := range n.params {
		grads[p.Name()] = p.Grad()
	}
	return grads
}

// LastLoss returns the loss of the most recent Loss or Gradient call.
func (n *Network) LastLoss() float64 {
	return n.last.Loss()
}

// Parameters returns all parameters in creation order.
func (n *Network) Parameters() []*nn.Parameter {
	return n.params
}

// Param returns the parameter with the given name, or nil.
func (n *Network) Param(name string) *nn.Parameter {
	return n.byName[name]
}

// NumParams returns the number of scalar parameters.
func (n *Network) NumParams() int {
	total := 0
	for _, p := range n.params {
		total += p.Tensor().NumElements()
	}
	return total
}

// LayerNames returns the layer names in forward order.
func (n *Network) LayerNames() []string {
	names := make([]string, len(n.layers))
	for i, l := range n.layers {
		names[i] = l.name
	}
	return names
}

// Layer returns the named layer, or nil.
func (n *Network) Layer(name string) nn.Layer {
	for _, l := range n.layers {
		if l.name == name {
			return l.layer
		}
	}
	return nil
}

// Architecture returns the descriptor the network was built from.
func (n *Network) Architecture() Architecture {
	return n.arch
}

// Config returns the construction config.
func (n *Network) Config() Config {
	return n.config
}

// Classes returns the number of output classes.
func (n *Network) Classes() int {
	return n.classes
}

// RunID returns the identifier written into saved parameter headers.
func (n *Network) RunID() string {
	return n.runID
}

// String returns a layer table with per-sample output shapes.
func (n *Network) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s(input=%v, params=%d)\n", n.arch.Name, n.arch.InputDim, n.NumParams())
	for _, l := range n.layers {
		fmt.Fprintf(&sb, "  %-12s %v", l.name, l.outShape)
		if pl, ok := l.layer.(nn.ParamLayer); ok {
			for _, p := range pl.Parameters() {
				fmt.Fprintf(&sb, " %s%v", p.Name(), p.Tensor().Shape())
			}
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %-12s %v\n", "SoftmaxWithLoss", tensor.Shape{n.classes})
	return sb.String()
}
