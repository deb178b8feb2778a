package model

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/tensor"
)

// LayerKind names a layer type in an architecture descriptor.
type LayerKind string

// Layer kinds understood by Build.
const (
	KindConv      LayerKind = "conv"
	KindPool      LayerKind = "pool"
	KindReLU      LayerKind = "relu"
	KindSigmoid   LayerKind = "sigmoid"
	KindAffine    LayerKind = "affine"
	KindBatchNorm LayerKind = "batchnorm"
	KindDropout   LayerKind = "dropout"
)

// LayerSpec describes one layer. Only the fields of its kind are read:
//
//	conv:      Filters, Kernel, Stride, Pad
//	pool:      Kernel, Stride, Pad
//	affine:    Units
//	batchnorm: Momentum (0 selects nn.DefaultMomentum)
//	dropout:   Ratio
type LayerSpec struct {
	Kind     LayerKind `yaml:"kind"`
	Name     string    `yaml:"name,omitempty"` // Generated as Conv1, Relu1, ... when empty
	Filters  int       `yaml:"filters,omitempty"`
	Kernel   int       `yaml:"kernel,omitempty"`
	Stride   int       `yaml:"stride,omitempty"`
	Pad      int       `yaml:"pad,omitempty"`
	Units    int       `yaml:"units,omitempty"`
	Ratio    float64   `yaml:"ratio,omitempty"`
	Momentum float64   `yaml:"momentum,omitempty"`
}

// Architecture is an ordered layer list for a given input shape. The
// softmax loss is appended by Build and is not part of the list.
type Architecture struct {
	Name     string
	InputDim tensor.Shape // (channels, height, width)
	Layers   []LayerSpec
}

// builder carries the running state of Build.
type builder struct {
	cfg    Config
	rng    *rand.Rand
	dtype  tensor.DataType
	device tensor.Device
	net    *Network
	counts map[LayerKind]int
	nextW  int // next W<i>/b<i> index
}

// Build creates a network from an architecture descriptor.
//
// Parameters are sized by shape inference over the layer list and drawn
// in layer order from a source seeded with cfg.Seed: weights as
// WeightInitStd * Logistic(0, 1), biases zero, batch-norm gamma one and
// beta zero. Weights and biases are named W1, b1, W2, b2, ... across
// convolution and affine layers; batch-norm parameters gamma1, beta1, ....
// Dropout layers draw their masks from the same source.
//
// The last layer must produce cfg.OutputSize features. A custom config
// without its own layer list takes the layers of arch.
func Build(arch Architecture, cfg Config) (*Network, error) {
	if strings.EqualFold(cfg.Model, ModelCustom) && len(cfg.Layers) == 0 {
		cfg.Layers = arch.Layers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(arch.InputDim) != 3 {
		return nil, fmt.Errorf("architecture %s: input must be (channels, height, width), got %v", arch.Name, arch.InputDim)
	}
	if len(arch.Layers) == 0 {
		return nil, fmt.Errorf("architecture %s has no layers", arch.Name)
	}

	b := &builder{
		cfg:    cfg,
		rng:    newRand(cfg.Seed),
		dtype:  cfg.dtype(),
		device: cfg.device(),
		counts: make(map[LayerKind]int),
		nextW:  1,
		net: &Network{
			arch:    arch,
			config:  cfg,
			last:    nn.NewSoftmaxWithLoss(),
			byName:  make(map[string]*nn.Parameter),
			classes: cfg.OutputSize,
			runID:   uuid.NewString(),
		},
	}

	shape := arch.InputDim.Clone()
	seen := make(map[string]bool, len(arch.Layers))
	for i, spec := range arch.Layers {
		name, layer, out, err := b.add(spec, shape)
		if err != nil {
			return nil, fmt.Errorf("architecture %s: layer %d (%s): %w", arch.Name, i+1, spec.Kind, err)
		}
		if seen[name] {
			return nil, fmt.Errorf("architecture %s: duplicate layer name %q", arch.Name, name)
		}
		seen[name] = true
		b.net.layers = append(b.net.layers, namedLayer{name: name, layer: layer, outShape: out})
		shape = out
	}

	if len(shape) != 1 || shape[0] != cfg.OutputSize {
		return nil, fmt.Errorf("architecture %s: output shape %v does not match %d classes", arch.Name, shape, cfg.OutputSize)
	}
	return b.net, nil
}

// add builds one layer for an input of the given per-sample shape and
// returns its name and per-sample output shape.
func (b *builder) add(spec LayerSpec, in tensor.Shape) (string, nn.Layer, tensor.Shape, error) {
	kind := LayerKind(strings.ToLower(string(spec.Kind)))
	b.counts[kind]++
	name := spec.Name
	if name == "" {
		name = defaultName(kind, b.counts[kind])
	}

	switch kind {
	case KindConv:
		if len(in) != 3 {
			return "", nil, nil, fmt.Errorf("convolution needs (C, H, W) input, got %v", in)
		}
		if spec.Filters <= 0 || spec.Kernel <= 0 || spec.Pad < 0 {
			return "", nil, nil, fmt.Errorf("invalid convolution %+v", spec)
		}
		stride := max(spec.Stride, 1)
		oh, err := outputSize(in[1], spec.Kernel, stride, spec.Pad)
		if err != nil {
			return "", nil, nil, err
		}
		ow, err := outputSize(in[2], spec.Kernel, stride, spec.Pad)
		if err != nil {
			return "", nil, nil, err
		}
		w, bias := b.weights(tensor.Shape{spec.Filters, in[0], spec.Kernel, spec.Kernel}, spec.Filters)
		return name, nn.NewConvolution(w, bias, stride, spec.Pad), tensor.Shape{spec.Filters, oh, ow}, nil

	case KindPool:
		if len(in) != 3 {
			return "", nil, nil, fmt.Errorf("pooling needs (C, H, W) input, got %v", in)
		}
		if spec.Kernel <= 0 || spec.Pad < 0 {
			return "", nil, nil, fmt.Errorf("invalid pooling %+v", spec)
		}
		stride := spec.Stride
		if stride <= 0 {
			stride = spec.Kernel
		}
		oh, err := outputSize(in[1], spec.Kernel, stride, spec.Pad)
		if err != nil {
			return "", nil, nil, err
		}
		ow, err := outputSize(in[2], spec.Kernel, stride, spec.Pad)
		if err != nil {
			return "", nil, nil, err
		}
		return name, nn.NewPooling(spec.Kernel, spec.Kernel, stride, spec.Pad), tensor.Shape{in[0], oh, ow}, nil

	case KindReLU:
		return name, nn.NewReLU(), in, nil

	case KindSigmoid:
		return name, nn.NewSigmoid(), in, nil

	case KindAffine:
		if spec.Units <= 0 {
			return "", nil, nil, fmt.Errorf("affine units must be positive, got %d", spec.Units)
		}
		w, bias := b.weights(tensor.Shape{in.NumElements(), spec.Units}, spec.Units)
		return name, nn.NewAffine(w, bias), tensor.Shape{spec.Units}, nil

	case KindBatchNorm:
		momentum := spec.Momentum
		if momentum == 0 {
			momentum = nn.DefaultMomentum
		}
		if momentum < 0 || momentum >= 1 {
			return "", nil, nil, fmt.Errorf("batchnorm momentum %v must be in [0, 1)", momentum)
		}
		idx := b.counts[kind]
		d := tensor.Shape{in.NumElements()}
		gamma := b.param(fmt.Sprintf("gamma%d", idx), nn.Ones(d, b.dtype, b.device))
		beta := b.param(fmt.Sprintf("beta%d", idx), nn.Zeros(d, b.dtype, b.device))
		bn := nn.NewBatchNormalization(gamma, beta, momentum)
		b.net.norms = append(b.net.norms, normEntry{index: idx, layer: bn})
		return name, bn, in, nil

	case KindDropout:
		if spec.Ratio < 0 || spec.Ratio >= 1 {
			return "", nil, nil, fmt.Errorf("dropout ratio %v must be in [0, 1)", spec.Ratio)
		}
		return name, nn.NewDropout(spec.Ratio, b.rng), in, nil

	default:
		return "", nil, nil, fmt.Errorf("unknown layer kind %q", spec.Kind)
	}
}

// weights creates the next W<i>/b<i> pair.
func (b *builder) weights(shape tensor.Shape, units int) (*nn.Parameter, *nn.Parameter) {
	i := b.nextW
	b.nextW++
	w := b.param(fmt.Sprintf("W%d", i), nn.Logistic(shape, b.cfg.WeightInitStd, b.rng, b.dtype, b.device))
	bias := b.param(fmt.Sprintf("b%d", i), nn.Zeros(tensor.Shape{units}, b.dtype, b.device))
	return w, bias
}

func (b *builder) param(name string, t *tensor.Tensor) *nn.Parameter {
	p := nn.NewParameter(name, t)
	b.net.params = append(b.net.params, p)
	b.net.byName[name] = p
	return p
}

func defaultName(kind LayerKind, n int) string {
	switch kind {
	case KindConv:
		return fmt.Sprintf("Conv%d", n)
	case KindPool:
		return fmt.Sprintf("Pool%d", n)
	case KindReLU:
		return fmt.Sprintf("Relu%d", n)
	case KindSigmoid:
		return fmt.Sprintf("Sigmoid%d", n)
	case KindAffine:
		return fmt.Sprintf("Affine%d", n)
	case KindBatchNorm:
		return fmt.Sprintf("BatchNorm%d", n)
	case KindDropout:
		return fmt.Sprintf("Dropout%d", n)
	default:
		return fmt.Sprintf("%s%d", kind, n)
	}
}

// outputSize is tensor.ConvOutputSize with an error instead of a panic.
func outputSize(in, kernel, stride, pad int) (int, error) {
	if in+2*pad < kernel {
		return 0, fmt.Errorf("kernel %d does not fit input %d with pad %d", kernel, in, pad)
	}
	return tensor.ConvOutputSize(in, kernel, stride, pad), nil
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}
