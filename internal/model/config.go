package model

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/convnet/internal/tensor"
)

// Model names accepted by Config.Model.
const (
	ModelSimpleCNN = "simple_cnn"
	ModelVGG16     = "vgg16"
	ModelCustom    = "custom"
)

// DefaultSeed seeds weight initialization and dropout masks when the config
// does not set one.
const DefaultSeed = 43

// ConvParam configures the convolution of the simple CNN.
type ConvParam struct {
	FilterNum  int `yaml:"filter_num"`
	FilterSize int `yaml:"filter_size"`
	Pad        int `yaml:"pad"`
	Stride     int `yaml:"stride"`
}

// VGGConfig scales and extends the VGG16 architecture.
type VGGConfig struct {
	BaseFilters int     `yaml:"base_filters"` // Width of the first block; later blocks use 2x, 4x, 8x, 8x
	FCHidden    int     `yaml:"fc_hidden"`    // Width of both hidden fully connected layers
	BatchNorm   bool    `yaml:"batch_norm"`   // Insert batch normalization after every convolution
	Dropout     float64 `yaml:"dropout"`      // Dropout ratio after each hidden affine (0 disables)
}

// Config holds network construction options.
//
// Zero values in a YAML file leave the defaults of DefaultConfig in place,
// so a file only needs the options it changes:
//
//	model: vgg16
//	input_dim: [3, 32, 32]
//	output_size: 10
//	vgg:
//	  base_filters: 16
//	  fc_hidden: 256
type Config struct {
	Model         string      `yaml:"model"`
	InputDim      []int       `yaml:"input_dim"` // (channels, height, width)
	ConvParam     ConvParam   `yaml:"conv_param"`
	HiddenSize    int         `yaml:"hidden_size"`
	OutputSize    int         `yaml:"output_size"` // Number of classes
	WeightInitStd float64     `yaml:"weight_init_std"`
	Device        string      `yaml:"device"`
	DType         string      `yaml:"dtype"`
	Visualize     bool        `yaml:"visualize"` // Capture feature maps during final evaluation
	Seed          uint64      `yaml:"seed"`
	VGG           VGGConfig   `yaml:"vgg"`
	Layers        []LayerSpec `yaml:"layers"` // Layer list for ModelCustom
}

// DefaultConfig returns the default configuration: a simple CNN for
// 3x48x48 images and 43 classes.
func DefaultConfig() Config {
	return Config{
		Model:         ModelSimpleCNN,
		InputDim:      []int{3, 48, 48},
		ConvParam:     ConvParam{FilterNum: 30, FilterSize: 5, Pad: 0, Stride: 1},
		HiddenSize:    100,
		OutputSize:    43,
		WeightInitStd: 0.1,
		Device:        "cpu",
		DType:         "float64",
		Seed:          DefaultSeed,
		VGG: VGGConfig{
			BaseFilters: 64,
			FCHidden:    4096,
		},
	}
}

// LoadConfig reads a YAML config file over DefaultConfig and validates it.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first malformed option.
func (c Config) Validate() error {
	switch strings.ToLower(c.Model) {
	case ModelSimpleCNN, ModelVGG16:
	case ModelCustom:
		if len(c.Layers) == 0 {
			return fmt.Errorf("invalid config: model %q needs layers", c.Model)
		}
	default:
		return fmt.Errorf("invalid config: unknown model %q", c.Model)
	}
	if len(c.InputDim) != 3 {
		return fmt.Errorf("invalid config: input_dim must be (channels, height, width), got %v", c.InputDim)
	}
	for _, d := range c.InputDim {
		if d <= 0 {
			return fmt.Errorf("invalid config: input_dim %v must be positive", c.InputDim)
		}
	}
	if c.OutputSize <= 0 {
		return fmt.Errorf("invalid config: output_size must be positive, got %d", c.OutputSize)
	}
	if c.WeightInitStd <= 0 {
		return fmt.Errorf("invalid config: weight_init_std must be positive, got %v", c.WeightInitStd)
	}
	if _, err := tensor.ParseDevice(c.Device); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := tensor.ParseDataType(c.DType); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	switch strings.ToLower(c.Model) {
	case ModelSimpleCNN:
		p := c.ConvParam
		if p.FilterNum <= 0 || p.FilterSize <= 0 || p.Stride <= 0 || p.Pad < 0 {
			return fmt.Errorf("invalid config: conv_param %+v", p)
		}
		if c.HiddenSize <= 0 {
			return fmt.Errorf("invalid config: hidden_size must be positive, got %d", c.HiddenSize)
		}
	case ModelVGG16:
		v := c.VGG
		if v.BaseFilters <= 0 || v.FCHidden <= 0 {
			return fmt.Errorf("invalid config: vgg widths must be positive, got %+v", v)
		}
		if v.Dropout < 0 || v.Dropout >= 1 {
			return fmt.Errorf("invalid config: vgg dropout %v must be in [0, 1)", v.Dropout)
		}
	}
	return nil
}

// device returns the parsed device. The config must be valid.
func (c Config) device() tensor.Device {
	d, _ := tensor.ParseDevice(c.Device)
	return d
}

// dtype returns the parsed precision. The config must be valid.
func (c Config) dtype() tensor.DataType {
	dt, _ := tensor.ParseDataType(c.DType)
	return dt
}

// inputShape returns InputDim as a tensor shape.
func (c Config) inputShape() tensor.Shape {
	return tensor.Shape{c.InputDim[0], c.InputDim[1], c.InputDim[2]}
}
