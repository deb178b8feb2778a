package train

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/convnet/internal/optim"
)

// Config holds the training hyperparameters.
type Config struct {
	Epochs        int          `yaml:"epochs"`
	BatchSize     int          `yaml:"batch_size"`
	EvalSamples   int          `yaml:"eval_samples"` // Samples per epoch evaluation (0 = all)
	EvalBatchSize int          `yaml:"eval_batch_size"`
	Seed          uint64       `yaml:"seed"`
	Verbose       bool         `yaml:"verbose"`        // Print the loss of every iteration
	CheckpointDir string       `yaml:"checkpoint_dir"` // Write a checkpoint after every epoch if set
	Optimizer     optim.Config `yaml:"optimizer"`
}

// DefaultConfig returns the defaults: 20 epochs of 64-sample mini-batches
// with Adam at lr 1e-4, evaluating 1000 samples per epoch.
func DefaultConfig() Config {
	return Config{
		Epochs:        20,
		BatchSize:     64,
		EvalSamples:   1000,
		EvalBatchSize: 100,
		Seed:          43,
		Optimizer:     optim.Config{Name: "adam", LR: 0.0001},
	}
}

// LoadConfig reads a YAML training config. Missing keys keep their defaults.
func LoadConfig(path string) (Config, error) {
	//nolint:gosec // G304: the path is chosen by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read training config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML training config over DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse training config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports malformed options.
func (c Config) Validate() error {
	switch {
	case c.Epochs <= 0:
		return fmt.Errorf("epochs must be positive, got %d", c.Epochs)
	case c.BatchSize <= 0:
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	case c.EvalSamples < 0:
		return fmt.Errorf("eval_samples must not be negative, got %d", c.EvalSamples)
	case c.EvalBatchSize < 0:
		return fmt.Errorf("eval_batch_size must not be negative, got %d", c.EvalBatchSize)
	case c.Optimizer.LR < 0:
		return fmt.Errorf("optimizer lr must not be negative, got %v", c.Optimizer.LR)
	}
	return nil
}
