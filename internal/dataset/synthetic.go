package dataset

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/convnet/internal/tensor"
)

// SyntheticConfig describes a generated pattern dataset.
type SyntheticConfig struct {
	Samples  int
	Classes  int
	Channels int
	Height   int
	Width    int
	Noise    float64 // Std of Gaussian pixel noise (default: 0.1)
}

// Synthetic generates images whose class is encoded by a bright
// horizontal band. Class c lights rows starting at c * Height / Classes in
// channel c % Channels; the remaining pixels carry Gaussian noise.
//
// This is NOT realistic image data, just separable input for exercising the
// training pipeline without data files.
func Synthetic(cfg SyntheticConfig, rng *rand.Rand) (*Dataset, error) {
	if cfg.Samples <= 0 || cfg.Classes <= 0 || cfg.Channels <= 0 || cfg.Height <= 0 || cfg.Width <= 0 {
		return nil, fmt.Errorf("invalid synthetic config %+v", cfg)
	}
	if cfg.Classes > cfg.Height {
		return nil, fmt.Errorf("%d classes do not fit %d rows", cfg.Classes, cfg.Height)
	}
	if cfg.Noise == 0 {
		cfg.Noise = 0.1
	}

	images := tensor.Zeros(tensor.Shape{cfg.Samples, cfg.Channels, cfg.Height, cfg.Width})
	data := images.Data()
	labels := make([]int, cfg.Samples)
	band := max(cfg.Height/cfg.Classes, 1)
	plane := cfg.Height * cfg.Width
	sampleSize := cfg.Channels * plane

	for i := range labels {
		c := i % cfg.Classes
		labels[i] = c

		sample := data[i*sampleSize : (i+1)*sampleSize]
		for j := range sample {
			sample[j] = cfg.Noise * rng.NormFloat64()
		}

		start := c * cfg.Height / cfg.Classes
		ch := c % cfg.Channels
		for row := start; row < min(start+band, cfg.Height); row++ {
			for col := 0; col < cfg.Width; col++ {
				sample[ch*plane+row*cfg.Width+col] += 0.8 // bright pixels
			}
		}
	}

	return New(images, labels, cfg.Classes)
}
