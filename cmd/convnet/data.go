package main

import (
	"flag"
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/convnet/internal/dataset"
	"github.com/born-ml/convnet/internal/model"
	"github.com/born-ml/convnet/internal/tensor"
)

// dataFlags selects where images come from.
type dataFlags struct {
	source     string
	images     string
	labels     string
	testImages string
	testLabels string
	csv        string
	testCSV    string
	samples    int
	synthetic  int
	valRatio   float64
}

func (d *dataFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&d.source, "data", "synthetic", "Data source: synthetic, idx or csv")
	fs.StringVar(&d.images, "images", "", "IDX image file (-data idx)")
	fs.StringVar(&d.labels, "labels", "", "IDX label file (-data idx)")
	fs.StringVar(&d.testImages, "test-images", "", "IDX test image file (optional)")
	fs.StringVar(&d.testLabels, "test-labels", "", "IDX test label file (optional)")
	fs.StringVar(&d.csv, "csv", "", "CSV file with a header row (-data csv)")
	fs.StringVar(&d.testCSV, "test-csv", "", "CSV test file (optional)")
	fs.IntVar(&d.samples, "samples", 0, "Max samples to load (0 = all)")
	fs.IntVar(&d.synthetic, "synthetic-samples", 640, "Number of generated samples (-data synthetic)")
	fs.Float64Var(&d.valRatio, "val", 0.2, "Fraction held out for testing when no test set is given")
}

// load returns train and test sets shaped for cfg. Without an explicit
// test set the loaded data is shuffled and split.
func (d *dataFlags) load(cfg model.Config, rng *rand.Rand) (*dataset.Dataset, *dataset.Dataset, error) {
	if len(cfg.InputDim) != 3 {
		return nil, nil, fmt.Errorf("input_dim must be (channels, height, width), got %v", cfg.InputDim)
	}
	sampleShape := tensor.Shape(cfg.InputDim)

	var all, test *dataset.Dataset
	var err error
	switch d.source {
	case "synthetic":
		all, err = dataset.Synthetic(dataset.SyntheticConfig{
			Samples:  d.synthetic,
			Classes:  cfg.OutputSize,
			Channels: sampleShape[0],
			Height:   sampleShape[1],
			Width:    sampleShape[2],
		}, rng)
	case "idx":
		all, err = dataset.LoadIDX(d.images, d.labels, cfg.OutputSize, d.samples)
		if err == nil && d.testImages != "" {
			test, err = dataset.LoadIDX(d.testImages, d.testLabels, cfg.OutputSize, d.samples)
		}
	case "csv":
		all, err = dataset.LoadCSV(d.csv, sampleShape, cfg.OutputSize, d.samples)
		if err == nil && d.testCSV != "" {
			test, err = dataset.LoadCSV(d.testCSV, sampleShape, cfg.OutputSize, d.samples)
		}
	default:
		return nil, nil, fmt.Errorf("unknown data source %q", d.source)
	}
	if err != nil {
		return nil, nil, err
	}
	if !all.SampleShape().Equal(sampleShape) {
		return nil, nil, fmt.Errorf("images are %v, network expects %v", all.SampleShape(), sampleShape)
	}

	if test != nil {
		return all, test, nil
	}
	return all.Shuffle(rng).Split(d.valRatio)
}
