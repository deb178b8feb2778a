package model

import (
	"errors"
	"fmt"

	"github.com/born-ml/convnet/internal/metrics"
	"github.com/born-ml/convnet/internal/tensor"
)

// Result holds the evaluation of a network on a labelled set.
type Result struct {
	Accuracy  float64
	F1        float64 // Macro F1 from class-averaged precision and recall
	Precision []float64
	Recall    []float64
	Confusion *metrics.ConfusionMatrix
	Samples   int

	// FeatureMaps holds the captures of the first batch when requested.
	FeatureMaps []FeatureMap
}

// EvalOptions controls Evaluate.
type EvalOptions struct {
	BatchSize int  // Samples per forward pass (default: 100)
	Capture   bool // Capture feature maps on the first batch
}

// AccuracyF1Score evaluates the network on x with labels t in batches of
// batchSize.
//
// Every sample is counted, including a final partial batch. Precision or
// recall of a class with no predicted or no true samples is 0.
func (n *Network) AccuracyF1Score(x, t *tensor.Tensor, batchSize int) (Result, error) {
	return n.Evaluate(x, t, EvalOptions{BatchSize: batchSize})
}

// Evaluate runs inference-mode forward passes over x and builds a fresh
// confusion matrix against labels t (one-hot or class indices).
func (n *Network) Evaluate(x, t *tensor.Tensor, opts EvalOptions) (Result, error) {
	if opts.BatchSize == 0 {
		opts.BatchSize = 100
	}
	if opts.BatchSize < 0 {
		return Result{}, fmt.Errorf("batch size must be positive, got %d", opts.BatchSize)
	}
	if x.NDim() == 0 || x.Dim(0) == 0 {
		return Result{}, errors.New("evaluate: empty input")
	}
	samples := x.Dim(0)
	labels, err := classLabels(t, samples, n.classes)
	if err != nil {
		return Result{}, err
	}

	cm := metrics.NewConfusionMatrix(n.classes)
	var maps []FeatureMap
	for start := 0; start < samples; start += opts.BatchSize {
		end := min(start+opts.BatchSize, samples)
		y, captured := n.Predict(x.Rows(start, end), PredictOptions{Capture: opts.Capture && start == 0})
		if start == 0 {
			maps = captured
		}
		if err := cm.AddBatch(labels[start:end], y.ArgmaxRows()); err != nil {
			return Result{}, err
		}
	}

	return Result{
		Accuracy:    cm.Accuracy(),
		F1:          cm.MacroF1(),
		Precision:   cm.Precision(),
		Recall:      cm.Recall(),
		Confusion:   cm,
		Samples:     samples,
		FeatureMaps: maps,
	}, nil
}

// classLabels converts one-hot labels (samples*classes elements, read
// row-major) or index labels to class indices.
func classLabels(t *tensor.Tensor, samples, classes int) ([]int, error) {
	if classes > 1 && t.NumElements() == samples*classes {
		return t.Reshape(samples, classes).ArgmaxRows(), nil
	}
	if t.NumElements() != samples {
		return nil, fmt.Errorf("labels %v do not match %d samples with %d classes", t.Shape(), samples, classes)
	}
	labels := make([]int, samples)
	for i, v := range t.Data() {
		c := int(v)
		if float64(c) != v || c < 0 || c >= classes {
			return nil, fmt.Errorf("label %v at sample %d is not a class in [0, %d)", v, i, classes)
		}
		labels[i] = c
	}
	return labels, nil
}
