// Package dataset provides in-memory labelled image sets for training and
// evaluation.
//
// Images are stored as one (N, C, H, W) tensor and labels as class indices.
// Datasets can be loaded from IDX or CSV files or generated synthetically.
package dataset

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/convnet/internal/tensor"
)

// Dataset holds images with their class labels.
type Dataset struct {
	Images  *tensor.Tensor // (N, C, H, W)
	Labels  []int          // (N), values in [0, Classes)
	Classes int
}

// New creates a dataset, checking that every label is a valid class.
func New(images *tensor.Tensor, labels []int, classes int) (*Dataset, error) {
	if images.NDim() != 4 {
		return nil, fmt.Errorf("images must be (N, C, H, W), got %v", images.Shape())
	}
	if images.Dim(0) != len(labels) {
		return nil, fmt.Errorf("image count (%d) != label count (%d)", images.Dim(0), len(labels))
	}
	if classes <= 0 {
		return nil, fmt.Errorf("classes must be positive, got %d", classes)
	}
	for i, c := range labels {
		if c < 0 || c >= classes {
			return nil, fmt.Errorf("label %d at sample %d out of range [0, %d)", c, i, classes)
		}
	}
	return &Dataset{Images: images, Labels: labels, Classes: classes}, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Labels)
}

// SampleShape returns the (C, H, W) shape of one image.
func (d *Dataset) SampleShape() tensor.Shape {
	s := d.Images.Shape()
	return tensor.Shape{s[1], s[2], s[3]}
}

// Batch gathers the given samples into an image tensor and a label tensor
// of class indices.
func (d *Dataset) Batch(indices []int) (*tensor.Tensor, *tensor.Tensor) {
	labels := tensor.Zeros(tensor.Shape{len(indices)})
	for i, idx := range indices {
		labels.Data()[i] = float64(d.Labels[idx])
	}
	return d.Images.Take(indices), labels
}

// Sample draws batchSize indices uniformly with replacement.
func (d *Dataset) Sample(batchSize int, rng *rand.Rand) []int {
	indices := make([]int, batchSize)
	for i := range indices {
		indices[i] = rng.IntN(d.Len())
	}
	return indices
}

// Slice returns samples [start, end) as a new dataset sharing no storage.
func (d *Dataset) Slice(start, end int) *Dataset {
	labels := append([]int(nil), d.Labels[start:end]...)
	return &Dataset{Images: d.Images.Rows(start, end), Labels: labels, Classes: d.Classes}
}

// Head returns the first n samples, or the whole dataset if it is smaller.
func (d *Dataset) Head(n int) *Dataset {
	if n <= 0 || n >= d.Len() {
		return d
	}
	return d.Slice(0, n)
}

// Split splits the dataset into train and validation sets.
//
// Parameters:
//   - validationRatio: Fraction of data to use for validation (e.g., 0.2 for 20%)
//
// Returns:
//   - trainData, validationData
func (d *Dataset) Split(validationRatio float64) (*Dataset, *Dataset, error) {
	if validationRatio <= 0 || validationRatio >= 1 {
		return nil, nil, fmt.Errorf("validation ratio %v must be in (0, 1)", validationRatio)
	}
	splitIdx := int(float64(d.Len()) * (1.0 - validationRatio))
	if splitIdx == 0 || splitIdx == d.Len() {
		return nil, nil, fmt.Errorf("cannot split %d samples with ratio %v", d.Len(), validationRatio)
	}
	return d.Slice(0, splitIdx), d.Slice(splitIdx, d.Len()), nil
}

// Shuffle returns a copy of the dataset with samples in random order.
func (d *Dataset) Shuffle(rng *rand.Rand) *Dataset {
	perm := rng.Perm(d.Len())
	labels := make([]int, len(perm))
	for i, idx := range perm {
		labels[i] = d.Labels[idx]
	}
	return &Dataset{Images: d.Images.Take(perm), Labels: labels, Classes: d.Classes}
}

// LabelTensor returns all labels as a tensor of class indices.
func (d *Dataset) LabelTensor() *tensor.Tensor {
	t := tensor.Zeros(tensor.Shape{d.Len()})
	for i, c := range d.Labels {
		t.Data()[i] = float64(c)
	}
	return t
}

// OneHot encodes class indices as a (len(labels), classes) tensor.
func OneHot(labels []int, classes int) *tensor.Tensor {
	t := tensor.Zeros(tensor.Shape{len(labels), classes})
	for i, c := range labels {
		t.Data()[i*classes+c] = 1
	}
	return t
}

// ClassCounts returns the number of samples per class.
func (d *Dataset) ClassCounts() []int {
	counts := make([]int, d.Classes)
	for _, c := range d.Labels {
		counts[c]++
	}
	return counts
}
