package nn

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// SoftmaxWithLoss is the terminal layer: softmax followed by cross-entropy.
//
// Labels with as many elements as the scores are targets laid out like
// the scores (one-hot, or any distribution); the gradient of the mean loss
// is then (softmax(x) - t) / batch. Otherwise labels are integer class
// indices [batch] and the gradient is (softmax(x) - onehot(t)) / batch.
type SoftmaxWithLoss struct {
	loss   float64
	y      *tensor.Tensor // softmax output
	target []float64      // same-size labels, row-major like y
	labels []int          // index labels
}

// NewSoftmaxWithLoss creates the loss layer.
func NewSoftmaxWithLoss() *SoftmaxWithLoss {
	return &SoftmaxWithLoss{}
}

// Forward computes the mean cross-entropy of softmax(x) against t.
func (s *SoftmaxWithLoss) Forward(x, t *tensor.Tensor) float64 {
	s.y = Softmax(x)
	s.target, s.labels = nil, nil
	if t.NumElements() == s.y.NumElements() {
		s.target = append([]float64(nil), t.Data()...)
	} else {
		s.labels = ClassIndices(t, s.y.Dim(0), s.y.Dim(1))
	}
	s.loss = CrossEntropyError(s.y, t)
	return s.loss
}

// Backward returns dout * (y - t) / batch.
func (s *SoftmaxWithLoss) Backward(dout float64) *tensor.Tensor {
	if s.y == nil {
		panic("softmax with loss: backward called before forward")
	}
	batch, classes := s.y.Dim(0), s.y.Dim(1)
	dx := s.y.Clone()
	data := dx.Data()
	if s.target != nil {
		for i, v := range s.target {
			data[i] -= v
		}
	}
	for i, c := range s.labels {
		data[i*classes+c]--
	}
	return dx.Scale(dout / float64(batch))
}

// Loss returns the loss from the last forward pass.
func (s *SoftmaxWithLoss) Loss() float64 {
	return s.loss
}

// Output returns the softmax probabilities from the last forward pass.
func (s *SoftmaxWithLoss) Output() *tensor.Tensor {
	return s.y
}

// String describes the layer.
func (s *SoftmaxWithLoss) String() string {
	if s.y == nil {
		return "SoftmaxWithLoss"
	}
	return fmt.Sprintf("SoftmaxWithLoss(loss=%.4f)", s.loss)
}
