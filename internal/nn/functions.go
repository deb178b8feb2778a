package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/convnet/internal/tensor"
)

// logEpsilon keeps log away from zero in the cross-entropy.
const logEpsilon = 1e-7

// Softmax computes a row-wise softmax of a [batch, classes] tensor.
//
// The row maximum is subtracted before exponentiation for stability, so
// every row of the result sums to 1.
func Softmax(x *tensor.Tensor) *tensor.Tensor {
	x = x.Flatten2D()
	rows, cols := x.Dim(0), x.Dim(1)
	out := tensor.ZerosLike(x)
	src, dst := x.Data(), out.Data()
	for r := 0; r < rows; r++ {
		row := src[r*cols : (r+1)*cols]
		maxVal := math.Inf(-1)
		for _, v := range row {
			maxVal = math.Max(maxVal, v)
		}
		sum := 0.0
		for c, v := range row {
			e := math.Exp(v - maxVal)
			dst[r*cols+c] = e
			sum += e
		}
		for c := range row {
			dst[r*cols+c] /= sum
		}
	}
	return out.Round()
}

// Sigmoid computes 1 / (1 + exp(-v)) element-wise.
func Sigmoid(x *tensor.Tensor) *tensor.Tensor {
	return x.Map(func(v float64) float64 {
		return 1 / (1 + math.Exp(-v))
	})
}

// ClassIndices converts labels to integer class indices.
//
// Labels with batch*classes elements are read row-major as one-hot rows
// (the index of the row maximum is used); otherwise they must be integer
// class indices with batch elements.
// Panics if the labels fit neither form or an index is out of range.
func ClassIndices(t *tensor.Tensor, batch, classes int) []int {
	if t.NumElements() == batch*classes && classes > 1 {
		return t.Reshape(batch, classes).ArgmaxRows()
	}
	if t.NumElements() != batch {
		panic(fmt.Sprintf("labels %v do not match batch %d with %d classes", t.Shape(), batch, classes))
	}
	idx := make([]int, batch)
	for i, v := range t.Data() {
		c := int(v)
		if float64(c) != v || c < 0 || c >= classes {
			panic(fmt.Sprintf("label %v at row %d is not a class index in [0, %d)", v, i, classes))
		}
		idx[i] = c
	}
	return idx
}

// CrossEntropyError returns the mean of -log(y[i, t_i] + 1e-7) over the batch.
//
// y holds row-wise probabilities; t holds one-hot or index labels.
func CrossEntropyError(y, t *tensor.Tensor) float64 {
	y = y.Flatten2D()
	batch, classes := y.Dim(0), y.Dim(1)
	labels := ClassIndices(t, batch, classes)
	data := y.Data()
	sum := 0.0
	for i, c := range labels {
		sum += math.Log(data[i*classes+c] + logEpsilon)
	}
	return -sum / float64(batch)
}
