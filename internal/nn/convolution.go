package nn

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// Convolution is a 2D convolution layer computed with im2col.
//
// Architecture:
//   - Input: [N, C, H, W]
//   - Weight: [FN, C, FH, FW]
//   - Bias: [FN]
//   - Output: [N, FN, H_out, W_out]
//
// Where:
//
//	H_out = (H + 2*pad - FH) / stride + 1
//	W_out = (W + 2*pad - FW) / stride + 1
//
// The forward pass unrolls every receptive field into a row (Im2Col) and
// reduces the convolution to one matrix multiply against the flattened
// filters. The backward pass reverses this with Col2Im.
type Convolution struct {
	weight *Parameter
	bias   *Parameter
	stride int
	pad    int

	// Forward cache.
	x    *tensor.Tensor
	col  *tensor.Tensor // [N*H_out*W_out, C*FH*FW]
	colW *tensor.Tensor // [C*FH*FW, FN]
}

// NewConvolution creates a convolution layer from existing parameters.
// Panics if the parameter shapes or hyperparameters are invalid.
func NewConvolution(weight, bias *Parameter, stride, pad int) *Convolution {
	w, b := weight.Tensor().Shape(), bias.Tensor().Shape()
	if len(w) != 4 || b.NumElements() != w[0] {
		panic(fmt.Sprintf("convolution: weight %v and bias %v are inconsistent", w, b))
	}
	if stride <= 0 || pad < 0 {
		panic(fmt.Sprintf("convolution: invalid stride %d or pad %d", stride, pad))
	}
	return &Convolution{weight: weight, bias: bias, stride: stride, pad: pad}
}

// Forward computes the convolution of x with the layer's filters.
func (c *Convolution) Forward(x *tensor.Tensor) *tensor.Tensor {
	w := c.weight.Tensor()
	fn, ch, fh, fw := w.Dim(0), w.Dim(1), w.Dim(2), w.Dim(3)
	if x.NDim() != 4 || x.Dim(1) != ch {
		panic(fmt.Sprintf("convolution: input %v does not match weight %v", x.Shape(), w.Shape()))
	}
	x = x.Cast(w.DType()).To(w.Device())

	n := x.Dim(0)
	outH := tensor.ConvOutputSize(x.Dim(2), fh, c.stride, c.pad)
	outW := tensor.ConvOutputSize(x.Dim(3), fw, c.stride, c.pad)

	col := tensor.Im2Col(x, fh, fw, c.stride, c.pad)
	colW := w.Reshape(fn, -1).Transpose()
	out := col.MatMul(colW).AddRowVector(c.bias.Tensor())

	c.x, c.col, c.colW = x, col, colW
	return out.Reshape(n, outH, outW, fn).Permute(0, 3, 1, 2)
}

// Backward computes the filter, bias and input gradients.
func (c *Convolution) Backward(dout *tensor.Tensor) *tensor.Tensor {
	if c.col == nil {
		panic("convolution: backward called before forward")
	}
	w := c.weight.Tensor()
	fn, ch, fh, fw := w.Dim(0), w.Dim(1), w.Dim(2), w.Dim(3)

	d := dout.Permute(0, 2, 3, 1).Reshape(-1, fn)

	c.bias.SetGrad(d.SumRows())
	c.weight.SetGrad(c.col.TMatMul(d).Transpose().Reshape(fn, ch, fh, fw))

	dcol := d.MatMulT(c.colW)
	return tensor.Col2Im(dcol, c.x.Shape(), fh, fw, c.stride, c.pad)
}

// Parameters returns [weight, bias].
func (c *Convolution) Parameters() []*Parameter {
	return []*Parameter{c.weight, c.bias}
}

// OutputShape returns the [C, H, W] output shape for a [C, H, W] input.
func (c *Convolution) OutputShape(in tensor.Shape) tensor.Shape {
	w := c.weight.Tensor()
	return tensor.Shape{
		w.Dim(0),
		tensor.ConvOutputSize(in[1], w.Dim(2), c.stride, c.pad),
		tensor.ConvOutputSize(in[2], w.Dim(3), c.stride, c.pad),
	}
}

func (c *Convolution) featureMaps() {}
