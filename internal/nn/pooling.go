package nn

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// Pooling is a 2D max pooling layer.
//
// Each (poolH x poolW) window, per channel, is reduced to its maximum.
// When a window holds several equal maxima, the first one in row-major
// order receives the whole gradient.
//
// Input: [N, C, H, W]
// Output: [N, C, H_out, W_out]
//
//	H_out = (H + 2*pad - poolH) / stride + 1
type Pooling struct {
	poolH  int
	poolW  int
	stride int
	pad    int

	// Forward cache.
	x      *tensor.Tensor
	argMax []int // per window, index within the window
	outH   int
	outW   int
}

// NewPooling creates a max pooling layer.
func NewPooling(poolH, poolW, stride, pad int) *Pooling {
	if poolH <= 0 || poolW <= 0 || stride <= 0 || pad < 0 {
		panic(fmt.Sprintf("pooling: invalid window %dx%d, stride %d, pad %d", poolH, poolW, stride, pad))
	}
	return &Pooling{poolH: poolH, poolW: poolW, stride: stride, pad: pad}
}

// Forward takes the per-channel window maxima.
func (p *Pooling) Forward(x *tensor.Tensor) *tensor.Tensor {
	if x.NDim() != 4 {
		panic(fmt.Sprintf("pooling: input must be 4D [N,C,H,W], got shape %v", x.Shape()))
	}
	n, ch := x.Dim(0), x.Dim(1)
	p.outH = tensor.ConvOutputSize(x.Dim(2), p.poolH, p.stride, p.pad)
	p.outW = tensor.ConvOutputSize(x.Dim(3), p.poolW, p.stride, p.pad)

	// Rows are ordered (n, oh, ow, c); each row is one channel's window.
	col := tensor.Im2Col(x, p.poolH, p.poolW, p.stride, p.pad).Reshape(-1, p.poolH*p.poolW)
	p.argMax = col.ArgmaxRows()

	window := p.poolH * p.poolW
	colData := col.Data()
	out := tensor.New(tensor.Shape{n, p.outH, p.outW, ch}, x.DType(), x.Device())
	outData := out.Data()
	for i, j := range p.argMax {
		outData[i] = colData[i*window+j]
	}

	p.x = x
	return out.Permute(0, 3, 1, 2)
}

// Backward routes each window's gradient to its argmax position.
func (p *Pooling) Backward(dout *tensor.Tensor) *tensor.Tensor {
	if p.x == nil {
		panic("pooling: backward called before forward")
	}
	n, ch := p.x.Dim(0), p.x.Dim(1)
	d := dout.Permute(0, 2, 3, 1)
	if d.NumElements() != len(p.argMax) {
		panic(fmt.Sprintf("pooling: gradient %v does not match forward output", dout.Shape()))
	}

	window := p.poolH * p.poolW
	dmax := tensor.New(tensor.Shape{len(p.argMax), window}, dout.DType(), dout.Device())
	dmaxData, dData := dmax.Data(), d.Data()
	for i, j := range p.argMax {
		dmaxData[i*window+j] = dData[i]
	}

	dcol := dmax.Reshape(n*p.outH*p.outW, ch*window)
	return tensor.Col2Im(dcol, p.x.Shape(), p.poolH, p.poolW, p.stride, p.pad)
}

// OutputShape returns the [C, H, W] output shape for a [C, H, W] input.
func (p *Pooling) OutputShape(in tensor.Shape) tensor.Shape {
	return tensor.Shape{
		in[0],
		tensor.ConvOutputSize(in[1], p.poolH, p.stride, p.pad),
		tensor.ConvOutputSize(in[2], p.poolW, p.stride, p.pad),
	}
}

func (p *Pooling) featureMaps() {}
