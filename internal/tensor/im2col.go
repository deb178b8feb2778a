package tensor

import (
	"fmt"

	"github.com/born-ml/convnet/internal/parallel"
)

// ConvOutputSize returns the spatial output size of a sliding window:
//
//	out = (in + 2*pad - kernel) / stride + 1
//
// Panics if the result is not positive (malformed conv/pool parameters).
func ConvOutputSize(in, kernel, stride, pad int) int {
	if stride <= 0 {
		panic(fmt.Sprintf("invalid stride %d", stride))
	}
	out := (in+2*pad-kernel)/stride + 1
	if out <= 0 || in+2*pad < kernel {
		panic(fmt.Sprintf("invalid output size %d: input %d, kernel %d, stride %d, pad %d", out, in, kernel, stride, pad))
	}
	return out
}

// Im2Col expands a [N, C, H, W] tensor into column form.
//
// Output: [N * H_out * W_out, C * K_h * K_w]
//
// Each row corresponds to one output position (n, out_h, out_w) and holds
// the flattened (c, kh, kw) receptive field. Positions that fall into the
// zero padding read as 0.
//
// Reference: "High Performance Convolutional Neural Networks for Document Processing"
// (Chellapilla et al., 2006).
func Im2Col(x *Tensor, kH, kW, stride, pad int) *Tensor {
	if x.NDim() != 4 {
		panic(fmt.Sprintf("im2col: input must be 4D [N,C,H,W], got shape %v", x.shape))
	}
	N, C, H, W := x.shape[0], x.shape[1], x.shape[2], x.shape[3]
	HOut := ConvOutputSize(H, kH, stride, pad)
	WOut := ConvOutputSize(W, kW, stride, pad)

	colWidth := C * kH * kW
	col := New(Shape{N * HOut * WOut, colWidth}, x.dtype, x.device)
	colBuf := col.data
	inputData := x.data

	// Images write disjoint row ranges, so they can be unrolled in parallel.
	parallel.For(N, func(n int) {
		colIdx := n * HOut * WOut // First row of image n
		for outH := 0; outH < HOut; outH++ {
			for outW := 0; outW < WOut; outW++ {
				// Top-left corner in input space
				hStart := outH*stride - pad
				wStart := outW*stride - pad
				bufIdx := colIdx * colWidth

				for c := 0; c < C; c++ {
					for kh := 0; kh < kH; kh++ {
						for kw := 0; kw < kW; kw++ {
							h := hStart + kh
							w := wStart + kw
							if h >= 0 && h < H && w >= 0 && w < W {
								colBuf[bufIdx] = inputData[n*C*H*W+c*H*W+h*W+w]
							}
							bufIdx++
						}
					}
				}
				colIdx++
			}
		}
	}, parallel.CoarseConfig())
	return col
}

// Col2Im is the inverse scatter of Im2Col.
//
// Every column entry is added back to the input position it was read from,
// so positions shared by overlapping windows receive the sum of their
// contributions. Entries that came from the zero padding are dropped.
//
// col must have shape [N * H_out * W_out, C * K_h * K_w] for the given
// [N, C, H, W] shape.
func Col2Im(col *Tensor, shape Shape, kH, kW, stride, pad int) *Tensor {
	if len(shape) != 4 {
		panic(fmt.Sprintf("col2im: target shape must be 4D [N,C,H,W], got %v", shape))
	}
	N, C, H, W := shape[0], shape[1], shape[2], shape[3]
	HOut := ConvOutputSize(H, kH, stride, pad)
	WOut := ConvOutputSize(W, kW, stride, pad)

	colWidth := C * kH * kW
	expected := Shape{N * HOut * WOut, colWidth}
	if !col.shape.Equal(expected) {
		panic(fmt.Sprintf("col2im: column shape %v does not match expected %v for image %v", col.shape, expected, shape))
	}

	img := New(shape, col.dtype, col.device)
	imgData := img.data
	colBuf := col.data

	parallel.For(N, func(n int) {
		colIdx := n * HOut * WOut
		for outH := 0; outH < HOut; outH++ {
			for outW := 0; outW < WOut; outW++ {
				hStart := outH*stride - pad
				wStart := outW*stride - pad
				bufIdx := colIdx * colWidth

				for c := 0; c < C; c++ {
					for kh := 0; kh < kH; kh++ {
						for kw := 0; kw < kW; kw++ {
							h := hStart + kh
							w := wStart + kw
							if h >= 0 && h < H && w >= 0 && w < W {
								imgData[n*C*H*W+c*H*W+h*W+w] += colBuf[bufIdx]
							}
							bufIdx++
						}
					}
				}
				colIdx++
			}
		}
	}, parallel.CoarseConfig())
	return img.Round()
}
