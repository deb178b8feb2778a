package dataset

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/convnet/internal/tensor"
)

// IDX element type for unsigned bytes, the only one used for images and labels.
const idxUnsignedByte = 0x08

// LoadIDX loads images and labels from IDX files (the MNIST file format).
//
// Image files with three dimensions (N, H, W) load as single-channel
// images; four dimensions are read as (N, C, H, W). Pixels are scaled from
// 0-255 to [0, 1]. maxSamples limits the number of samples (0 = load all).
// classes of 0 infers the class count from the largest label.
func LoadIDX(imagesPath, labelsPath string, classes, maxSamples int) (*Dataset, error) {
	dims, pixels, err := readIDX(imagesPath, maxSamples)
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}
	labelDims, labelBytes, err := readIDX(labelsPath, maxSamples)
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}
	if len(labelDims) != 1 {
		return nil, fmt.Errorf("label file must have one dimension, got %v", labelDims)
	}

	var shape tensor.Shape
	switch len(dims) {
	case 3:
		shape = tensor.Shape{dims[0], 1, dims[1], dims[2]}
	case 4:
		shape = tensor.Shape{dims[0], dims[1], dims[2], dims[3]}
	default:
		return nil, fmt.Errorf("image file must have 3 or 4 dimensions, got %v", dims)
	}
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("image file %s: %w", imagesPath, err)
	}
	if shape[0] != labelDims[0] {
		return nil, fmt.Errorf("image count (%d) != label count (%d)", shape[0], labelDims[0])
	}

	images := tensor.Zeros(shape)
	for i, p := range pixels {
		images.Data()[i] = float64(p) / 255.0
	}
	labels := make([]int, len(labelBytes))
	for i, b := range labelBytes {
		labels[i] = int(b)
	}
	if classes == 0 {
		for _, c := range labels {
			classes = max(classes, c+1)
		}
	}
	return New(images, labels, classes)
}

// readIDX reads an unsigned-byte IDX file.
//
// IDX format:
//
//	magic number: 0x00 0x00 <type> <ndims>
//	dimension sizes: ndims x 4 bytes, big endian
//	data: unsigned bytes
//
// At most maxSamples entries of the first dimension are read (0 = all).
func readIDX(filename string, maxSamples int) ([]int, []byte, error) {
	//nolint:gosec // G304: the path is chosen by the user loading data
	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	var magic [4]byte
	if _, err := io.ReadFull(file, magic[:]); err != nil {
		return nil, nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if magic[0] != 0 || magic[1] != 0 || magic[2] != idxUnsignedByte || magic[3] == 0 {
		return nil, nil, fmt.Errorf("invalid magic number: % x", magic)
	}

	dims := make([]int, magic[3])
	for i := range dims {
		var d uint32
		if err := binary.Read(file, binary.BigEndian, &d); err != nil {
			return nil, nil, fmt.Errorf("failed to read dimension %d: %w", i, err)
		}
		dims[i] = int(d)
	}
	if maxSamples > 0 && dims[0] > maxSamples {
		dims[0] = maxSamples
	}

	size := 1
	for _, d := range dims {
		size *= d
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(file, data); err != nil {
		return nil, nil, fmt.Errorf("failed to read data: %w", err)
	}
	return dims, data, nil
}
