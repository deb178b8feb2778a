package serialization

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/born-ml/convnet/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "CNET"
	FormatVersion   = 1
	HeaderAlignment = 64   // Align tensor data to 64 bytes
	FixedHeaderSize = 64   // Fixed header size (0x40 bytes)
	ChecksumSize    = 32   // SHA-256 checksum size
	ChecksumOffset  = 0x20 // Checksum offset in the fixed header
)

// Flags for the .cnet format.
const (
	FlagHasMetadata   uint32 = 1 << 0 // custom metadata included
	FlagHasCheckpoint uint32 = 1 << 1 // training checkpoint metadata included
	FlagHasState      uint32 = 1 << 2 // non-trainable state (running statistics) included
)

// Header represents the JSON header in a .cnet file.
type Header struct {
	FormatVersion  int               `json:"format_version"`
	Version        string            `json:"version"`      // Version of convnet that wrote the file
	Architecture   string            `json:"architecture"` // e.g. "SimpleCNN", "VGG16"
	RunID          string            `json:"run_id"`       // Identifies the training run
	CreatedAt      time.Time         `json:"created_at"`
	Tensors        []TensorMeta      `json:"tensors"`
	Metadata       map[string]string `json:"metadata"`
	CheckpointMeta *CheckpointMeta   `json:"checkpoint,omitempty"`
}

// CheckpointMeta contains training state for checkpoints written mid-run.
type CheckpointMeta struct {
	Epoch     int     `json:"epoch"`
	Step      int64   `json:"step"`
	Loss      float64 `json:"loss"`
	Optimizer string  `json:"optimizer"`
}

// TensorMeta describes a tensor in the .cnet file.
type TensorMeta struct {
	Name   string `json:"name"`   // e.g. "W1", "gamma3"
	DType  string `json:"dtype"`  // "float32" or "float64"
	Device string `json:"device"` // device tag at save time
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from the start of the data section
	Size   int64  `json:"size"`   // bytes
}

// NamedTensor pairs a tensor with its name.
type NamedTensor struct {
	Name   string
	Tensor *tensor.Tensor
}

// encodeTensor appends t's elements in little-endian order at its precision.
func encodeTensor(buf []byte, t *tensor.Tensor) []byte {
	switch t.DType() {
	case tensor.Float32:
		for _, v := range t.Data() {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v)))
		}
	default:
		for _, v := range t.Data() {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		}
	}
	return buf
}

// decodeTensor builds a tensor described by meta from its raw bytes.
func decodeTensor(meta TensorMeta, data []byte) (*tensor.Tensor, error) {
	dtype, err := tensor.ParseDataType(meta.DType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDType, meta.DType)
	}
	device := tensor.CPU
	if meta.Device != "" {
		if device, err = tensor.ParseDevice(meta.Device); err != nil {
			return nil, fmt.Errorf("tensor %s: %w", meta.Name, err)
		}
	}
	shape := tensor.Shape(meta.Shape)
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape for tensor %s: %w", meta.Name, err)
	}
	if want := int64(shape.NumElements() * dtype.Size()); want != int64(len(data)) {
		return nil, fmt.Errorf("%w: tensor %s has %d bytes, shape %v needs %d", ErrSizeMismatch, meta.Name, len(data), shape, want)
	}

	t := tensor.New(shape, dtype, device)
	out := t.Data()
	switch dtype {
	case tensor.Float32:
		for i := range out {
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
		}
	default:
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
	}
	return t, nil
}

// padding returns the bytes needed to align pos to HeaderAlignment.
func padding(pos int64) int64 {
	return (HeaderAlignment - (pos % HeaderAlignment)) % HeaderAlignment
}
