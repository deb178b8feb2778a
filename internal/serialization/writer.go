package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Version is the convnet version recorded in written headers.
const Version = "0.3.0"

// Writer writes parameters in .cnet format.
type Writer struct {
	file   *os.File
	closed bool
}

// NewWriter creates a new .cnet file writer.
func NewWriter(path string) (*Writer, error) {
	//nolint:gosec // G304: the path is chosen by the user saving a model
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return &Writer{file: file}, nil
}

// Write writes the tensors with the given header to the file.
func (w *Writer) Write(tensors []NamedTensor, header Header) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}
	return WriteTo(w.file, tensors, header)
}

// Close closes the writer and the underlying file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// WriteTo writes tensors in .cnet format to an io.Writer.
//
// The header's FormatVersion, Version, Tensors and (if zero) CreatedAt are
// filled in. Tensors are written in slice order.
func WriteTo(writer io.Writer, tensors []NamedTensor, header Header) error {
	header.FormatVersion = FormatVersion
	header.Version = Version
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	// Encode tensor data and record offsets.
	var data []byte
	header.Tensors = make([]TensorMeta, 0, len(tensors))
	seen := make(map[string]bool, len(tensors))
	for _, nt := range tensors {
		if err := ValidateTensorName(nt.Name); err != nil {
			return err
		}
		if seen[nt.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateTensor, nt.Name)
		}
		seen[nt.Name] = true

		offset := int64(len(data))
		data = encodeTensor(data, nt.Tensor)
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   nt.Name,
			DType:  nt.Tensor.DType().String(),
			Device: nt.Tensor.Device().String(),
			Shape:  []int(nt.Tensor.Shape().Clone()),
			Offset: offset,
			Size:   int64(len(data)) - offset,
		})
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}
	checksum := ComputeChecksum(data)

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], headerFlags(&header))
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(len(data)))
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	if _, err := writer.Write(fixed); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := writer.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}
	if pad := padding(int64(FixedHeaderSize + len(headerJSON))); pad > 0 {
		if _, err := writer.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

func headerFlags(h *Header) uint32 {
	var flags uint32
	if len(h.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if h.CheckpointMeta != nil {
		flags |= FlagHasCheckpoint
	}
	for _, t := range h.Tensors {
		if IsStateName(t.Name) {
			flags |= FlagHasState
			break
		}
	}
	return flags
}

// StatePrefix marks non-trainable state tensors such as batch-norm running
// statistics ("state.running_mean3").
const StatePrefix = "state."

// IsStateName reports whether name refers to non-trainable state.
func IsStateName(name string) bool {
	return strings.HasPrefix(name, StatePrefix) && len(name) > len(StatePrefix)
}
