package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ReaderOptions configures how .cnet data is read.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
}

// fixedHeader holds the decoded 64-byte prefix of a .cnet file.
type fixedHeader struct {
	flags      uint32
	headerSize uint64
	dataSize   uint64
	checksum   [32]byte
}

func parseFixedHeader(b []byte) (fixedHeader, error) {
	var fh fixedHeader
	if string(b[0:4]) != MagicBytes {
		return fh, fmt.Errorf("%w: got %q, expected %q", ErrInvalidMagic, string(b[0:4]), MagicBytes)
	}
	if version := binary.LittleEndian.Uint32(b[4:8]); version != FormatVersion {
		return fh, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}
	fh.flags = binary.LittleEndian.Uint32(b[8:12])
	fh.headerSize = binary.LittleEndian.Uint64(b[16:24])
	fh.dataSize = binary.LittleEndian.Uint64(b[24:32])
	copy(fh.checksum[:], b[ChecksumOffset:ChecksumOffset+ChecksumSize])
	if fh.headerSize > MaxHeaderSize {
		return fh, ErrHeaderTooLarge
	}
	return fh, nil
}

// dataOffset returns where the data section starts for a JSON header of
// the given size.
func dataOffset(headerSize uint64) int64 {
	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	pos := int64(FixedHeaderSize) + int64(headerSize)
	return pos + padding(pos)
}

// Reader reads parameters from a .cnet file.
type Reader struct {
	file       *os.File
	header     Header
	flags      uint32
	dataOffset int64
	dataSize   int64
	closed     bool
}

// NewReader opens a .cnet file with strict validation.
func NewReader(path string) (*Reader, error) {
	return NewReaderWithOptions(path, ReaderOptions{ValidationLevel: ValidationStrict})
}

// NewReaderWithOptions opens a .cnet file with custom options.
//
// The header is parsed and validated, and unless disabled the checksum of
// the data section is verified, before the reader is returned.
func NewReaderWithOptions(path string, opts ReaderOptions) (*Reader, error) {
	//nolint:gosec // G304: the path is chosen by the user loading a model
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	r := &Reader{file: file}
	if err := r.open(opts); err != nil {
		_ = file.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) open(opts ReaderOptions) error {
	prefix := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r.file, prefix); err != nil {
		return fmt.Errorf("failed to read fixed header: %w", err)
	}
	fh, err := parseFixedHeader(prefix)
	if err != nil {
		return err
	}
	r.flags = fh.flags

	headerBytes := make([]byte, fh.headerSize)
	if _, err := io.ReadFull(r.file, headerBytes); err != nil {
		return fmt.Errorf("failed to read header JSON: %w", err)
	}
	if err := json.Unmarshal(headerBytes, &r.header); err != nil {
		return fmt.Errorf("failed to parse header JSON: %w", err)
	}

	r.dataOffset = dataOffset(fh.headerSize)
	//nolint:gosec // G115: checked against the file size below
	r.dataSize = int64(fh.dataSize)

	info, err := r.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	if r.dataOffset+r.dataSize > info.Size() {
		return fmt.Errorf("%w: data section of %d bytes is truncated", ErrSizeMismatch, r.dataSize)
	}

	if err := ValidateHeader(&r.header, r.dataSize, opts.ValidationLevel); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if !opts.SkipChecksumValidation {
		computed, err := ComputeChecksumReader(io.NewSectionReader(r.file, r.dataOffset, r.dataSize))
		if err != nil {
			return fmt.Errorf("failed to read tensor data for checksum: %w", err)
		}
		if err := ValidateChecksum(computed, fh.checksum); err != nil {
			return err
		}
	}
	return nil
}

// Header returns the file header.
func (r *Reader) Header() Header {
	return r.header
}

// Flags returns the format flags.
func (r *Reader) Flags() uint32 {
	return r.flags
}

// TensorNames returns the names of all tensors in file order.
func (r *Reader) TensorNames() []string {
	names := make([]string, len(r.header.Tensors))
	for i, meta := range r.header.Tensors {
		names[i] = meta.Name
	}
	return names
}

// TensorInfo returns the metadata of a specific tensor.
func (r *Reader) TensorInfo(name string) (*TensorMeta, error) {
	for i := range r.header.Tensors {
		if r.header.Tensors[i].Name == name {
			meta := r.header.Tensors[i]
			return &meta, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
}

// LoadTensor loads a single tensor from the file.
func (r *Reader) LoadTensor(name string) (*NamedTensor, error) {
	if r.closed {
		return nil, fmt.Errorf("reader is closed")
	}
	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	data := make([]byte, meta.Size)
	if _, err := r.file.ReadAt(data, r.dataOffset+meta.Offset); err != nil {
		return nil, fmt.Errorf("failed to read tensor %s: %w", name, err)
	}
	t, err := decodeTensor(*meta, data)
	if err != nil {
		return nil, err
	}
	return &NamedTensor{Name: name, Tensor: t}, nil
}

// ReadAll loads every tensor in file order.
func (r *Reader) ReadAll() ([]NamedTensor, error) {
	tensors := make([]NamedTensor, 0, len(r.header.Tensors))
	for _, meta := range r.header.Tensors {
		nt, err := r.LoadTensor(meta.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to load tensor %s: %w", meta.Name, err)
		}
		tensors = append(tensors, *nt)
	}
	return tensors, nil
}

// Close closes the reader and the underlying file.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

// ReadFrom reads tensors in .cnet format from an io.Reader.
// The data section is buffered to verify the checksum before decoding.
func ReadFrom(reader io.Reader, opts ReaderOptions) ([]NamedTensor, Header, error) {
	prefix := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(reader, prefix); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read fixed header: %w", err)
	}
	fh, err := parseFixedHeader(prefix)
	if err != nil {
		return nil, Header{}, err
	}

	headerBytes := make([]byte, fh.headerSize)
	if _, err := io.ReadFull(reader, headerBytes); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read header JSON: %w", err)
	}
	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, Header{}, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	offset := dataOffset(fh.headerSize)
	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	if _, err := io.CopyN(io.Discard, reader, offset-int64(FixedHeaderSize)-int64(fh.headerSize)); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read padding: %w", err)
	}

	var data bytes.Buffer
	//nolint:gosec // G115: data size is validated against the header below
	if _, err := io.CopyN(&data, reader, int64(fh.dataSize)); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read tensor data: %w", err)
	}
	if err := ValidateHeader(&header, int64(data.Len()), opts.ValidationLevel); err != nil {
		return nil, Header{}, fmt.Errorf("validation failed: %w", err)
	}
	if !opts.SkipChecksumValidation {
		if err := ValidateChecksum(ComputeChecksum(data.Bytes()), fh.checksum); err != nil {
			return nil, Header{}, err
		}
	}

	raw := data.Bytes()
	tensors := make([]NamedTensor, 0, len(header.Tensors))
	for _, meta := range header.Tensors {
		if meta.Offset < 0 || meta.Size < 0 || meta.Offset+meta.Size > int64(len(raw)) {
			return nil, Header{}, &ValidationError{Type: "out_of_bounds", Tensor: meta.Name, Details: "tensor outside data section"}
		}
		t, err := decodeTensor(meta, raw[meta.Offset:meta.Offset+meta.Size])
		if err != nil {
			return nil, Header{}, err
		}
		tensors = append(tensors, NamedTensor{Name: meta.Name, Tensor: t})
	}
	return tensors, header, nil
}
