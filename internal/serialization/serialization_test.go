package serialization

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/born-ml/convnet/internal/tensor"
)

func testTensors(t *testing.T) []NamedTensor {
	t.Helper()
	w, err := tensor.FromSlice([]float64{0.1, -0.2, 0.3, 0.4, 0.5, -0.6}, tensor.Shape{2, 3})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	b, err := tensor.FromSlice([]float64{1, 2, 3}, tensor.Shape{3})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	return []NamedTensor{
		{Name: "W1", Tensor: w},
		{Name: "b1", Tensor: b.Cast(tensor.Float32).To(tensor.CUDA)},
		{Name: "state.running_mean1", Tensor: tensor.Zeros(tensor.Shape{3})},
	}
}

// TestRoundTrip_File verifies file write and read with checksum validation.
func TestRoundTrip_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.cnet")
	tensors := testTensors(t)

	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	header := Header{Architecture: "SimpleCNN", RunID: "run-1", Metadata: map[string]string{"seed": "43"}}
	if err := w.Write(tensors, header); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	defer r.Close()

	h := r.Header()
	if h.Architecture != "SimpleCNN" || h.RunID != "run-1" || h.Metadata["seed"] != "43" {
		t.Errorf("Header not preserved: %+v", h)
	}
	if h.FormatVersion != FormatVersion || h.Version != Version {
		t.Errorf("Expected version %d/%s, got %d/%s", FormatVersion, Version, h.FormatVersion, h.Version)
	}
	if r.Flags()&FlagHasMetadata == 0 || r.Flags()&FlagHasState == 0 {
		t.Errorf("Expected metadata and state flags, got %b", r.Flags())
	}

	names := r.TensorNames()
	want := []string{"W1", "b1", "state.running_mean1"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Expected order %v, got %v", want, names)
		}
	}

	loaded, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	for i, nt := range loaded {
		orig := tensors[i].Tensor
		if !nt.Tensor.Shape().Equal(orig.Shape()) {
			t.Errorf("%s: shape %v, want %v", nt.Name, nt.Tensor.Shape(), orig.Shape())
		}
		if nt.Tensor.DType() != orig.DType() || nt.Tensor.Device() != orig.Device() {
			t.Errorf("%s: got %s, want %s", nt.Name, nt.Tensor, orig)
		}
		for j, v := range orig.Data() {
			if nt.Tensor.Data()[j] != v {
				t.Errorf("%s[%d]: got %v, want %v", nt.Name, j, nt.Tensor.Data()[j], v)
			}
		}
	}

	info, err := r.TensorInfo("b1")
	if err != nil {
		t.Fatalf("TensorInfo failed: %v", err)
	}
	if info.Size != 12 || info.DType != "float32" {
		t.Errorf("Expected 12-byte float32 tensor, got %+v", info)
	}
	if _, err := r.TensorInfo("missing"); !errors.Is(err, ErrTensorNotFound) {
		t.Errorf("Expected ErrTensorNotFound, got %v", err)
	}
}

// TestRoundTrip_Stream verifies WriteTo and ReadFrom through a buffer.
func TestRoundTrip_Stream(t *testing.T) {
	var buf bytes.Buffer
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	checkpoint := &CheckpointMeta{Epoch: 3, Step: 120, Loss: 0.25, Optimizer: "Adam"}

	if err := WriteTo(&buf, testTensors(t), Header{Architecture: "VGG16", CreatedAt: created, CheckpointMeta: checkpoint}); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}

	tensors, header, err := ReadFrom(&buf, ReaderOptions{})
	if err != nil {
		t.Fatalf("ReadFrom failed: %v", err)
	}
	if len(tensors) != 3 || tensors[0].Name != "W1" {
		t.Fatalf("Unexpected tensors: %v", tensors)
	}
	if !header.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt: got %v, want %v", header.CreatedAt, created)
	}
	if header.CheckpointMeta == nil || header.CheckpointMeta.Epoch != 3 || header.CheckpointMeta.Optimizer != "Adam" {
		t.Errorf("Checkpoint not preserved: %+v", header.CheckpointMeta)
	}
}

// TestChecksumMismatch verifies that corrupted data is rejected.
func TestChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTo(&buf, testTensors(t), Header{}); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	data := buf.Bytes()
	data[len(data)-1] ^= 0xFF

	if _, _, err := ReadFrom(bytes.NewReader(data), ReaderOptions{}); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Expected ErrChecksumMismatch, got %v", err)
	}

	// Skipping validation reads the corrupted data.
	if _, _, err := ReadFrom(bytes.NewReader(data), ReaderOptions{SkipChecksumValidation: true}); err != nil {
		t.Errorf("Expected no error with checksum skipped, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "corrupt.cnet")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := NewReader(path); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Expected ErrChecksumMismatch from file reader, got %v", err)
	}
}

// TestInvalidMagicAndVersion verifies fixed header checks.
func TestInvalidMagicAndVersion(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTo(&buf, testTensors(t), Header{}); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}

	badMagic := append([]byte(nil), buf.Bytes()...)
	copy(badMagic, "BORN")
	if _, _, err := ReadFrom(bytes.NewReader(badMagic), ReaderOptions{}); !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("Expected ErrInvalidMagic, got %v", err)
	}

	badVersion := append([]byte(nil), buf.Bytes()...)
	badVersion[4] = 9
	if _, _, err := ReadFrom(bytes.NewReader(badVersion), ReaderOptions{}); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("Expected ErrUnsupportedVersion, got %v", err)
	}

	if _, _, err := ReadFrom(bytes.NewReader(buf.Bytes()[:10]), ReaderOptions{}); err == nil {
		t.Error("Expected error for truncated input")
	}
}

// TestWriteTo_RejectsBadNames verifies name validation on write.
func TestWriteTo_RejectsBadNames(t *testing.T) {
	x := tensor.Zeros(tensor.Shape{1})
	tests := []struct {
		name    string
		tensors []NamedTensor
	}{
		{"empty", []NamedTensor{{Name: "", Tensor: x}}},
		{"path traversal", []NamedTensor{{Name: "../W1", Tensor: x}}},
		{"duplicate", []NamedTensor{{Name: "W1", Tensor: x}, {Name: "W1", Tensor: x}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := WriteTo(&bytes.Buffer{}, tt.tensors, Header{}); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

// TestFloat32Encoding verifies that float32 tensors keep their rounded values.
func TestFloat32Encoding(t *testing.T) {
	x, _ := tensor.FromSlice([]float64{1.0 / 3.0}, tensor.Shape{1})
	x32 := x.Cast(tensor.Float32)

	data := encodeTensor(nil, x32)
	if len(data) != 4 {
		t.Fatalf("Expected 4 bytes, got %d", len(data))
	}
	back, err := decodeTensor(TensorMeta{Name: "x", DType: "float32", Shape: []int{1}, Size: 4}, data)
	if err != nil {
		t.Fatalf("decodeTensor failed: %v", err)
	}
	if back.Data()[0] != x32.Data()[0] {
		t.Errorf("Got %v, want %v", back.Data()[0], x32.Data()[0])
	}

	if _, err := decodeTensor(TensorMeta{Name: "x", DType: "int8", Shape: []int{1}}, data); !errors.Is(err, ErrUnsupportedDType) {
		t.Errorf("Expected ErrUnsupportedDType, got %v", err)
	}
	if _, err := decodeTensor(TensorMeta{Name: "x", DType: "float64", Shape: []int{1}}, data); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Expected ErrSizeMismatch, got %v", err)
	}
}
