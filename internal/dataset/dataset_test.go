package dataset

import (
	"bytes"
	"encoding/binary"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnet/internal/tensor"
)

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func sequential(t *testing.T, n int) *Dataset {
	t.Helper()
	images := tensor.Zeros(tensor.Shape{n, 1, 1, 2})
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		images.Set(float64(i), i, 0, 0, 0)
		images.Set(float64(-i), i, 0, 0, 1)
		labels[i] = i % 3
	}
	d, err := New(images, labels, 3)
	require.NoError(t, err)
	return d
}

func TestNew_Validation(t *testing.T) {
	images := tensor.Zeros(tensor.Shape{2, 1, 2, 2})

	_, err := New(images, []int{0}, 2)
	assert.Error(t, err, "label count")
	_, err = New(images, []int{0, 2}, 2)
	assert.Error(t, err, "label range")
	_, err = New(tensor.Zeros(tensor.Shape{2, 4}), []int{0, 1}, 2)
	assert.Error(t, err, "rank")
	_, err = New(images, []int{0, 1}, 0)
	assert.Error(t, err, "classes")
}

func TestBatch(t *testing.T) {
	d := sequential(t, 6)
	x, labels := d.Batch([]int{4, 1, 4})

	assert.Equal(t, tensor.Shape{3, 1, 1, 2}, x.Shape())
	assert.Equal(t, []float64{4, -4, 1, -1, 4, -4}, x.Data())
	assert.Equal(t, []float64{1, 1, 1}, labels.Data())
	assert.Equal(t, tensor.Shape{1, 1, 2}, d.SampleShape())
}

func TestSample(t *testing.T) {
	d := sequential(t, 5)
	a := d.Sample(100, newRNG(1))
	b := d.Sample(100, newRNG(1))

	assert.Equal(t, a, b)
	for _, idx := range a {
		assert.True(t, idx >= 0 && idx < 5)
	}
}

func TestSplit(t *testing.T) {
	d := sequential(t, 10)
	train, val, err := d.Split(0.2)
	require.NoError(t, err)

	assert.Equal(t, 8, train.Len())
	assert.Equal(t, 2, val.Len())
	assert.Equal(t, 8.0, val.Images.At(0, 0, 0, 0))
	assert.Equal(t, []int{2, 0}, val.Labels)

	// Slices do not share storage with the source.
	val.Labels[0] = 1
	assert.Equal(t, 2, d.Labels[8])

	_, _, err = d.Split(1)
	assert.Error(t, err)
	_, _, err = sequential(t, 1).Split(0.1)
	assert.Error(t, err)
}

func TestShuffleAndHead(t *testing.T) {
	d := sequential(t, 9)
	s := d.Shuffle(newRNG(3))

	require.Equal(t, 9, s.Len())
	assert.ElementsMatch(t, d.Labels, s.Labels)
	for i := 0; i < s.Len(); i++ {
		v := int(s.Images.At(i, 0, 0, 0))
		assert.Equal(t, d.Labels[v], s.Labels[i], "label follows its image")
	}

	assert.Equal(t, 4, d.Head(4).Len())
	assert.Same(t, d, d.Head(0))
	assert.Same(t, d, d.Head(20))
}

func TestOneHotAndLabels(t *testing.T) {
	oh := OneHot([]int{2, 0}, 3)
	assert.Equal(t, []float64{0, 0, 1, 1, 0, 0}, oh.Data())

	d := sequential(t, 4)
	assert.Equal(t, []float64{0, 1, 2, 0}, d.LabelTensor().Data())
	assert.Equal(t, []int{2, 1, 1}, d.ClassCounts())
}

func TestSynthetic(t *testing.T) {
	cfg := SyntheticConfig{Samples: 12, Classes: 4, Channels: 2, Height: 8, Width: 5}
	d, err := Synthetic(cfg, newRNG(4))
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{12, 2, 8, 5}, d.Images.Shape())
	assert.Equal(t, []int{3, 3, 3, 3}, d.ClassCounts())

	// Class 3 lights rows 6-7 of channel 1.
	idx := 3
	require.Equal(t, 3, d.Labels[idx])
	assert.Greater(t, d.Images.At(idx, 1, 6, 2), 0.3)

	again, err := Synthetic(cfg, newRNG(4))
	require.NoError(t, err)
	assert.Equal(t, d.Images.Data(), again.Images.Data())

	_, err = Synthetic(SyntheticConfig{Samples: 1, Classes: 9, Channels: 1, Height: 4, Width: 4}, newRNG(1))
	assert.Error(t, err)
}

func writeIDX(t *testing.T, path string, dims []uint32, data []byte) {
	t.Helper()
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, idxUnsignedByte, byte(len(dims))})
	for _, d := range dims {
		require.NoError(t, binary.Write(&buf, binary.BigEndian, d))
	}
	buf.Write(data)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

func TestLoadIDX(t *testing.T) {
	dir := t.TempDir()
	images := filepath.Join(dir, "images-idx3-ubyte")
	labels := filepath.Join(dir, "labels-idx1-ubyte")
	writeIDX(t, images, []uint32{3, 2, 2}, []byte{
		0, 255, 0, 0,
		51, 0, 0, 0,
		0, 0, 0, 255,
	})
	writeIDX(t, labels, []uint32{3}, []byte{1, 0, 4})

	d, err := LoadIDX(images, labels, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 1, 2, 2}, d.Images.Shape())
	assert.Equal(t, []int{1, 0, 4}, d.Labels)
	assert.Equal(t, 5, d.Classes)
	assert.Equal(t, 1.0, d.Images.At(0, 0, 0, 1))
	assert.InDelta(t, 0.2, d.Images.At(1, 0, 0, 0), 1e-12)

	limited, err := LoadIDX(images, labels, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, limited.Len())
	assert.Equal(t, 10, limited.Classes)

	writeIDX(t, labels, []uint32{2}, []byte{1, 0})
	_, err = LoadIDX(images, labels, 0, 0)
	assert.Error(t, err, "count mismatch")

	require.NoError(t, os.WriteFile(images, []byte{0, 0, 0x0D, 3}, 0o600))
	_, err = LoadIDX(images, labels, 0, 0)
	assert.Error(t, err, "float IDX")

	_, err = LoadIDX(filepath.Join(dir, "missing"), labels, 0, 0)
	assert.Error(t, err)
}

func TestReadCSV(t *testing.T) {
	input := "label,p0,p1,p2,p3\n2,0,255,0,0\n0,51,0,0,0\n1,0,0,0,255\n"

	d, err := ReadCSV(strings.NewReader(input), tensor.Shape{1, 2, 2}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0, 1}, d.Labels)
	assert.Equal(t, 3, d.Classes)
	assert.Equal(t, 1.0, d.Images.At(0, 0, 0, 1))

	d, err = ReadCSV(strings.NewReader(input), tensor.Shape{1, 2, 2}, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, 5, d.Classes)

	_, err = ReadCSV(strings.NewReader(input), tensor.Shape{1, 3, 2}, 0, 0)
	assert.Error(t, err, "record length")
	_, err = ReadCSV(strings.NewReader("label\n"), tensor.Shape{1, 1, 1}, 0, 0)
	assert.Error(t, err, "empty")
	_, err = ReadCSV(strings.NewReader("label,p0\nx,1\n"), tensor.Shape{1, 1, 1}, 0, 0)
	assert.Error(t, err, "bad label")
}
