package train

import (
	"bytes"
	"io"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnet/internal/dataset"
	"github.com/born-ml/convnet/internal/model"
	"github.com/born-ml/convnet/internal/optim"
)

// bandNetwork returns a simple CNN for 1x8x8 inputs and 4 classes.
func bandNetwork(t *testing.T) *model.Network {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.InputDim = []int{1, 8, 8}
	cfg.ConvParam = model.ConvParam{FilterNum: 4, FilterSize: 3, Pad: 0, Stride: 1}
	cfg.HiddenSize = 16
	cfg.OutputSize = 4
	net, err := model.NewSimpleCNN(cfg)
	require.NoError(t, err)
	return net
}

func bandData(t *testing.T, samples int, seed uint64) *dataset.Dataset {
	t.Helper()
	d, err := dataset.Synthetic(dataset.SyntheticConfig{
		Samples: samples, Classes: 4, Channels: 1, Height: 8, Width: 8,
	}, rand.New(rand.NewPCG(seed, seed)))
	require.NoError(t, err)
	return d
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Epochs = 5
	cfg.BatchSize = 8
	cfg.EvalSamples = 32
	cfg.Optimizer = optim.Config{Name: "adam", LR: 0.01}
	return cfg
}

func newTrainer(t *testing.T, cfg Config) *Trainer {
	t.Helper()
	tr, err := New(bandNetwork(t), bandData(t, 64, 1), bandData(t, 32, 2), cfg)
	require.NoError(t, err)
	tr.Out = io.Discard
	return tr
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// TestTrainer_ReducesLoss trains on separable bands and expects the loss to
// fall and the test set to be learned.
func TestTrainer_ReducesLoss(t *testing.T) {
	tr := newTrainer(t, testConfig())
	var out bytes.Buffer
	tr.Out = &out

	history, err := tr.Train()
	require.NoError(t, err)

	assert.Equal(t, 8, tr.IterationsPerEpoch())
	require.Len(t, history.Loss, 40)
	assert.Len(t, history.TrainAcc, 5)
	assert.Len(t, history.TestAcc, 5)
	assert.Len(t, history.TrainF1, 5)
	assert.Len(t, history.TestF1, 5)
	assert.Equal(t, 5, tr.Epoch())
	assert.Equal(t, int64(40), tr.Step())

	first, last := mean(history.Loss[:5]), mean(history.Loss[35:])
	assert.Less(t, last, first/2, "loss should fall")
	assert.Greater(t, history.Final.Accuracy, 0.75)
	assert.Equal(t, 32, history.Final.Samples)

	assert.Contains(t, out.String(), "=== epoch 5/5")
	assert.Contains(t, out.String(), "Final Test Accuracy")
	assert.NotContains(t, out.String(), "train loss:")
}

func TestTrainer_Verbose(t *testing.T) {
	cfg := testConfig()
	cfg.Epochs = 1
	cfg.Verbose = true
	tr := newTrainer(t, cfg)
	var out bytes.Buffer
	tr.Out = &out

	_, err := tr.Train()
	require.NoError(t, err)
	assert.Equal(t, 8, bytes.Count(out.Bytes(), []byte("train loss:")))
}

func TestTrainer_Determinism(t *testing.T) {
	cfg := testConfig()
	cfg.Epochs = 2

	a, err := newTrainer(t, cfg).Train()
	require.NoError(t, err)
	b, err := newTrainer(t, cfg).Train()
	require.NoError(t, err)

	assert.Equal(t, a.Loss, b.Loss)
	assert.Equal(t, a.TestAcc, b.TestAcc)
}

// TestTrainer_Checkpoint tests that a checkpoint restores parameters,
// optimizer state and the training position.
func TestTrainer_Checkpoint(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.Epochs = 2
	cfg.CheckpointDir = dir

	src := newTrainer(t, cfg)
	_, err := src.Train()
	require.NoError(t, err)
	path := filepath.Join(dir, CheckpointName(2))
	require.FileExists(t, path)
	require.FileExists(t, filepath.Join(dir, CheckpointName(1)))

	cfg.CheckpointDir = ""
	dst := newTrainer(t, cfg)
	require.NoError(t, dst.LoadCheckpoint(path))

	assert.Equal(t, 2, dst.Epoch())
	assert.Equal(t, int64(16), dst.Step())
	for _, p := range src.Network.Parameters() {
		assert.Equal(t, p.Tensor().Data(), dst.Network.Param(p.Name()).Tensor().Data(), p.Name())
	}
	srcAdam, ok := src.Optimizer.(*optim.Adam)
	require.True(t, ok)
	dstAdam, ok := dst.Optimizer.(*optim.Adam)
	require.True(t, ok)
	assert.Equal(t, srcAdam.Step(), dstAdam.Step())
	assert.Len(t, dstAdam.StateDict(), len(srcAdam.StateDict()))

	// Resuming runs only the remaining epoch.
	dst.Epochs = 3
	history, err := dst.Train()
	require.NoError(t, err)
	assert.Len(t, history.Loss, 8)
	assert.Len(t, history.TestAcc, 1)
	assert.Equal(t, 3, dst.Epoch())
	assert.Equal(t, 24, dstAdam.Step())
}

func TestTrainer_LoadCheckpoint_Errors(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.Epochs = 1

	src := newTrainer(t, cfg)
	_, err := src.Train()
	require.NoError(t, err)
	path := filepath.Join(dir, "ckpt.cnet")
	require.NoError(t, src.SaveCheckpoint(path))

	sgd := cfg
	sgd.Optimizer = optim.Config{Name: "sgd", LR: 0.01}
	assert.Error(t, newTrainer(t, sgd).LoadCheckpoint(path), "optimizer mismatch")

	plain := filepath.Join(dir, "params.cnet")
	require.NoError(t, src.Network.SaveParams(plain))
	assert.Error(t, newTrainer(t, cfg).LoadCheckpoint(plain), "not a checkpoint")

	assert.Error(t, newTrainer(t, cfg).LoadCheckpoint(filepath.Join(dir, "missing.cnet")))
}

func TestTrainer_Errors(t *testing.T) {
	cfg := testConfig()

	tr := newTrainer(t, cfg)
	tr.TestSet = nil
	_, err := tr.Train()
	assert.Error(t, err, "no test data")

	tr = newTrainer(t, cfg)
	tr.TrainSet = bandData(t, 8, 3)
	tr.TrainSet.Classes = 5
	_, err = tr.Train()
	assert.Error(t, err, "class mismatch")

	bad := cfg
	bad.Optimizer.Name = "rmsprop"
	_, err = New(bandNetwork(t), bandData(t, 8, 1), bandData(t, 8, 2), bad)
	assert.Error(t, err)
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
epochs: 3
batch_size: 16
optimizer:
  name: sgd
  lr: 0.05
  momentum: 0.9
`))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Epochs)
	assert.Equal(t, 16, cfg.BatchSize)
	assert.Equal(t, 1000, cfg.EvalSamples, "default kept")
	assert.Equal(t, "sgd", cfg.Optimizer.Name)
	assert.Equal(t, 0.9, cfg.Optimizer.Momentum)

	_, err = ParseConfig([]byte("epochs: 0\n"))
	assert.Error(t, err)
	_, err = ParseConfig([]byte("batch_size: [1]\n"))
	assert.Error(t, err)
}
