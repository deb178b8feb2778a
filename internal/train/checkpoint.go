package train

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/born-ml/convnet/internal/serialization"
	"github.com/born-ml/convnet/internal/tensor"
)

// optimPrefix marks optimizer state tensors inside a checkpoint.
const optimPrefix = "optim."

// CheckpointName returns the file name of the checkpoint for epoch.
func CheckpointName(epoch int) string {
	return fmt.Sprintf("checkpoint-epoch%03d.cnet", epoch)
}

// SaveCheckpointDir writes a checkpoint named after the current epoch into
// dir, creating it if needed, and returns the file path.
func (t *Trainer) SaveCheckpointDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	path := filepath.Join(dir, CheckpointName(t.epoch))
	return path, t.SaveCheckpoint(path)
}

// SaveCheckpoint writes the network parameters, running statistics and
// optimizer state together with the training position.
func (t *Trainer) SaveCheckpoint(path string) error {
	tensors := t.Network.Snapshot()

	state := t.Optimizer.StateDict()
	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		tensors = append(tensors, serialization.NamedTensor{Name: optimPrefix + name, Tensor: state[name]})
	}

	header := t.Network.Header()
	header.CheckpointMeta = &serialization.CheckpointMeta{
		Epoch:     t.epoch,
		Step:      t.step,
		Loss:      t.lastLoss,
		Optimizer: t.Optimizer.Name(),
	}

	w, err := serialization.NewWriter(path)
	if err != nil {
		return err
	}
	if err := w.Write(tensors, header); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return w.Close()
}

// LoadCheckpoint restores a checkpoint written by SaveCheckpoint. The next
// Train call continues from the saved step.
func (t *Trainer) LoadCheckpoint(path string) error {
	r, err := serialization.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint: %w", err)
	}
	defer r.Close()

	tensors, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read checkpoint: %w", err)
	}
	header := r.Header()
	meta := header.CheckpointMeta
	if meta == nil {
		return fmt.Errorf("%s is not a training checkpoint", path)
	}
	if meta.Optimizer != t.Optimizer.Name() {
		return fmt.Errorf("checkpoint was written by %s, trainer uses %s", meta.Optimizer, t.Optimizer.Name())
	}

	var params []serialization.NamedTensor
	state := make(map[string]*tensor.Tensor)
	for _, nt := range tensors {
		if name, ok := strings.CutPrefix(nt.Name, optimPrefix); ok {
			state[name] = nt.Tensor
			continue
		}
		params = append(params, nt)
	}

	if err := t.Network.Restore(params, header); err != nil {
		return err
	}
	if err := t.Optimizer.LoadStateDict(state); err != nil {
		return fmt.Errorf("failed to restore optimizer: %w", err)
	}
	t.epoch = meta.Epoch
	t.step = meta.Step
	t.lastLoss = meta.Loss
	return nil
}
