package model

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/born-ml/convnet/internal/serialization"
	"github.com/born-ml/convnet/internal/tensor"
)

// ErrArchitectureMismatch is returned when saved parameters do not fit the
// live network.
var ErrArchitectureMismatch = errors.New("architecture mismatch")

// Snapshot returns the network's parameters in creation order followed by
// the batch-norm running statistics ("state.running_mean<i>",
// "state.running_var<i>"). Parameter tensors are shared, not copied.
func (n *Network) Snapshot() []serialization.NamedTensor {
	tensors := make([]serialization.NamedTensor, 0, len(n.params)+2*len(n.norms))
	for _, p := range n.params {
		tensors = append(tensors, serialization.NamedTensor{Name: p.Name(), Tensor: p.Tensor()})
	}
	for _, bn := range n.norms {
		mean, variance := n.runningStats(bn)
		tensors = append(tensors,
			serialization.NamedTensor{Name: runningMeanName(bn.index), Tensor: mean},
			serialization.NamedTensor{Name: runningVarName(bn.index), Tensor: variance},
		)
	}
	return tensors
}

// runningStats returns the running statistics, zeros before the first
// forward pass.
func (n *Network) runningStats(bn normEntry) (*tensor.Tensor, *tensor.Tensor) {
	if mean, variance := bn.layer.RunningMean(), bn.layer.RunningVar(); mean != nil {
		return mean, variance
	}
	g := bn.layer.Parameters()[0].Tensor()
	return tensor.ZerosLike(g), tensor.ZerosLike(g)
}

// Header returns the file header describing this network.
func (n *Network) Header() serialization.Header {
	return serialization.Header{
		Architecture: n.arch.Name,
		RunID:        n.runID,
		Metadata: map[string]string{
			"input_dim": fmt.Sprint(n.arch.InputDim),
			"classes":   strconv.Itoa(n.classes),
			"dtype":     n.config.dtype().String(),
			"device":    n.config.device().String(),
			"seed":      strconv.FormatUint(n.config.Seed, 10),
		},
	}
}

// WriteParams writes all parameters and running statistics to w.
func (n *Network) WriteParams(w io.Writer) error {
	return serialization.WriteTo(w, n.Snapshot(), n.Header())
}

// SaveParams writes all parameters and running statistics to path.
func (n *Network) SaveParams(path string) error {
	w, err := serialization.NewWriter(path)
	if err != nil {
		return err
	}
	if err := w.Write(n.Snapshot(), n.Header()); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to save parameters: %w", err)
	}
	return w.Close()
}

// ReadParams loads parameters written by WriteParams.
func (n *Network) ReadParams(r io.Reader) error {
	tensors, header, err := serialization.ReadFrom(r, serialization.ReaderOptions{})
	if err != nil {
		return fmt.Errorf("failed to read parameters: %w", err)
	}
	return n.Restore(tensors, header)
}

// LoadParams loads parameters written by SaveParams.
func (n *Network) LoadParams(path string) error {
	r, err := serialization.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open parameters: %w", err)
	}
	defer r.Close()

	tensors, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read parameters: %w", err)
	}
	return n.Restore(tensors, r.Header())
}

// Restore replaces the network's parameters and running statistics.
//
// The tensors must carry exactly the network's names with matching shapes
// and precision; otherwise Restore returns an error wrapping
// ErrArchitectureMismatch and leaves the network unchanged. Loaded tensors
// are bound into the shared Parameters and moved to the network's device.
func (n *Network) Restore(tensors []serialization.NamedTensor, header serialization.Header) error {
	if header.Architecture != "" && header.Architecture != n.arch.Name {
		return fmt.Errorf("%w: saved %s, network is %s", ErrArchitectureMismatch, header.Architecture, n.arch.Name)
	}

	loaded := make(map[string]*tensor.Tensor, len(tensors))
	for _, nt := range tensors {
		loaded[nt.Name] = nt.Tensor
	}

	expected := n.Snapshot()
	for _, want := range expected {
		got, ok := loaded[want.Name]
		if !ok {
			return fmt.Errorf("%w: missing %s", ErrArchitectureMismatch, want.Name)
		}
		if !got.Shape().Equal(want.Tensor.Shape()) {
			return fmt.Errorf("%w: %s has shape %v, network expects %v", ErrArchitectureMismatch, want.Name, got.Shape(), want.Tensor.Shape())
		}
		if got.DType() != want.Tensor.DType() {
			return fmt.Errorf("%w: %s is %s, network expects %s", ErrArchitectureMismatch, want.Name, got.DType(), want.Tensor.DType())
		}
	}
	if len(loaded) != len(expected) {
		return fmt.Errorf("%w: saved %d tensors, network has %d", ErrArchitectureMismatch, len(loaded), len(expected))
	}

	for _, p := range n.params {
		if err := p.Bind(loaded[p.Name()].Clone()); err != nil {
			return err
		}
	}
	for _, bn := range n.norms {
		if err := bn.layer.SetRunningStats(loaded[runningMeanName(bn.index)].Clone(), loaded[runningVarName(bn.index)].Clone()); err != nil {
			return err
		}
	}
	return nil
}

func runningMeanName(i int) string {
	return fmt.Sprintf("%srunning_mean%d", serialization.StatePrefix, i)
}

func runningVarName(i int) string {
	return fmt.Sprintf("%srunning_var%d", serialization.StatePrefix, i)
}
