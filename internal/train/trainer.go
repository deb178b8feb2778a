// Package train runs mini-batch training of a network.
//
// The Trainer samples random mini-batches, asks the network for gradients
// and hands them to an optimizer. After every epoch it evaluates accuracy
// and macro F1 on a sample of the training and test sets and records them
// in a History.
//
// Example:
//
//	trainer, err := train.New(net, trainSet, testSet, train.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	history, err := trainer.Train()
package train

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"github.com/born-ml/convnet/internal/dataset"
	"github.com/born-ml/convnet/internal/model"
	"github.com/born-ml/convnet/internal/optim"
)

// History records the progress of a training run.
type History struct {
	Loss     []float64 // Per iteration
	TrainAcc []float64 // Per epoch
	TestAcc  []float64
	TrainF1  []float64
	TestF1   []float64

	// Final is the evaluation on the full test set after the last epoch.
	Final model.Result
}

// Trainer trains a network on a dataset.
//
// The fields may be changed between construction and Train. A Trainer is
// not safe for concurrent use.
type Trainer struct {
	Network   *model.Network
	Optimizer optim.Optimizer
	TrainSet  *dataset.Dataset
	TestSet   *dataset.Dataset

	Epochs        int
	BatchSize     int
	EvalSamples   int // 0 = evaluate every sample
	EvalBatchSize int
	Verbose       bool
	CheckpointDir string

	Out io.Writer  // Progress output (default: os.Stdout)
	Rng *rand.Rand // Mini-batch sampling

	epoch    int
	step     int64
	lastLoss float64
}

// New creates a trainer from cfg, building the configured optimizer.
func New(net *model.Network, trainSet, testSet *dataset.Dataset, cfg Config) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opt, err := optim.New(cfg.Optimizer)
	if err != nil {
		return nil, err
	}
	return &Trainer{
		Network:       net,
		Optimizer:     opt,
		TrainSet:      trainSet,
		TestSet:       testSet,
		Epochs:        cfg.Epochs,
		BatchSize:     cfg.BatchSize,
		EvalSamples:   cfg.EvalSamples,
		EvalBatchSize: cfg.EvalBatchSize,
		Verbose:       cfg.Verbose,
		CheckpointDir: cfg.CheckpointDir,
		Out:           os.Stdout,
		Rng:           rand.New(rand.NewPCG(cfg.Seed, cfg.Seed)),
	}, nil
}

// Epoch returns the number of completed epochs.
func (t *Trainer) Epoch() int {
	return t.epoch
}

// Step returns the number of completed iterations.
func (t *Trainer) Step() int64 {
	return t.step
}

// IterationsPerEpoch returns how many mini-batches make up one epoch.
func (t *Trainer) IterationsPerEpoch() int {
	return max(t.TrainSet.Len()/t.BatchSize, 1)
}

func (t *Trainer) validate() error {
	switch {
	case t.Network == nil:
		return errors.New("trainer has no network")
	case t.Optimizer == nil:
		return errors.New("trainer has no optimizer")
	case t.TrainSet == nil || t.TrainSet.Len() == 0:
		return errors.New("trainer has no training data")
	case t.TestSet == nil || t.TestSet.Len() == 0:
		return errors.New("trainer has no test data")
	case t.Epochs <= 0 || t.BatchSize <= 0:
		return fmt.Errorf("epochs (%d) and batch size (%d) must be positive", t.Epochs, t.BatchSize)
	case t.TrainSet.Classes != t.Network.Classes():
		return fmt.Errorf("training data has %d classes, network has %d", t.TrainSet.Classes, t.Network.Classes())
	}
	return nil
}

// Train runs the remaining iterations of Epochs epochs.
//
// A trainer restored from a checkpoint continues at the saved step.
func (t *Trainer) Train() (*History, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	if t.Out == nil {
		t.Out = io.Discard
	}
	if t.Rng == nil {
		t.Rng = rand.New(rand.NewPCG(model.DefaultSeed, model.DefaultSeed))
	}

	perEpoch := int64(t.IterationsPerEpoch())
	maxIter := int64(t.Epochs) * perEpoch
	history := &History{}

	for t.step < maxIter {
		loss, err := t.TrainStep()
		if err != nil {
			return history, fmt.Errorf("iteration %d: %w", t.step, err)
		}
		history.Loss = append(history.Loss, loss)
		if t.Verbose {
			fmt.Fprintf(t.Out, "train loss: %.6f\n", loss)
		}

		if t.step%perEpoch != 0 {
			continue
		}
		t.epoch++
		if err := t.endEpoch(history); err != nil {
			return history, err
		}
	}

	final, err := t.Network.AccuracyF1Score(t.TestSet.Images, t.TestSet.LabelTensor(), t.EvalBatchSize)
	if err != nil {
		return history, fmt.Errorf("final evaluation: %w", err)
	}
	history.Final = final
	fmt.Fprintf(t.Out, "=============== Final Test Accuracy ===============\n")
	fmt.Fprintf(t.Out, "test acc: %.4f, test f1: %.4f\n", final.Accuracy, final.F1)
	return history, nil
}

// TrainStep trains on one random mini-batch and returns its loss.
func (t *Trainer) TrainStep() (float64, error) {
	x, labels := t.TrainSet.Batch(t.TrainSet.Sample(t.BatchSize, t.Rng))
	grads := t.Network.Gradient(x, labels)
	if err := t.Optimizer.Update(t.Network.Parameters(), grads); err != nil {
		return 0, err
	}
	t.step++
	t.lastLoss = t.Network.LastLoss()
	return t.lastLoss, nil
}

// endEpoch evaluates both sets, reports progress and writes a checkpoint.
func (t *Trainer) endEpoch(history *History) error {
	trainSet, testSet := t.TrainSet.Head(t.EvalSamples), t.TestSet.Head(t.EvalSamples)

	trainRes, err := t.Network.AccuracyF1Score(trainSet.Images, trainSet.LabelTensor(), t.EvalBatchSize)
	if err != nil {
		return fmt.Errorf("epoch %d: train evaluation: %w", t.epoch, err)
	}
	testRes, err := t.Network.AccuracyF1Score(testSet.Images, testSet.LabelTensor(), t.EvalBatchSize)
	if err != nil {
		return fmt.Errorf("epoch %d: test evaluation: %w", t.epoch, err)
	}

	history.TrainAcc = append(history.TrainAcc, trainRes.Accuracy)
	history.TestAcc = append(history.TestAcc, testRes.Accuracy)
	history.TrainF1 = append(history.TrainF1, trainRes.F1)
	history.TestF1 = append(history.TestF1, testRes.F1)

	fmt.Fprintf(t.Out, "=== epoch %d/%d: loss %.4f, train acc %.4f, test acc %.4f, train f1 %.4f, test f1 %.4f ===\n",
		t.epoch, t.Epochs, t.lastLoss, trainRes.Accuracy, testRes.Accuracy, trainRes.F1, testRes.F1)

	if t.CheckpointDir == "" {
		return nil
	}
	path, err := t.SaveCheckpointDir(t.CheckpointDir)
	if err != nil {
		return fmt.Errorf("epoch %d: %w", t.epoch, err)
	}
	fmt.Fprintf(t.Out, "checkpoint: %s\n", path)
	return nil
}
