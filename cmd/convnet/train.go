package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/convnet/internal/model"
	"github.com/born-ml/convnet/internal/train"
)

func runTrain(args []string) {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	configPath := fs.String("config", "", "Model config (YAML)")
	trainConfigPath := fs.String("train-config", "", "Training config (YAML)")
	epochs := fs.Int("epochs", 0, "Number of epochs (overrides the training config)")
	batchSize := fs.Int("batch", 0, "Mini-batch size (overrides the training config)")
	lr := fs.Float64("lr", 0, "Learning rate (overrides the training config)")
	optimizer := fs.String("optimizer", "", "Optimizer: adam or sgd (overrides the training config)")
	out := fs.String("out", "params.cnet", "Where to save the trained parameters")
	checkpointDir := fs.String("checkpoint-dir", "", "Write a checkpoint after every epoch")
	resume := fs.String("resume", "", "Resume from a checkpoint file")
	verbose := fs.Bool("verbose", false, "Print the loss of every iteration")
	var data dataFlags
	data.register(fs)
	_ = fs.Parse(args)

	cfg := loadModelConfig(*configPath)
	tcfg := train.DefaultConfig()
	if *trainConfigPath != "" {
		var err error
		if tcfg, err = train.LoadConfig(*trainConfigPath); err != nil {
			log.Fatalf("Failed to load training config: %v", err)
		}
	}
	if *epochs > 0 {
		tcfg.Epochs = *epochs
	}
	if *batchSize > 0 {
		tcfg.BatchSize = *batchSize
	}
	if *lr > 0 {
		tcfg.Optimizer.LR = *lr
	}
	if *optimizer != "" {
		tcfg.Optimizer.Name = *optimizer
	}
	if *checkpointDir != "" {
		tcfg.CheckpointDir = *checkpointDir
	}
	tcfg.Verbose = tcfg.Verbose || *verbose

	rng := rand.New(rand.NewPCG(tcfg.Seed, tcfg.Seed))
	trainSet, testSet, err := data.load(cfg, rng)
	if err != nil {
		log.Fatalf("Failed to load data: %v", err)
	}
	fmt.Printf("Train: %d samples, Test: %d samples, %d classes\n", trainSet.Len(), testSet.Len(), cfg.OutputSize)

	net, err := model.New(cfg)
	if err != nil {
		log.Fatalf("Failed to build network: %v", err)
	}
	fmt.Printf("\n%s\n", net)

	trainer, err := train.New(net, trainSet, testSet, tcfg)
	if err != nil {
		log.Fatalf("Failed to create trainer: %v", err)
	}
	trainer.Rng = rng
	if *resume != "" {
		if err := trainer.LoadCheckpoint(*resume); err != nil {
			log.Fatalf("Failed to resume: %v", err)
		}
		fmt.Printf("Resumed at epoch %d (step %d)\n", trainer.Epoch(), trainer.Step())
	}

	fmt.Printf("\nOptimizer: %s (lr=%g), batch %d, %d epochs, %d iterations per epoch\n\n",
		trainer.Optimizer.Name(), trainer.Optimizer.LR(), tcfg.BatchSize, tcfg.Epochs, trainer.IterationsPerEpoch())

	history, err := trainer.Train()
	if err != nil {
		log.Fatalf("Training failed: %v", err)
	}

	if err := net.SaveParams(*out); err != nil {
		log.Fatalf("Failed to save parameters: %v", err)
	}
	fmt.Printf("Saved parameters to %s\n", *out)

	fmt.Printf("\nConfusion matrix (rows: true class, columns: predicted):\n%s", history.Final.Confusion)
	printLossSummary(history.Loss)

	if cfg.Visualize {
		res, err := net.Evaluate(testSet.Images, testSet.LabelTensor(), model.EvalOptions{Capture: true})
		if err != nil {
			log.Fatalf("Failed to capture feature maps: %v", err)
		}
		printFeatureMaps(res.FeatureMaps)
	}
}

// printLossSummary prints the mean loss of each tenth of the run.
func printLossSummary(losses []float64) {
	if len(losses) == 0 {
		return
	}
	chunk := max(len(losses)/10, 1)
	var b strings.Builder
	for start := 0; start < len(losses); start += chunk {
		end := min(start+chunk, len(losses))
		fmt.Fprintf(&b, " %.4f", floats.Sum(losses[start:end])/float64(end-start))
	}
	fmt.Printf("\nLoss (mean per %d iterations):%s\n", chunk, b.String())
}
