package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/convnet/internal/model"
)

func runEval(args []string) {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	configPath := fs.String("config", "", "Model config (YAML)")
	params := fs.String("params", "params.cnet", "Saved parameters")
	batchSize := fs.Int("batch", 100, "Evaluation batch size")
	capture := fs.Bool("capture", false, "Print feature-map statistics of the first batch")
	seed := fs.Uint64("seed", 43, "Seed for synthetic data and the train/test split")
	var data dataFlags
	data.register(fs)
	_ = fs.Parse(args)

	cfg := loadModelConfig(*configPath)
	net, err := model.New(cfg)
	if err != nil {
		log.Fatalf("Failed to build network: %v", err)
	}
	if err := net.LoadParams(*params); err != nil {
		log.Fatalf("Failed to load parameters: %v", err)
	}

	_, testSet, err := data.load(cfg, rand.New(rand.NewPCG(*seed, *seed)))
	if err != nil {
		log.Fatalf("Failed to load data: %v", err)
	}

	res, err := net.Evaluate(testSet.Images, testSet.LabelTensor(), model.EvalOptions{
		BatchSize: *batchSize,
		Capture:   *capture || cfg.Visualize,
	})
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}

	fmt.Printf("Samples:  %d\n", res.Samples)
	fmt.Printf("Accuracy: %.4f\n", res.Accuracy)
	fmt.Printf("Macro F1: %.4f\n", res.F1)
	fmt.Printf("\nPer class:\n")
	for c := range res.Precision {
		fmt.Printf("  %3d  precision %.4f  recall %.4f\n", c, res.Precision[c], res.Recall[c])
	}
	fmt.Printf("\nConfusion matrix (rows: true class, columns: predicted):\n%s", res.Confusion)
	printFeatureMaps(res.FeatureMaps)
}

// printFeatureMaps prints the value range of every captured channel.
func printFeatureMaps(maps []model.FeatureMap) {
	if len(maps) == 0 {
		return
	}
	fmt.Printf("\nFeature maps (first sample):\n")
	for _, fm := range maps {
		c := fm.Maps.Dim(0)
		plane := fm.Maps.NumElements() / c
		fmt.Printf("  %-12s %v\n", fm.Layer, fm.Maps.Shape())
		for ch := 0; ch < c; ch++ {
			values := fm.Maps.Data()[ch*plane : (ch+1)*plane]
			fmt.Printf("    channel %2d  min %8.4f  max %8.4f  mean %8.4f\n",
				ch, floats.Min(values), floats.Max(values), floats.Sum(values)/float64(plane))
		}
	}
}
