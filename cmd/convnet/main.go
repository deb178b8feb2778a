// Package main provides the convnet CLI.
//
// Usage:
//
//	convnet train   [-config model.yaml] [-train-config train.yaml] [-data synthetic|idx|csv] ...
//	convnet eval    -params params.cnet [-config model.yaml] [-data ...]
//	convnet inspect [-config model.yaml] [-params params.cnet]
//	convnet version
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/born-ml/convnet/internal/model"
	"github.com/born-ml/convnet/internal/serialization"
)

const version = "v" + serialization.Version

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "train":
		runTrain(args)
	case "eval":
		runEval(args)
	case "inspect":
		runInspect(args)
	case "version":
		fmt.Printf("convnet %s\n", version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("convnet - CNN and VGG16 image classification")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  train      Train a network and save its parameters")
	fmt.Println("  eval       Evaluate saved parameters on a dataset")
	fmt.Println("  inspect    Print a network's layers and parameter shapes")
	fmt.Println("  version    Show version")
	fmt.Println("")
	fmt.Println("Run 'convnet <command> -h' for command flags.")
}

// loadModelConfig reads path, or returns the defaults when path is empty.
func loadModelConfig(path string) model.Config {
	if path == "" {
		return model.DefaultConfig()
	}
	cfg, err := model.LoadConfig(path)
	if err != nil {
		log.Fatalf("Failed to load model config: %v", err)
	}
	return cfg
}
