package main

import (
	"flag"
	"fmt"
	"log"
	"slices"

	"github.com/born-ml/convnet/internal/model"
	"github.com/born-ml/convnet/internal/serialization"
)

func runInspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	configPath := fs.String("config", "", "Model config (YAML)")
	params := fs.String("params", "", "Print the header of a saved parameter or checkpoint file")
	_ = fs.Parse(args)

	cfg := loadModelConfig(*configPath)
	net, err := model.New(cfg)
	if err != nil {
		log.Fatalf("Failed to build network: %v", err)
	}
	fmt.Println(net)

	if *params == "" {
		return
	}
	r, err := serialization.NewReader(*params)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *params, err)
	}
	defer r.Close()

	h := r.Header()
	fmt.Printf("\n%s\n", *params)
	fmt.Printf("  architecture: %s\n", h.Architecture)
	fmt.Printf("  run id:       %s\n", h.RunID)
	fmt.Printf("  created:      %s\n", h.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("  written by:   convnet %s (format %d)\n", h.Version, h.FormatVersion)
	keys := make([]string, 0, len(h.Metadata))
	for k := range h.Metadata {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Printf("  %-13s %s\n", k+":", h.Metadata[k])
	}
	if ck := h.CheckpointMeta; ck != nil {
		fmt.Printf("  checkpoint:   epoch %d, step %d, loss %.4f, %s\n", ck.Epoch, ck.Step, ck.Loss, ck.Optimizer)
	}
	fmt.Printf("  tensors:\n")
	for _, t := range h.Tensors {
		fmt.Printf("    %-24s %-8s %v\n", t.Name, t.DType, t.Shape)
	}
}
