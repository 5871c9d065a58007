package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/cognicore/jaksense/internal/dataset"
	"github.com/cognicore/jaksense/internal/logging"
	"github.com/cognicore/jaksense/pkg/jaksense/comment"
	"github.com/cognicore/jaksense/pkg/jaksense/config"
	"github.com/cognicore/jaksense/pkg/jaksense/ingest"
)

func main() {
	var (
		input      = flag.String("input", "", "CSV or JSONL corpus (default: embedded sample)")
		configPath = flag.String("config", "", "YAML config file (optional)")
		top        = flag.Int("top", 10, "Tags listed per mode")
		reclassify = flag.Bool("reclassify", false, "Classify and tag every text again instead of trusting dataset labels")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.Init(cfg.Log.JSON, logging.ParseLevel(cfg.Log.Level))

	components, err := (&config.Loader{Config: cfg, Logger: logger}).Load()
	if err != nil {
		log.Fatalf("load components: %v", err)
	}
	ingester := ingest.New(components.Router)

	var records []comment.Record
	loader := &dataset.Loader{Ingester: ingester, Logger: logger}
	if *input == "" {
		records = loader.Records(dataset.Sample())
	} else if records, err = loader.Load(*input); err != nil {
		log.Fatalf("load corpus: %v", err)
	}

	if *reclassify {
		records, err = reclassifyAll(context.Background(), records, ingester, components.Classifier)
		if err != nil {
			log.Fatalf("reclassify: %v", err)
		}
	}

	out, err := json.MarshalIndent(buildReport(records, components.Taxonomies, *top), "", "  ")
	if err != nil {
		log.Fatalf("marshal report: %v", err)
	}
	fmt.Println(string(out))
}
