//go:build ignore

// generate_testdata.go writes sample embeddings datasets for benchmarking
// and manual testing.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	testdata/benchmark/small.jsonl   (500 points, 6 levels)
//	testdata/benchmark/medium.jsonl  (5000 points, 11 levels)
//	testdata/benchmark/large.jsonl   (50000 points, 11 levels)
//	testdata/benchmark/ragged.json   (points with missing levels)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/clusterplot/pkg/loader"
	"github.com/vanderheijden86/clusterplot/pkg/testutil"
)

type dataset struct {
	name   string
	points int
	levels int
}

var datasets = []dataset{
	{"small", 500, 6},
	{"medium", 5000, 11},
	{"large", 50000, 11},
}

func main() {
	outputDir := "testdata/benchmark"
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%d points)...\n", ds.name, ds.points)

		pts := loader.Sample(loader.SampleConfig{
			Points:    ds.points,
			Levels:    ds.levels,
			Branching: 3,
			Seed:      uint64(ds.points), // Reproducible per-size
		})
		jsonl := testutil.ToJSONL(pts)

		outputPath := filepath.Join(outputDir, ds.name+".jsonl")
		if err := os.WriteFile(outputPath, []byte(jsonl), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
			os.Exit(1)
		}
		fmt.Printf("  Written %s (%d bytes)\n", outputPath, len(jsonl))
	}

	ragged := testutil.New(testutil.GeneratorConfig{Levels: 4, Branching: 3}).Ragged(200, 5)
	outputPath := filepath.Join(outputDir, "ragged.json")
	if err := os.WriteFile(outputPath, []byte(testutil.ToJSON(ragged)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
		os.Exit(1)
	}

	fmt.Println("\nDone! Test datasets created in", outputDir)
}
