// Command checkmodel loads a random-forest artifact, prints its metadata, and
// scores a handful of probe vectors. Useful for sanity-checking a freshly
// exported model before deploying it.
//
// Usage:
//
//	go run ./cmd/checkmodel -model ml_artifacts/water_quality_forest.json
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"

	"github.com/couchcryptid/water-quality-monitor/internal/classifier"
)

// probe is a labeled input vector for spot-checking model output.
type probe struct {
	name        string
	ph          float64
	tds         float64
	turbidity   float64
	temperature float64
}

var probes = []probe{
	{name: "clean baseline", ph: 7.2, tds: 350, turbidity: 2.5, temperature: 25},
	{name: "high tds, cloudy", ph: 7.0, tds: 900, turbidity: 8.0, temperature: 26},
	{name: "acidic runoff", ph: 5.2, tds: 600, turbidity: 12.0, temperature: 22},
	{name: "warm but clear", ph: 7.5, tds: 280, turbidity: 1.2, temperature: 31},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	modelPath := flag.String("model", "ml_artifacts/water_quality_forest.json", "path to the model artifact")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	model := classifier.New(*modelPath, logger)
	if err := model.Load(); err != nil {
		return fmt.Errorf("load artifact: %w", err)
	}

	fmt.Printf("artifact: %s\n", *modelPath)
	fmt.Printf("version:  %s\n", model.Version())
	fmt.Printf("classes:  %v\n", model.Classes())

	ctx := context.Background()
	fmt.Println("\nprobe results:")
	for _, p := range probes {
		result, err := model.Classify(ctx, p.ph, p.tds, p.turbidity, p.temperature)
		if err != nil {
			return fmt.Errorf("classify %q: %w", p.name, err)
		}
		if result.Confidence != nil {
			fmt.Printf("  %-18s ph=%-5.2f tds=%-6.1f turb=%-5.2f temp=%-5.1f -> %s (%.3f)\n",
				p.name, p.ph, p.tds, p.turbidity, p.temperature, result.Label, *result.Confidence)
		} else {
			fmt.Printf("  %-18s ph=%-5.2f tds=%-6.1f turb=%-5.2f temp=%-5.1f -> %s\n",
				p.name, p.ph, p.tds, p.turbidity, p.temperature, result.Label)
		}
	}

	return nil
}
