// Command genreadings seeds the SQLite store with synthetic sensor readings
// for local development and load testing. Values are drawn around realistic
// baselines, with an optional fraction of degraded-water days so the daily
// classifier has something interesting to chew on.
//
// Usage:
//
//	go run ./cmd/genreadings \
//	  -db data/water_quality.db \
//	  -days 14 -per-day 48 -seed 1
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
	"github.com/couchcryptid/water-quality-monitor/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dbPath := flag.String("db", "data/water_quality.db", "path to the SQLite database")
	days := flag.Int("days", 14, "number of past days to seed (ending yesterday)")
	perDay := flag.Int("per-day", 48, "readings per day")
	seed := flag.Int64("seed", 1, "random seed for reproducible fixtures")
	degradedEvery := flag.Int("degraded-every", 5, "every Nth day gets degraded water values (0 disables)")
	flag.Parse()

	if *days <= 0 || *perDay <= 0 {
		flag.Usage()
		return fmt.Errorf("-days and -per-day must be positive")
	}

	st, err := store.Open(*dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	rng := rand.New(rand.NewSource(*seed))
	ctx := context.Background()

	end := domain.DayOf(time.Now().UTC())
	start := end.AddDate(0, 0, -*days)

	var total int
	for day := 0; day < *days; day++ {
		date := start.AddDate(0, 0, day)
		degraded := *degradedEvery > 0 && day%*degradedEvery == *degradedEvery-1

		for i := 0; i < *perDay; i++ {
			// Spread readings evenly across the day with a little jitter.
			offset := time.Duration(i) * (24 * time.Hour / time.Duration(*perDay))
			jitter := time.Duration(rng.Intn(60)) * time.Second

			reading := synthReading(rng, degraded)
			reading.Timestamp = date.Add(offset + jitter)

			if err := st.CreateReading(ctx, &reading); err != nil {
				return fmt.Errorf("insert reading for %s: %w", date.Format("2006-01-02"), err)
			}
			total++
		}

		label := "normal"
		if degraded {
			label = "degraded"
		}
		log.Printf("%s: %d readings (%s)", date.Format("2006-01-02"), *perDay, label)
	}

	log.Printf("seeded %d readings across %d days into %s", total, *days, *dbPath)
	return nil
}

// synthReading draws one reading. Normal days sit near drinking-water
// baselines; degraded days drift toward high TDS and turbidity with low pH.
func synthReading(rng *rand.Rand, degraded bool) domain.SensorReading {
	if degraded {
		return domain.SensorReading{
			PH:          gauss(rng, 5.8, 0.4, 0, 14),
			TDS:         gauss(rng, 900, 150, 0, 3000),
			Turbidity:   gauss(rng, 8.5, 2.0, 0, 100),
			Temperature: gauss(rng, 29, 2.0, -50, 100),
		}
	}
	return domain.SensorReading{
		PH:          gauss(rng, 7.2, 0.25, 0, 14),
		TDS:         gauss(rng, 340, 60, 0, 3000),
		Turbidity:   gauss(rng, 2.1, 0.8, 0, 100),
		Temperature: gauss(rng, 24, 1.5, -50, 100),
	}
}

func gauss(rng *rand.Rand, mean, stddev, lo, hi float64) float64 {
	v := mean + rng.NormFloat64()*stddev
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
