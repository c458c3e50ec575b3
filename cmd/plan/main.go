// Command plan prints driving instructions for a delivery tour.
//
//	plan [flags] <mapdata.txt> <deliveries.txt>
package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"go.uber.org/zap"

	"delivery_router/pkg/delivery"
	"delivery_router/pkg/geo"
	"delivery_router/pkg/logging"
	"delivery_router/pkg/optimize"
	"delivery_router/pkg/planner"
	"delivery_router/pkg/routing"
	"delivery_router/pkg/streetmap"
)

func main() {
	seed := flag.Int64("seed", 0, "Random seed for the optimizer (default: time based)")
	verbose := flag.Bool("v", false, "Log progress to stderr")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: plan [-seed N] [-v] <mapdata.txt> <deliveries.txt>")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(1)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log, err := logging.Named("plan", level, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(os.Stdout, log, flag.Arg(0), flag.Arg(1), resolveSeed(flag.CommandLine, *seed, time.Now)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveSeed returns seed if -seed was given on the command line, including
// -seed 0, and a clock-derived seed otherwise.
func resolveSeed(fs *flag.FlagSet, seed int64, now func() time.Time) int64 {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			set = true
		}
	})
	if set {
		return seed
	}
	return now().UnixNano()
}

func run(w io.Writer, log *zap.Logger, mapPath, deliveriesPath string, seed int64) error {
	m, err := streetmap.LoadFile(mapPath)
	if err != nil {
		return fmt.Errorf("unable to load map data: %w", err)
	}
	log.Debug("map loaded", zap.Int("coords", m.NumCoords()), zap.Int("segments", m.NumSegments()))

	depot, reqs, err := delivery.LoadFile(deliveriesPath)
	if err != nil {
		return fmt.Errorf("unable to load delivery request data: %w", err)
	}
	log.Debug("deliveries loaded", zap.Int("stops", len(reqs)), zap.Int64("seed", seed))

	fmt.Fprintln(w, "Generating route...")
	fmt.Fprintln(w)

	p := planner.New(routing.NewAStar(m), optimize.NewAnnealer(optimize.DefaultConfig()))
	plan, err := p.Plan(depot, reqs, rand.New(rand.NewSource(seed)))
	if err != nil {
		return fmt.Errorf("unable to generate delivery plan: %w", err)
	}
	log.Debug("plan ready",
		zap.Float64("crow_original_meters", plan.CrowOriginalMeters),
		zap.Float64("crow_optimized_meters", plan.CrowOptimizedMeters),
		zap.Int("proposals", plan.Optimizer.Proposals))

	for _, c := range plan.Commands {
		fmt.Fprintln(w, c)
	}
	fmt.Fprintf(w, "You are back at the depot and your deliveries are done!\n")
	fmt.Fprintf(w, "%.2f miles travelled for all deliveries.\n", geo.MetersToMiles(plan.TotalMeters))
	return nil
}
