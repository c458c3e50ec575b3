package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"delivery_router/pkg/logging"
	osmparser "delivery_router/pkg/osm"
)

// bboxPresets are named regions selectable with -region.
var bboxPresets = map[string]osmparser.BBox{
	"westwood":  {MinLat: 34.040, MaxLat: 34.080, MinLng: -118.470, MaxLng: -118.420},
	"singapore": {MinLat: 1.15, MaxLat: 1.48, MinLng: 103.6, MaxLng: 104.1},
	"kl":        {MinLat: 2.75, MaxLat: 3.5, MinLng: 101.2, MaxLng: 102.0},
}

func main() {
	input := flag.String("input", "", "Path to .osm.pbf file")
	output := flag.String("output", "mapdata.txt", "Output text map file path")
	bbox := flag.String("bbox", "", "Bounding box filter: minLat,minLng,maxLat,maxLng (e.g. 34.04,-118.47,34.08,-118.42)")
	region := flag.String("region", "", "Named bounding box: westwood, singapore or kl")
	keepAll := flag.Bool("keep-all", false, "Keep every component instead of only the largest")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: preprocess --input <file.osm.pbf> [--output mapdata.txt] [--region westwood|singapore|kl | --bbox minLat,minLng,maxLat,maxLng] [--keep-all]")
		os.Exit(1)
	}

	log, err := logging.Named("preprocess", *logLevel, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	opts := osmparser.ParseOptions{Logger: log}
	switch {
	case *region != "":
		b, ok := bboxPresets[*region]
		if !ok {
			log.Fatal("unknown region", zap.String("region", *region))
		}
		opts.BBox = b
	case *bbox != "":
		var minLat, minLng, maxLat, maxLng float64
		if _, err := fmt.Sscanf(*bbox, "%f,%f,%f,%f", &minLat, &minLng, &maxLat, &maxLng); err != nil {
			log.Fatal("invalid bbox format (expected minLat,minLng,maxLat,maxLng)", zap.Error(err))
		}
		opts.BBox = osmparser.BBox{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}
	}
	if !opts.BBox.IsZero() {
		log.Info("using bounding box filter",
			zap.Float64("min_lat", opts.BBox.MinLat), zap.Float64("max_lat", opts.BBox.MaxLat),
			zap.Float64("min_lng", opts.BBox.MinLng), zap.Float64("max_lng", opts.BBox.MaxLng))
	}

	start := time.Now()

	// Step 1: Parse OSM data.
	f, err := os.Open(*input)
	if err != nil {
		log.Fatal("failed to open input file", zap.Error(err))
	}
	defer f.Close()

	parsed, err := osmparser.Parse(context.Background(), f, opts)
	if err != nil {
		log.Fatal("failed to parse OSM data", zap.Error(err))
	}

	// Step 2: Build the street map.
	m := parsed.Build()
	log.Info("street map built",
		zap.Int("coords", m.NumCoords()),
		zap.Int("segments", m.NumSegments()),
		zap.Int("one_way", len(m.OneWay())),
		zap.Int("components", m.Components()))

	// Step 3: Extract largest connected component.
	if !*keepAll {
		keep := m.LargestComponent()
		if m.NumCoords() > 0 {
			log.Info("largest component",
				zap.Int("coords", len(keep)),
				zap.Float64("percent", float64(len(keep))/float64(m.NumCoords())*100))
		}
		m = m.Filter(keep)
	}

	// Step 4: Write the text map.
	if err := m.WriteFile(*output); err != nil {
		log.Fatal("failed to write map", zap.Error(err))
	}

	info, _ := os.Stat(*output)
	log.Info("done",
		zap.Duration("elapsed", time.Since(start).Round(time.Millisecond)),
		zap.String("output", *output),
		zap.Float64("size_mb", float64(info.Size())/(1024*1024)))
}
