package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"delivery_router/pkg/api"
	"delivery_router/pkg/config"
	"delivery_router/pkg/logging"
	"delivery_router/pkg/optimize"
	"delivery_router/pkg/routing"
	"delivery_router/pkg/streetmap"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	envFile := flag.String("env", ".env", "Path to .env file (optional)")
	mapPath := flag.String("map", "", "Path to text map file (overrides config)")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	corsOrigin := flag.String("cors-origin", "", "CORS allowed origin (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *mapPath != "" {
		cfg.Map.Path = *mapPath
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *corsOrigin != "" {
		cfg.Server.CORSOrigin = *corsOrigin
	}

	log, err := logging.Named("server", cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	start := time.Now()

	// Load street map.
	log.Info("loading street map", zap.String("path", cfg.Map.Path))
	m, err := streetmap.LoadFile(cfg.Map.Path)
	if err != nil {
		log.Fatal("failed to load street map", zap.Error(err))
	}
	if cfg.Map.LargestComponent {
		m = m.Filter(m.LargestComponent())
	}
	components := m.Components()
	log.Info("street map loaded",
		zap.Int("coords", m.NumCoords()),
		zap.Int("segments", m.NumSegments()),
		zap.Int("components", components))

	log.Info("building R-tree spatial index")
	snapper := streetmap.NewSnapper(m)

	log.Info("ready", zap.Duration("load_time", time.Since(start).Round(time.Millisecond)))

	handlers := api.NewHandlers(api.Deps{
		Router:        routing.NewAStar(m),
		Snapper:       snapper,
		Optimizer:     optimize.NewAnnealer(cfg.Optimizer.Schedule()),
		Logger:        log,
		MaxSnapMeters: cfg.Map.MaxSnapMeters,
		MaxDeliveries: cfg.Server.MaxDeliveries,
		Stats: api.StatsResponse{
			NumCoords:     m.NumCoords(),
			NumSegments:   m.NumSegments(),
			NumComponents: components,
			NumSnappable:  snapper.Len(),
		},
	})

	srv := api.NewServer(api.ServerConfig{
		Addr:           cfg.Server.Addr,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxConcurrent:  cfg.Server.MaxConcurrent,
		CORSOrigin:     cfg.Server.CORSOrigin,
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
	}, handlers, log)

	if err := api.ListenAndServe(srv, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
