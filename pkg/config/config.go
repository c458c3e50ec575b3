// Package config loads server settings from a YAML file, a .env file and
// the process environment, in that order of increasing precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"delivery_router/pkg/optimize"
	"delivery_router/pkg/streetmap"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DELIVERY_"

// Config is the full server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Map       MapConfig       `yaml:"map"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxConcurrent  int           `yaml:"max_concurrent"`
	CORSOrigin     string        `yaml:"cors_origin"`
	RateLimit      float64       `yaml:"rate_limit"` // requests per second, 0 disables
	RateBurst      int           `yaml:"rate_burst"`
	MaxDeliveries  int           `yaml:"max_deliveries"`
}

// MapConfig locates the street map.
type MapConfig struct {
	Path             string  `yaml:"path"`
	LargestComponent bool    `yaml:"largest_component"`
	MaxSnapMeters    float64 `yaml:"max_snap_meters"`
}

// OptimizerConfig is the annealing schedule.
type OptimizerConfig struct {
	Retention       float64 `yaml:"retention"`
	AttemptsPerTemp int     `yaml:"attempts_per_temp"`
	MinTemp         float64 `yaml:"min_temp"`
}

// Schedule converts the settings to the optimizer's config.
func (o OptimizerConfig) Schedule() optimize.Config {
	return optimize.Config{
		Retention:       o.Retention,
		AttemptsPerTemp: o.AttemptsPerTemp,
		MinTemp:         o.MinTemp,
	}
}

// LogConfig selects the logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration.
func Default() Config {
	sched := optimize.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Addr:           ":8080",
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   30 * time.Second,
			RequestTimeout: 20 * time.Second,
			MaxConcurrent:  runtime.NumCPU() * 2,
			RateLimit:      50,
			RateBurst:      100,
			MaxDeliveries:  200,
		},
		Map: MapConfig{
			Path:          "mapdata.txt",
			MaxSnapMeters: streetmap.DefaultMaxSnapMeters,
		},
		Optimizer: OptimizerConfig{
			Retention:       sched.Retention,
			AttemptsPerTemp: sched.AttemptsPerTemp,
			MinTemp:         sched.MinTemp,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds the configuration. path is an optional YAML file and envFile
// an optional .env file; a missing .env file is not an error. Environment
// variables override both.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decodeYAML(bytes.NewReader(data), &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overrides cfg from DELIVERY_* variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *float64) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = f
		return nil
	}
	integer := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}
	boolean := func(name string, dst *bool) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
		return nil
	}

	str("ADDR", &cfg.Server.Addr)
	str("CORS_ORIGIN", &cfg.Server.CORSOrigin)
	str("MAP_PATH", &cfg.Map.Path)
	str("LOG_LEVEL", &cfg.Log.Level)

	return errors.Join(
		num("RATE_LIMIT", &cfg.Server.RateLimit),
		integer("RATE_BURST", &cfg.Server.RateBurst),
		integer("MAX_CONCURRENT", &cfg.Server.MaxConcurrent),
		integer("MAX_DELIVERIES", &cfg.Server.MaxDeliveries),
		num("MAX_SNAP_METERS", &cfg.Map.MaxSnapMeters),
		boolean("LARGEST_COMPONENT", &cfg.Map.LargestComponent),
		boolean("LOG_DEVELOPMENT", &cfg.Log.Development),
	)
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is empty"))
	}
	if c.Server.MaxConcurrent < 1 {
		errs = append(errs, fmt.Errorf("server.max_concurrent %d must be at least 1", c.Server.MaxConcurrent))
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.request_timeout %s must be positive", c.Server.RequestTimeout))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit %v must not be negative", c.Server.RateLimit))
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("server.rate_burst %d must be at least 1", c.Server.RateBurst))
	}
	if c.Server.MaxDeliveries < 1 {
		errs = append(errs, fmt.Errorf("server.max_deliveries %d must be at least 1", c.Server.MaxDeliveries))
	}
	if c.Map.Path == "" {
		errs = append(errs, errors.New("map.path is empty"))
	}
	if !(c.Map.MaxSnapMeters > 0) {
		errs = append(errs, fmt.Errorf("map.max_snap_meters %v must be positive", c.Map.MaxSnapMeters))
	}
	if err := c.Optimizer.Schedule().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("optimizer: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
