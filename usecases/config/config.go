//
// nose - an automated schema and index advisor for wide-column stores
//
//  Copyright (c) 2026 The NoSE Authors. All rights reserved.
//

// Package config loads the advisor's run configuration: storage
// budget, cost model choice, and search limits. Grounded on
// usecases/config/development.go's load-defaults-then-override-from-
// YAML shape.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AdvisorConfig is the advisor's full run configuration.
type AdvisorConfig struct {
	// StorageBudget is the maximum total index size SearchMILP's C4
	// constraint enforces, in bytes.
	StorageBudget int64 `json:"storageBudget" yaml:"storageBudget"`

	// CostModel names the reference cost model to use: "entry_count" or
	// "field_size".
	CostModel string `json:"costModel" yaml:"costModel"`

	// Search controls the planner and solver's resource limits.
	Search SearchConfig `json:"search" yaml:"search"`

	// Logging controls the advisor's structured logger.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SearchConfig bounds the planner and SearchMILP per spec.md §5's
// cancellation model.
type SearchConfig struct {
	// Deadline is the wall-clock budget for planning and solving,
	// zero means no deadline.
	Deadline time.Duration `json:"deadline" yaml:"deadline"`

	// Workers is the worker-pool size for PlanAll's per-query fan-out;
	// zero means unbounded (GOMAXPROCS-sized).
	Workers int `json:"workers" yaml:"workers"`
}

// LoggingConfig controls the advisor's logrus logger.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the advisor's default configuration.
func DefaultConfig() AdvisorConfig {
	return AdvisorConfig{
		StorageBudget: 10 * 1024 * 1024 * 1024, // 10 GiB
		CostModel:     "entry_count",
		Search: SearchConfig{
			Deadline: 0,
			Workers:  0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads an AdvisorConfig from a YAML file at path, overlaying it
// onto DefaultConfig. An empty path is not an error: the defaults are
// returned unchanged.
func Load(path string) (*AdvisorConfig, error) {
	cfg := DefaultConfig()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read advisor config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse advisor config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *AdvisorConfig) Validate() error {
	if c.StorageBudget <= 0 {
		return errors.New("storageBudget must be positive")
	}
	if c.CostModel != "entry_count" && c.CostModel != "field_size" {
		return errors.Errorf("invalid costModel: %s (must be 'entry_count' or 'field_size')", c.CostModel)
	}
	if c.Search.Workers < 0 {
		return errors.New("search.workers must be non-negative")
	}
	return nil
}
