// Package config loads project settings from birdman.yaml. Every field
// has a sensible default so a project without a config file still
// analyzes cleanly.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the working directory when no
// explicit config path is given.
const DefaultFileName = "birdman.yaml"

// Config is the full set of tunables for an analysis run.
type Config struct {
	// Field selects the catalog estimate used for scheduling, e.g.
	// "Te_newbie" or "M_expert".
	Field string `yaml:"field"`

	Merge    MergeConfig    `yaml:"merge"`
	Simulate SimulateConfig `yaml:"simulate"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Calendar CalendarConfig `yaml:"calendar"`
}

// MergeConfig tunes the coefficient applied to merged cycle durations.
type MergeConfig struct {
	Base       float64 `yaml:"base"`
	TRFScale   float64 `yaml:"trf_scale"`
	TRFDivisor float64 `yaml:"trf_divisor"`
	NCoef      float64 `yaml:"n_coef"`
}

// SimulateConfig tunes the Monte Carlo run.
type SimulateConfig struct {
	Trials     int     `yaml:"trials"`
	Confidence float64 `yaml:"confidence"`
	Workers    int     `yaml:"workers"`
	Seed       int64   `yaml:"seed"`
}

// ScheduleConfig tunes the resource-constrained solver.
type ScheduleConfig struct {
	// TimeBudget bounds the exact search; expired budgets fall back
	// to the serial heuristic result.
	TimeBudget Duration `yaml:"time_budget"`
	Horizon    int      `yaml:"horizon"`
}

// Duration wraps time.Duration so YAML values like "2s" or "500ms"
// parse with time.ParseDuration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a plain time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// CalendarConfig converts between effort hours and calendar days.
type CalendarConfig struct {
	HoursPerDay float64 `yaml:"hours_per_day"`
}

// Default returns the configuration used when birdman.yaml is absent.
func Default() *Config {
	return &Config{
		Field: "Te_newbie",
		Merge: MergeConfig{
			Base:       1.0,
			TRFScale:   1.0,
			TRFDivisor: 10.0,
			NCoef:      0.1,
		},
		Simulate: SimulateConfig{
			Trials:     10000,
			Confidence: 0.95,
		},
		Schedule: ScheduleConfig{
			TimeBudget: Duration(10 * time.Second),
		},
		Calendar: CalendarConfig{
			HoursPerDay: 8,
		},
	}
}

// Load reads the config at path. A missing file is not an error: the
// defaults are returned. Unknown keys are rejected so typos surface
// instead of silently falling back.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Simulate.Trials < 1 {
		return fmt.Errorf("simulate.trials must be at least 1, got %d", c.Simulate.Trials)
	}
	if c.Simulate.Confidence <= 0 || c.Simulate.Confidence >= 1 {
		return fmt.Errorf("simulate.confidence must be in (0, 1), got %g", c.Simulate.Confidence)
	}
	if c.Merge.TRFDivisor <= 0 {
		return fmt.Errorf("merge.trf_divisor must be positive, got %g", c.Merge.TRFDivisor)
	}
	if c.Calendar.HoursPerDay <= 0 {
		return fmt.Errorf("calendar.hours_per_day must be positive, got %g", c.Calendar.HoursPerDay)
	}
	return nil
}
