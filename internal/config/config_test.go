package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), DefaultFileName))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def := Default()
	if cfg.Field != def.Field || cfg.Simulate.Trials != def.Simulate.Trials {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
field: M_expert
merge:
  base: 1.2
  n_coef: 0.05
simulate:
  trials: 500
  confidence: 0.9
schedule:
  time_budget: 2s
calendar:
  hours_per_day: 6
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Field != "M_expert" {
		t.Errorf("expected field override, got %q", cfg.Field)
	}
	if cfg.Merge.Base != 1.2 || cfg.Merge.NCoef != 0.05 {
		t.Errorf("unexpected merge config: %+v", cfg.Merge)
	}
	// Untouched keys keep their defaults.
	if cfg.Merge.TRFDivisor != 10.0 {
		t.Errorf("expected default trf_divisor, got %g", cfg.Merge.TRFDivisor)
	}
	if cfg.Simulate.Trials != 500 || cfg.Simulate.Confidence != 0.9 {
		t.Errorf("unexpected simulate config: %+v", cfg.Simulate)
	}
	if cfg.Schedule.TimeBudget.Std() != 2*time.Second {
		t.Errorf("expected 2s time budget, got %v", cfg.Schedule.TimeBudget)
	}
	if cfg.Calendar.HoursPerDay != 6 {
		t.Errorf("expected 6 hours per day, got %g", cfg.Calendar.HoursPerDay)
	}
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	path := writeConfig(t, "fild: Te_newbie\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoad_EmptyFileReturnsDefaults(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Simulate.Trials != Default().Simulate.Trials {
		t.Errorf("expected defaults from empty file, got %+v", cfg)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		message string
	}{
		{"zero trials", "simulate:\n  trials: 0\n", "trials"},
		{"confidence too high", "simulate:\n  confidence: 1.5\n", "confidence"},
		{"zero divisor", "merge:\n  trf_divisor: 0\n", "trf_divisor"},
		{"zero hours", "calendar:\n  hours_per_day: 0\n", "hours_per_day"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.yaml)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.message) {
				t.Errorf("expected error mentioning %q, got %v", tc.message, err)
			}
		})
	}
}
