package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
simulation:
  start_time: 2026-01-01T00:00:00Z
  stop_time: 2026-01-02T00:00:00Z
  period: 5m
auctions:
  - name: retail
    period: 5m
    price_cap: 100
    bid_offset: 0.001
    clearing_scalar: 1.0
    mode: normal
controllers:
  - name: hvac1
    auction: retail
    mode: ramp
    ramp_low: 2
    ramp_high: 2
    range_low: 2
    range_high: 2
generators:
  - name: gen1
    auction: retail
    rated_capacity: 1000
    curve: "20 500 40 1000"
dashboard:
  enabled: false
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadParsesNestedSections(t *testing.T) {
	t.Parallel()

	path := writeTempConfig(t, sampleYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Simulation.Period != 5*time.Minute {
		t.Errorf("simulation.period = %v, want 5m", cfg.Simulation.Period)
	}
	if len(cfg.Auctions) != 1 || cfg.Auctions[0].Name != "retail" {
		t.Fatalf("expected one auction named retail, got %+v", cfg.Auctions)
	}
	if len(cfg.Controllers) != 1 || cfg.Controllers[0].Auction != "retail" {
		t.Fatalf("expected one controller referencing retail, got %+v", cfg.Controllers)
	}
	if len(cfg.Generators) != 1 || cfg.Generators[0].RatedCapacity != 1000 {
		t.Fatalf("expected one generator rated at 1000, got %+v", cfg.Generators)
	}
}

func TestLoadAppliesDryRunEnvOverride(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)
	t.Setenv("SIMD_DRY_RUN", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.Simulation.DryRun {
		t.Error("expected SIMD_DRY_RUN=true to set simulation.dry_run")
	}
}

func TestValidateRejectsNoAuctions(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Simulation: SimulationConfig{
			Period:    time.Minute,
			StartTime: time.Unix(0, 0),
			StopTime:  time.Unix(3600, 0),
		},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for config with no auctions")
	}
}

func TestValidateRejectsControllerWithUnknownAuction(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Simulation: SimulationConfig{
			Period:    time.Minute,
			StartTime: time.Unix(0, 0),
			StopTime:  time.Unix(3600, 0),
		},
		Auctions: []AuctionConfig{
			{Name: "retail", Period: time.Minute, PriceCap: 10},
		},
		Controllers: []ControllerConfig{
			{Name: "hvac1", Auction: "wholesale"},
		},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for controller referencing unknown auction")
	}
}

func TestValidateRejectsInvertedSimulationWindow(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Simulation: SimulationConfig{
			Period:    time.Minute,
			StartTime: time.Unix(3600, 0),
			StopTime:  time.Unix(0, 0),
		},
		Auctions: []AuctionConfig{
			{Name: "retail", Period: time.Minute, PriceCap: 10},
		},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for stop_time before start_time")
	}
}
