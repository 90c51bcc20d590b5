package engine

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"transactive-sim/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func baseConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Simulation: config.SimulationConfig{
			StartTime: time.Unix(0, 0),
			StopTime:  time.Unix(3600, 0),
			Period:    5 * time.Minute,
		},
		Auctions: []config.AuctionConfig{
			{Name: "retail", Period: 5 * time.Minute, PriceCap: 100, ClearingScalar: 0.5},
		},
		Controllers: []config.ControllerConfig{
			{
				Name: "hvac1", Auction: "retail",
				BaseSetpoint: 72,
				RampLow: 2, RampHigh: 2, RangeLow: 2, RangeHigh: 2,
				Deadband: 1, MinSetpoint: 65, MaxSetpoint: 80, Slider: 0.5, BidQuantity: 3,
			},
		},
		Generators: []config.GeneratorConfig{
			{Name: "gen1", Auction: "retail", RatedCapacity: 1000, CurveText: "500 20 1000 40", LatencySlots: 1},
		},
		Store: config.StoreConfig{DataDir: t.TempDir()},
	}
}

func TestNewWiresAuctionsControllersAndGenerators(t *testing.T) {
	t.Parallel()

	e, err := New(baseConfig(t), testLogger())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if len(e.auctions) != 1 {
		t.Fatalf("expected 1 auction, got %d", len(e.auctions))
	}
	if len(e.controllers) != 1 || e.controllers[0].auctionName != "retail" {
		t.Fatalf("expected 1 controller wired to retail, got %+v", e.controllers)
	}
	if len(e.generators) != 1 || e.generators[0].auctionName != "retail" {
		t.Fatalf("expected 1 generator wired to retail, got %+v", e.generators)
	}
}

func TestNewRejectsControllerWithUnknownAuction(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t)
	cfg.Controllers[0].Auction = "wholesale"

	if _, err := New(cfg, testLogger()); err == nil {
		t.Fatal("expected error for controller referencing unknown auction")
	}
}

func TestNewRejectsGeneratorWithUnknownAuction(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t)
	cfg.Generators[0].Auction = "wholesale"

	if _, err := New(cfg, testLogger()); err == nil {
		t.Fatal("expected error for generator referencing unknown auction")
	}
}

func TestRunPeriodClearsConfiguredAuctions(t *testing.T) {
	t.Parallel()

	e, err := New(baseConfig(t), testLogger())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	e.runPeriod(time.Unix(0, 0))

	e.mu.RLock()
	frame, ok := e.last["retail"]
	e.mu.RUnlock()
	if !ok {
		t.Fatal("expected a cleared frame for the retail auction")
	}
	if frame.MarketID != 0 {
		t.Errorf("expected first cleared frame to have market id 0, got %d", frame.MarketID)
	}
}
