package supervisory

import (
	"testing"

	"transactive-sim/pkg/types"
)

func baseConfig() Config {
	return Config{
		SortKey:    types.SortPowerDescending,
		Droop:      0.1,
		Deadband:   0.05,
		Nominal:    60.0,
		MinTrigger: 59.0,
		MaxTrigger: 61.0,
	}
}

func TestAssignOrdersBySortKey(t *testing.T) {
	t.Parallel()
	c, err := New(baseConfig())
	if err != nil {
		t.Fatal(err)
	}
	candidates := []types.DeviceCandidate{
		{Handle: "low", Power: 1},
		{Handle: "high", Power: 10},
		{Handle: "mid", Power: 5},
	}
	assignments := c.Assign(candidates)
	if assignments[0].Handle != "high" {
		t.Errorf("first assignment = %s, want high (descending power)", assignments[0].Handle)
	}
	if assignments[2].Handle != "low" {
		t.Errorf("last assignment = %s, want low", assignments[2].Handle)
	}
}

func TestAssignTriggersAreSpacedByDroop(t *testing.T) {
	t.Parallel()
	c, err := New(baseConfig())
	if err != nil {
		t.Fatal(err)
	}
	candidates := []types.DeviceCandidate{{Handle: "a", Power: 3}, {Handle: "b", Power: 2}, {Handle: "c", Power: 1}}
	assignments := c.Assign(candidates)

	for i := 1; i < len(assignments); i++ {
		if assignments[i].Trigger >= assignments[i-1].Trigger {
			t.Errorf("trigger[%d]=%v should be lower than trigger[%d]=%v", i, assignments[i].Trigger, i-1, assignments[i-1].Trigger)
		}
	}
}

func TestAssignClampsToTriggerBounds(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.Droop = 1.0 // large spacing to force clamping
	c, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	candidates := make([]types.DeviceCandidate, 10)
	for i := range candidates {
		candidates[i] = types.DeviceCandidate{Handle: "x", Power: float64(i)}
	}
	assignments := c.Assign(candidates)
	last := assignments[len(assignments)-1]
	if last.Trigger < cfg.MinTrigger {
		t.Errorf("Trigger = %v below MinTrigger %v", last.Trigger, cfg.MinTrigger)
	}
}

func TestAssignSplitsOnAndOffDevices(t *testing.T) {
	t.Parallel()
	c, err := New(baseConfig())
	if err != nil {
		t.Fatal(err)
	}
	candidates := []types.DeviceCandidate{
		{Handle: "running", Power: 5, On: true},
		{Handle: "idle", Power: 5, On: false},
	}
	assignments := c.Assign(candidates)

	byHandle := make(map[string]Assignment, len(assignments))
	for _, a := range assignments {
		byHandle[a.Handle] = a
	}

	off := byHandle["idle"]
	on := byHandle["running"]
	if off.Mode != PFCPickup {
		t.Errorf("idle device mode = %v, want PFCPickup", off.Mode)
	}
	if on.Mode != PFCDropout {
		t.Errorf("running device mode = %v, want PFCDropout", on.Mode)
	}
	if off.Trigger >= baseConfig().Nominal {
		t.Errorf("idle device trigger = %v, want below nominal", off.Trigger)
	}
	if on.Trigger <= baseConfig().Nominal {
		t.Errorf("running device trigger = %v, want above nominal", on.Trigger)
	}
}

func TestAssignSpacingTracksCumulativePowerNotRank(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.SortKey = types.SortPowerAscending
	cfg.MinTrigger, cfg.MaxTrigger = 0, 60
	c, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	// In both cases "b" sorts second (ascending power); its power should
	// set the trigger spacing between the two assignments, not its rank.
	small := []types.DeviceCandidate{{Handle: "a", Power: 1}, {Handle: "b", Power: 1}}
	big := []types.DeviceCandidate{{Handle: "a", Power: 1}, {Handle: "b", Power: 100}}

	smallGap := c.Assign(small)[0].Trigger - c.Assign(small)[1].Trigger
	bigGap := c.Assign(big)[0].Trigger - c.Assign(big)[1].Trigger
	if bigGap <= smallGap {
		t.Errorf("gap when the second device is large = %v, want larger than uniform-power gap %v", bigGap, smallGap)
	}
}

func TestNewRejectsInvertedTriggerBounds(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.MinTrigger, cfg.MaxTrigger = 60, 59
	if _, err := New(cfg); err == nil {
		t.Fatal("expected configuration error")
	}
}
