// Package supervisory implements the supervisory collector: it gathers
// deferrable-load candidates each period, splits them into on/off arrays,
// sorts each by a configurable key, and assigns primary-frequency-control
// (PFC) trigger thresholds via droop control so devices shed or pick up
// load in a controlled order rather than all at once.
package supervisory

import (
	"sort"

	"transactive-sim/pkg/simerr"
	"transactive-sim/pkg/types"
)

// Config tunes one Collector.
type Config struct {
	SortKey    types.SortKey
	Droop      float64 // Hz per unit cumulative power, sets threshold spacing
	Deadband   float64 // frequency deadband around nominal before any trigger fires
	Nominal    float64 // nominal frequency, e.g. 60.0
	MinTrigger float64
	MaxTrigger float64
}

func (c Config) Validate() error {
	if c.Droop <= 0 {
		return &simerr.ConfigurationError{Component: "supervisory", Field: "Droop", Reason: "must be positive"}
	}
	if c.MaxTrigger <= c.MinTrigger {
		return &simerr.ConfigurationError{Component: "supervisory", Field: "MaxTrigger", Reason: "must exceed MinTrigger"}
	}
	return nil
}

// Collector runs one supervisory sort-and-assign pass per period.
type Collector struct {
	cfg Config
}

// New constructs a Collector.
func New(cfg Config) (*Collector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Collector{cfg: cfg}, nil
}

// PFCMode reports which direction a device's trigger threshold fires. A
// device that is currently off picks up load on under-frequency; one
// that is currently on drops it on over-frequency.
type PFCMode int

const (
	PFCPickup PFCMode = iota
	PFCDropout
)

func (m PFCMode) String() string {
	if m == PFCDropout {
		return "DROPOUT"
	}
	return "PICKUP"
}

// Assignment is one device's assigned PFC trigger frequency and mode.
type Assignment struct {
	Handle  string
	Trigger float64
	Mode    PFCMode
}

// Assign splits candidates into on/off arrays by their current device
// state, sorts each by the configured key, and walks each sorted array
// accumulating power so later (less eligible) devices require a larger
// frequency excursion before they trigger. Off devices get thresholds
// below nominal (pick up load as frequency sags); on devices get
// thresholds above nominal (shed load as frequency rises).
func (c *Collector) Assign(candidates []types.DeviceCandidate) []Assignment {
	var off, on []types.DeviceCandidate
	for _, d := range candidates {
		if d.On {
			on = append(on, d)
		} else {
			off = append(off, d)
		}
	}

	sort.SliceStable(off, func(i, j int) bool { return c.less(off[i], off[j]) })
	sort.SliceStable(on, func(i, j int) bool { return c.less(on[i], on[j]) })

	out := make([]Assignment, 0, len(off)+len(on))
	out = append(out, c.assignSide(off, PFCPickup)...)
	out = append(out, c.assignSide(on, PFCDropout)...)
	return out
}

func (c *Collector) assignSide(devices []types.DeviceCandidate, mode PFCMode) []Assignment {
	out := make([]Assignment, len(devices))
	var cum float64
	for i, d := range devices {
		cum += absf(d.Power)
		offset := c.cfg.Deadband + c.cfg.Droop*cum

		trigger := c.cfg.Nominal - offset
		if mode == PFCDropout {
			trigger = c.cfg.Nominal + offset
		}
		if trigger < c.cfg.MinTrigger {
			trigger = c.cfg.MinTrigger
		}
		if trigger > c.cfg.MaxTrigger {
			trigger = c.cfg.MaxTrigger
		}
		out[i] = Assignment{Handle: d.Handle, Trigger: trigger, Mode: mode}
	}
	return out
}

func (c *Collector) less(a, b types.DeviceCandidate) bool {
	switch c.cfg.SortKey {
	case types.SortPowerDescending:
		return a.Power > b.Power
	case types.SortVoltageDeviation:
		return a.VoltageDeviation < b.VoltageDeviation
	case types.SortWorstDirectionVoltageDeviation:
		return absf(a.VoltageDeviation) > absf(b.VoltageDeviation)
	default: // SortPowerAscending
		return a.Power < b.Power
	}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
