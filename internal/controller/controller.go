// Package controller implements the transactive controller: it turns a
// thermostat-like device's state into a price bid each market period, and
// turns the market's cleared price back into a setpoint/override decision
// for the device.
//
// Two bidding modes are supported. RAMP bids a single setpoint using one
// ramp/range pair (heating-only, cooling-only, or any single-direction
// load). DoubleRamp bids independently for heating and cooling using two
// ramp/range pairs and resolves which side governs via ResolveMode.
package controller

import (
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"transactive-sim/pkg/simerr"
	"transactive-sim/pkg/types"
)

// Mode selects which bidding algorithm a Controller runs.
type Mode int

const (
	Ramp Mode = iota
	DoubleRamp
)

// ResolveMode selects how DoubleRamp picks a side when both heating and
// cooling ramps would produce a bid in the same period. Per the Design
// Notes, this is one parameterized state machine rather than two
// independent code paths.
type ResolveMode int

const (
	// Deadband collapses heat_max/cool_min toward their midpoint when the
	// cool_min - heat_max >= deadband invariant is violated.
	Deadband ResolveMode = iota
	// Sliding instead pulls back whichever bound sits on the side the
	// controller was not last operating in, so the active side keeps its
	// configured edge.
	Sliding
)

// MarginMode selects how DoubleRamp breaks an at-the-margin override tie.
type MarginMode int

const (
	// MarginNormal decides run/don't-run purely from price vs last price.
	MarginNormal MarginMode = iota
	// MarginProb draws U(0,1) against the frame's marginal fraction when
	// the clearing price exactly equals the controller's own bid but is
	// not at the price cap.
	MarginProb
)

// Config tunes one Controller instance.
type Config struct {
	Mode        Mode
	ResolveMode ResolveMode
	MarginMode  MarginMode

	// Single-ramp fields (Mode == Ramp).
	BaseSetpoint        float64
	RampLow, RampHigh   float64
	RangeLow, RangeHigh float64

	// Double-ramp fields (Mode == DoubleRamp).
	HeatRampLow, HeatRampHigh   float64
	HeatRangeLow, HeatRangeHigh float64
	CoolRampLow, CoolRampHigh   float64
	CoolRangeLow, CoolRangeHigh float64

	HeatingSetpoint0 float64
	CoolingSetpoint0 float64
	SlidingTimeDelay time.Duration

	Deadband float64 // total deadband width around the setpoint, > 0

	MinSetpoint, MaxSetpoint float64
	Slider                   float64 // 0..1, scales the range limits around the base setpoint

	BidQuantity float64 // device's rated load/capacity for bidding
	BidOffset   float64 // stdev below this is treated as degenerate for setpoint resolution
	PriceCap    float64 // this controller's market price cap

	Period time.Duration // market period, for the SLIDING time_off timer
}

func (c Config) Validate() error {
	if c.Deadband <= 0 {
		return &simerr.ConfigurationError{Component: "controller", Field: "Deadband", Reason: "must be positive"}
	}
	if c.MaxSetpoint <= c.MinSetpoint {
		return &simerr.ConfigurationError{Component: "controller", Field: "MaxSetpoint", Reason: "must exceed MinSetpoint"}
	}
	if c.Slider < 0 || c.Slider > 1 {
		return &simerr.ConfigurationError{Component: "controller", Field: "Slider", Reason: "must be in [0,1]"}
	}
	return nil
}

// State is the controller's mutable per-period state.
type State struct {
	Setpoint      float64
	LastPrice     float64
	LastDirection int // +1 shifted up, -1 shifted down, 0 no prior clear
	LastMode      int // DoubleRamp only: -1 heating, 0 dead zone, +1 cooling
	Override      bool // true means "run", false means "do not run"
}

// Controller computes bids from device state and resolves cleared prices
// back into setpoints. Its exported methods take the controller's mutex, so
// it may be shared across goroutines.
type Controller struct {
	cfg    Config
	logger *slog.Logger

	mu           sync.Mutex
	state        State
	lastBidPrice float64
	timeOff      time.Duration
}

// New constructs a Controller.
func New(cfg Config, logger *slog.Logger) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Controller{
		cfg:    cfg,
		logger: logger.With("component", "controller"),
		state: State{
			Setpoint: initialSetpoint(cfg),
		},
	}, nil
}

func initialSetpoint(cfg Config) float64 {
	if cfg.Mode == DoubleRamp {
		return (cfg.HeatingSetpoint0 + cfg.CoolingSetpoint0) / 2
	}
	return cfg.BaseSetpoint
}

// Bid computes the price/quantity bid for the current period given the
// device's current measured value (e.g. indoor temperature) and the
// market's most recent statistic (mean, stdev).
func (c *Controller) Bid(measured float64, stat types.Statistic) types.Bid {
	c.mu.Lock()
	defer c.mu.Unlock()

	var price, qty float64
	switch c.cfg.Mode {
	case DoubleRamp:
		price, qty = c.bidDoubleRamp(measured, stat)
	default:
		price, qty = c.bidRamp(measured, stat), c.cfg.BidQuantity
	}

	c.lastBidPrice = price
	return types.Bid{Price: price, Quantity: qty, State: types.Unknown}
}

// bidRamp implements spec 4.3.1's per-cycle bid: ±price_cap outside the
// device's operational band (widened by half a deadband while running),
// otherwise mean plus a ramp/range-scaled deviation from base_setpoint.
func (c *Controller) bidRamp(measured float64, stat types.Statistic) float64 {
	dir := sign(c.cfg.RampHigh*c.cfg.RangeHigh - c.cfg.RampLow*c.cfg.RangeLow)

	bandMin := c.cfg.BaseSetpoint + c.cfg.RangeLow*c.cfg.Slider
	bandMax := c.cfg.BaseSetpoint + c.cfg.RangeHigh*c.cfg.Slider
	if c.state.Override {
		bandMin -= c.cfg.Deadband / 2
		bandMax += c.cfg.Deadband / 2
	}

	switch {
	case measured > bandMax:
		return dir * c.cfg.PriceCap
	case measured < bandMin:
		return -dir * c.cfg.PriceCap
	}

	dev := measured - c.cfg.BaseSetpoint
	if dev >= 0 {
		return bidFormula(stat, dev, c.cfg.RampHigh, c.cfg.RangeHigh)
	}
	return bidFormula(stat, dev, c.cfg.RampLow, c.cfg.RangeLow)
}

// bidDoubleRamp implements spec 4.3.2's operating-region bid: capped bids
// above cool_max/below heat_min, no bid in the heat_max..cool_min dead
// zone, and a per-side ramp/range bid otherwise.
func (c *Controller) bidDoubleRamp(measured float64, stat types.Statistic) (price, qty float64) {
	heatMin := c.cfg.HeatingSetpoint0 + c.cfg.HeatRangeLow*c.cfg.Slider
	heatMax := c.cfg.HeatingSetpoint0 + c.cfg.HeatRangeHigh*c.cfg.Slider
	coolMin := c.cfg.CoolingSetpoint0 + c.cfg.CoolRangeLow*c.cfg.Slider
	coolMax := c.cfg.CoolingSetpoint0 + c.cfg.CoolRangeHigh*c.cfg.Slider
	heatMax, coolMin = resolveBandConflict(heatMax, coolMin, c.cfg.Deadband, c.cfg.ResolveMode, c.state.LastMode)

	var mode int
	switch {
	case measured > coolMax:
		mode = 1
		price, qty = c.cfg.PriceCap, c.cfg.BidQuantity
	case measured < heatMin:
		mode = -1
		price, qty = c.cfg.PriceCap, c.cfg.BidQuantity
	case measured > heatMax && measured < coolMin:
		mode = 0
	case measured <= heatMax:
		mode = -1
		dev := measured - c.cfg.HeatingSetpoint0
		ramp, rng := c.cfg.HeatRampLow, c.cfg.HeatRangeLow
		if dev >= 0 {
			ramp, rng = c.cfg.HeatRampHigh, c.cfg.HeatRangeHigh
		}
		price, qty = bidFormula(stat, dev, ramp, rng), c.cfg.BidQuantity
	default:
		mode = 1
		dev := measured - c.cfg.CoolingSetpoint0
		ramp, rng := c.cfg.CoolRampLow, c.cfg.CoolRangeLow
		if dev >= 0 {
			ramp, rng = c.cfg.CoolRampHigh, c.cfg.CoolRangeHigh
		}
		price, qty = bidFormula(stat, dev, ramp, rng), c.cfg.BidQuantity
	}

	if mode == 0 {
		if c.state.LastMode != 0 && c.timeOff < c.cfg.SlidingTimeDelay {
			c.timeOff += c.cfg.Period
		} else {
			c.state.LastMode = 0
		}
	} else {
		c.state.LastMode = mode
		c.timeOff = 0
	}

	return price, qty
}

// resolveBandConflict enforces cool_min - heat_max >= deadband. DEADBAND
// collapses both bounds toward their midpoint; SLIDING instead pulls back
// whichever bound is on the side the controller was not last operating
// in, so the side it's actively running keeps its configured edge.
func resolveBandConflict(heatMax, coolMin, deadband float64, mode ResolveMode, lastMode int) (float64, float64) {
	if coolMin-heatMax >= deadband {
		return heatMax, coolMin
	}
	switch mode {
	case Sliding:
		if lastMode > 0 {
			return coolMin - deadband, coolMin
		}
		return heatMax, heatMax + deadband
	default: // Deadband
		mid := (heatMax + coolMin) / 2
		return mid - deadband/2, mid + deadband/2
	}
}

// bidFormula is the ramp/range-scaled price offset from the market mean
// shared by both bidding modes: mean + dev*(ramp*stdev)/|range|.
func bidFormula(stat types.Statistic, dev, ramp, rng float64) float64 {
	if rng == 0 {
		return stat.Mean
	}
	return stat.Mean + dev*(ramp*stat.StdDev)/math.Abs(rng)
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Resolve turns a cleared market frame into a new setpoint and run/don't-run
// override, and records the shift direction so the next Bid call can bias
// predictively against it. This is the controller's post-clear update,
// called once per period after the market publishes its frame.
func (c *Controller) Resolve(frame types.MarketFrame, stat types.Statistic) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.cfg.Mode {
	case DoubleRamp:
		c.resolveDoubleRamp(frame)
	default:
		c.resolveRamp(frame, stat)
	}

	return c.state
}

// resolveRamp implements spec 4.3.1 steps 1-3: a predictive shift
// direction from whether the clearing price moved against the device's
// current run state, a new setpoint from the ramp/range/stdev formula (or
// the degenerate bid_offset case), and an override from price vs last
// price.
func (c *Controller) resolveRamp(frame types.MarketFrame, stat types.Statistic) {
	p := frame.ClearingPrice
	lastP := c.state.LastPrice
	running := c.state.Override

	s := 1.0
	if (running && p > lastP) || (!running && p < lastP) {
		s = -1.0
	}

	var setpoint float64
	if math.Abs(stat.StdDev) < c.cfg.BidOffset {
		setpoint = c.cfg.BaseSetpoint + s*c.cfg.Deadband/2
	} else {
		rng, ramp := c.cfg.RangeLow, c.cfg.RampLow
		if p > stat.Mean {
			rng, ramp = c.cfg.RangeHigh, c.cfg.RampHigh
		}
		setpoint = c.cfg.BaseSetpoint + s*c.cfg.Deadband/2
		if ramp != 0 && stat.StdDev != 0 {
			setpoint += (p - stat.Mean) * math.Abs(rng) / (ramp * stat.StdDev)
		}
	}

	minSet := c.cfg.BaseSetpoint + c.cfg.RangeLow*c.cfg.Slider
	maxSet := c.cfg.BaseSetpoint + c.cfg.RangeHigh*c.cfg.Slider
	c.state.Setpoint = clamp(setpoint, minSet, maxSet)
	c.state.LastDirection = int(s)
	c.state.Override = p <= lastP
	c.state.LastPrice = p
}

// resolveDoubleRamp implements spec 4.3.2's override rule: run at the
// price cap, a probabilistic tie-break at the margin under MarginProb, or
// plain price-vs-last-price otherwise.
func (c *Controller) resolveDoubleRamp(frame types.MarketFrame) {
	p := frame.ClearingPrice
	atCap := p >= c.cfg.PriceCap || p <= -c.cfg.PriceCap

	switch {
	case atCap:
		c.state.Override = true
	case c.cfg.MarginMode == MarginProb && p == c.lastBidPrice:
		c.state.Override = rand.Float64() < frame.MarginalFraction
	default:
		c.state.Override = p <= c.state.LastPrice
	}

	c.state.LastPrice = p
}

// State returns a snapshot of the controller's current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
