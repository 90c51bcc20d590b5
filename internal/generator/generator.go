package generator

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"transactive-sim/pkg/simerr"
	"transactive-sim/pkg/types"
)

// Config tunes one Generator.
type Config struct {
	RatedCapacity float64
	CurveText     string
	PriceCap      float64 // invalid bids (downtime not yet satisfied) price at PriceCap+epsilon

	StartupCost  float64
	ShutdownCost float64
	AmortizeRate float64 // decay constant used in a = exp(-amort*period)
	Period       time.Duration
	MinRuntime   time.Duration
	MinDowntime  time.Duration

	LatencySlots int // depth L of the bid-curve/dispatch latency ring; 1 = no lag

	Emissions EmissionsRate // optional, zero value disables emissions reporting
}

func (c Config) Validate() error {
	if c.RatedCapacity <= 0 {
		return &simerr.ConfigurationError{Component: "generator", Field: "RatedCapacity", Reason: "must be positive"}
	}
	if c.LatencySlots < 1 {
		return &simerr.ConfigurationError{Component: "generator", Field: "LatencySlots", Reason: "must be at least 1"}
	}
	if c.Period <= 0 {
		return &simerr.ConfigurationError{Component: "generator", Field: "Period", Reason: "must be positive"}
	}
	return nil
}

// amortizationFactor is the per-period decay applied to a startup/shutdown
// cost being spread across future bids: a = exp(-amortizeRate * period).
func (c Config) amortizationFactor() float64 {
	return math.Exp(-c.AmortizeRate * c.Period.Seconds())
}

// minRunPeriods is the number of periods a commitment must run before its
// shutdown cost is considered amortised, rounded up from MinRuntime.
func (c Config) minRunPeriods() int {
	if c.Period <= 0 || c.MinRuntime <= 0 {
		return 0
	}
	return int(math.Ceil(float64(c.MinRuntime) / float64(c.Period)))
}

// expectedState is the generator's committed/uncommitted status as tracked
// by the bidder, independent of what the market actually clears.
type expectedState int

const (
	genOff expectedState = iota
	genStartup
	genActive
)

func (s expectedState) String() string {
	switch s {
	case genOff:
		return "OFF"
	case genStartup:
		return "STARTUP"
	case genActive:
		return "ACTIVE"
	default:
		return "UNKNOWN"
	}
}

// ringSlot is one period's submitted bid curve, retained until its market
// result reaches the active (dispatch) position in the latency ring.
type ringSlot struct {
	bids     []types.Bid
	expected expectedState
	valid    bool
}

// Generator tracks one dispatchable unit's commitment state across periods
// and produces its bid segments and amortised startup/shutdown cost
// overlay each period. A ring of LatencySlots curve slots separates the
// period a bid is submitted in from the period its dispatch outcome is
// read back, mirroring the delay between clearing and physical actuation.
type Generator struct {
	cfg    Config
	logger *slog.Logger

	mu    sync.Mutex
	curve []Point

	state         expectedState
	runsCompleted int
	downtimeSince time.Duration

	shutdownRemaining float64

	ring      []ringSlot
	writeHead int
	hasPrior  bool

	lastClearingPrice float64
	lastSeg0Price     float64

	emissions EmissionsAccumulator
}

// New constructs a Generator from its supply-curve text.
func New(cfg Config, logger *slog.Logger) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	points, err := ParseCurve(cfg.CurveText, cfg.RatedCapacity)
	if err != nil {
		return nil, err
	}
	return &Generator{
		cfg:    cfg,
		logger: logger.With("component", "generator"),
		curve:  points,
		ring:   make([]ringSlot, cfg.LatencySlots),
	}, nil
}

// Bids evaluates the outcome of the previously submitted bid, advances the
// commitment state machine, and returns this period's bid segments with
// the startup/shutdown cost overlay applied per the prior expected state.
func (g *Generator) Bids() []types.Bid {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.resolvePriorOutcome()

	g.writeHead = (g.writeHead + 1) % len(g.ring)

	segs := Segments(g.curve)
	valid := true

	switch g.state {
	case genOff:
		if g.downtimeSince >= g.cfg.MinDowntime {
			overlay := g.cfg.StartupCost + g.cfg.ShutdownCost
			for i := range segs {
				segs[i].Price += overlay
			}
			g.state = genStartup
			g.runsCompleted = 0
			g.shutdownRemaining = g.cfg.ShutdownCost
		} else {
			for i := range segs {
				segs[i].Price = g.cfg.PriceCap + epsilon
			}
			valid = false
		}
	case genStartup, genActive:
		if g.runsCompleted < g.cfg.minRunPeriods() {
			cur := g.shutdownRemaining * g.cfg.amortizationFactor()
			if cur > g.shutdownRemaining {
				cur = g.shutdownRemaining
			}
			for i := range segs {
				segs[i].Price -= cur
			}
			g.shutdownRemaining -= cur
			if g.shutdownRemaining < 0 {
				g.shutdownRemaining = 0
			}
		}
	}

	bids := make([]types.Bid, len(segs))
	for i, s := range segs {
		bids[i] = types.Bid{Price: s.Price, Quantity: s.Quantity, State: types.Unknown, Bidder: "generator"}
	}

	g.ring[g.writeHead] = ringSlot{bids: bids, expected: g.state, valid: valid}
	if len(bids) > 0 {
		g.lastSeg0Price = bids[0].Price
	}
	g.hasPrior = true

	return bids
}

// epsilon nudges an invalid (downtime-blocked) bid strictly above the
// price cap so it never clears.
const epsilon = 1e-6

// resolvePriorOutcome applies step 1 of the per-period cycle: using the
// clearing price observed after the previous period's bid, decide whether
// the generator counted as running and advance the expected-state machine.
func (g *Generator) resolvePriorOutcome() {
	if !g.hasPrior {
		return
	}
	if g.lastClearingPrice >= g.lastSeg0Price {
		if g.state == genStartup {
			g.state = genActive
		}
		g.runsCompleted++
		g.downtimeSince = 0
	} else {
		if g.state == genActive || g.state == genStartup {
			g.state = genOff
			g.downtimeSince = 0
		} else {
			g.downtimeSince += g.cfg.Period
		}
	}
}

// ApplyOutput reads the active slot — the bid submitted LatencySlots-1
// periods ago (this period's own bid when LatencySlots is 1) — and sums the delta of every segment whose price cleared,
// then returns that dispatch power for posting to the grid. It also
// records this period's clearing price for the next Bids call's outcome
// evaluation.
func (g *Generator) ApplyOutput(clearingPrice float64) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.lastClearingPrice = clearingPrice

	activeIdx := (g.writeHead + 1) % len(g.ring)
	slot := g.ring[activeIdx]

	var output float64
	for _, b := range slot.bids {
		if b.Price <= clearingPrice {
			output += b.Quantity
		}
	}

	if output > 0 && slot.expected == genOff {
		g.logger.Warn("generator dispatched while expected off", "output", output, "expected", slot.expected.String())
	} else if output == 0 && slot.expected == genActive {
		g.logger.Warn("generator idle while expected active", "expected", slot.expected.String())
	}
	if output > 0 && !slot.valid {
		g.logger.Warn("generator dispatched from an invalid (downtime-blocked) bid", "output", output)
	}

	g.emissions.Accumulate(output, g.cfg.Period, g.cfg.Emissions)

	return output
}

// Committed reports whether the generator's expected state is anything
// other than fully off.
func (g *Generator) Committed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state != genOff
}

// CapacityFactor returns cumulative output as a fraction of the
// theoretical maximum (RatedCapacity for every period observed so far).
func (g *Generator) CapacityFactor() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.emissions.CapacityFactor(g.cfg.RatedCapacity * g.cfg.Period.Hours())
}

// CumulativeEmissions returns total emissions recorded so far, in kg CO2.
func (g *Generator) CumulativeEmissions() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.emissions.Total
}
