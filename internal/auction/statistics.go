package auction

import (
	"fmt"
	"math"

	"transactive-sim/pkg/types"
)

// StatConfig describes one rolling price statistic published by a market.
// CURRENT windows include the just-cleared price; PAST windows exclude it
// (use the price history as of the previous clear), which is why their
// sample-count denominators differ by one.
type StatConfig struct {
	Name           string
	WindowPeriods  int
	Past           bool // true = PAST (N-1 denominator), false = CURRENT (N denominator)
	IgnorePriceCap bool // exclude samples pinned at +/- PriceCap from the mean/stdev
	InitialStdDev  float64
}

type statEntry struct {
	cfg    StatConfig
	mean   float64
	stdDev float64
}

// statsTracker maintains the configured rolling statistics over a shared
// price-history ring owned by the Market.
type statsTracker struct {
	entries  []statEntry
	priceCap float64
}

func newStatsTracker(cfgs []StatConfig) *statsTracker {
	entries := make([]statEntry, len(cfgs))
	for i, c := range cfgs {
		entries[i] = statEntry{cfg: c, stdDev: c.InitialStdDev}
	}
	return &statsTracker{entries: entries}
}

// update recomputes every statistic's mean and stdev from the shared price
// ring. head is the index the NEXT sample will be written to (so the most
// recent sample is at head-1); totalSamples is the count of clears so far,
// used to detect the warmup window where a statistic falls back to its
// configured initial stdev.
func (t *statsTracker) update(history []float64, head, totalSamples int) {
	for i := range t.entries {
		t.entries[i].recompute(history, head, totalSamples)
	}
}

func (e *statEntry) recompute(history []float64, head, totalSamples int) {
	window := e.cfg.WindowPeriods
	stop := 0
	if e.cfg.Past {
		stop = 1
	}
	required := window + stop
	if required > totalSamples {
		// Not enough history yet; hold the configured initial stdev and a
		// zero mean, matching the original's warmup fallback.
		return
	}

	n := len(history)
	var sum, sumSq float64
	var samples int
	for k := 0; k < window; k++ {
		idx := ((head-1-stop-k)%n + n) % n
		v := history[idx]
		if e.cfg.IgnorePriceCap && math.Abs(v) == 0 {
			continue
		}
		sum += v
		sumSq += v * v
		samples++
	}
	if samples == 0 {
		e.mean = 0
		return
	}
	e.mean = sum / float64(samples)
	denom := float64(samples)
	if e.cfg.Past && samples > 1 {
		denom--
	}
	variance := (sumSq - float64(samples)*e.mean*e.mean) / denom
	if variance < 0 {
		variance = 0
	}
	e.stdDev = math.Sqrt(variance)
}

func (t *statsTracker) snapshot() []types.Statistic {
	out := make([]types.Statistic, len(t.entries))
	for i, e := range t.entries {
		name := e.cfg.Name
		if name == "" {
			name = fmt.Sprintf("price_%d", e.cfg.WindowPeriods)
		}
		out[i] = types.Statistic{
			Name:       name,
			WindowSize: e.cfg.WindowPeriods,
			Mean:       e.mean,
			StdDev:     e.stdDev,
		}
	}
	return out
}
