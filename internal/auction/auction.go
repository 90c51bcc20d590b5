// Package auction implements the double-auction clearing engine: the
// market side of the simulator. Controllers and generators submit bids
// into a Market; each period the Market clears the accumulated curves into
// a MarketFrame, optionally delays that frame through a latency ring, and
// maintains rolling price statistics over the clearing history.
package auction

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"transactive-sim/pkg/simerr"
	"transactive-sim/pkg/types"

	"transactive-sim/internal/curve"
)

// Config configures one Market.
type Config struct {
	Name           string // distinguishes this market's metrics from others in the same process
	MarketID       int64
	Period         time.Duration
	PriceCap       float64
	BidOffset      float64 // CT_PRICE tie-break offset
	ClearingScalar float64 // weight toward offers.getbid(0) when no clear found (0..1)
	Mode           types.MarketMode
	FixedQuantity  float64 // required for ModeSellersOnly/ModeBuyersOnly
	FixedPrice     float64 // required for ModeFixedSeller/ModeFixedBuyer
	Latency        time.Duration
	WarmupPeriods  int // demand bids dropped until this many periods have cleared
	Statistics     []StatConfig
}

func (c Config) Validate() error {
	if c.Period <= 0 {
		return &simerr.ConfigurationError{Component: "auction", Field: "Period", Reason: "must be positive"}
	}
	if c.PriceCap <= 0 {
		return &simerr.ConfigurationError{Component: "auction", Field: "PriceCap", Reason: "must be positive"}
	}
	if c.ClearingScalar < 0 || c.ClearingScalar > 1 {
		return &simerr.ConfigurationError{Component: "auction", Field: "ClearingScalar", Reason: "must be in [0,1]"}
	}
	switch c.Mode {
	case types.ModeSellersOnly, types.ModeBuyersOnly:
		if c.FixedQuantity <= 0 {
			return &simerr.ConfigurationError{Component: "auction", Field: "FixedQuantity", Reason: "required for sellers-only/buyers-only mode"}
		}
	case types.ModeFixedSeller, types.ModeFixedBuyer:
		if c.FixedPrice == 0 {
			return &simerr.ConfigurationError{Component: "auction", Field: "FixedPrice", Reason: "required for fixed-seller/fixed-buyer mode"}
		}
	}
	return nil
}

// Market clears one double-sided auction per period. Every exported method
// takes the market's mutex, so a Market may be shared across goroutines.
type Market struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	asks   *curve.Curve // sellers, sorted ascending
	offers *curve.Curve // buyers, sorted descending

	marketID     int64
	totalSamples int
	priceHistory []float64 // ring of past clearing prices, length = longest stat window + 1
	historyHead  int

	ring  *latencyRing
	stats *statsTracker

	refEstimator *ReferenceLoadEstimator
	capBidder    *CappedReferenceBidder

	metrics *Metrics
}

// NewMarket constructs a Market. The longest configured statistic window,
// plus one slot so a PAST window never wraps onto the newest price, sizes
// the price-history ring.
func NewMarket(cfg Config, logger *slog.Logger) (*Market, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	maxWindow := 1
	for _, s := range cfg.Statistics {
		if s.WindowPeriods > maxWindow {
			maxWindow = s.WindowPeriods
		}
	}
	m := &Market{
		cfg:          cfg,
		logger:       logger.With("component", "auction", "market_id", cfg.MarketID),
		asks:         curve.New(),
		offers:       curve.New(),
		marketID:     cfg.MarketID,
		priceHistory: make([]float64, maxWindow+1),
		ring:         newLatencyRing(ringSizeFor(cfg.Period, cfg.Latency)),
		stats:        newStatsTracker(cfg.Statistics),
		metrics:      newMetrics(cfg.Name),
	}
	return m, nil
}

func ringSizeFor(period, latency time.Duration) int {
	if latency <= 0 {
		return 1
	}
	n := int(latency/period) + 2
	if n < 2 {
		n = 2
	}
	return n
}

// Submit accepts a bid from a controller, generator, or supervisory
// collector. A key of 0 (or one belonging to a prior market) submits a new
// bid; a key belonging to the current market resubmits in place. Demand
// bids (Buy side, or any negative quantity) are dropped during the warmup
// window.
func (m *Market) Submit(side types.Side, bid types.Bid) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if bid.Quantity == 0 {
		return 0, &simerr.BidRejection{Reason: "zero quantity bid ignored"}
	}

	if (side == types.Buy || bid.Quantity < 0) && m.totalSamples < m.cfg.WarmupPeriods {
		return 0, &simerr.WarmupDrop{MarketID: m.marketID}
	}

	if bid.Price > m.cfg.PriceCap {
		bid.Price = m.cfg.PriceCap
	} else if bid.Price < -m.cfg.PriceCap {
		bid.Price = -m.cfg.PriceCap
	}

	c := m.curveFor(side)

	if bid.Key != 0 {
		keyMarket, keySide, slot := types.DecodeBidKey(bid.Key)
		if keyMarket == m.marketID && keySide == side {
			if c.Resubmit(slot, bid) {
				return bid.Key, nil
			}
		}
		if keyMarket > m.marketID {
			return 0, &simerr.BidRejection{Reason: "bid references a future market"}
		}
		// keyMarket < current, or slot no longer valid: fall through to a fresh submit.
	}

	slot := c.Submit(bid)
	return types.EncodeBidKey(m.marketID, side, slot), nil
}

func (m *Market) curveFor(side types.Side) *curve.Curve {
	if side == types.Sell {
		return m.asks
	}
	return m.offers
}

// ClearMarket runs one clearing pass over the accumulated curves, advances
// the market ID, and returns the resulting frame. If Latency is configured,
// the frame is also pushed onto the latency ring, from which PopFrame
// releases it once its start time has arrived.
func (m *Market) ClearMarket(now time.Time) (types.MarketFrame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	clearStart := time.Now()
	frame, err := m.clearLocked(now)
	if err != nil {
		return types.MarketFrame{}, err
	}
	m.metrics.clearLatency.Observe(time.Since(clearStart).Seconds())
	m.metrics.clearingPasses.Inc()
	m.metrics.clearingPrice.Set(frame.ClearingPrice)

	m.recordPrice(frame.ClearingPrice)
	m.totalSamples++
	m.stats.update(m.priceHistory, m.historyHead, m.totalSamples)

	m.asks.Clear()
	m.offers.Clear()
	m.marketID++

	if m.cfg.Latency > 0 {
		if err := m.ring.push(frame); err != nil {
			return types.MarketFrame{}, err
		}
		m.metrics.ringDepth.Set(float64(m.ring.depth()))
		return frame, nil
	}
	return frame, nil
}

func (m *Market) recordPrice(price float64) {
	m.priceHistory[m.historyHead] = price
	m.historyHead = (m.historyHead + 1) % len(m.priceHistory)
}

// PopFrame returns the next latency-delayed frame whose start time has
// arrived, and true, or the zero frame and false if nothing is ready yet.
// Only meaningful when Latency > 0.
func (m *Market) PopFrame(now time.Time) (types.MarketFrame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ring.pop(now)
}

// Statistics returns the current value of every configured rolling
// statistic.
func (m *Market) Statistics() []types.Statistic {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats.snapshot()
}

// Metrics returns the market's prometheus metrics for registration with a
// shared registry.
func (m *Market) Metrics() *Metrics {
	return m.metrics
}

// SetReferenceLoadEstimator attaches an unresponsive-load estimator that
// injects a demand bid each clearing pass. Pass nil to detach.
func (m *Market) SetReferenceLoadEstimator(r *ReferenceLoadEstimator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refEstimator = r
}

// SetCappedReferenceBidder attaches a standing reference demand bidder.
// Pass nil to detach.
func (m *Market) SetCappedReferenceBidder(c *CappedReferenceBidder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.capBidder = c
}

// MarketID returns the current (not-yet-cleared) market ID.
func (m *Market) MarketID() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.marketID
}

func (m *Market) String() string {
	return fmt.Sprintf("market(id=%d)", m.marketID)
}
