package controller

import "transactive-sim/pkg/types"

// Passive wraps a Controller to observe what it would have bid and how it
// would have resolved a cleared price, without ever submitting a bid into
// a market. Useful for shadow-testing a new ramp configuration against a
// live market before switching a real device over to it.
type Passive struct {
	inner *Controller

	lastShadowBid types.Bid
}

// NewPassive wraps an existing Controller for shadow observation.
func NewPassive(c *Controller) *Passive {
	return &Passive{inner: c}
}

// Observe computes the bid the wrapped controller would submit, records it,
// and returns it — but never calls Submit on any market.
func (p *Passive) Observe(measured float64, stat types.Statistic) types.Bid {
	p.lastShadowBid = p.inner.Bid(measured, stat)
	return p.lastShadowBid
}

// ObserveClear feeds a real market's cleared frame into the wrapped
// controller's resolve logic so its internal setpoint tracks the live
// price even though it never bid into that market itself.
func (p *Passive) ObserveClear(frame types.MarketFrame, stat types.Statistic) State {
	return p.inner.Resolve(frame, stat)
}

// LastShadowBid returns the most recently computed shadow bid.
func (p *Passive) LastShadowBid() types.Bid { return p.lastShadowBid }

// State returns the wrapped controller's current state.
func (p *Passive) State() State { return p.inner.State() }
