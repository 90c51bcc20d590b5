package auction

import (
	"transactive-sim/pkg/simerr"
	"transactive-sim/pkg/types"

	"transactive-sim/internal/curve"
)

// ReferenceLoadEstimator injects a single unresponsive-demand bid at the
// price cap representing load that is not price-responsive (e.g. a
// measured feeder load minus whatever responsive capacity already bid).
// This is the "capacity_reference" function of the original auction, split
// out per the Design Notes so it can be configured and tested
// independently of CappedReferenceBidder below.
type ReferenceLoadEstimator struct {
	priceCap       float64
	referenceLoad  func() float64 // reads the current measured feeder load
}

// NewReferenceLoadEstimator constructs an estimator. referenceLoad is
// called once per clearing pass to read the externally measured load.
func NewReferenceLoadEstimator(priceCap float64, referenceLoad func() float64) (*ReferenceLoadEstimator, error) {
	if priceCap <= 0 {
		return nil, &simerr.ConfigurationError{Component: "auction.ReferenceLoadEstimator", Field: "priceCap", Reason: "must be positive"}
	}
	if referenceLoad == nil {
		return nil, &simerr.ConfigurationError{Component: "auction.ReferenceLoadEstimator", Field: "referenceLoad", Reason: "must not be nil"}
	}
	return &ReferenceLoadEstimator{priceCap: priceCap, referenceLoad: referenceLoad}, nil
}

// Estimate computes the unresponsive-load bid: measured load minus what is
// already committed on the sell side and half of what is still undetermined
// (state Unknown) on the buy side. Returns false if the result is
// non-positive (nothing to inject).
func (r *ReferenceLoadEstimator) Estimate(asks, offers *curve.Curve) (types.Bid, bool) {
	unresp := r.referenceLoad() - asks.TotalOn() - offers.TotalUnknown()/2
	if unresp <= 0 {
		return types.Bid{}, false
	}
	return types.Bid{Price: r.priceCap, Quantity: unresp, State: types.On, Bidder: "reference-load"}, true
}

// CappedReferenceBidder submits a fixed always-on demand bid up to a
// configured quantity cap at a configured price, independent of any
// measured load. This is the original's second "capacity_reference" use,
// a standing demand floor rather than a load estimate.
type CappedReferenceBidder struct {
	price    float64
	maxQty   float64
}

// NewCappedReferenceBidder constructs a standing reference bidder.
func NewCappedReferenceBidder(price, maxQty float64) (*CappedReferenceBidder, error) {
	if maxQty <= 0 {
		return nil, &simerr.ConfigurationError{Component: "auction.CappedReferenceBidder", Field: "maxQty", Reason: "must be positive"}
	}
	return &CappedReferenceBidder{price: price, maxQty: maxQty}, nil
}

// Bid returns the standing bid, always true.
func (c *CappedReferenceBidder) Bid() (types.Bid, bool) {
	return types.Bid{Price: c.price, Quantity: c.maxQty, State: types.On, Bidder: "capped-reference"}, true
}
