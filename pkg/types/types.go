// Package types defines shared data structures used across all packages.
//
// This is the common vocabulary for the simulator — bid sides and states,
// clearing outcomes, market frames, and the bid-key encoding used to route
// a resubmission back to its original slot. It has no dependencies on
// internal packages, so it can be imported by any layer.
package types

import (
	"fmt"
	"time"
)

// ————————————————————————————————————————————————————————————————————————
// Core enums
// ————————————————————————————————————————————————————————————————————————

// Side represents which side of the double auction a bid rests on.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// BidState tags how a bid's quantity counts toward curve totals.
type BidState int

const (
	// On means the bid's quantity is an unconditional commitment (e.g. an
	// "always take" demand bid below the price floor).
	On BidState = iota
	// Off means the bid is price-responsive and only counts once cleared.
	Off
	// Unknown means the bid's eventual state can't be determined until
	// clearing — used for the reference-load estimate.
	Unknown
)

// ClearingType enumerates how a clearing pass resolved the market.
type ClearingType int

const (
	CTNull ClearingType = iota
	CTSeller
	CTBuyer
	CTExact
	CTPrice
	CTFailure
)

func (c ClearingType) String() string {
	switch c {
	case CTNull:
		return "NULL"
	case CTSeller:
		return "SELLER"
	case CTBuyer:
		return "BUYER"
	case CTExact:
		return "EXACT"
	case CTPrice:
		return "PRICE"
	case CTFailure:
		return "FAILURE"
	default:
		return "UNKNOWN"
	}
}

// MarketMode selects a special-case clearing rule instead of the normal
// double-sided walk.
type MarketMode int

const (
	ModeNormal MarketMode = iota
	ModeSellersOnly
	ModeBuyersOnly
	ModeFixedSeller
	ModeFixedBuyer
)

// ————————————————————————————————————————————————————————————————————————
// Bid key
// ————————————————————————————————————————————————————————————————————————
//
// A bid key is a 64-bit value that lets a participant resubmit a bid in
// place without the auction having to search for it. Bits 63:16 carry the
// market_id (masked with marketIDMask, the co-simulation-bridge layout),
// bit 15 carries the side, and bits 14:0 carry the slot index assigned by
// the curve at submission time.

const (
	marketIDMask  uint64 = 0x8FFFFFFFFFFF0000
	sideBit       uint64 = 1 << 15
	slotIndexMask uint64 = 0x7FFF
)

// EncodeBidKey packs a market ID, side, and curve slot index into a bid key.
func EncodeBidKey(marketID int64, side Side, slot int) uint64 {
	key := (uint64(marketID) << 16) & marketIDMask
	if side == Sell {
		key |= sideBit
	}
	key |= uint64(slot) & slotIndexMask
	return key
}

// DecodeBidKey unpacks a bid key into its market ID, side, and slot index.
func DecodeBidKey(key uint64) (marketID int64, side Side, slot int) {
	marketID = int64((key & marketIDMask) >> 16)
	if key&sideBit != 0 {
		side = Sell
	} else {
		side = Buy
	}
	slot = int(key & slotIndexMask)
	return
}

// ————————————————————————————————————————————————————————————————————————
// Bids and curves
// ————————————————————————————————————————————————————————————————————————

// Bid is a single offer to buy or sell a quantity at a price, submitted by
// a controller, generator, or supervisory collector into a market's curve.
type Bid struct {
	Key      uint64
	Price    float64
	Quantity float64
	State    BidState
	Bidder   string // opaque participant handle, for logging/debugging
}

// CurveEntry is one row of a sorted curve dump: a bid plus its running
// cumulative quantity at the time the curve was sorted.
type CurveEntry struct {
	Bid
	Cumulative float64
}

// ————————————————————————————————————————————————————————————————————————
// Market frame
// ————————————————————————————————————————————————————————————————————————

// MarketFrame is the outcome of one clearing pass: the price and quantity
// that cleared, how it cleared, and the bookkeeping needed to compute
// marginal shares for bids sitting exactly at the clearing price.
type MarketFrame struct {
	MarketID  int64
	StartTime time.Time
	EndTime   time.Time

	ClearingPrice    float64
	ClearingQuantity float64
	ClearingType     ClearingType

	MarginalQuantity float64 // portion of the marginal bid actually cleared
	MarginalTotal    float64 // total quantity bid at the marginal price
	MarginalFraction float64 // MarginalQuantity / MarginalTotal, 0 if MarginalTotal == 0

	SellerTotal       float64
	BuyerTotal        float64
	SellerMinPrice    float64
	BuyerTotalUnrep   float64 // unresponsive (always-take) buyer quantity
	CapRefUnrep       float64 // capped-reference-bidder quantity included in the clear
}

// String renders a frame the way transaction logs print it.
func (f MarketFrame) String() string {
	return fmt.Sprintf("market=%d price=%.4f qty=%.4f type=%s",
		f.MarketID, f.ClearingPrice, f.ClearingQuantity, f.ClearingType)
}

// ————————————————————————————————————————————————————————————————————————
// Statistics
// ————————————————————————————————————————————————————————————————————————

// Statistic is a single rolling window (mean/stdev) tracked over recent
// clearing prices, published under a name like "price_mean_24h".
type Statistic struct {
	Name       string
	WindowSize int // number of periods in the window
	Mean       float64
	StdDev     float64
}

// ————————————————————————————————————————————————————————————————————————
// Supervisory / PFC
// ————————————————————————————————————————————————————————————————————————

// SortKey selects how the supervisory collector orders candidate devices
// before assigning primary-frequency-control trigger thresholds.
type SortKey int

const (
	SortPowerAscending SortKey = iota
	SortPowerDescending
	SortVoltageDeviation
	SortWorstDirectionVoltageDeviation
)

// DeviceCandidate is one device under supervisory consideration: its
// current power draw/output and bus voltage deviation, used for sorting
// and droop-based threshold assignment.
type DeviceCandidate struct {
	Handle           string
	Power            float64
	VoltageDeviation float64
	On               bool
}
