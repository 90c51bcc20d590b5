// Package curve implements the bid curve: an append-only store of bids for
// one side of one market, plus a permutation array that gives a stable sort
// order without ever moving the bids themselves.
//
// A bid's position in the backing array never changes once submitted, so a
// Key returned by Submit stays valid for Resubmit across any number of Sort
// calls. This mirrors the original C bid curve, which sorts only the
// index array (keys) and leaves the bid storage untouched.
package curve

import "transactive-sim/pkg/types"

const initialCapacity = 8

// Curve holds the bids on one side of one market for the current period.
// It is not concurrency-safe; callers serialize access per market period.
type Curve struct {
	bids []types.Bid
	keys []int // permutation over bids, reordered by Sort

	total        float64
	totalOn      float64
	totalOff     float64
	totalUnknown float64
}

// New returns an empty curve.
func New() *Curve {
	return &Curve{}
}

// Clear resets the curve for a new period without releasing its backing
// arrays, matching the original's reuse-in-place behavior.
func (c *Curve) Clear() {
	c.bids = c.bids[:0]
	c.keys = c.keys[:0]
	c.total = 0
	c.totalOn = 0
	c.totalOff = 0
	c.totalUnknown = 0
}

// Submit appends a bid to the curve and returns the slot index it was
// assigned. The slot index, not the bid key, is what Resubmit takes — the
// caller combines it with the market ID and side via types.EncodeBidKey.
func (c *Curve) Submit(bid types.Bid) int {
	if cap(c.bids) == 0 {
		c.bids = make([]types.Bid, 0, initialCapacity)
		c.keys = make([]int, 0, initialCapacity)
	}
	slot := len(c.bids)
	c.bids = append(c.bids, bid)
	c.keys = append(c.keys, slot)
	c.addTotals(bid)
	return slot
}

// Resubmit replaces the bid at slot in place, undoing its old contribution
// to the running totals and applying the new one. It reports false if slot
// does not refer to a bid submitted this period.
func (c *Curve) Resubmit(slot int, bid types.Bid) bool {
	if slot < 0 || slot >= len(c.bids) {
		return false
	}
	c.subTotals(c.bids[slot])
	c.bids[slot] = bid
	c.addTotals(bid)
	return true
}

func (c *Curve) addTotals(b types.Bid) {
	switch b.State {
	case types.Off:
		c.totalOff += b.Quantity
	case types.On:
		c.totalOn += b.Quantity
	case types.Unknown:
		c.totalUnknown += b.Quantity
	}
	c.total += b.Quantity
}

func (c *Curve) subTotals(b types.Bid) {
	switch b.State {
	case types.Off:
		c.totalOff -= b.Quantity
	case types.On:
		c.totalOn -= b.Quantity
	case types.Unknown:
		c.totalUnknown -= b.Quantity
	}
	c.total -= b.Quantity
}

// Count returns the number of bids currently on the curve.
func (c *Curve) Count() int { return len(c.bids) }

// Total returns the sum of all bid quantities on the curve.
func (c *Curve) Total() float64 { return c.total }

// TotalOn returns the sum of quantities for bids in BidState On.
func (c *Curve) TotalOn() float64 { return c.totalOn }

// TotalOff returns the sum of quantities for bids in BidState Off.
func (c *Curve) TotalOff() float64 { return c.totalOff }

// TotalUnknown returns the sum of quantities for bids in BidState Unknown.
func (c *Curve) TotalUnknown() float64 { return c.totalUnknown }

// At returns the nth bid in the curve's current sort order. Sort must be
// called first for this to reflect a price ordering; otherwise it reflects
// submission order.
func (c *Curve) At(n int) types.Bid {
	return c.bids[c.keys[n]]
}

// Sort orders the curve's bids by price using a stable merge sort over the
// key permutation. reverse=false sorts ascending (the seller convention,
// cheapest first); reverse=true sorts descending (the buyer convention,
// most willing to pay first).
func (c *Curve) Sort(reverse bool) {
	if len(c.keys) < 2 {
		return
	}
	mergeSort(c.bids, c.keys, reverse)
}

func mergeSort(bids []types.Bid, keys []int, reverse bool) {
	n := len(keys)
	if n < 2 {
		return
	}
	split := n / 2
	left := append([]int(nil), keys[:split]...)
	right := append([]int(nil), keys[split:]...)
	mergeSort(bids, left, reverse)
	mergeSort(bids, right, reverse)

	i, j, k := 0, 0, 0
	for i < len(left) && j < len(right) {
		var takeLeft bool
		if reverse {
			takeLeft = bids[left[i]].Price >= bids[right[j]].Price
		} else {
			takeLeft = bids[left[i]].Price <= bids[right[j]].Price
		}
		if takeLeft {
			keys[k] = left[i]
			i++
		} else {
			keys[k] = right[j]
			j++
		}
		k++
	}
	for i < len(left) {
		keys[k] = left[i]
		i++
		k++
	}
	for j < len(right) {
		keys[k] = right[j]
		j++
		k++
	}
}

// GetTotalAt sums the quantity of every bid priced exactly at price.
func (c *Curve) GetTotalAt(price float64) float64 {
	var sum float64
	for _, b := range c.bids {
		if b.Price == price {
			sum += b.Quantity
		}
	}
	return sum
}

// MinPrice returns the lowest price on the curve, or 0 if the curve is
// empty.
func (c *Curve) MinPrice() float64 {
	if len(c.bids) == 0 {
		return 0
	}
	min := c.bids[0].Price
	for _, b := range c.bids[1:] {
		if b.Price < min {
			min = b.Price
		}
	}
	return min
}
