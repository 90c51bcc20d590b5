package curve

import (
	"testing"

	"transactive-sim/pkg/types"
)

func bid(price, qty float64, state types.BidState) types.Bid {
	return types.Bid{Price: price, Quantity: qty, State: state}
}

func TestSubmitAssignsSequentialSlots(t *testing.T) {
	t.Parallel()
	c := New()

	s0 := c.Submit(bid(1, 10, types.Unknown))
	s1 := c.Submit(bid(2, 20, types.Unknown))

	if s0 != 0 || s1 != 1 {
		t.Errorf("slots = %d,%d want 0,1", s0, s1)
	}
	if c.Count() != 2 {
		t.Errorf("Count() = %d, want 2", c.Count())
	}
}

func TestSubmitTracksTotals(t *testing.T) {
	t.Parallel()
	c := New()
	c.Submit(bid(1, 10, types.On))
	c.Submit(bid(2, 5, types.Off))
	c.Submit(bid(3, 7, types.Unknown))

	if c.Total() != 22 {
		t.Errorf("Total() = %v, want 22", c.Total())
	}
	if c.TotalOn() != 10 {
		t.Errorf("TotalOn() = %v, want 10", c.TotalOn())
	}
	if c.TotalOff() != 5 {
		t.Errorf("TotalOff() = %v, want 5", c.TotalOff())
	}
	if c.TotalUnknown() != 7 {
		t.Errorf("TotalUnknown() = %v, want 7", c.TotalUnknown())
	}
}

func TestResubmitReplacesInPlace(t *testing.T) {
	t.Parallel()
	c := New()
	slot := c.Submit(bid(1, 10, types.On))
	c.Submit(bid(2, 5, types.Off))

	ok := c.Resubmit(slot, bid(1, 40, types.On))
	if !ok {
		t.Fatal("Resubmit returned false for valid slot")
	}
	if c.TotalOn() != 40 {
		t.Errorf("TotalOn() after resubmit = %v, want 40", c.TotalOn())
	}
	if c.Total() != 45 {
		t.Errorf("Total() after resubmit = %v, want 45", c.Total())
	}
	if c.Count() != 2 {
		t.Errorf("Count() after resubmit = %d, want 2 (no new slot)", c.Count())
	}
}

func TestResubmitOutOfRangeFails(t *testing.T) {
	t.Parallel()
	c := New()
	c.Submit(bid(1, 10, types.On))

	if c.Resubmit(5, bid(2, 10, types.On)) {
		t.Error("Resubmit with out-of-range slot should return false")
	}
	if c.Resubmit(-1, bid(2, 10, types.On)) {
		t.Error("Resubmit with negative slot should return false")
	}
}

func TestSortAscending(t *testing.T) {
	t.Parallel()
	c := New()
	prices := []float64{5, 1, 4, 2, 3}
	for _, p := range prices {
		c.Submit(bid(p, 1, types.Unknown))
	}

	c.Sort(false)

	for i := 0; i < c.Count(); i++ {
		want := float64(i + 1)
		if got := c.At(i).Price; got != want {
			t.Errorf("At(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestSortDescending(t *testing.T) {
	t.Parallel()
	c := New()
	prices := []float64{5, 1, 4, 2, 3}
	for _, p := range prices {
		c.Submit(bid(p, 1, types.Unknown))
	}

	c.Sort(true)

	for i := 0; i < c.Count(); i++ {
		want := float64(5 - i)
		if got := c.At(i).Price; got != want {
			t.Errorf("At(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestSortLeavesStorageUntouched(t *testing.T) {
	t.Parallel()
	c := New()
	slot := c.Submit(bid(99, 1, types.Unknown))
	c.Submit(bid(1, 1, types.Unknown))

	c.Sort(false)

	// The original slot must still refer to the same bid after sorting —
	// only the key permutation moves.
	c.Resubmit(slot, bid(99, 2, types.Unknown))
	found := false
	for i := 0; i < c.Count(); i++ {
		if c.At(i).Price == 99 && c.At(i).Quantity == 2 {
			found = true
		}
	}
	if !found {
		t.Error("resubmit via original slot after sort did not update the expected bid")
	}
}

func TestGetTotalAt(t *testing.T) {
	t.Parallel()
	c := New()
	c.Submit(bid(3, 10, types.Unknown))
	c.Submit(bid(3, 5, types.Unknown))
	c.Submit(bid(4, 1, types.Unknown))

	if got := c.GetTotalAt(3); got != 15 {
		t.Errorf("GetTotalAt(3) = %v, want 15", got)
	}
	if got := c.GetTotalAt(99); got != 0 {
		t.Errorf("GetTotalAt(99) = %v, want 0", got)
	}
}

func TestMinPrice(t *testing.T) {
	t.Parallel()
	c := New()
	if got := c.MinPrice(); got != 0 {
		t.Errorf("MinPrice() on empty curve = %v, want 0", got)
	}

	c.Submit(bid(5, 1, types.Unknown))
	c.Submit(bid(2, 1, types.Unknown))
	c.Submit(bid(8, 1, types.Unknown))

	if got := c.MinPrice(); got != 2 {
		t.Errorf("MinPrice() = %v, want 2", got)
	}
}

func TestClearResetsState(t *testing.T) {
	t.Parallel()
	c := New()
	c.Submit(bid(1, 10, types.On))
	c.Clear()

	if c.Count() != 0 || c.Total() != 0 || c.TotalOn() != 0 {
		t.Error("Clear() did not reset curve state")
	}

	slot := c.Submit(bid(2, 5, types.Unknown))
	if slot != 0 {
		t.Errorf("slot after Clear() = %d, want 0", slot)
	}
}
