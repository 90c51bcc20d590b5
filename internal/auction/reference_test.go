package auction

import (
	"testing"

	"transactive-sim/internal/curve"
	"transactive-sim/pkg/types"
)

func TestReferenceLoadEstimateUsesHalfOfUnknown(t *testing.T) {
	t.Parallel()
	r, err := NewReferenceLoadEstimator(100, func() float64 { return 50 })
	if err != nil {
		t.Fatal(err)
	}

	asks := curve.New()
	asks.Submit(types.Bid{Price: 10, Quantity: 10, State: types.On})

	offers := curve.New()
	offers.Submit(types.Bid{Price: 20, Quantity: 8, State: types.Off})
	offers.Submit(types.Bid{Price: 30, Quantity: 12, State: types.Unknown})

	bid, ok := r.Estimate(asks, offers)
	if !ok {
		t.Fatal("expected a positive reference bid")
	}

	// 50 - 10 (asks.TotalOn) - 12/2 (offers.TotalUnknown) = 34
	if bid.Quantity != 34 {
		t.Errorf("Estimate quantity = %v, want 34", bid.Quantity)
	}
	if bid.Price != 100 {
		t.Errorf("Estimate price = %v, want price cap 100", bid.Price)
	}
}

func TestReferenceLoadEstimateNonPositiveReturnsFalse(t *testing.T) {
	t.Parallel()
	r, err := NewReferenceLoadEstimator(100, func() float64 { return 5 })
	if err != nil {
		t.Fatal(err)
	}

	asks := curve.New()
	asks.Submit(types.Bid{Price: 10, Quantity: 10, State: types.On})
	offers := curve.New()

	if _, ok := r.Estimate(asks, offers); ok {
		t.Error("expected no reference bid when the estimate is non-positive")
	}
}
