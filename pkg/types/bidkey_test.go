package types

import "testing"

func TestBidKeyRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		marketID int64
		side     Side
		slot     int
	}{
		{"buy zero slot", 1, Buy, 0},
		{"sell zero slot", 1, Sell, 0},
		{"buy large market", 123456, Buy, 42},
		{"sell max slot", 7, Sell, slotIndexMask_test()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			key := EncodeBidKey(tc.marketID, tc.side, tc.slot)
			gotMarket, gotSide, gotSlot := DecodeBidKey(key)
			if gotMarket != tc.marketID {
				t.Errorf("marketID = %d, want %d", gotMarket, tc.marketID)
			}
			if gotSide != tc.side {
				t.Errorf("side = %v, want %v", gotSide, tc.side)
			}
			if gotSlot != tc.slot {
				t.Errorf("slot = %d, want %d", gotSlot, tc.slot)
			}
		})
	}
}

func slotIndexMask_test() int { return int(slotIndexMask) }

func TestSideString(t *testing.T) {
	t.Parallel()
	if Buy.String() != "BUY" {
		t.Errorf("Buy.String() = %q, want BUY", Buy.String())
	}
	if Sell.String() != "SELL" {
		t.Errorf("Sell.String() = %q, want SELL", Sell.String())
	}
}
