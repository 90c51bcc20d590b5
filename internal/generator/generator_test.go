package generator

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseCurveMonotoneOK(t *testing.T) {
	t.Parallel()
	pts, err := ParseCurve("5 10 10 20 15 30", 15)
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 3 {
		t.Fatalf("len(points) = %d, want 3", len(pts))
	}
}

func TestParseCurveAppendsTail(t *testing.T) {
	t.Parallel()
	pts, err := ParseCurve("5 10 10 20", 20)
	if err != nil {
		t.Fatal(err)
	}
	last := pts[len(pts)-1]
	if last.Quantity != 20 {
		t.Errorf("last.Quantity = %v, want 20 (implicit tail to rated capacity)", last.Quantity)
	}
	if last.Price != 20 {
		t.Errorf("last.Price = %v, want 20 (tail carries forward last price)", last.Price)
	}
}

func TestParseCurveRejectsNonMonotone(t *testing.T) {
	t.Parallel()
	if _, err := ParseCurve("10 10 5 20", 20); err == nil {
		t.Fatal("expected error for decreasing quantity")
	}
}

func TestParseCurveRejectsOddFields(t *testing.T) {
	t.Parallel()
	if _, err := ParseCurve("5 10 20", 20); err == nil {
		t.Fatal("expected error for odd number of fields")
	}
}

func TestParseCurveRejectsExceedingCapacity(t *testing.T) {
	t.Parallel()
	if _, err := ParseCurve("5 10 30 20", 20); err == nil {
		t.Fatal("expected error when curve exceeds rated capacity")
	}
}

func TestParseCurveScenarioSix(t *testing.T) {
	t.Parallel()
	pts, err := ParseCurve("5 20 10 40", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 2 {
		t.Fatalf("len(points) = %d, want 2", len(pts))
	}
	if pts[0].Quantity != 5 || pts[0].Price != 20 {
		t.Errorf("pts[0] = %+v, want {Price:20 Quantity:5}", pts[0])
	}
	if pts[1].Quantity != 10 || pts[1].Price != 40 {
		t.Errorf("pts[1] = %+v, want {Price:40 Quantity:10}", pts[1])
	}
}

func TestSegmentsAreIncremental(t *testing.T) {
	t.Parallel()
	pts := []Point{{Price: 10, Quantity: 5}, {Price: 20, Quantity: 15}, {Price: 30, Quantity: 20}}
	segs := Segments(pts)
	want := []float64{5, 10, 5}
	for i, s := range segs {
		if s.Quantity != want[i] {
			t.Errorf("segs[%d].Quantity = %v, want %v", i, s.Quantity, want[i])
		}
	}
}

func baseConfig() Config {
	return Config{
		RatedCapacity: 20,
		CurveText:     "5 10 20 15",
		PriceCap:      1000,
		StartupCost:   100,
		ShutdownCost:  50,
		AmortizeRate:  0.01,
		Period:        5 * time.Minute,
		MinRuntime:    10 * time.Minute,
		MinDowntime:   10 * time.Minute,
		LatencySlots:  2,
	}
}

func TestBidsInvalidWhileDowntimeUnmet(t *testing.T) {
	t.Parallel()
	g, err := New(baseConfig(), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	// fresh generator: downtime timer starts at 0, below the 10-minute MinDowntime.
	bids := g.Bids()
	for _, b := range bids {
		if b.Price != g.cfg.PriceCap+epsilon {
			t.Errorf("bid price = %v, want price-cap+epsilon while downtime unmet", b.Price)
		}
	}
	if g.Committed() {
		t.Error("expected generator to remain off while downtime unmet")
	}
}

func TestBidsAppliesStartupShutdownOverlayOnceDowntimeSatisfied(t *testing.T) {
	t.Parallel()
	g, err := New(baseConfig(), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	// each Bids/ApplyOutput round with clearing price 0 keeps the generator
	// off and accumulates downtimeSince by one period.
	for i := 0; i < 2; i++ {
		g.Bids()
		g.ApplyOutput(0)
	}
	bids := g.Bids()
	if !g.Committed() {
		t.Fatal("expected generator committed (STARTUP) once downtime satisfied")
	}
	want := []float64{10 + 150, 15 + 150}
	for i, b := range bids {
		if b.Price != want[i] {
			t.Errorf("bids[%d].Price = %v, want %v (startup+shutdown overlay)", i, b.Price, want[i])
		}
	}
}

func TestGeneratorScenarioSixStartupBid(t *testing.T) {
	t.Parallel()
	g, err := New(Config{
		RatedCapacity: 10,
		CurveText:     "5 20 10 40",
		PriceCap:      1000,
		StartupCost:   100,
		ShutdownCost:  50,
		AmortizeRate:  0.01,
		Period:        5 * time.Minute,
		MinRuntime:    10 * time.Minute,
		MinDowntime:   0,
		LatencySlots:  1,
	}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	bids := g.Bids()
	if len(bids) != 2 {
		t.Fatalf("len(bids) = %d, want 2", len(bids))
	}
	if bids[0].Price != 170 || bids[0].Quantity != 5 {
		t.Errorf("bids[0] = %+v, want {Price:170 Quantity:5}", bids[0])
	}
	if bids[1].Price != 190 || bids[1].Quantity != 5 {
		t.Errorf("bids[1] = %+v, want {Price:190 Quantity:5}", bids[1])
	}
	if !g.Committed() {
		t.Error("expected generator committed (STARTUP) after a valid startup bid")
	}
}

func TestApplyOutputLags(t *testing.T) {
	t.Parallel()
	g, err := New(baseConfig(), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	g.Bids()
	first := g.ApplyOutput(10)
	if first != 0 {
		t.Errorf("first ApplyOutput = %v, want 0 (nothing in the active slot yet)", first)
	}
}

func TestApplyOutputSumsSegmentsAtOrBelowClearingPrice(t *testing.T) {
	t.Parallel()
	g, err := New(Config{
		RatedCapacity: 10,
		CurveText:     "5 20 10 40",
		PriceCap:      1000,
		AmortizeRate:  0.01,
		Period:        5 * time.Minute,
		MinDowntime:   0,
		LatencySlots:  1,
	}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	g.Bids() // segments priced 20 for qty5, 40 for qty5 (no startup/shutdown cost configured)
	output := g.ApplyOutput(30)
	if output != 5 {
		t.Errorf("ApplyOutput(30) = %v, want 5 (only the 20-priced segment clears)", output)
	}
}
