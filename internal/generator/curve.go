// Package generator implements the generator bidder: it turns a
// dispatchable unit's piecewise-linear marginal-cost curve into a sequence
// of market bids, tracks startup/shutdown cost amortisation, and enforces
// minimum runtime/downtime constraints on commitment changes.
package generator

import (
	"fmt"
	"strconv"
	"strings"

	"transactive-sim/pkg/simerr"
)

// Point is one (quantity, price) breakpoint of a piecewise-linear supply
// curve: up to this cumulative quantity, the unit is willing to supply at
// this price.
type Point struct {
	Price    float64
	Quantity float64
}

// ParseCurve parses a "q1 p1 q2 p2 ..." supply curve string. Quantities
// must be non-decreasing; if the last point's quantity is below
// ratedCapacity, an implicit tail point is appended at the last price to
// extend the curve to full capacity.
func ParseCurve(text string, ratedCapacity float64) ([]Point, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 || len(fields)%2 != 0 {
		return nil, &simerr.ConfigurationError{Component: "generator.ParseCurve", Field: "text", Reason: "must be an even number of quantity/price pairs"}
	}

	points := make([]Point, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		qty, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, &simerr.ConfigurationError{Component: "generator.ParseCurve", Field: "text", Reason: fmt.Sprintf("invalid quantity %q", fields[i])}
		}
		price, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return nil, &simerr.ConfigurationError{Component: "generator.ParseCurve", Field: "text", Reason: fmt.Sprintf("invalid price %q", fields[i+1])}
		}
		if len(points) > 0 && qty < points[len(points)-1].Quantity {
			return nil, &simerr.ConfigurationError{Component: "generator.ParseCurve", Field: "text", Reason: "quantities must be monotone non-decreasing"}
		}
		points = append(points, Point{Price: price, Quantity: qty})
	}

	last := points[len(points)-1]
	if last.Quantity < ratedCapacity {
		points = append(points, Point{Price: last.Price, Quantity: ratedCapacity})
	} else if last.Quantity > ratedCapacity {
		return nil, &simerr.ConfigurationError{Component: "generator.ParseCurve", Field: "text", Reason: "curve quantity exceeds rated capacity"}
	}

	return points, nil
}

// Segments returns the curve as incremental (price, incrementalQuantity)
// bid segments, each segment's quantity being the difference from the
// previous breakpoint. This is what actually gets submitted into the
// market — one bid per segment.
func Segments(points []Point) []Point {
	segs := make([]Point, len(points))
	prevQty := 0.0
	for i, p := range points {
		segs[i] = Point{Price: p.Price, Quantity: p.Quantity - prevQty}
		prevQty = p.Quantity
	}
	return segs
}
