package auction

import (
	"time"

	"transactive-sim/pkg/simerr"
	"transactive-sim/pkg/types"
)

// latencyRing delays market frames by a configurable latency before they
// become visible to bidders, modeling communication or computation delay
// between clearing and publication. It is a fixed-size circular buffer;
// pushing into a full ring is a runtime invariant violation, not a
// recoverable condition — it means frames are being produced faster than
// they're being consumed.
type latencyRing struct {
	frames []types.MarketFrame
	front  int // next frame to pop
	back   int // next slot to push into
	count  int
}

func newLatencyRing(size int) *latencyRing {
	if size < 1 {
		size = 1
	}
	return &latencyRing{frames: make([]types.MarketFrame, size)}
}

func (r *latencyRing) push(f types.MarketFrame) error {
	if r.count == len(r.frames) {
		return &simerr.RuntimeInvariant{
			Component: "auction.latencyRing",
			Detail:    "pushed a frame onto a full ring; consumer is not keeping pace",
		}
	}
	r.frames[r.back] = f
	r.back = (r.back + 1) % len(r.frames)
	r.count++
	return nil
}

// pop returns the oldest ring frame if its start time has arrived.
func (r *latencyRing) pop(now time.Time) (types.MarketFrame, bool) {
	if r.count == 0 {
		return types.MarketFrame{}, false
	}
	next := r.frames[r.front]
	if now.Before(next.StartTime) {
		return types.MarketFrame{}, false
	}
	r.front = (r.front + 1) % len(r.frames)
	r.count--
	return next, true
}

// peek returns the oldest ring frame without consuming it.
func (r *latencyRing) peek() (types.MarketFrame, bool) {
	if r.count == 0 {
		return types.MarketFrame{}, false
	}
	return r.frames[r.front], true
}

func (r *latencyRing) depth() int { return r.count }
