package auction

import "transactive-sim/pkg/types"

// StubBidder submits a canned sequence of bids into a Market, one bid per
// call to Next. It drives a market without wiring up a real controller or
// generator; the clear-test CLI command submits its bids directly instead.
type StubBidder struct {
	side    types.Side
	script  []types.Bid
	cursor  int
}

// NewStubBidder returns a bidder that plays script in order, one bid per
// call to Next, on the given side.
func NewStubBidder(side types.Side, script []types.Bid) *StubBidder {
	return &StubBidder{side: side, script: script}
}

// Next submits the next scripted bid into m and advances the cursor. It
// returns false once the script is exhausted.
func (s *StubBidder) Next(m *Market) (uint64, bool, error) {
	if s.cursor >= len(s.script) {
		return 0, false, nil
	}
	bid := s.script[s.cursor]
	s.cursor++
	key, err := m.Submit(s.side, bid)
	return key, true, err
}

// SubmitAll plays the entire remaining script into m.
func (s *StubBidder) SubmitAll(m *Market) error {
	for {
		_, more, err := s.Next(m)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// Reset rewinds the script cursor to the beginning.
func (s *StubBidder) Reset() { s.cursor = 0 }
