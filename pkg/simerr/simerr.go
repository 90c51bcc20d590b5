// Package simerr defines the error kinds used across the simulator so
// callers can distinguish a rejected bid from a fatal invariant violation
// without string-matching error messages.
package simerr

import "fmt"

// ConfigurationError means a component was constructed with invalid
// configuration and could not be started. Callers should treat it as fatal
// at startup.
type ConfigurationError struct {
	Component string
	Field     string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: invalid %s: %s", e.Component, e.Field, e.Reason)
}

// RuntimeInvariant means a property the simulator assumes always holds was
// violated during a run (e.g. the latency ring was overwritten before being
// consumed). It is reported to invariant.Monitor, which halts the run —
// it is never returned across a bid-submission boundary.
type RuntimeInvariant struct {
	Component string
	Detail    string
}

func (e *RuntimeInvariant) Error() string {
	return fmt.Sprintf("invariant violated in %s: %s", e.Component, e.Detail)
}

// BidRejection means a submitted bid was not accepted into a curve. It is
// not fatal; the caller (controller or generator) should treat the bid as
// having had no effect this period.
type BidRejection struct {
	Reason string
}

func (e *BidRejection) Error() string {
	return fmt.Sprintf("bid rejected: %s", e.Reason)
}

// WarmupDrop means a demand bid was dropped because the auction has not yet
// accumulated enough history to safely clear against it (the market's
// configured number of warmup periods).
type WarmupDrop struct {
	MarketID int64
}

func (e *WarmupDrop) Error() string {
	return fmt.Sprintf("market %d: demand bid dropped during warmup", e.MarketID)
}

// RangeWarning means a value was outside its expected range but was clamped
// rather than rejected (e.g. a clearing price beyond the price cap). It is
// informational — logged, not propagated as a failure.
type RangeWarning struct {
	Component string
	Detail    string
}

func (e *RangeWarning) Error() string {
	return fmt.Sprintf("%s: %s", e.Component, e.Detail)
}
