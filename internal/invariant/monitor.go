// Package invariant monitors the simulator for RuntimeInvariant violations
// reported by other components and halts the run when one occurs.
//
// A RuntimeInvariant error is never returned across a bid submission call.
// A clearing call returns it to the engine, which reports it here, and the
// engine's scheduler loop reads HaltCh() to know when to stop.
package invariant

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"transactive-sim/pkg/simerr"
)

// HaltSignal tells the engine to stop the simulation loop.
type HaltSignal struct {
	Err  *simerr.RuntimeInvariant
	When time.Time
}

// Monitor collects invariant violations from any component and exposes a
// channel the engine's scheduler loop selects on to know when to stop.
type Monitor struct {
	logger *slog.Logger

	mu      sync.Mutex
	halted  bool
	reason  *simerr.RuntimeInvariant

	reportCh chan *simerr.RuntimeInvariant
	haltCh   chan HaltSignal
}

// NewMonitor constructs a Monitor.
func NewMonitor(logger *slog.Logger) *Monitor {
	return &Monitor{
		logger:   logger.With("component", "invariant"),
		reportCh: make(chan *simerr.RuntimeInvariant, 16),
		haltCh:   make(chan HaltSignal, 1),
	}
}

// Run starts the monitor's dispatch loop. It returns when ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-m.reportCh:
			m.halt(err)
		}
	}
}

// Report submits a violation (non-blocking; drops if the queue is full,
// since a halt is already effectively pending in that case).
func (m *Monitor) Report(err *simerr.RuntimeInvariant) {
	select {
	case m.reportCh <- err:
	default:
		m.logger.Warn("invariant report queue full, dropping report", "detail", err.Detail)
	}
}

func (m *Monitor) halt(err *simerr.RuntimeInvariant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.halted {
		return
	}
	m.halted = true
	m.reason = err
	m.logger.Error("halting simulation", "component", err.Component, "detail", err.Detail)

	select {
	case m.haltCh <- HaltSignal{Err: err, When: time.Now()}:
	default:
	}
}

// HaltCh returns the channel the engine reads a halt signal from.
func (m *Monitor) HaltCh() <-chan HaltSignal {
	return m.haltCh
}

// Halted reports whether a halt has already been triggered.
func (m *Monitor) Halted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.halted
}

// Reason returns the violation that caused the halt, or nil if none.
func (m *Monitor) Reason() *simerr.RuntimeInvariant {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reason
}
