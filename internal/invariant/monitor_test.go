package invariant

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"transactive-sim/pkg/simerr"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReportTriggersHaltSignal(t *testing.T) {
	t.Parallel()
	m := NewMonitor(testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	m.Report(&simerr.RuntimeInvariant{Component: "auction:retail", Detail: "ring overflow"})

	select {
	case sig := <-m.HaltCh():
		if sig.Err.Component != "auction:retail" {
			t.Errorf("HaltSignal.Err.Component = %q, want %q", sig.Err.Component, "auction:retail")
		}
	case <-time.After(time.Second):
		t.Fatal("HaltCh() did not receive a signal within 1s")
	}

	if !m.Halted() {
		t.Error("Halted() = false after a reported violation")
	}
	if m.Reason() == nil {
		t.Error("Reason() = nil after a reported violation")
	}
}

func TestHaltIsIdempotent(t *testing.T) {
	t.Parallel()
	m := NewMonitor(testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	m.Report(&simerr.RuntimeInvariant{Component: "auction:retail", Detail: "first"})
	time.Sleep(20 * time.Millisecond)
	m.Report(&simerr.RuntimeInvariant{Component: "auction:retail", Detail: "second"})
	time.Sleep(20 * time.Millisecond)

	if m.Reason().Detail != "first" {
		t.Errorf("Reason().Detail = %q, want %q (first halt should stick)", m.Reason().Detail, "first")
	}
}

func TestMonitorStopsOnContextCancel(t *testing.T) {
	t.Parallel()
	m := NewMonitor(testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after context cancellation")
	}
}

func TestNotHaltedBeforeAnyReport(t *testing.T) {
	t.Parallel()
	m := NewMonitor(testLogger())
	if m.Halted() {
		t.Error("Halted() = true before any report")
	}
	if m.Reason() != nil {
		t.Error("Reason() non-nil before any report")
	}
}
