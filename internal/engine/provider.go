package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"transactive-sim/internal/dashboard"
	"transactive-sim/pkg/types"
)

// Collectors returns every auction's prometheus collectors for registration
// with the dashboard server's /metrics endpoint.
func (e *Engine) Collectors() []prometheus.Collector {
	var out []prometheus.Collector
	for _, market := range e.auctions {
		out = append(out, market.Metrics().Collectors()...)
	}
	return out
}

// Snapshot implements dashboard.Provider, giving the telemetry server a
// point-in-time view of every auction, controller, and generator.
func (e *Engine) Snapshot() dashboard.Snapshot {
	e.mu.RLock()
	frames := make(map[string]types.MarketFrame, len(e.last))
	for name, frame := range e.last {
		frames[name] = frame
	}
	e.mu.RUnlock()

	stats := make(map[string][]types.Statistic, len(e.auctions))
	for name, market := range e.auctions {
		stats[name] = market.Statistics()
	}

	controllers := make(map[string]dashboard.ControllerView, len(e.controllers))
	for _, cs := range e.controllers {
		st := cs.ctl.State()
		controllers[cs.name] = dashboard.ControllerView{
			Setpoint:  st.Setpoint,
			LastPrice: st.LastPrice,
			Override:  st.Override,
		}
	}

	generators := make(map[string]dashboard.GeneratorView, len(e.generators))
	for _, gs := range e.generators {
		generators[gs.name] = dashboard.GeneratorView{
			Committed:      gs.gen.Committed(),
			CapacityFactor: gs.gen.CapacityFactor(),
			CumulativeCO2:  gs.gen.CumulativeEmissions(),
		}
	}

	return dashboard.Snapshot{
		Timestamp:   time.Now(),
		Frames:      frames,
		Statistics:  stats,
		Controllers: controllers,
		Generators:  generators,
	}
}

// Events implements dashboard.Provider.
func (e *Engine) Events() <-chan dashboard.Event {
	return e.dashboardEvents
}
