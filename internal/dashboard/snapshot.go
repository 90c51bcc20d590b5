package dashboard

import (
	"time"

	"transactive-sim/pkg/types"
)

// Snapshot is the point-in-time state returned by GET /api/snapshot and
// sent to every WebSocket client immediately after it connects.
type Snapshot struct {
	Timestamp   time.Time               `json:"timestamp"`
	Frames      map[string]types.MarketFrame `json:"frames"`
	Statistics  map[string][]types.Statistic `json:"statistics"`
	Controllers map[string]ControllerView    `json:"controllers"`
	Generators  map[string]GeneratorView     `json:"generators"`
}

// ControllerView is the subset of a controller's state worth surfacing on
// the dashboard.
type ControllerView struct {
	Setpoint  float64 `json:"setpoint"`
	LastPrice float64 `json:"last_price"`
	Override  bool    `json:"override"`
}

// GeneratorView is the subset of a generator's state worth surfacing on
// the dashboard.
type GeneratorView struct {
	Committed       bool    `json:"committed"`
	CapacityFactor  float64 `json:"capacity_factor"`
	CumulativeCO2   float64 `json:"cumulative_emissions"`
}

// Provider supplies the live state the dashboard renders. The engine
// implements this interface; the dashboard package never depends on the
// engine package directly, only on this contract.
type Provider interface {
	Snapshot() Snapshot
	Events() <-chan Event
}
