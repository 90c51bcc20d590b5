package engine

import (
	"context"
	"time"

	"transactive-sim/internal/bridge"
	"transactive-sim/internal/dashboard"
	"transactive-sim/pkg/simerr"
	"transactive-sim/pkg/types"
)

// runScheduler drives the three-pass period loop: pre-top-down (bidding),
// clearing, bottom-up (resolving cleared prices back into device state and
// actuating through the bridge), and post-top-down (supervisory assignment
// and telemetry). If a bridge feed is configured, each period is paced by
// its ClockEvents; otherwise periods run back-to-back in simulated time
// from StartTime to StopTime.
func (e *Engine) runScheduler() {
	if e.bridgeFeed != nil {
		e.runScheduleFromFeed()
		return
	}
	e.runScheduleStandalone()
}

func (e *Engine) runScheduleStandalone() {
	simTime := e.cfg.Simulation.StartTime
	for simTime.Before(e.cfg.Simulation.StopTime) {
		select {
		case <-e.ctx.Done():
			return
		case halt := <-e.monitor.HaltCh():
			e.logger.Error("simulation halted", "reason", halt.Err.Detail)
			return
		default:
		}

		e.runPeriod(simTime)
		simTime = simTime.Add(e.cfg.Simulation.Period)
	}
	e.logger.Info("simulation reached stop time", "stop_time", e.cfg.Simulation.StopTime)
}

func (e *Engine) runScheduleFromFeed() {
	for {
		select {
		case <-e.ctx.Done():
			return
		case halt := <-e.monitor.HaltCh():
			e.logger.Error("simulation halted", "reason", halt.Err.Detail)
			return
		case clk, ok := <-e.bridgeFeed.ClockEvents():
			if !ok {
				return
			}
			e.runPeriod(clk.SimTime)
		}
	}
}

func (e *Engine) runPeriod(simTime time.Time) {
	e.submitBids(simTime)

	frames := make(map[string]types.MarketFrame, len(e.auctions))
	for name, market := range e.auctions {
		frame, err := market.ClearMarket(simTime)
		if err != nil {
			e.monitor.Report(&simerr.RuntimeInvariant{Component: "auction:" + name, Detail: err.Error()})
			continue
		}
		frames[name] = frame
	}

	e.mu.Lock()
	for name, frame := range frames {
		e.last[name] = frame
	}
	e.mu.Unlock()

	e.resolve(frames)
	e.assignSupervisory()
	e.emitTelemetry(frames)
}

func (e *Engine) submitBids(simTime time.Time) {
	for _, cs := range e.controllers {
		measured := e.measuredState(cs)
		stat := firstStatistic(cs.market)
		bid := cs.ctl.Bid(measured, stat)
		key, err := cs.market.Submit(types.Buy, bid)
		if err != nil {
			e.logger.Warn("controller bid rejected", "controller", cs.name, "error", err)
			continue
		}
		cs.lastBid = key
	}

	for _, gs := range e.generators {
		for _, bid := range gs.gen.Bids() {
			if _, err := gs.market.Submit(types.Sell, bid); err != nil {
				e.logger.Warn("generator bid rejected", "generator", gs.name, "error", err)
			}
		}
	}
}

func (e *Engine) resolve(frames map[string]types.MarketFrame) {
	for _, cs := range e.controllers {
		frame, ok := frames[cs.auctionName]
		if !ok {
			continue
		}
		stat := firstStatistic(cs.market)
		state := cs.ctl.Resolve(frame, stat)
		if e.bridgeClient != nil {
			req := bridge.SetpointRequest{Handle: string(cs.handle), Setpoint: state.Setpoint}
			if err := e.bridgeClient.PostSetpoint(e.ctx, req); err != nil {
				e.logger.Warn("failed to actuate setpoint", "controller", cs.name, "error", err)
			}
		}
	}

	for _, gs := range e.generators {
		frame, ok := frames[gs.auctionName]
		if !ok {
			continue
		}
		output := gs.gen.ApplyOutput(frame.ClearingPrice)
		if e.bridgeClient != nil {
			req := bridge.ConstantPowerLoadRequest{Handle: string(gs.handle), Power: output}
			if err := e.bridgeClient.PostConstantPowerLoad(e.ctx, req); err != nil {
				e.logger.Warn("failed to post generator output", "generator", gs.name, "error", err)
			}
		}
	}
}

func (e *Engine) assignSupervisory() {
	if e.supervisor == nil || len(e.controllers) == 0 {
		return
	}
	candidates := make([]types.DeviceCandidate, 0, len(e.controllers))
	for _, cs := range e.controllers {
		st := cs.ctl.State()
		candidates = append(candidates, types.DeviceCandidate{
			Handle: string(cs.handle),
			Power:  st.Setpoint,
			On:     st.Override,
		})
	}
	e.supervisor.Assign(candidates)
}

func (e *Engine) emitTelemetry(frames map[string]types.MarketFrame) {
	if e.dashboardEvents == nil {
		return
	}
	for name, frame := range frames {
		e.emit(dashboard.Event{Type: "frame", Timestamp: frame.StartTime, Data: map[string]any{"auction": name, "frame": frame}})
	}
	for _, cs := range e.controllers {
		e.emit(dashboard.Event{Type: "controller", Timestamp: time.Now(), Data: map[string]any{"controller": cs.name, "state": cs.ctl.State()}})
	}
	for _, gs := range e.generators {
		e.emit(dashboard.Event{
			Type:      "generator",
			Timestamp: time.Now(),
			Data: map[string]any{
				"generator":       gs.name,
				"committed":       gs.gen.Committed(),
				"capacity_factor": gs.gen.CapacityFactor(),
			},
		})
	}
}

func (e *Engine) emit(evt dashboard.Event) {
	select {
	case e.dashboardEvents <- evt:
	default:
		e.logger.Warn("dashboard event channel full, dropping event")
	}
}

// measuredState returns the device's measured process variable for bidding.
// With a bridge configured it reads the co-simulation host's node state;
// otherwise it falls back to the controller's own last setpoint, a
// steady-state assumption adequate for a dry run with no physical model.
func (e *Engine) measuredState(cs *controllerSlot) float64 {
	if e.bridgeClient != nil {
		ctx, cancel := context.WithTimeout(e.ctx, 2*time.Second)
		defer cancel()
		ns, err := e.bridgeClient.GetNodeState(ctx, string(cs.handle))
		if err == nil {
			return ns.Temperature
		}
		e.logger.Warn("bridge node state unavailable, using last setpoint", "controller", cs.name, "error", err)
	}
	return cs.ctl.State().Setpoint
}

func firstStatistic(market interface{ Statistics() []types.Statistic }) types.Statistic {
	stats := market.Statistics()
	if len(stats) == 0 {
		return types.Statistic{}
	}
	return stats[0]
}
