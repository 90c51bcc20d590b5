// Package engine is the central orchestrator of the transactive energy
// simulator.
//
// It wires together all subsystems:
//
//  1. Each configured auction runs a double-auction clearing market.
//  2. Each transactive controller bids into one auction on behalf of a
//     thermostatic load and resolves its setpoint from the cleared price.
//  3. Each generator bids its supply curve into one auction and commits
//     or decommits based on the cleared price.
//  4. The supervisory collector assigns PFC trigger thresholds to
//     deferrable loads once per period.
//  5. The bridge client/feed connect to an external co-simulation host
//     for measured node state and setpoint actuation; in dry-run mode
//     neither is created and no bridge calls are made.
//  6. The invariant monitor halts the run if any component reports a
//     RuntimeInvariant violation.
//
// Lifecycle: New() → Start() → [scheduler advances periods up to StopTime] → Stop()
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"transactive-sim/internal/auction"
	"transactive-sim/internal/bridge"
	"transactive-sim/internal/config"
	"transactive-sim/internal/controller"
	"transactive-sim/internal/dashboard"
	"transactive-sim/internal/generator"
	"transactive-sim/internal/invariant"
	"transactive-sim/internal/store"
	"transactive-sim/internal/supervisory"
	"transactive-sim/pkg/simerr"
	"transactive-sim/pkg/types"
)

// Engine orchestrates every component of the simulator and owns the
// lifecycle of all of its goroutines.
type Engine struct {
	cfg    config.Config
	logger *slog.Logger

	auctions    map[string]*auction.Market
	controllers []*controllerSlot
	generators  []*generatorSlot
	supervisor  *supervisory.Collector

	bridgeClient *bridge.Client
	bridgeFeed   *bridge.Feed
	registry     *bridge.Registry

	store   *store.Store
	monitor *invariant.Monitor

	dashboardEvents chan dashboard.Event

	mu    sync.RWMutex
	last  map[string]types.MarketFrame // last cleared frame per auction, for the dashboard snapshot

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type controllerSlot struct {
	name        string
	auctionName string
	ctl         *controller.Controller
	market      *auction.Market
	handle      bridge.Handle
	lastBid     uint64
}

type generatorSlot struct {
	name        string
	auctionName string
	gen         *generator.Generator
	market      *auction.Market
	handle      bridge.Handle
}

// New wires every configured component from cfg.
func New(cfg config.Config, logger *slog.Logger) (*Engine, error) {
	logger = logger.With("component", "engine")

	auctions := make(map[string]*auction.Market, len(cfg.Auctions))
	auctionPeriods := make(map[string]time.Duration, len(cfg.Auctions))
	auctionPriceCaps := make(map[string]float64, len(cfg.Auctions))
	for _, ac := range cfg.Auctions {
		auctionPeriods[ac.Name] = ac.Period
		auctionPriceCaps[ac.Name] = ac.PriceCap
		mcfg := auction.Config{
			Name:           ac.Name,
			MarketID:       0,
			Period:         ac.Period,
			PriceCap:       ac.PriceCap,
			BidOffset:      ac.BidOffset,
			ClearingScalar: ac.ClearingScalar,
			Mode:           parseMode(ac.Mode),
			FixedQuantity:  ac.FixedQuantity,
			FixedPrice:     ac.FixedPrice,
			Latency:        time.Duration(ac.LatencyPeriods) * ac.Period,
			WarmupPeriods:  ac.WarmupPeriods,
		}
		m, err := auction.NewMarket(mcfg, logger)
		if err != nil {
			return nil, err
		}
		auctions[ac.Name] = m
	}

	registry := bridge.NewRegistry()

	var controllers []*controllerSlot
	for _, cc := range cfg.Controllers {
		market, ok := auctions[cc.Auction]
		if !ok {
			return nil, &simerr.ConfigurationError{Component: "engine", Field: "controllers." + cc.Name + ".auction", Reason: "references unknown auction " + cc.Auction}
		}
		ctlCfg := controllerConfigFrom(cc, auctionPriceCaps[cc.Auction], auctionPeriods[cc.Auction])
		ctl, err := controller.New(ctlCfg, logger)
		if err != nil {
			return nil, err
		}
		handle := registry.Register(ctl)
		controllers = append(controllers, &controllerSlot{name: cc.Name, auctionName: cc.Auction, ctl: ctl, market: market, handle: handle})
	}

	var generators []*generatorSlot
	for _, gc := range cfg.Generators {
		market, ok := auctions[gc.Auction]
		if !ok {
			return nil, &simerr.ConfigurationError{Component: "engine", Field: "generators." + gc.Name + ".auction", Reason: "references unknown auction " + gc.Auction}
		}
		gen, err := generator.New(generatorConfigFrom(gc, auctionPriceCaps[gc.Auction], auctionPeriods[gc.Auction]), logger)
		if err != nil {
			return nil, err
		}
		handle := registry.Register(gen)
		generators = append(generators, &generatorSlot{name: gc.Name, auctionName: gc.Auction, gen: gen, market: market, handle: handle})
	}

	var supervisor *supervisory.Collector
	if cfg.Supervisory.SortKey != "" {
		sc, err := supervisory.New(supervisory.Config{
			SortKey:    parseSortKey(cfg.Supervisory.SortKey),
			Droop:      cfg.Supervisory.Droop,
			Deadband:   cfg.Supervisory.Deadband,
			Nominal:    cfg.Supervisory.Nominal,
			MinTrigger: cfg.Supervisory.MinTrigger,
			MaxTrigger: cfg.Supervisory.MaxTrigger,
		})
		if err != nil {
			return nil, err
		}
		supervisor = sc
	}

	var bridgeClient *bridge.Client
	var bridgeFeed *bridge.Feed
	if cfg.Bridge.BaseURL != "" && !cfg.Simulation.DryRun {
		bridgeClient = bridge.NewClient(bridge.Config{BaseURL: cfg.Bridge.BaseURL, Timeout: cfg.Bridge.Timeout}, logger)
	}
	if cfg.Bridge.WSURL != "" && !cfg.Simulation.DryRun {
		bridgeFeed = bridge.NewFeed(cfg.Bridge.WSURL, logger)
	}

	st, err := store.Open(cfg.Store.DataDir)
	if err != nil {
		return nil, err
	}

	var dashEvents chan dashboard.Event
	if cfg.Dashboard.Enabled {
		dashEvents = make(chan dashboard.Event, 256)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Engine{
		cfg:             cfg,
		logger:          logger,
		auctions:        auctions,
		controllers:     controllers,
		generators:      generators,
		supervisor:      supervisor,
		bridgeClient:    bridgeClient,
		bridgeFeed:      bridgeFeed,
		registry:        registry,
		store:           st,
		monitor:         invariant.NewMonitor(logger),
		dashboardEvents: dashEvents,
		last:            make(map[string]types.MarketFrame),
		ctx:             ctx,
		cancel:          cancel,
	}, nil
}

// Start launches all background goroutines and the scheduler loop.
func (e *Engine) Start() error {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.monitor.Run(e.ctx)
	}()

	if e.bridgeFeed != nil {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			if err := e.bridgeFeed.Run(e.ctx); err != nil && e.ctx.Err() == nil {
				e.logger.Error("bridge feed error", "error", err)
			}
		}()
	}

	e.restoreCheckpoints()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.runScheduler()
	}()

	return nil
}

// Stop cancels all goroutines, persists final checkpoints, and closes
// resources. Blocks until every goroutine has exited.
func (e *Engine) Stop() {
	e.logger.Info("shutting down...")
	e.cancel()
	e.wg.Wait()

	e.persistCheckpoints()

	if e.bridgeFeed != nil {
		e.bridgeFeed.Close()
	}
	e.store.Close()

	e.logger.Info("shutdown complete")
}

func (e *Engine) restoreCheckpoints() {
	for _, cs := range e.controllers {
		ck, err := e.store.LoadCheckpoint(string(cs.handle))
		if err != nil || ck == nil {
			continue
		}
		e.logger.Info("restored controller checkpoint", "controller", cs.name, "setpoint", ck.Setpoint)
	}
}

func (e *Engine) persistCheckpoints() {
	for _, cs := range e.controllers {
		st := cs.ctl.State()
		ck := store.Checkpoint{Handle: string(cs.handle), Kind: "controller", Setpoint: st.Setpoint}
		if err := e.store.SaveCheckpoint(ck); err != nil {
			e.logger.Error("failed to save controller checkpoint", "controller", cs.name, "error", err)
		}
	}
	for _, gs := range e.generators {
		ck := store.Checkpoint{Handle: string(gs.handle), Kind: "generator", Committed: gs.gen.Committed()}
		if err := e.store.SaveCheckpoint(ck); err != nil {
			e.logger.Error("failed to save generator checkpoint", "generator", gs.name, "error", err)
		}
	}
}

func parseMode(s string) types.MarketMode {
	switch s {
	case "sellers_only":
		return types.ModeSellersOnly
	case "buyers_only":
		return types.ModeBuyersOnly
	case "fixed_seller":
		return types.ModeFixedSeller
	case "fixed_buyer":
		return types.ModeFixedBuyer
	default:
		return types.ModeNormal
	}
}

func parseSortKey(s string) types.SortKey {
	switch s {
	case "power_descending":
		return types.SortPowerDescending
	case "voltage_deviation":
		return types.SortVoltageDeviation
	case "worst_direction_voltage_deviation":
		return types.SortWorstDirectionVoltageDeviation
	default:
		return types.SortPowerAscending
	}
}
