package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"transactive-sim/internal/config"
	"transactive-sim/internal/dashboard"
	"transactive-sim/internal/engine"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulator until SIGINT/SIGTERM (periods stop advancing at the configured stop time)",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg.Logging.Level, cfg.Logging.Format)

	eng, err := engine.New(*cfg, logger)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	var dashServer *dashboard.Server
	if cfg.Dashboard.Enabled {
		dashServer = dashboard.NewServer(dashboard.Config{
			Port:           cfg.Dashboard.Port,
			AllowedOrigins: cfg.Dashboard.AllowedOrigins,
			StaticDir:      cfg.Dashboard.StaticDir,
		}, eng, eng.Collectors(), logger)
		go func() {
			if err := dashServer.Start(); err != nil {
				logger.Error("dashboard server failed", "error", err)
			}
		}()
		logger.Info("dashboard started", "url", fmt.Sprintf("http://localhost:%d", cfg.Dashboard.Port))
	}

	if err := eng.Start(); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	if cfg.Simulation.DryRun {
		logger.Warn("DRY-RUN MODE — no bridge calls will be made")
	}

	logger.Info("simulator started",
		"auctions", len(cfg.Auctions),
		"controllers", len(cfg.Controllers),
		"generators", len(cfg.Generators),
		"dry_run", cfg.Simulation.DryRun,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	if dashServer != nil {
		if err := dashServer.Stop(); err != nil {
			logger.Error("failed to stop dashboard", "error", err)
		}
	}

	eng.Stop()
	return nil
}
