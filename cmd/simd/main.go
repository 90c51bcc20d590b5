// Command simd runs the transactive energy simulator.
//
// Architecture:
//
//	main.go                — cobra root command, logger setup
//	run.go                 — `simd run`: loads config, starts the engine, waits for SIGINT/SIGTERM
//	cleartest.go            — `simd clear-test`: clears one synthetic double-auction pass and prints the frame
//	curveparse.go           — `simd curve-parse`: parses a generator supply-curve string and prints its segments
//	internal/engine         — orchestrator: wires auctions, controllers, generators, supervisory, bridge
//	internal/curve          — bid curve
//	internal/auction        — double-auction clearing engine
//	internal/controller     — transactive controller (RAMP / DOUBLE_RAMP)
//	internal/generator      — dispatchable supply-curve bidder
//	internal/supervisory    — deferrable-load PFC trigger assignment
//	internal/bridge         — REST/WebSocket client to the co-simulation host
//	internal/store          — JSON checkpoint persistence
//	internal/dashboard      — telemetry HTTP/WebSocket server + /metrics
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "simd",
	Short: "simd runs and exercises the transactive energy double-auction simulator.",
	Long:  "simd runs and exercises the transactive energy double-auction simulator.",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "configs/config.yaml", "path to the simulator config file")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(clearTestCmd)
	rootCmd.AddCommand(curveParseCmd)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
