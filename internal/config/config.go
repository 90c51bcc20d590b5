// Package config defines all configuration for the transactive energy
// simulator. Config is loaded from a YAML file (default: configs/config.yaml)
// with sensitive fields overridable via SIMD_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly to the YAML file structure.
type Config struct {
	Simulation  SimulationConfig            `mapstructure:"simulation"`
	Auctions    []AuctionConfig             `mapstructure:"auctions"`
	Controllers []ControllerConfig          `mapstructure:"controllers"`
	Generators  []GeneratorConfig           `mapstructure:"generators"`
	Supervisory SupervisoryConfig           `mapstructure:"supervisory"`
	Bridge      BridgeConfig                `mapstructure:"bridge"`
	Store       StoreConfig                 `mapstructure:"store"`
	Logging     LoggingConfig               `mapstructure:"logging"`
	Dashboard   DashboardConfig             `mapstructure:"dashboard"`
}

// SimulationConfig controls the discrete-event scheduler.
type SimulationConfig struct {
	StartTime time.Time     `mapstructure:"start_time"`
	StopTime  time.Time     `mapstructure:"stop_time"`
	Period    time.Duration `mapstructure:"period"`
	DryRun    bool          `mapstructure:"dry_run"`
}

// AuctionConfig configures one double-auction market.
type AuctionConfig struct {
	Name           string        `mapstructure:"name"`
	Period         time.Duration `mapstructure:"period"`
	PriceCap       float64       `mapstructure:"price_cap"`
	BidOffset      float64       `mapstructure:"bid_offset"`
	ClearingScalar float64       `mapstructure:"clearing_scalar"`
	Mode           string        `mapstructure:"mode"` // normal | sellers_only | buyers_only | fixed_seller | fixed_buyer
	FixedQuantity  float64       `mapstructure:"fixed_quantity"`
	FixedPrice     float64       `mapstructure:"fixed_price"`
	LatencyPeriods int           `mapstructure:"latency_periods"`
	WarmupPeriods  int           `mapstructure:"warmup_periods"`
}

// ControllerConfig configures one transactive controller.
type ControllerConfig struct {
	Name             string  `mapstructure:"name"`
	Auction          string  `mapstructure:"auction"`
	Mode             string  `mapstructure:"mode"` // ramp | double_ramp
	ResolveMode      string  `mapstructure:"resolve_mode"` // deadband | sliding
	RampLow          float64 `mapstructure:"ramp_low"`
	RampHigh         float64 `mapstructure:"ramp_high"`
	RangeLow         float64 `mapstructure:"range_low"`
	RangeHigh        float64 `mapstructure:"range_high"`
	HeatRampLow      float64 `mapstructure:"heat_ramp_low"`
	HeatRampHigh     float64 `mapstructure:"heat_ramp_high"`
	HeatRangeLow     float64 `mapstructure:"heat_range_low"`
	HeatRangeHigh    float64 `mapstructure:"heat_range_high"`
	CoolRampLow      float64 `mapstructure:"cool_ramp_low"`
	CoolRampHigh     float64 `mapstructure:"cool_ramp_high"`
	CoolRangeLow     float64 `mapstructure:"cool_range_low"`
	CoolRangeHigh    float64 `mapstructure:"cool_range_high"`
	HeatingSetpoint0 float64 `mapstructure:"heating_setpoint0"`
	CoolingSetpoint0 float64 `mapstructure:"cooling_setpoint0"`
	SlidingTimeDelay time.Duration `mapstructure:"sliding_time_delay"`
	Deadband         float64 `mapstructure:"deadband"`
	MinSetpoint      float64 `mapstructure:"min_setpoint"`
	MaxSetpoint      float64 `mapstructure:"max_setpoint"`
	BaseSetpoint     float64 `mapstructure:"base_setpoint"`
	Slider           float64 `mapstructure:"slider"`
	BidQuantity      float64 `mapstructure:"bid_quantity"`
	BidOffset        float64 `mapstructure:"bid_offset"`
	MarginMode       string  `mapstructure:"margin_mode"` // normal | prob
}

// GeneratorConfig configures one dispatchable supply-curve bidder.
type GeneratorConfig struct {
	Name          string        `mapstructure:"name"`
	Auction       string        `mapstructure:"auction"`
	RatedCapacity float64       `mapstructure:"rated_capacity"`
	CurveText     string        `mapstructure:"curve"`
	StartupCost   float64       `mapstructure:"startup_cost"`
	ShutdownCost  float64       `mapstructure:"shutdown_cost"`
	AmortizeRate  float64       `mapstructure:"amortize_rate"`
	MinRuntime    time.Duration `mapstructure:"min_runtime"`
	MinDowntime   time.Duration `mapstructure:"min_downtime"`
	LatencySlots  int           `mapstructure:"latency_slots"`
	EmissionsRate float64       `mapstructure:"emissions_rate"` // mass per MWh
}

// SupervisoryConfig configures the deferrable-load PFC trigger assignment.
type SupervisoryConfig struct {
	SortKey    string  `mapstructure:"sort_key"`
	Droop      float64 `mapstructure:"droop"`
	Deadband   float64 `mapstructure:"deadband"`
	Nominal    float64 `mapstructure:"nominal"`
	MinTrigger float64 `mapstructure:"min_trigger"`
	MaxTrigger float64 `mapstructure:"max_trigger"`
}

// BridgeConfig configures the co-simulation host connection.
type BridgeConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	WSURL   string        `mapstructure:"ws_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StoreConfig sets where controller/generator checkpoints are persisted.
type StoreConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DashboardConfig controls the telemetry server.
type DashboardConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	StaticDir      string   `mapstructure:"static_dir"`
}

// Load reads config from a YAML file with env var overrides.
// Sensitive/overridable fields use env vars: SIMD_BRIDGE_BASE_URL, SIMD_DRY_RUN.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("SIMD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if url := os.Getenv("SIMD_BRIDGE_BASE_URL"); url != "" {
		cfg.Bridge.BaseURL = url
	}
	if os.Getenv("SIMD_DRY_RUN") == "true" || os.Getenv("SIMD_DRY_RUN") == "1" {
		cfg.Simulation.DryRun = true
	}

	return &cfg, nil
}

// Validate checks all required fields and value ranges.
func (c *Config) Validate() error {
	if c.Simulation.Period <= 0 {
		return fmt.Errorf("simulation.period must be > 0")
	}
	if !c.Simulation.StopTime.After(c.Simulation.StartTime) {
		return fmt.Errorf("simulation.stop_time must be after simulation.start_time")
	}
	if len(c.Auctions) == 0 {
		return fmt.Errorf("at least one auction must be configured")
	}
	seen := make(map[string]bool, len(c.Auctions))
	for _, a := range c.Auctions {
		if a.Name == "" {
			return fmt.Errorf("auction name is required")
		}
		if seen[a.Name] {
			return fmt.Errorf("duplicate auction name %q", a.Name)
		}
		seen[a.Name] = true
		if a.Period <= 0 {
			return fmt.Errorf("auction %q: period must be > 0", a.Name)
		}
		if a.PriceCap <= 0 {
			return fmt.Errorf("auction %q: price_cap must be > 0", a.Name)
		}
	}
	for _, ctl := range c.Controllers {
		if ctl.Auction == "" {
			return fmt.Errorf("controller %q: auction is required", ctl.Name)
		}
		if !seen[ctl.Auction] {
			return fmt.Errorf("controller %q: references unknown auction %q", ctl.Name, ctl.Auction)
		}
	}
	for _, g := range c.Generators {
		if g.Auction == "" {
			return fmt.Errorf("generator %q: auction is required", g.Name)
		}
		if !seen[g.Auction] {
			return fmt.Errorf("generator %q: references unknown auction %q", g.Name, g.Auction)
		}
		if g.RatedCapacity <= 0 {
			return fmt.Errorf("generator %q: rated_capacity must be > 0", g.Name)
		}
	}
	if c.Dashboard.Enabled && c.Dashboard.Port == 0 {
		return fmt.Errorf("dashboard.port is required when dashboard.enabled is true")
	}
	return nil
}
