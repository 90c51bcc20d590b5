package engine

import (
	"time"

	"transactive-sim/internal/config"
	"transactive-sim/internal/controller"
	"transactive-sim/internal/generator"
)

func controllerConfigFrom(cc config.ControllerConfig, priceCap float64, period time.Duration) controller.Config {
	mode := controller.Ramp
	if cc.Mode == "double_ramp" {
		mode = controller.DoubleRamp
	}
	resolve := controller.Deadband
	if cc.ResolveMode == "sliding" {
		resolve = controller.Sliding
	}
	margin := controller.MarginNormal
	if cc.MarginMode == "prob" {
		margin = controller.MarginProb
	}
	return controller.Config{
		Mode:             mode,
		ResolveMode:      resolve,
		MarginMode:       margin,
		BaseSetpoint:     cc.BaseSetpoint,
		RampLow:          cc.RampLow,
		RampHigh:         cc.RampHigh,
		RangeLow:         cc.RangeLow,
		RangeHigh:        cc.RangeHigh,
		HeatRampLow:      cc.HeatRampLow,
		HeatRampHigh:     cc.HeatRampHigh,
		HeatRangeLow:     cc.HeatRangeLow,
		HeatRangeHigh:    cc.HeatRangeHigh,
		CoolRampLow:      cc.CoolRampLow,
		CoolRampHigh:     cc.CoolRampHigh,
		CoolRangeLow:     cc.CoolRangeLow,
		CoolRangeHigh:    cc.CoolRangeHigh,
		HeatingSetpoint0: cc.HeatingSetpoint0,
		CoolingSetpoint0: cc.CoolingSetpoint0,
		SlidingTimeDelay: cc.SlidingTimeDelay,
		Deadband:         cc.Deadband,
		MinSetpoint:      cc.MinSetpoint,
		MaxSetpoint:      cc.MaxSetpoint,
		Slider:           cc.Slider,
		BidQuantity:      cc.BidQuantity,
		BidOffset:        cc.BidOffset,
		PriceCap:         priceCap,
		Period:           period,
	}
}

func generatorConfigFrom(gc config.GeneratorConfig, priceCap float64, period time.Duration) generator.Config {
	return generator.Config{
		RatedCapacity: gc.RatedCapacity,
		CurveText:     gc.CurveText,
		PriceCap:      priceCap,
		StartupCost:   gc.StartupCost,
		ShutdownCost:  gc.ShutdownCost,
		AmortizeRate:  gc.AmortizeRate,
		Period:        period,
		MinRuntime:    gc.MinRuntime,
		MinDowntime:   gc.MinDowntime,
		LatencySlots:  maxInt(gc.LatencySlots, 1),
		Emissions:     generator.EmissionsRate{RatePerMWh: gc.EmissionsRate},
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
