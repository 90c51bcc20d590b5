package generator

import "time"

// EmissionsRate is a generator's emissions intensity, purely additive
// telemetry with no coupling to clearing or commitment decisions.
type EmissionsRate struct {
	RatePerMWh float64 // kg CO2 per MWh of output
}

// EmissionsAccumulator tracks cumulative emissions and output energy for a
// generator over the life of a run.
type EmissionsAccumulator struct {
	Total       float64 // cumulative kg CO2
	TotalOutput float64 // cumulative MWh delivered
	Periods     int
}

// Accumulate adds one period's worth of output at the given rate.
func (a *EmissionsAccumulator) Accumulate(power float64, period time.Duration, rate EmissionsRate) {
	mwh := power * period.Hours()
	a.TotalOutput += mwh
	a.Total += mwh * rate.RatePerMWh
	a.Periods++
}

// CapacityFactor returns the average output energy per observed period
// (TotalOutput / Periods) divided by ratedEnergy, the energy delivered at
// rated capacity over one period, or 0 if no periods have been observed.
func (a *EmissionsAccumulator) CapacityFactor(ratedEnergy float64) float64 {
	if a.Periods == 0 || ratedEnergy == 0 {
		return 0
	}
	avgEnergy := a.TotalOutput / float64(a.Periods)
	return avgEnergy / ratedEnergy
}
