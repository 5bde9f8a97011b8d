package washout

import "math"

// DefaultCoefficient is the empirical washout coefficient used when no
// override is configured or the configured value is unparseable.
const DefaultCoefficient = 0.08

// Result is the outcome of a washout calculation.
type Result struct {
	Initial     float64 `json:"initial"`
	RainfallMM  float64 `json:"rainfall_mm"`
	Final       float64 `json:"final"`
	Coefficient float64 `json:"washout_coefficient"`
}

// Compute applies exponential rain washout to an initial PM2.5
// concentration: final = pm25 * exp(-k * rain * duration). Inputs are
// assumed range-validated at the API boundary. The final value is clamped
// to zero against floating-point underflow and rounded to one decimal.
func Compute(pm25, rainMMPerHour, durationH, k float64) Result {
	rainfall := rainMMPerHour * durationH
	final := pm25 * math.Exp(-k*rainfall)
	if final < 0 {
		final = 0
	}
	return Result{
		Initial:     pm25,
		RainfallMM:  rainfall,
		Final:       math.Round(final*10) / 10,
		Coefficient: k,
	}
}
