package validation

import (
	"errors"
	"math"
)

// Errors returned for out-of-range washout parameters, surfaced verbatim
// in 400 responses.
var (
	ErrPM25Range     = errors.New("pm25 must be greater than 0 and at most 1000 µg/m³")
	ErrRainRange     = errors.New("rain_mm must be greater than 0 and at most 1000 mm/h")
	ErrDurationRange = errors.New("duration_h must be greater than 0 and at most 168 hours")
)

// ValidateWashoutParams enforces the washout calculator's preconditions:
// 0 < pm25 ≤ 1000, 0 < rainMM ≤ 1000, 0 < durationH ≤ 168. NaN and ±Inf
// fail the range checks, so the calculator is never invoked with a value
// that would poison the result. strconv.ParseFloat accepts "NaN" and
// "Inf", which is why the check cannot rely on parse success alone.
func ValidateWashoutParams(pm25, rainMM, durationH float64) error {
	if !inRange(pm25, 1000) {
		return ErrPM25Range
	}
	if !inRange(rainMM, 1000) {
		return ErrRainRange
	}
	if !inRange(durationH, 168) {
		return ErrDurationRange
	}
	return nil
}

// inRange reports whether v is a finite value in (0, max].
func inRange(v, max float64) bool {
	return !math.IsNaN(v) && v > 0 && v <= max
}
