// Package vpd computes vapor-pressure deficit from temperature and relative
// humidity. VPD is the gap between how much moisture the air can hold and how
// much it actually holds, and is the metric of choice for plant transpiration
// health.
package vpd

import "math"

// Fallback is returned when the inputs cannot produce a meaningful result.
// Callers must treat it as a safe default, not an error signal.
const Fallback = 1.0

// Compute returns the vapor-pressure deficit in kPa using the Tetens
// approximation for saturation vapor pressure. It never fails: NaN or
// infinite inputs yield Fallback, and the result is clamped at zero.
func Compute(tempC, humidityPct float64) float64 {
	if math.IsNaN(tempC) || math.IsNaN(humidityPct) ||
		math.IsInf(tempC, 0) || math.IsInf(humidityPct, 0) {
		return Fallback
	}

	svp := 0.6107 * math.Exp((17.27*tempC)/(tempC+237.3))
	avp := (humidityPct / 100.0) * svp

	out := svp - avp
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return Fallback
	}
	return math.Max(0, out)
}
