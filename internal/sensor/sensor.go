// Package sensor defines the capability the monitor polls for
// temperature/humidity pairs, plus the implementations shipped in-tree.
// Real hardware drivers satisfy Sensor from outside this module.
package sensor

import (
	"context"
	"errors"
)

// ErrRead is returned when a sensor cannot produce a pair. Callers recover
// by substituting the last known good reading.
var ErrRead = errors.New("sensor read failed")

// Sensor produces one temperature (°C) and relative humidity (%) pair per
// call. Reads are short blocking operations bounded by ctx.
type Sensor interface {
	Read(ctx context.Context) (tempC, humidityPct float64, err error)
}
