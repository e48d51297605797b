// Package alerts implements threshold evaluation of sensor readings and a
// bounded log of past violations.
package alerts

import "sync"

// Thresholds holds the per-channel alarm bounds. No relationship between a
// Min and its Max is enforced: an inverted pair is legal and simply makes one
// side of the comparison unreachable (or always reachable). Validation here
// would change observable behavior, so there is none.
type Thresholds struct {
	TempMin     float64
	TempMax     float64
	HumidityMin float64
	HumidityMax float64
	VPDMin      float64
	VPDMax      float64
}

// DefaultThresholds are tuned for an indoor grow environment.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TempMin:     20.0,
		TempMax:     26.0,
		HumidityMin: 40.0,
		HumidityMax: 60.0,
		VPDMin:      0.5,
		VPDMax:      1.2,
	}
}

// Config is the mutable alarm configuration, updated from the web form while
// the monitor and the background sampler read it.
type Config struct {
	mu      sync.RWMutex
	t       Thresholds
	enabled bool
}

// NewConfig returns a Config with the given thresholds.
func NewConfig(t Thresholds, enabled bool) *Config {
	return &Config{t: t, enabled: enabled}
}

// Thresholds returns a copy of the current bounds.
func (c *Config) Thresholds() Thresholds {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.t
}

// SetThresholds replaces the bounds.
func (c *Config) SetThresholds(t Thresholds) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// Enabled reports whether alert notification is on. Enablement gates
// notification only; violations are detected and logged regardless.
func (c *Config) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// SetEnabled toggles alert notification.
func (c *Config) SetEnabled(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = on
}
