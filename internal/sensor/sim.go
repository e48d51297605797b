package sensor

import (
	"context"
	"math/rand"
	"sync"
)

// Sim is a random-walk sensor for bring-up and demos. It drifts around the
// configured center values and stays inside physically plausible bounds.
type Sim struct {
	mu       sync.Mutex
	temp     float64
	humidity float64
	rng      *rand.Rand
}

// NewSim seeds a simulated sensor at the given starting point.
func NewSim(tempC, humidityPct float64, seed int64) *Sim {
	return &Sim{
		temp:     tempC,
		humidity: humidityPct,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Read never fails; each call steps the walk.
func (s *Sim) Read(ctx context.Context) (float64, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.temp = clamp(s.temp+s.rng.Float64()-0.5, -10, 45)
	s.humidity = clamp(s.humidity+(s.rng.Float64()-0.5)*2, 5, 100)
	return s.temp, s.humidity, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
