package vpd

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name     string
		temp     float64
		humidity float64
		want     float64
		delta    float64
	}{
		{
			name:     "reference point 25C 50%",
			temp:     25.0,
			humidity: 50.0,
			want:     1.58,
			delta:    0.01,
		},
		{
			name:     "saturated air has zero deficit",
			temp:     25.0,
			humidity: 100.0,
			want:     0.0,
			delta:    0.001,
		},
		{
			name:     "dry air equals full saturation pressure",
			temp:     20.0,
			humidity: 0.0,
			want:     2.34,
			delta:    0.01,
		},
		{
			name:     "cold and humid",
			temp:     5.0,
			humidity: 90.0,
			want:     0.087,
			delta:    0.005,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.temp, tt.humidity)
			assert.InDelta(t, tt.want, got, tt.delta)
		})
	}
}

func TestComputeNeverNegative(t *testing.T) {
	// Oversaturated input must clamp at zero rather than go negative.
	got := Compute(25.0, 120.0)
	assert.GreaterOrEqual(t, got, 0.0)
}

func TestComputeFallback(t *testing.T) {
	assert.Equal(t, Fallback, Compute(math.NaN(), 50.0))
	assert.Equal(t, Fallback, Compute(25.0, math.NaN()))
	assert.Equal(t, Fallback, Compute(math.Inf(1), 50.0))
	assert.Equal(t, Fallback, Compute(25.0, math.Inf(-1)))
}
