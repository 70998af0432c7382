package pwmcap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThrottleNormalize(t *testing.T) {
	cal := DefaultThrottle()

	tests := []struct {
		name     string
		high     uint32
		period   uint32
		want     float32
		tolerant bool
	}{
		{"no signal", 0, 0, 0, false},
		{"high below floor", 10, 1111, 0, false},
		{"period below floor", 100, 150, 0, false},
		{"50% duty at 900Hz", 555, 1111, 50.0 / 70.0, true},
		{"35% duty is half throttle", 389, 1111, 0.5, true},
		{"70% duty is full throttle", 778, 1111, 1.0, true},
		{"above max duty saturates", 1000, 1111, 1.0, false},
		{"full duty saturates", 1111, 1111, 1.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cal.Normalize(tt.high, tt.period)
			if tt.tolerant {
				assert.InDelta(t, tt.want, got, 0.01)
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestThrottleNormalize_Monotonic(t *testing.T) {
	cal := DefaultThrottle()

	const period = 1111 // ~900 Hz
	prev := float32(0)
	for high := uint32(cal.MinHighUs); high <= period; high += 7 {
		got := cal.Normalize(high, period)
		assert.GreaterOrEqual(t, got, prev,
			"throttle must be non-decreasing in duty (high=%d)", high)
		assert.LessOrEqual(t, got, float32(1.0))
		prev = got
	}
	assert.Equal(t, float32(1.0), prev)
}

func TestSteeringNormalize(t *testing.T) {
	cal := DefaultSteering()

	tests := []struct {
		name     string
		high     uint32
		period   uint32
		want     float32
		tolerant bool
	}{
		{"no signal", 0, 0, 0, false},
		{"high below floor", 150, 20000, 0, false},
		{"period below floor", 1400, 1500, 0, false},
		{"neutral duty is exactly zero", 1400, 20000, 0, false}, // 7.0%
		{"half right", 1650, 20000, 0.5, true},                  // 8.25%
		{"full right", 1900, 20000, 1.0, true},                  // 9.5%
		{"half left", 1150, 20000, -0.5, true},                  // 5.75%
		{"full left", 900, 20000, -1.0, true},                   // 4.5%
		{"beyond right saturates", 3000, 20000, 1.0, false},
		{"beyond left saturates", 400, 2000, -1.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cal.Normalize(tt.high, tt.period)
			if tt.tolerant {
				assert.InDelta(t, tt.want, got, 0.01)
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDutyCycle(t *testing.T) {
	assert.Equal(t, float32(0), DutyCycle(100, 0), "zero period must not divide")
	assert.InDelta(t, 50.0, DutyCycle(555, 1110), 0.01)
	assert.InDelta(t, 7.0, DutyCycle(1400, 20000), 0.001)
}
