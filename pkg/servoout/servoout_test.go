//go:build linux

package servoout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maxboels/quantum-tracer-il/pkg/control"
)

// Pin validation happens before any hardware access, so these run
// anywhere.
func TestOpen_RejectsInvalidPins(t *testing.T) {
	rng := control.DefaultServoRange()

	tests := []struct {
		name     string
		steering int
		throttle int
	}{
		{name: "non pwm pins", steering: 5, throttle: 6},
		{name: "one non pwm pin", steering: 18, throttle: 6},
		{name: "shared channel 12 18", steering: 12, throttle: 18},
		{name: "shared channel 13 19", steering: 13, throttle: 19},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Open(tt.steering, tt.throttle, rng)
			assert.Error(t, err)
			assert.Nil(t, out)
		})
	}
}
