//go:build linux

// Package servoout drives servo and ESC pulses through the Raspberry
// Pi hardware PWM peripheral. Only the hardware PWM pins can hold a
// pulse width between updates without the process bit-banging it.
package servoout

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"

	"github.com/maxboels/quantum-tracer-il/pkg/control"
)

const (
	pwmFreqHz = 50

	// 20000 divisions of the 20 ms frame give 1 us resolution, so
	// pulse widths in microseconds map directly onto duty counts.
	cycleLen = 20000
)

// Hardware PWM capable pins on the 40-pin header. Pins 12/18 and 13/19
// share a PWM channel, so steering and throttle must not use a shared
// pair.
var pwmPins = map[int]bool{
	12: true,
	13: true,
	18: true,
	19: true,
}

// Output holds the two actuator pins and the pulse range they map to.
type Output struct {
	steering rpio.Pin
	throttle rpio.Pin
	rng      control.ServoRange
}

// Open maps the GPIO register range and configures both pins for 50 Hz
// PWM parked at neutral.
func Open(steeringPin, throttlePin int, rng control.ServoRange) (*Output, error) {
	if !pwmPins[steeringPin] || !pwmPins[throttlePin] {
		return nil, fmt.Errorf("servoout: pins %d,%d are not hardware PWM pins", steeringPin, throttlePin)
	}
	if steeringPin%6 == throttlePin%6 {
		return nil, fmt.Errorf("servoout: pins %d,%d share a PWM channel", steeringPin, throttlePin)
	}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("servoout: open gpio: %w", err)
	}

	o := &Output{
		steering: rpio.Pin(steeringPin),
		throttle: rpio.Pin(throttlePin),
		rng:      rng,
	}
	for _, pin := range []rpio.Pin{o.steering, o.throttle} {
		pin.Mode(rpio.Pwm)
		pin.Freq(pwmFreqHz * cycleLen)
	}
	o.Neutral()

	return o, nil
}

// Apply holds the controller's current pulse widths on both pins.
func (o *Output) Apply(c *control.Controller) {
	steeringUs, throttleUs := c.OutputPulses(o.rng)
	o.steering.DutyCycle(steeringUs, cycleLen)
	o.throttle.DutyCycle(throttleUs, cycleLen)
}

// Neutral parks both outputs on the neutral pulse.
func (o *Output) Neutral() {
	o.steering.DutyCycle(o.rng.NeutralUs, cycleLen)
	o.throttle.DutyCycle(o.rng.NeutralUs, cycleLen)
}

// Close parks the outputs and unmaps the GPIO range.
func (o *Output) Close() error {
	o.Neutral()
	return rpio.Close()
}
