package control

// ServoRange maps normalized control values onto servo pulse widths. The
// mapping only yields pulse widths; holding the pulse on the pin is the
// job of a hardware PWM peripheral, never a busy-wait in the loop.
type ServoRange struct {
	MinUs     uint32
	NeutralUs uint32
	MaxUs     uint32
}

// DefaultServoRange is the standard 1000-2000 us range with 1500 us
// neutral used by hobby servos and ESCs.
func DefaultServoRange() ServoRange {
	return ServoRange{MinUs: 1000, NeutralUs: 1500, MaxUs: 2000}
}

// SteeringPulse converts steering in [-1, 1] to a pulse width. Zero maps
// to the neutral pulse.
func (r ServoRange) SteeringPulse(steering float32) uint32 {
	if steering < -1 {
		steering = -1
	} else if steering > 1 {
		steering = 1
	}
	if steering >= 0 {
		return r.NeutralUs + uint32(steering*float32(r.MaxUs-r.NeutralUs)+0.5)
	}
	return r.NeutralUs - uint32(-steering*float32(r.NeutralUs-r.MinUs)+0.5)
}

// ThrottlePulse converts throttle in [0, 1] to a pulse width. Zero
// throttle maps to the neutral pulse, full throttle to the maximum.
func (r ServoRange) ThrottlePulse(throttle float32) uint32 {
	if throttle < 0 {
		throttle = 0
	} else if throttle > 1 {
		throttle = 1
	}
	return r.NeutralUs + uint32(throttle*float32(r.MaxUs-r.NeutralUs)+0.5)
}

// OutputPulses maps the controller's current target onto the two actuator
// pulse widths. In manual mode both outputs are neutral; the passthrough
// hardware drives the actuators directly and these values are what the
// generator holds if it is left enabled.
func (c *Controller) OutputPulses(r ServoRange) (steeringUs, throttleUs uint32) {
	if !c.Active() {
		return r.NeutralUs, r.NeutralUs
	}
	return r.SteeringPulse(c.steering), r.ThrottlePulse(c.throttle)
}
